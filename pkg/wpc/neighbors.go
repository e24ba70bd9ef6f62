package wpc

import (
	"github.com/wirepas/wpc-go/pkg/frame"
	"github.com/wirepas/wpc-go/pkg/sap"
	"github.com/wirepas/wpc-go/pkg/wpcerr"
)

// Neighbor is the public shape of sap.NeighborInfo.
type Neighbor = sap.NeighborInfo

// ScanNeighbors asks the node to start a neighbor scan. Completion is
// reported asynchronously via Callbacks.OnScanNeighborsDone; the caller
// then retrieves results with GetNeighbors.
func (n *Node) ScanNeighbors() (wpcerr.Result, error) {
	req := frame.Frame{PrimitiveID: sap.MSAPScanNeighborsRequest}
	confirm, err := n.sendRequest(req, DefaultConfirmTimeout)
	if err != nil {
		return 0, err
	}
	c, err := sap.DecodeGenericConfirm(confirm.Payload)
	if err != nil {
		return 0, err
	}
	return sap.ResultFor(sap.MSAPScanNeighborsRequest, c.Result), nil
}

// GetNeighbors retrieves the node's current neighbor table.
func (n *Node) GetNeighbors() ([]Neighbor, wpcerr.Result, error) {
	req := frame.Frame{PrimitiveID: sap.MSAPGetNeighborsRequest}
	confirm, err := n.sendRequest(req, DefaultConfirmTimeout)
	if err != nil {
		return nil, 0, err
	}
	c, err := sap.DecodeGetNeighborsConfirm(confirm.Payload)
	if err != nil {
		return nil, 0, err
	}
	return c.Neighbors, sap.ResultFor(sap.MSAPGetNeighborsRequest, c.Result), nil
}
