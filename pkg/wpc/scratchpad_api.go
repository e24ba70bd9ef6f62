package wpc

import (
	"time"

	"github.com/wirepas/wpc-go/pkg/frame"
	"github.com/wirepas/wpc-go/pkg/sap"
	"github.com/wirepas/wpc-go/pkg/wpcerr"
)

// Scratchpad confirm timeouts, grounded on spec §4.2's named overrides:
// "scratchpad start/clear use 45s, scratchpad block writes 5s".
const (
	ScratchpadStartTimeout = 45 * time.Second
	ScratchpadClearTimeout = 45 * time.Second
	ScratchpadBlockTimeout = 5 * time.Second
)

// ScratchpadStart begins an upload of a new scratchpad image of the given
// total length, tagged with sequenceNumber.
func (n *Node) ScratchpadStart(length uint32, sequenceNumber uint8) (wpcerr.Result, error) {
	req := frame.Frame{
		PrimitiveID: sap.MSAPScratchpadStartRequest,
		Payload:     sap.ScratchpadStartRequest{Length: length, SequenceNumber: sequenceNumber}.Encode(),
	}
	confirm, err := n.sendRequest(req, ScratchpadStartTimeout)
	if err != nil {
		return 0, err
	}
	c, err := sap.DecodeGenericConfirm(confirm.Payload)
	if err != nil {
		return 0, err
	}
	return sap.ResultFor(sap.MSAPScratchpadStartRequest, c.Result), nil
}

// ScratchpadWriteBlock writes one block of a running scratchpad upload.
func (n *Node) ScratchpadWriteBlock(startAddress uint32, data []byte) (wpcerr.Result, error) {
	payload, err := sap.ScratchpadBlockRequest{StartAddress: startAddress, Data: data}.Encode()
	if err != nil {
		return 0, err
	}
	req := frame.Frame{PrimitiveID: sap.MSAPScratchpadBlockRequest, Payload: payload}
	confirm, err := n.sendRequest(req, ScratchpadBlockTimeout)
	if err != nil {
		return 0, err
	}
	c, err := sap.DecodeGenericConfirm(confirm.Payload)
	if err != nil {
		return 0, err
	}
	return sap.ResultFor(sap.MSAPScratchpadBlockRequest, c.Result), nil
}

// ScratchpadReadBlock reads one block of a stored scratchpad image back.
func (n *Node) ScratchpadReadBlock(startAddress uint32, length uint8) ([]byte, wpcerr.Result, error) {
	req := frame.Frame{
		PrimitiveID: sap.MSAPScratchpadBlockReadRequest,
		Payload:     sap.ScratchpadBlockReadRequest{StartAddress: startAddress, Length: length}.Encode(),
	}
	confirm, err := n.sendRequest(req, DefaultConfirmTimeout)
	if err != nil {
		return nil, 0, err
	}
	c, err := sap.DecodeScratchpadBlockReadConfirm(confirm.Payload)
	if err != nil {
		return nil, 0, err
	}
	return c.Data, sap.ResultFor(sap.MSAPScratchpadBlockReadRequest, c.Result), nil
}

// ScratchpadStatus mirrors sap.ScratchpadStatus for the public surface.
type ScratchpadStatus = sap.ScratchpadStatus

// GetScratchpadStatus reads the currently stored and currently processed
// scratchpad metadata.
func (n *Node) GetScratchpadStatus() (ScratchpadStatus, wpcerr.Result, error) {
	req := frame.Frame{PrimitiveID: sap.MSAPScratchpadStatusRequest}
	confirm, err := n.sendRequest(req, DefaultConfirmTimeout)
	if err != nil {
		return ScratchpadStatus{}, 0, err
	}
	status, err := sap.DecodeScratchpadStatus(confirm.Payload)
	if err != nil {
		return ScratchpadStatus{}, 0, err
	}
	// Scratchpad status confirms carry no dedicated result byte in the
	// original shape (the metadata itself signals validity); surface OK
	// whenever decode succeeded.
	return status, wpcerr.ResultOK, nil
}

// ScratchpadClear erases the stored scratchpad image.
func (n *Node) ScratchpadClear() (wpcerr.Result, error) {
	req := frame.Frame{PrimitiveID: sap.MSAPScratchpadClearRequest}
	confirm, err := n.sendRequest(req, ScratchpadClearTimeout)
	if err != nil {
		return 0, err
	}
	c, err := sap.DecodeGenericConfirm(confirm.Payload)
	if err != nil {
		return 0, err
	}
	return sap.ResultFor(sap.MSAPScratchpadClearRequest, c.Result), nil
}

// ScratchpadUpdate asks the node to act on the stored scratchpad
// (spec §6.2's scratchpad-update primitive).
func (n *Node) ScratchpadUpdate(action sap.ScratchpadUpdateAction) (wpcerr.Result, error) {
	req := frame.Frame{
		PrimitiveID: sap.MSAPScratchpadUpdateRequest,
		Payload:     sap.ScratchpadUpdateRequest{Action: action}.Encode(),
	}
	confirm, err := n.sendRequest(req, ScratchpadStartTimeout)
	if err != nil {
		return 0, err
	}
	c, err := sap.DecodeGenericConfirm(confirm.Payload)
	if err != nil {
		return 0, err
	}
	return sap.ResultFor(sap.MSAPScratchpadUpdateRequest, c.Result), nil
}

// SetScratchpadTarget writes the remote-update target the node should
// propagate to its neighbors.
func (n *Node) SetScratchpadTarget(targetSeq, targetCRC uint16, action, param uint8) (wpcerr.Result, error) {
	req := frame.Frame{
		PrimitiveID: sap.MSAPScratchpadTargetWriteReq,
		Payload: sap.ScratchpadTargetWriteRequest{
			TargetSequence: targetSeq, TargetCRC: targetCRC, Action: action, Param: param,
		}.Encode(),
	}
	confirm, err := n.sendRequest(req, DefaultConfirmTimeout)
	if err != nil {
		return 0, err
	}
	c, err := sap.DecodeGenericConfirm(confirm.Payload)
	if err != nil {
		return 0, err
	}
	return sap.ResultFor(sap.MSAPScratchpadTargetWriteReq, c.Result), nil
}

// GetScratchpadTarget reads back the currently configured remote-update
// target.
func (n *Node) GetScratchpadTarget() (sap.ScratchpadTargetReadConfirm, error) {
	req := frame.Frame{PrimitiveID: sap.MSAPScratchpadTargetReadReq}
	confirm, err := n.sendRequest(req, DefaultConfirmTimeout)
	if err != nil {
		return sap.ScratchpadTargetReadConfirm{}, err
	}
	return sap.DecodeScratchpadTargetReadConfirm(confirm.Payload)
}

// GetImageRemoteStatus reads how the remote scratchpad update is currently
// propagating through the network.
func (n *Node) GetImageRemoteStatus() (ImageRemoteStatus, wpcerr.Result, error) {
	req := frame.Frame{PrimitiveID: sap.MSAPImageRemoteStatusRequest}
	confirm, err := n.sendRequest(req, DefaultConfirmTimeout)
	if err != nil {
		return ImageRemoteStatus{}, 0, err
	}
	status, err := sap.DecodeImageRemoteStatusConfirm(confirm.Payload)
	if err != nil {
		return ImageRemoteStatus{}, 0, err
	}
	return status, wpcerr.ResultOK, nil
}

// TriggerImageRemoteUpdate triggers propagation of the already-written
// remote-update target.
func (n *Node) TriggerImageRemoteUpdate() (wpcerr.Result, error) {
	req := frame.Frame{PrimitiveID: sap.MSAPImageRemoteUpdateRequest}
	confirm, err := n.sendRequest(req, DefaultConfirmTimeout)
	if err != nil {
		return 0, err
	}
	c, err := sap.DecodeGenericConfirm(confirm.Payload)
	if err != nil {
		return 0, err
	}
	return sap.ResultFor(sap.MSAPImageRemoteUpdateRequest, c.Result), nil
}
