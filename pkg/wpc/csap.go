package wpc

import (
	"github.com/wirepas/wpc-go/pkg/frame"
	"github.com/wirepas/wpc-go/pkg/sap"
	"github.com/wirepas/wpc-go/pkg/wpcerr"
)

// GetCSAPAttribute reads a CSAP (network configuration) attribute.
func (n *Node) GetCSAPAttribute(attrID uint16) ([]byte, wpcerr.Result, error) {
	req := frame.Frame{
		PrimitiveID: sap.CSAPAttributeReadRequest,
		Payload:     sap.AttributeReadRequest{AttributeID: attrID}.Encode(),
	}
	confirm, err := n.sendRequest(req, DefaultConfirmTimeout)
	if err != nil {
		return nil, 0, err
	}
	c, err := sap.DecodeAttributeReadConfirm(confirm.Payload)
	if err != nil {
		return nil, 0, err
	}
	return c.Value, sap.ResultFor(sap.CSAPAttributeReadRequest, c.Result), nil
}

// SetCSAPAttribute writes a CSAP attribute. value is truncated/zero-padded
// to sap.AttributeValueSize on the wire.
func (n *Node) SetCSAPAttribute(attrID uint16, value []byte) (wpcerr.Result, error) {
	req := frame.Frame{
		PrimitiveID: sap.CSAPAttributeWriteRequest,
		Payload:     sap.AttributeWriteRequest{AttributeID: attrID, Value: value}.Encode(),
	}
	confirm, err := n.sendRequest(req, DefaultConfirmTimeout)
	if err != nil {
		return 0, err
	}
	c, err := sap.DecodeGenericConfirm(confirm.Payload)
	if err != nil {
		return 0, err
	}
	return sap.ResultFor(sap.CSAPAttributeWriteRequest, c.Result), nil
}

// FactoryReset asks the node to erase its persistent configuration.
func (n *Node) FactoryReset() (wpcerr.Result, error) {
	req := frame.Frame{PrimitiveID: sap.CSAPFactoryResetRequest}
	confirm, err := n.sendRequest(req, DefaultConfirmTimeout)
	if err != nil {
		return 0, err
	}
	c, err := sap.DecodeGenericConfirm(confirm.Payload)
	if err != nil {
		return 0, err
	}
	return sap.ResultFor(sap.CSAPFactoryResetRequest, c.Result), nil
}
