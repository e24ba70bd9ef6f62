package wpc

import (
	"time"

	"github.com/wirepas/wpc-go/pkg/frame"
	"github.com/wirepas/wpc-go/pkg/sap"
	"github.com/wirepas/wpc-go/pkg/wpcerr"
)

// SendDataOptions configures one SendData call.
type SendDataOptions struct {
	QoS       uint8
	TxOptions uint8

	// BufferingDelay, when non-zero, selects the time-to-travel request
	// variant and bounds how long the node may buffer before giving up.
	BufferingDelay time.Duration

	// OnSent is registered in the pending-tx-indication table and invoked
	// exactly once when the node's delayed delivery report arrives.
	// Ignored unless TxOptions has TxOptionIndicationWanted set.
	OnSent OnSentFunc
}

// SendData transmits apdu to destAddr/destEndpoint from srcEndpoint,
// correlated by pduID. Returns once the node has confirmed it accepted the
// frame (not once it was actually delivered over the air — that outcome,
// if requested via opts.OnSent, arrives later through the dispatcher).
func (n *Node) SendData(pduID uint16, srcEndpoint, destEndpoint uint8, destAddr uint32, apdu []byte, opts SendDataOptions) (wpcerr.Result, error) {
	if opts.TxOptions&sap.TxOptionIndicationWanted != 0 && opts.OnSent != nil {
		n.txTable.register(pduID, opts.OnSent)
	}

	base := sap.DataTxRequest{
		PduID: pduID, SrcEndpoint: srcEndpoint, DestAddr: destAddr,
		DestEndpoint: destEndpoint, QoS: opts.QoS, TxOptions: opts.TxOptions, APDU: apdu,
	}

	var payload []byte
	var err error
	primitive := sap.DSAPDataTxRequest
	if opts.BufferingDelay > 0 {
		primitive = sap.DSAPDataTxTTRequest
		payload, err = sap.DataTxTTRequest{
			DataTxRequest:  base,
			BufferingDelay: sap.DurationToTicks(opts.BufferingDelay),
		}.Encode()
	} else {
		payload, err = base.Encode()
	}
	if err != nil {
		return 0, err
	}

	req := frame.Frame{PrimitiveID: primitive, Payload: payload}
	confirm, err := n.sendRequest(req, DefaultConfirmTimeout)
	if err != nil {
		return 0, err
	}
	c, err := sap.DecodeDataTxConfirm(confirm.Payload)
	if err != nil {
		return 0, err
	}
	return sap.ResultFor(primitive, c.Result), nil
}

// SendDataFragment transmits one fragment of a larger APDU identified by
// fullPacketID, at byte offset offset, marking last when this is the
// greatest-offset fragment (spec §6.3's fragment_offset_flag encoding).
func (n *Node) SendDataFragment(pduID uint16, srcEndpoint, destEndpoint uint8, destAddr uint32, fullPacketID uint16, offset uint16, last bool, fragment []byte, opts SendDataOptions) (wpcerr.Result, error) {
	if opts.TxOptions&sap.TxOptionIndicationWanted != 0 && opts.OnSent != nil {
		n.txTable.register(pduID, opts.OnSent)
	}

	flag, err := sap.PackFragmentOffsetFlag(offset, last)
	if err != nil {
		return 0, err
	}

	payload, err := sap.DataTxFragmentedRequest{
		DataTxTTRequest: sap.DataTxTTRequest{
			DataTxRequest: sap.DataTxRequest{
				PduID: pduID, SrcEndpoint: srcEndpoint, DestAddr: destAddr,
				DestEndpoint: destEndpoint, QoS: opts.QoS, TxOptions: opts.TxOptions, APDU: fragment,
			},
			BufferingDelay: sap.DurationToTicks(opts.BufferingDelay),
		},
		FullPacketID:       fullPacketID,
		FragmentOffsetFlag: flag,
	}.Encode()
	if err != nil {
		return 0, err
	}

	req := frame.Frame{PrimitiveID: sap.DSAPDataTxFragmentedRequest, Payload: payload}
	confirm, err := n.sendRequest(req, DefaultConfirmTimeout)
	if err != nil {
		return 0, err
	}
	c, err := sap.DecodeDataTxConfirm(confirm.Payload)
	if err != nil {
		return 0, err
	}
	return sap.ResultFor(sap.DSAPDataTxFragmentedRequest, c.Result), nil
}
