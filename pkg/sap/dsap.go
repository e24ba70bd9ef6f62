package sap

import (
	"fmt"

	"github.com/wirepas/wpc-go/pkg/wire"
	"github.com/wirepas/wpc-go/pkg/wpcerr"
)

// TxOption bits, spec §6.3: bit0 "tx-indication wanted", bit1
// "unack-csma-ca", bits2-5 "hop-limit" (4-bit).
const (
	TxOptionIndicationWanted uint8 = 1 << 0
	TxOptionUnackCSMACA      uint8 = 1 << 1
	txOptionHopLimitShift          = 2
	txOptionHopLimitMask     uint8 = 0x0F
)

// TxOptionsWithHopLimit packs a hop-limit (0-15) into bits 2-5 alongside the
// indication-wanted/unack-csma-ca flag bits.
func TxOptionsWithHopLimit(flags uint8, hopLimit uint8) uint8 {
	return flags | ((hopLimit & txOptionHopLimitMask) << txOptionHopLimitShift)
}

// HopLimit extracts the 4-bit hop-limit field from a tx_options byte.
func HopLimit(txOptions uint8) uint8 {
	return (txOptions >> txOptionHopLimitShift) & txOptionHopLimitMask
}

// MaxAPDUSize bounds a single-frame (non-fragmented) APDU so the full
// request still fits within slip.MaxFramePayload alongside its header.
const MaxAPDUSize = 102

// DataTxRequest is `u16 pdu_id; u8 src_ep; u32 dst_addr; u8 dst_ep; u8 qos;
// u8 tx_options; u8 apdu_len; u8 apdu[...];` per spec §6.3.
type DataTxRequest struct {
	PduID        uint16
	SrcEndpoint  uint8
	DestAddr     uint32
	DestEndpoint uint8
	QoS          uint8
	TxOptions    uint8
	APDU         []byte
}

func (r DataTxRequest) Encode() ([]byte, error) {
	if len(r.APDU) > MaxAPDUSize {
		return nil, fmt.Errorf("%w: apdu exceeds %d bytes", wpcerr.ErrWrongParam, MaxAPDUSize)
	}
	b := wire.NewBuilder(11 + len(r.APDU))
	b.PutUint16(r.PduID)
	b.PutUint8(r.SrcEndpoint)
	b.PutUint32(r.DestAddr)
	b.PutUint8(r.DestEndpoint)
	b.PutUint8(r.QoS)
	b.PutUint8(r.TxOptions)
	b.PutUint8(uint8(len(r.APDU)))
	b.PutBytes(r.APDU)
	return b.Bytes(), nil
}

// DataTxTTRequest adds a buffering_delay bound before apdu_len — the
// time-to-travel variant that lets the caller bound how long the node may
// buffer before giving up (spec §6.3).
type DataTxTTRequest struct {
	DataTxRequest
	// BufferingDelay is in the node's native 1/128s tick unit (spec §6.4),
	// not milliseconds — use DurationToTicks/TicksToDuration to convert.
	BufferingDelay uint32
}

func (r DataTxTTRequest) Encode() ([]byte, error) {
	if len(r.APDU) > MaxAPDUSize {
		return nil, fmt.Errorf("%w: apdu exceeds %d bytes", wpcerr.ErrWrongParam, MaxAPDUSize)
	}
	b := wire.NewBuilder(15 + len(r.APDU))
	b.PutUint16(r.PduID)
	b.PutUint8(r.SrcEndpoint)
	b.PutUint32(r.DestAddr)
	b.PutUint8(r.DestEndpoint)
	b.PutUint8(r.QoS)
	b.PutUint8(r.TxOptions)
	b.PutUint32(r.BufferingDelay)
	b.PutUint8(uint8(len(r.APDU)))
	b.PutBytes(r.APDU)
	return b.Bytes(), nil
}

// fragmentLastBit marks "last fragment" in the top bit of
// fragment_offset_flag; the low 15 bits carry the byte offset (spec §6.3).
const (
	fragmentLastBit   uint16 = 1 << 15
	fragmentOffsetMax uint16 = fragmentLastBit - 1
)

// PackFragmentOffsetFlag combines a byte offset (<= 0x7FFF) and the
// last-fragment marker into the wire's fragment_offset_flag field.
func PackFragmentOffsetFlag(offset uint16, last bool) (uint16, error) {
	if offset > fragmentOffsetMax {
		return 0, fmt.Errorf("%w: fragment offset %d exceeds 15 bits", wpcerr.ErrWrongParam, offset)
	}
	if last {
		return offset | fragmentLastBit, nil
	}
	return offset, nil
}

// UnpackFragmentOffsetFlag splits a wire fragment_offset_flag field back
// into its offset and last-fragment marker.
func UnpackFragmentOffsetFlag(v uint16) (offset uint16, last bool) {
	return v &^ fragmentLastBit, v&fragmentLastBit != 0
}

// MaxFragmentAPDUSize bounds a single fragment's payload, leaving room for
// the extra full_packet_id/fragment_offset_flag header fields.
const MaxFragmentAPDUSize = 98

// DataTxFragmentedRequest is the TTT shape plus `u16 full_packet_id;
// u16 fragment_offset_flag;` per spec §6.3.
type DataTxFragmentedRequest struct {
	DataTxTTRequest
	FullPacketID        uint16
	FragmentOffsetFlag  uint16
}

func (r DataTxFragmentedRequest) Encode() ([]byte, error) {
	if len(r.APDU) > MaxFragmentAPDUSize {
		return nil, fmt.Errorf("%w: fragment apdu exceeds %d bytes", wpcerr.ErrWrongParam, MaxFragmentAPDUSize)
	}
	b := wire.NewBuilder(19 + len(r.APDU))
	b.PutUint16(r.PduID)
	b.PutUint8(r.SrcEndpoint)
	b.PutUint32(r.DestAddr)
	b.PutUint8(r.DestEndpoint)
	b.PutUint8(r.QoS)
	b.PutUint8(r.TxOptions)
	b.PutUint32(r.BufferingDelay)
	b.PutUint16(r.FullPacketID)
	b.PutUint16(r.FragmentOffsetFlag)
	b.PutUint8(uint8(len(r.APDU)))
	b.PutBytes(r.APDU)
	return b.Bytes(), nil
}

// DataTxConfirm is `u8 result; u16 pdu_id;` — the pdu_id correlates this
// confirm to the later DataTxIndication carrying the eventual
// over-the-air outcome.
type DataTxConfirm struct {
	Result byte
	PduID  uint16
}

func DecodeDataTxConfirm(payload []byte) (DataTxConfirm, error) {
	p := wire.NewParser(payload)
	result, err := p.Uint8()
	if err != nil {
		return DataTxConfirm{}, err
	}
	pduID, err := p.Uint16()
	if err != nil {
		return DataTxConfirm{}, err
	}
	return DataTxConfirm{Result: result, PduID: pduID}, nil
}

// DataTxIndication is the node's delayed report of what actually happened
// to a previously-confirmed transmission, keyed by pdu_id (spec §3's
// pending-tx-indication table).
type DataTxIndication struct {
	PduID          uint16
	BufferingDelay uint32
	Result         byte
}

func DecodeDataTxIndication(payload []byte) (DataTxIndication, error) {
	p := wire.NewParser(payload)
	pduID, err := p.Uint16()
	if err != nil {
		return DataTxIndication{}, err
	}
	delay, err := p.Uint32()
	if err != nil {
		return DataTxIndication{}, err
	}
	result, err := p.Uint8()
	if err != nil {
		return DataTxIndication{}, err
	}
	return DataTxIndication{PduID: pduID, BufferingDelay: delay, Result: result}, nil
}

// QoSHopCount bit layout, spec §6.3: "qos_hop has QoS in bit 0 and
// hop-count in bits 2-7".
const (
	qosBit          uint8 = 1 << 0
	hopCountShift          = 2
)

// SplitQoSHopCount extracts QoS (bit0) and hop count (bits2-7) from a
// data-rx indication's combined byte.
func SplitQoSHopCount(v uint8) (qos bool, hopCount uint8) {
	return v&qosBit != 0, v >> hopCountShift
}

// DataRxIndication is `u8 indication_status; u32 src_add; u8 src_ep;
// u32 dst_add; u8 dst_ep; u8 qos_hop; u32 travel_time; u8 apdu_len;
// u8 apdu[...];` per spec §6.3.
type DataRxIndication struct {
	Status       uint8
	SrcAddr      uint32
	SrcEndpoint  uint8
	DestAddr     uint32
	DestEndpoint uint8
	QoSHop       uint8
	TravelTime   uint32
	APDU         []byte
}

func DecodeDataRxIndication(payload []byte) (DataRxIndication, error) {
	p := wire.NewParser(payload)
	ind := DataRxIndication{}
	var err error
	if ind.Status, err = p.Uint8(); err != nil {
		return DataRxIndication{}, err
	}
	if ind.SrcAddr, err = p.Uint32(); err != nil {
		return DataRxIndication{}, err
	}
	if ind.SrcEndpoint, err = p.Uint8(); err != nil {
		return DataRxIndication{}, err
	}
	if ind.DestAddr, err = p.Uint32(); err != nil {
		return DataRxIndication{}, err
	}
	if ind.DestEndpoint, err = p.Uint8(); err != nil {
		return DataRxIndication{}, err
	}
	if ind.QoSHop, err = p.Uint8(); err != nil {
		return DataRxIndication{}, err
	}
	if ind.TravelTime, err = p.Uint32(); err != nil {
		return DataRxIndication{}, err
	}
	length, err := p.Uint8()
	if err != nil {
		return DataRxIndication{}, err
	}
	apdu, err := p.Bytes(int(length))
	if err != nil {
		return DataRxIndication{}, err
	}
	ind.APDU = append([]byte{}, apdu...)
	return ind, nil
}

// DataRxFragmentIndication is DataRxIndication plus `u16 full_packet_id;
// u16 fragment_offset_flag;` per spec §6.3, the fields pkg/reassembly keys
// and orders fragments on.
type DataRxFragmentIndication struct {
	DataRxIndication
	FullPacketID       uint16
	FragmentOffsetFlag uint16
}

func DecodeDataRxFragmentIndication(payload []byte) (DataRxFragmentIndication, error) {
	p := wire.NewParser(payload)
	ind := DataRxFragmentIndication{}
	var err error
	if ind.Status, err = p.Uint8(); err != nil {
		return DataRxFragmentIndication{}, err
	}
	if ind.SrcAddr, err = p.Uint32(); err != nil {
		return DataRxFragmentIndication{}, err
	}
	if ind.SrcEndpoint, err = p.Uint8(); err != nil {
		return DataRxFragmentIndication{}, err
	}
	if ind.DestAddr, err = p.Uint32(); err != nil {
		return DataRxFragmentIndication{}, err
	}
	if ind.DestEndpoint, err = p.Uint8(); err != nil {
		return DataRxFragmentIndication{}, err
	}
	if ind.QoSHop, err = p.Uint8(); err != nil {
		return DataRxFragmentIndication{}, err
	}
	if ind.TravelTime, err = p.Uint32(); err != nil {
		return DataRxFragmentIndication{}, err
	}
	length, err := p.Uint8()
	if err != nil {
		return DataRxFragmentIndication{}, err
	}
	apdu, err := p.Bytes(int(length))
	if err != nil {
		return DataRxFragmentIndication{}, err
	}
	ind.APDU = append([]byte{}, apdu...)
	if ind.FullPacketID, err = p.Uint16(); err != nil {
		return DataRxFragmentIndication{}, err
	}
	if ind.FragmentOffsetFlag, err = p.Uint16(); err != nil {
		return DataRxFragmentIndication{}, err
	}
	return ind, nil
}
