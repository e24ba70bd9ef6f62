package sap

import (
	"fmt"

	"github.com/wirepas/wpc-go/pkg/wire"
	"github.com/wirepas/wpc-go/pkg/wpcerr"
)

// MaxAppConfigSize is the app config data's fixed maximum size, grounded on
// original_source/lib/wpc/include/msap.h's MAXIMUM_APP_CONFIG_SIZE (80).
const MaxAppConfigSize = 80

// MaxScratchpadBlockSize mirrors msap.h's MAXIMUM_SCRATCHPAD_BLOCK_SIZE.
const MaxScratchpadBlockSize = 112

// MaxNeighbors mirrors msap.h's MAXIMUM_NUMBER_OF_NEIGHBOR.
const MaxNeighbors = 8

// AppConfigDataWriteRequest is `u8 seq; u16 interval; u8 len; u8 data[80];`
// per msap_app_config_data_write_req_pl_t.
type AppConfigDataWriteRequest struct {
	SequenceNumber uint8
	DiagnosticData uint16
	Data           []byte // len <= MaxAppConfigSize
}

func (r AppConfigDataWriteRequest) Encode() ([]byte, error) {
	if len(r.Data) > MaxAppConfigSize {
		return nil, fmt.Errorf("%w: app config data exceeds %d bytes", wpcerr.ErrWrongParam, MaxAppConfigSize)
	}
	b := wire.NewBuilder(4 + MaxAppConfigSize)
	b.PutUint8(r.SequenceNumber)
	b.PutUint16(r.DiagnosticData)
	b.PutUint8(uint8(len(r.Data)))
	b.PutFixed(r.Data, MaxAppConfigSize)
	return b.Bytes(), nil
}

// AppConfigDataReadConfirm is `u8 result; u8 seq; u16 interval; u8 len;
// u8 data[80];` per msap_app_config_data_read_conf_pl_t.
type AppConfigDataReadConfirm struct {
	Result         byte
	SequenceNumber uint8
	DiagnosticData uint16
	Data           []byte
}

func DecodeAppConfigDataReadConfirm(payload []byte) (AppConfigDataReadConfirm, error) {
	p := wire.NewParser(payload)
	c := AppConfigDataReadConfirm{}
	var err error
	if c.Result, err = p.Uint8(); err != nil {
		return AppConfigDataReadConfirm{}, err
	}
	if c.SequenceNumber, err = p.Uint8(); err != nil {
		return AppConfigDataReadConfirm{}, err
	}
	if c.DiagnosticData, err = p.Uint16(); err != nil {
		return AppConfigDataReadConfirm{}, err
	}
	length, err := p.Uint8()
	if err != nil {
		return AppConfigDataReadConfirm{}, err
	}
	data, err := p.Bytes(MaxAppConfigSize)
	if err != nil {
		return AppConfigDataReadConfirm{}, err
	}
	if int(length) > MaxAppConfigSize {
		length = MaxAppConfigSize
	}
	c.Data = append([]byte{}, data[:length]...)
	return c, nil
}

// AppConfigRxIndication is the indication-side twin of
// AppConfigDataReadConfirm, fired whenever the node's app config data
// changes (spec §6.3), grounded on msap_app_config_data_rx_ind_pl_t.
type AppConfigRxIndication struct {
	SequenceNumber uint8
	DiagnosticData uint16
	Data           []byte
}

func DecodeAppConfigRxIndication(payload []byte) (AppConfigRxIndication, error) {
	p := wire.NewParser(payload)
	ind := AppConfigRxIndication{}
	var err error
	if ind.SequenceNumber, err = p.Uint8(); err != nil {
		return AppConfigRxIndication{}, err
	}
	if ind.DiagnosticData, err = p.Uint16(); err != nil {
		return AppConfigRxIndication{}, err
	}
	length, err := p.Uint8()
	if err != nil {
		return AppConfigRxIndication{}, err
	}
	data, err := p.Bytes(MaxAppConfigSize)
	if err != nil {
		return AppConfigRxIndication{}, err
	}
	if int(length) > MaxAppConfigSize {
		length = MaxAppConfigSize
	}
	ind.Data = append([]byte{}, data[:length]...)
	return ind, nil
}

// SinkCostWriteRequest is `u8 cost;` per msap_sink_cost_write_req_pl_t.
type SinkCostWriteRequest struct {
	Cost uint8
}

func (r SinkCostWriteRequest) Encode() []byte {
	b := wire.NewBuilder(1)
	b.PutUint8(r.Cost)
	return b.Bytes()
}

// SinkCostReadConfirm is `u8 result; u8 cost;`.
type SinkCostReadConfirm struct {
	Result byte
	Cost   uint8
}

func DecodeSinkCostReadConfirm(payload []byte) (SinkCostReadConfirm, error) {
	p := wire.NewParser(payload)
	c := SinkCostReadConfirm{}
	var err error
	if c.Result, err = p.Uint8(); err != nil {
		return SinkCostReadConfirm{}, err
	}
	if c.Cost, err = p.Uint8(); err != nil {
		return SinkCostReadConfirm{}, err
	}
	return c, nil
}

// NeighborInfo is one entry of a get/scan-neighbors result, grounded on
// msap.h's app_neighbor_info_t: address, per-link quality figures, channel
// and a role/type tag.
type NeighborInfo struct {
	Address     uint32
	Channel     uint8
	RSSI        int8
	NormRSSI    uint8
	CostToSink  uint8
	LinkReliability uint8
	NeighborType    uint8
	TxPower     int8
	RxPower     int8
	LastUpdate  uint32
}

const neighborInfoSize = 4 + 1 + 1 + 1 + 1 + 1 + 1 + 1 + 1 + 4

func decodeNeighborInfo(p *wire.Parser) (NeighborInfo, error) {
	n := NeighborInfo{}
	var err error
	if n.Address, err = p.Uint32(); err != nil {
		return NeighborInfo{}, err
	}
	var raw uint8
	if raw, err = p.Uint8(); err != nil {
		return NeighborInfo{}, err
	}
	n.Channel = raw
	if raw, err = p.Uint8(); err != nil {
		return NeighborInfo{}, err
	}
	n.RSSI = int8(raw)
	if n.NormRSSI, err = p.Uint8(); err != nil {
		return NeighborInfo{}, err
	}
	if n.CostToSink, err = p.Uint8(); err != nil {
		return NeighborInfo{}, err
	}
	if n.LinkReliability, err = p.Uint8(); err != nil {
		return NeighborInfo{}, err
	}
	if n.NeighborType, err = p.Uint8(); err != nil {
		return NeighborInfo{}, err
	}
	if raw, err = p.Uint8(); err != nil {
		return NeighborInfo{}, err
	}
	n.TxPower = int8(raw)
	if raw, err = p.Uint8(); err != nil {
		return NeighborInfo{}, err
	}
	n.RxPower = int8(raw)
	if n.LastUpdate, err = p.Uint32(); err != nil {
		return NeighborInfo{}, err
	}
	return n, nil
}

// GetNeighborsConfirm is `u8 result; u8 count; neighbor_info_t list[8];`.
type GetNeighborsConfirm struct {
	Result    byte
	Neighbors []NeighborInfo
}

func DecodeGetNeighborsConfirm(payload []byte) (GetNeighborsConfirm, error) {
	p := wire.NewParser(payload)
	result, err := p.Uint8()
	if err != nil {
		return GetNeighborsConfirm{}, err
	}
	count, err := p.Uint8()
	if err != nil {
		return GetNeighborsConfirm{}, err
	}
	if int(count) > MaxNeighbors {
		return GetNeighborsConfirm{}, fmt.Errorf("%w: neighbor count %d exceeds %d", wpcerr.ErrGeneric, count, MaxNeighbors)
	}
	neighbors := make([]NeighborInfo, 0, count)
	for i := 0; i < int(count); i++ {
		n, err := decodeNeighborInfo(p)
		if err != nil {
			return GetNeighborsConfirm{}, err
		}
		neighbors = append(neighbors, n)
	}
	return GetNeighborsConfirm{Result: result, Neighbors: neighbors}, nil
}

// ScanNeighborsIndication signals scan completion; the results are then
// retrieved via MSAPGetNeighborsRequest (spec §6.3).
type ScanNeighborsIndication struct {
	Result byte
}

func DecodeScanNeighborsIndication(payload []byte) (ScanNeighborsIndication, error) {
	p := wire.NewParser(payload)
	result, err := p.Uint8()
	if err != nil {
		return ScanNeighborsIndication{}, err
	}
	return ScanNeighborsIndication{Result: result}, nil
}

// StackStateIndication is `u8 state;` per msap_stack_state_ind_pl_t — fired
// whenever the node's stack transitions (started, stopped, joined, ...).
type StackStateIndication struct {
	State uint8
}

func DecodeStackStateIndication(payload []byte) (StackStateIndication, error) {
	p := wire.NewParser(payload)
	state, err := p.Uint8()
	if err != nil {
		return StackStateIndication{}, err
	}
	return StackStateIndication{State: state}, nil
}
