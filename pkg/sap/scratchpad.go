package sap

import (
	"fmt"

	"github.com/wirepas/wpc-go/pkg/wire"
	"github.com/wirepas/wpc-go/pkg/wpcerr"
)

// ScratchpadStartRequest is `u32 length; u8 seq;` per
// msap_scratchpad_start_req_pl_t.
type ScratchpadStartRequest struct {
	Length         uint32
	SequenceNumber uint8
}

func (r ScratchpadStartRequest) Encode() []byte {
	b := wire.NewBuilder(5)
	b.PutUint32(r.Length)
	b.PutUint8(r.SequenceNumber)
	return b.Bytes()
}

// ScratchpadBlockRequest is `u32 start_addr; u8 len; u8 data[112];` per
// msap_scratchpad_block_req_pl_t — one block of a running scratchpad
// upload, bounded by MaxScratchpadBlockSize.
type ScratchpadBlockRequest struct {
	StartAddress uint32
	Data         []byte
}

func (r ScratchpadBlockRequest) Encode() ([]byte, error) {
	if len(r.Data) > MaxScratchpadBlockSize {
		return nil, fmt.Errorf("%w: scratchpad block exceeds %d bytes", wpcerr.ErrWrongParam, MaxScratchpadBlockSize)
	}
	b := wire.NewBuilder(5 + len(r.Data))
	b.PutUint32(r.StartAddress)
	b.PutUint8(uint8(len(r.Data)))
	b.PutBytes(r.Data)
	return b.Bytes(), nil
}

// ScratchpadBlockReadRequest mirrors ScratchpadBlockRequest for the read
// direction: `u32 start_addr; u8 len;`.
type ScratchpadBlockReadRequest struct {
	StartAddress uint32
	Length       uint8
}

func (r ScratchpadBlockReadRequest) Encode() []byte {
	b := wire.NewBuilder(5)
	b.PutUint32(r.StartAddress)
	b.PutUint8(r.Length)
	return b.Bytes()
}

// ScratchpadBlockReadConfirm is `u8 result; u8 len; u8 data[112];`.
type ScratchpadBlockReadConfirm struct {
	Result byte
	Data   []byte
}

func DecodeScratchpadBlockReadConfirm(payload []byte) (ScratchpadBlockReadConfirm, error) {
	p := wire.NewParser(payload)
	result, err := p.Uint8()
	if err != nil {
		return ScratchpadBlockReadConfirm{}, err
	}
	length, err := p.Uint8()
	if err != nil {
		return ScratchpadBlockReadConfirm{}, err
	}
	data, err := p.Bytes(int(length))
	if err != nil {
		return ScratchpadBlockReadConfirm{}, err
	}
	return ScratchpadBlockReadConfirm{Result: result, Data: append([]byte{}, data...)}, nil
}

// ScratchpadStatus mirrors msap_scratchpad_status_conf_pl_t: the currently
// stored scratchpad's metadata plus the currently-processed one (the one the
// node actually booted from), which may differ right after an update.
type ScratchpadStatus struct {
	StoredCRC         uint16
	StoredSeq         uint8
	StoredLength      uint32
	StoredType        uint8
	StoredStatus      uint8
	ProcessedCRC      uint16
	ProcessedSeq      uint8
	ProcessedLength   uint32
	FirmwareMemAreaID uint32
}

func DecodeScratchpadStatus(payload []byte) (ScratchpadStatus, error) {
	p := wire.NewParser(payload)
	s := ScratchpadStatus{}
	var err error
	if s.StoredCRC, err = p.Uint16(); err != nil {
		return ScratchpadStatus{}, err
	}
	if s.StoredSeq, err = p.Uint8(); err != nil {
		return ScratchpadStatus{}, err
	}
	if s.StoredLength, err = p.Uint32(); err != nil {
		return ScratchpadStatus{}, err
	}
	if s.StoredType, err = p.Uint8(); err != nil {
		return ScratchpadStatus{}, err
	}
	if s.StoredStatus, err = p.Uint8(); err != nil {
		return ScratchpadStatus{}, err
	}
	if s.ProcessedCRC, err = p.Uint16(); err != nil {
		return ScratchpadStatus{}, err
	}
	if s.ProcessedSeq, err = p.Uint8(); err != nil {
		return ScratchpadStatus{}, err
	}
	if s.ProcessedLength, err = p.Uint32(); err != nil {
		return ScratchpadStatus{}, err
	}
	if s.FirmwareMemAreaID, err = p.Uint32(); err != nil {
		return ScratchpadStatus{}, err
	}
	return s, nil
}

// ScratchpadUpdateAction selects what msap_scratchpad_update_req_pl_t asks
// the node to do with the stored scratchpad.
type ScratchpadUpdateAction uint8

const (
	ScratchpadActionNoOp               ScratchpadUpdateAction = 0
	ScratchpadActionProcessWithReboot  ScratchpadUpdateAction = 1
	ScratchpadActionProcessWithoutReboot ScratchpadUpdateAction = 2
)

// ScratchpadUpdateRequest is `u8 action;`.
type ScratchpadUpdateRequest struct {
	Action ScratchpadUpdateAction
}

func (r ScratchpadUpdateRequest) Encode() []byte {
	b := wire.NewBuilder(1)
	b.PutUint8(uint8(r.Action))
	return b.Bytes()
}

// ScratchpadTargetWriteRequest is `u16 target_seq; u16 target_crc;
// u8 action; u8 param;` per msap_scratchpad_target_write_req_pl_t — sets
// the remote-update target the node should propagate to its neighbors.
type ScratchpadTargetWriteRequest struct {
	TargetSequence uint16
	TargetCRC      uint16
	Action         uint8
	Param          uint8
}

func (r ScratchpadTargetWriteRequest) Encode() []byte {
	b := wire.NewBuilder(6)
	b.PutUint16(r.TargetSequence)
	b.PutUint16(r.TargetCRC)
	b.PutUint8(r.Action)
	b.PutUint8(r.Param)
	return b.Bytes()
}

// ScratchpadTargetReadConfirm is `u8 result; u16 target_seq; u16 target_crc;
// u8 action; u8 param;`.
type ScratchpadTargetReadConfirm struct {
	Result         byte
	TargetSequence uint16
	TargetCRC      uint16
	Action         uint8
	Param          uint8
}

func DecodeScratchpadTargetReadConfirm(payload []byte) (ScratchpadTargetReadConfirm, error) {
	p := wire.NewParser(payload)
	c := ScratchpadTargetReadConfirm{}
	var err error
	if c.Result, err = p.Uint8(); err != nil {
		return ScratchpadTargetReadConfirm{}, err
	}
	if c.TargetSequence, err = p.Uint16(); err != nil {
		return ScratchpadTargetReadConfirm{}, err
	}
	if c.TargetCRC, err = p.Uint16(); err != nil {
		return ScratchpadTargetReadConfirm{}, err
	}
	if c.Action, err = p.Uint8(); err != nil {
		return ScratchpadTargetReadConfirm{}, err
	}
	if c.Param, err = p.Uint8(); err != nil {
		return ScratchpadTargetReadConfirm{}, err
	}
	return c, nil
}

// ImageRemoteStatusConfirm/Indication report how the remote scratchpad
// update is propagating through the network, grounded on
// msap_image_remote_status_*_pl_t.
type ImageRemoteStatus struct {
	TargetSequence uint16
	TargetCRC      uint16
	ParticipatedNodes  uint16
	UpdatedNodes       uint16
}

func decodeImageRemoteStatus(p *wire.Parser) (ImageRemoteStatus, error) {
	s := ImageRemoteStatus{}
	var err error
	if s.TargetSequence, err = p.Uint16(); err != nil {
		return ImageRemoteStatus{}, err
	}
	if s.TargetCRC, err = p.Uint16(); err != nil {
		return ImageRemoteStatus{}, err
	}
	if s.ParticipatedNodes, err = p.Uint16(); err != nil {
		return ImageRemoteStatus{}, err
	}
	if s.UpdatedNodes, err = p.Uint16(); err != nil {
		return ImageRemoteStatus{}, err
	}
	return s, nil
}

func DecodeImageRemoteStatusConfirm(payload []byte) (ImageRemoteStatus, error) {
	p := wire.NewParser(payload)
	return decodeImageRemoteStatus(p)
}

func DecodeImageRemoteStatusIndication(payload []byte) (ImageRemoteStatus, error) {
	p := wire.NewParser(payload)
	return decodeImageRemoteStatus(p)
}

// ImageRemoteUpdateRequest is empty-bodied: it simply triggers propagation
// of the already-written target (spec §6.3).
type ImageRemoteUpdateRequest struct{}

func (ImageRemoteUpdateRequest) Encode() []byte { return nil }
