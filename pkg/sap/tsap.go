package sap

import "github.com/wirepas/wpc-go/pkg/wire"

// TestModeStartRequest is `u8 test_mode;` per the original test-mode
// enable primitive — puts the node into RF test mode, outside normal
// network operation (spec §6.3's Non-goal note: production code should
// never call this on a node that is part of a live network).
type TestModeStartRequest struct {
	Mode uint8
}

func (r TestModeStartRequest) Encode() []byte {
	b := wire.NewBuilder(1)
	b.PutUint8(r.Mode)
	return b.Bytes()
}

// TestModeStopRequest has no parameters.
type TestModeStopRequest struct{}

func (TestModeStopRequest) Encode() []byte { return nil }

// SignalTestSendRequest is `u8 count; u8 interval_s; i8 power; u8 channel;`
// — transmits count test signals while in test mode.
type SignalTestSendRequest struct {
	Count      uint8
	IntervalS  uint8
	PowerDBm   int8
	Channel    uint8
}

func (r SignalTestSendRequest) Encode() []byte {
	b := wire.NewBuilder(4)
	b.PutUint8(r.Count)
	b.PutUint8(r.IntervalS)
	b.PutUint8(uint8(r.PowerDBm))
	b.PutUint8(r.Channel)
	return b.Bytes()
}
