// Package frame defines the Frame data model (spec §3) and the primitive-id
// arithmetic (spec §6.2) the engine applies mechanically to turn a request
// primitive into its confirm or an indication into its response, without
// needing to enumerate the node's full SAP primitive list.
package frame

import (
	"fmt"

	"github.com/wirepas/wpc-go/pkg/slip"
	"github.com/wirepas/wpc-go/pkg/wpcerr"
)

// Offsets used pervasively by the wire protocol to relate a request
// primitive to its confirm, and an indication primitive to its response.
// The node's full primitive-id table (wpc_constants.h in the original
// implementation) was not present in the retrieved source slice; these
// offsets are the implementation-defined constants spec §6.2 says to
// "adopt ... to maintain wire compatibility" and are applied mechanically
// to whatever primitive ids pkg/sap defines.
const (
	ConfirmOffset  = 0x80
	ResponseOffset = 0x40
)

// Frame is the unit transported across the link (spec §3), already
// stripped of SLIP framing and CRC by pkg/slip.
type Frame struct {
	PrimitiveID   byte
	FrameID       byte
	PayloadLength byte
	Payload       []byte
}

// ConfirmPrimitive returns the confirm primitive id matching a request
// primitive id.
func ConfirmPrimitive(requestPrimitive byte) byte {
	return requestPrimitive + ConfirmOffset
}

// ResponsePrimitive returns the response primitive id matching an
// indication primitive id.
func ResponsePrimitive(indicationPrimitive byte) byte {
	return indicationPrimitive + ResponseOffset
}

// IsConfirmFor reports whether f is the confirm matching request
// (primitive_id == request.primitive_id + ConfirmOffset, same frame_id),
// per spec §4.2 step 3 / invariant 1.
func (f Frame) IsConfirmFor(request Frame) bool {
	return f.PrimitiveID == ConfirmPrimitive(request.PrimitiveID) && f.FrameID == request.FrameID
}

// Encode produces the raw header+payload bytes (primitive_id, frame_id,
// payload_length, payload) ready for slip.EncodeFrame.
func (f Frame) Encode() ([]byte, error) {
	if len(f.Payload) > slip.MaxFramePayload {
		return nil, fmt.Errorf("%w: payload exceeds MaxFramePayload", wpcerr.ErrWrongBufferSize)
	}
	if int(f.PayloadLength) != len(f.Payload) {
		return nil, fmt.Errorf("%w: payload_length does not match payload", wpcerr.ErrWrongParam)
	}

	body := make([]byte, 0, 3+len(f.Payload))
	body = append(body, f.PrimitiveID, f.FrameID, f.PayloadLength)
	body = append(body, f.Payload...)
	return body, nil
}

// Decode parses a header+payload body (as returned by slip.Reader.ReadFrame,
// CRC already validated) into a Frame. A mismatching payload_length vs the
// actually-received byte count is rejected per the invariant in spec §3
// ("a decoded frame with a mismatching CRC is never exposed upward" — the
// same discipline applies to a malformed length field, which the CRC check
// alone would not always catch for short payloads).
func Decode(body []byte) (Frame, error) {
	if len(body) < 3 {
		return Frame{}, fmt.Errorf("%w: frame body shorter than header", wpcerr.ErrGeneric)
	}
	f := Frame{
		PrimitiveID:   body[0],
		FrameID:       body[1],
		PayloadLength: body[2],
	}
	payload := body[3:]
	if int(f.PayloadLength) != len(payload) {
		return Frame{}, fmt.Errorf("%w: payload_length %d does not match %d received bytes",
			wpcerr.ErrGeneric, f.PayloadLength, len(payload))
	}
	f.Payload = payload
	return f, nil
}
