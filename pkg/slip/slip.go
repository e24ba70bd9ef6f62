// Package slip implements the wire framing described in spec §4.1/§6.1:
// SLIP byte escaping (delegated to github.com/Lobaro/slip, the one SLIP
// codec found anywhere in the retrieved example pack) wrapped with this
// protocol's own conventions — a leading triple END marker, a trailing
// CRC-16/CCITT appended before escaping, and discard rules for line noise
// and stray firmware debug bytes that a generic SLIP codec has no opinion
// about.
package slip

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	lobaroslip "github.com/Lobaro/slip"

	"github.com/wirepas/wpc-go/pkg/wpcerr"
)

const (
	// End, Esc, EscEnd and EscEsc are the bit-exact SLIP constants from
	// spec §6.1. They are redefined here (rather than imported from
	// lobaroslip) because the escaping library treats them as an
	// implementation detail, while this protocol's framing rules
	// (leading triple End) reference them directly.
	End    byte = 0xC0
	Esc    byte = 0xDB
	EscEnd byte = 0xDC
	EscEsc byte = 0xDD

	// MaxFramePayload bounds payload_length (spec §3): the size of the
	// largest known SAP payload union.
	MaxFramePayload = 128

	// frameHeaderSize is primitive_id + frame_id + payload_length.
	frameHeaderSize = 3
	// minFrameSize is the smallest body (header+CRC, zero-length payload)
	// the decoder accepts before treating a packet as line noise.
	minFrameSize = frameHeaderSize + 2

	// strayDebugByte marks firmware-internal debug output that leaked
	// onto the wire; such frames are discarded outright (spec §4.1).
	strayDebugByte = 0x7F
)

// EncodeFrame appends the CRC-16/CCITT over body (little-endian) and
// returns the fully SLIP-framed bytes ready to write to the serial port:
// three leading End markers, the escaped body+CRC, one trailing End.
//
// body must already contain primitive_id, frame_id, payload_length and the
// payload — exactly what the CRC is computed over.
func EncodeFrame(body []byte) ([]byte, error) {
	if len(body) < frameHeaderSize {
		return nil, fmt.Errorf("%w: frame body shorter than header", wpcerr.ErrWrongParam)
	}
	if len(body) > frameHeaderSize+MaxFramePayload {
		return nil, fmt.Errorf("%w: frame body exceeds MaxFramePayload", wpcerr.ErrWrongBufferSize)
	}

	crc := CRC16(body)
	withCRC := make([]byte, len(body)+2)
	copy(withCRC, body)
	withCRC[len(body)] = byte(crc)
	withCRC[len(body)+1] = byte(crc >> 8)

	var out bytes.Buffer
	out.Write([]byte{End, End, End})

	// The escaping itself (the End/Esc substitution and the single
	// trailing End) is delegated to lobaroslip.Writer; only the leading
	// triple-End robustness marker is this protocol's own addition.
	if err := lobaroslip.NewWriter(&out).WritePacket(withCRC); err != nil {
		return nil, fmt.Errorf("%w: %v", wpcerr.ErrGeneric, err)
	}

	return out.Bytes(), nil
}

// DecodeFrame validates and strips the CRC from a single already
// SLIP-unescaped packet (as produced by Reader.ReadFrame or
// lobaroslip.Reader.ReadPacket). It returns the header+payload bytes with
// the trailing CRC removed.
//
// Error classification follows spec §4.1: a too-short or stray-debug
// packet is ErrGeneric (the caller should drop it silently, it is line
// noise); a CRC mismatch is ErrWrongCRC, unless the trailing CRC is the
// literal 0xFFFF sentinel the node uses to signal it rejected the host's
// request CRC, in which case it is ErrWrongCRCFromHost.
func DecodeFrame(packet []byte) ([]byte, error) {
	if len(packet) < minFrameSize {
		return nil, fmt.Errorf("%w: frame shorter than minimum size", wpcerr.ErrGeneric)
	}
	if packet[0] == strayDebugByte {
		return nil, fmt.Errorf("%w: stray firmware debug byte", wpcerr.ErrGeneric)
	}

	body := packet[:len(packet)-2]
	gotCRC := uint16(packet[len(packet)-2]) | uint16(packet[len(packet)-1])<<8

	if gotCRC == WrongCRCFromHostValue {
		return nil, wpcerr.ErrWrongCRCFromHost
	}
	if want := CRC16(body); want != gotCRC {
		return nil, wpcerr.ErrWrongCRC
	}
	return body, nil
}

// Reader reads SLIP-framed, CRC-validated frame bodies off a byte stream.
// It delegates the End/Esc unescaping to lobaroslip.Reader and layers
// DecodeFrame on top; empty packets produced by the leading repeated End
// markers are silently skipped.
type Reader struct {
	inner *lobaroslip.Reader
}

// NewReader wraps r. r is typically the serial transport's io.Reader side.
func NewReader(r io.Reader) *Reader {
	return &Reader{inner: lobaroslip.NewReader(bufio.NewReader(r))}
}

// ReadFrame blocks until one complete, CRC-validated frame body is
// available, a framing/CRC error occurs, or the underlying reader fails.
// Framing-layer errors (ErrGeneric for line noise, ErrWrongCRC,
// ErrWrongCRCFromHost) are returned alongside a nil body so the caller can
// decide whether to keep reading.
func (r *Reader) ReadFrame() ([]byte, error) {
	for {
		packet, _, err := r.inner.ReadPacket()
		if err != nil {
			return nil, err
		}
		if len(packet) == 0 {
			// Extra End delimiter (part of the leading triple-End
			// marker, or back-to-back frames); not an error.
			continue
		}
		return DecodeFrame(packet)
	}
}

// Writer writes fully-framed, CRC-protected frames to an io.Writer.
type Writer struct {
	w io.Writer
}

// NewWriter wraps w. w is typically the serial transport's io.Writer side.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteFrame encodes body (primitive_id, frame_id, payload_length,
// payload) and writes the complete SLIP frame in a single Write call.
func (w *Writer) WriteFrame(body []byte) error {
	framed, err := EncodeFrame(body)
	if err != nil {
		return err
	}
	_, err = w.w.Write(framed)
	return err
}
