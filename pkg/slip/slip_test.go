package slip

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/wirepas/wpc-go/pkg/wpcerr"
)

func frameBody(primitive, frameID byte, payload []byte) []byte {
	body := make([]byte, 0, 3+len(payload))
	body = append(body, primitive, frameID, byte(len(payload)))
	body = append(body, payload...)
	return body
}

// S1 from spec §8: CSAP attribute write, frame_id 0, 16-byte value.
func TestEncodeFrame_S1(t *testing.T) {
	payload := []byte{13, 0, 16, 0x10, 0x20, 0x30, 0x40, 0x50, 0x60, 0x70, 0x80,
		0xA1, 0xA2, 0xA3, 0xA4, 0xA5, 0xA6, 0xA7, 0xA8}
	body := frameBody(0x0D, 0, payload)

	framed, err := EncodeFrame(body)
	require.NoError(t, err)

	require.Equal(t, []byte{End, End, End}, framed[:3])
	require.Equal(t, End, framed[len(framed)-1])
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	body := frameBody(0x0D, 7, []byte{1, 2, 3, 4, 5})
	framed, err := EncodeFrame(body)
	require.NoError(t, err)

	r := NewReader(bytes.NewReader(framed))
	got, err := r.ReadFrame()
	require.NoError(t, err)
	require.Equal(t, body, got)
}

func TestDecodeFrame_CorruptedByteRejected(t *testing.T) {
	body := frameBody(0x0D, 7, []byte{1, 2, 3, 4, 5})
	_, err := EncodeFrame(body)
	require.NoError(t, err)

	// Corrupt one payload byte inside the escaped region without
	// touching the End markers, by going through DecodeFrame directly
	// on the unescaped body+CRC instead of re-escaping by hand.
	crc := CRC16(body)
	withCRC := append(append([]byte{}, body...), byte(crc), byte(crc>>8))
	withCRC[3] ^= 0xFF

	_, err = DecodeFrame(withCRC)
	require.ErrorIs(t, err, wpcerr.ErrWrongCRC)
}

func TestDecodeFrame_WrongCRCFromHost(t *testing.T) {
	body := frameBody(0x8D, 7, nil)
	withCRC := append(append([]byte{}, body...), 0xFF, 0xFF)

	_, err := DecodeFrame(withCRC)
	require.ErrorIs(t, err, wpcerr.ErrWrongCRCFromHost)
}

func TestDecodeFrame_TooShortIsLineNoise(t *testing.T) {
	_, err := DecodeFrame([]byte{1, 2, 3})
	require.ErrorIs(t, err, wpcerr.ErrGeneric)
}

func TestDecodeFrame_StrayDebugByteDiscarded(t *testing.T) {
	_, err := DecodeFrame([]byte{0x7F, 0, 0, 0, 0})
	require.True(t, errors.Is(err, wpcerr.ErrGeneric))
}

// Property: encode then decode returns the original body, for any
// well-formed body within MaxFramePayload (invariant 2, spec §8).
func TestEncodeDecode_RoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		primitive := rapid.Byte().Draw(t, "primitive")
		frameID := rapid.Byte().Draw(t, "frameID")
		payload := rapid.SliceOfN(rapid.Byte(), 0, MaxFramePayload).Draw(t, "payload")
		body := frameBody(primitive, frameID, payload)

		framed, err := EncodeFrame(body)
		require.NoError(t, err)

		r := NewReader(bytes.NewReader(framed))
		got, err := r.ReadFrame()
		require.NoError(t, err)
		require.Equal(t, body, got)
	})
}

// Property: corrupting any single byte of the unescaped body+CRC causes
// DecodeFrame to reject it with ErrWrongCRC (invariant 3, spec §8),
// except in the vanishingly rare case the corruption happens to produce
// another valid CRC or the literal 0xFFFF sentinel.
func TestDecodeFrame_CorruptionProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		primitive := rapid.Byte().Draw(t, "primitive")
		frameID := rapid.Byte().Draw(t, "frameID")
		payload := rapid.SliceOfN(rapid.Byte(), 1, 16).Draw(t, "payload")
		body := frameBody(primitive, frameID, payload)

		crc := CRC16(body)
		withCRC := append(append([]byte{}, body...), byte(crc), byte(crc>>8))

		idx := rapid.IntRange(0, len(withCRC)-1).Draw(t, "corruptIdx")
		flip := rapid.Uint8Range(1, 255).Draw(t, "flip")
		withCRC[idx] ^= flip

		_, err := DecodeFrame(withCRC)
		if withCRC[0] == strayDebugByte {
			require.ErrorIs(t, err, wpcerr.ErrGeneric)
			return
		}

		recomputed := uint16(withCRC[len(withCRC)-2]) | uint16(withCRC[len(withCRC)-1])<<8
		if recomputed == CRC16(withCRC[:len(withCRC)-2]) {
			t.Skip("corruption happened to preserve CRC validity")
		}
		if recomputed == WrongCRCFromHostValue {
			require.ErrorIs(t, err, wpcerr.ErrWrongCRCFromHost)
			return
		}
		require.ErrorIs(t, err, wpcerr.ErrWrongCRC)
	})
}
