// Package wire holds the explicit little-endian encode/decode helpers spec
// §9 calls for: "do not rely on struct memory layout; explicit
// little-endian encode/decode helpers are part of the core and apply to
// every multi-byte field on the wire, because the node may differ in
// endianness and, empirically, struct alignment differs between sides."
//
// Every payload shape in pkg/sap is built and parsed through these two
// types rather than unsafe casts or encoding/binary.Write against a Go
// struct (whose padding rules do not match the node's packed C layout).
package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/wirepas/wpc-go/pkg/wpcerr"
)

// Builder accumulates a packed little-endian payload.
type Builder struct {
	buf []byte
}

// NewBuilder returns a Builder with capacity hinted by size.
func NewBuilder(sizeHint int) *Builder {
	return &Builder{buf: make([]byte, 0, sizeHint)}
}

func (b *Builder) PutUint8(v uint8)   { b.buf = append(b.buf, v) }
func (b *Builder) PutBool(v bool) {
	if v {
		b.PutUint8(1)
	} else {
		b.PutUint8(0)
	}
}

func (b *Builder) PutUint16(v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
}

func (b *Builder) PutUint32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
}

// PutBytes appends raw bytes verbatim (addresses, opaque blobs).
func (b *Builder) PutBytes(v []byte) { b.buf = append(b.buf, v...) }

// PutFixed appends v, zero-padded or truncated to exactly n bytes — used
// for fixed-size value arrays such as attribute values (spec §6.3:
// "u8 value[16]").
func (b *Builder) PutFixed(v []byte, n int) {
	fixed := make([]byte, n)
	copy(fixed, v)
	b.buf = append(b.buf, fixed...)
}

// Bytes returns the accumulated payload.
func (b *Builder) Bytes() []byte { return b.buf }

// Parser consumes a packed little-endian payload, tracking how many bytes
// remain so a truncated payload is reported rather than panicking on an
// out-of-range slice.
type Parser struct {
	buf []byte
	off int
}

// NewParser wraps buf for sequential decoding.
func NewParser(buf []byte) *Parser {
	return &Parser{buf: buf}
}

func (p *Parser) need(n int) error {
	if len(p.buf)-p.off < n {
		return fmt.Errorf("%w: need %d bytes, have %d", wpcerr.ErrWrongBufferSize, n, len(p.buf)-p.off)
	}
	return nil
}

func (p *Parser) Uint8() (uint8, error) {
	if err := p.need(1); err != nil {
		return 0, err
	}
	v := p.buf[p.off]
	p.off++
	return v, nil
}

func (p *Parser) Bool() (bool, error) {
	v, err := p.Uint8()
	return v != 0, err
}

func (p *Parser) Uint16() (uint16, error) {
	if err := p.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(p.buf[p.off:])
	p.off += 2
	return v, nil
}

func (p *Parser) Uint32() (uint32, error) {
	if err := p.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(p.buf[p.off:])
	p.off += 4
	return v, nil
}

// Bytes returns the next n raw bytes.
func (p *Parser) Bytes(n int) ([]byte, error) {
	if err := p.need(n); err != nil {
		return nil, err
	}
	v := p.buf[p.off : p.off+n]
	p.off += n
	return v, nil
}

// Remaining returns every byte not yet consumed — used for variable-length
// trailing fields such as apdu[...] whose length was itself a preceding
// field (spec §6.3).
func (p *Parser) Remaining() []byte {
	return p.buf[p.off:]
}

// Len reports how many bytes remain unconsumed.
func (p *Parser) Len() int { return len(p.buf) - p.off }
