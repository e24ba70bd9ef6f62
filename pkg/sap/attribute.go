package sap

import "github.com/wirepas/wpc-go/pkg/wire"

// AttributeValueSize is the fixed width of an attribute's value field
// (spec §6.3: "u8 value[16]") shared by CSAP, MSAP and LSAP attribute
// read/write.
const AttributeValueSize = 16

// AttributeWriteRequest is `u16 attr_id; u8 len; u8 value[16];`.
type AttributeWriteRequest struct {
	AttributeID uint16
	Value       []byte // length <= AttributeValueSize
}

func (r AttributeWriteRequest) Encode() []byte {
	b := wire.NewBuilder(2 + 1 + AttributeValueSize)
	b.PutUint16(r.AttributeID)
	length := len(r.Value)
	if length > AttributeValueSize {
		length = AttributeValueSize
	}
	b.PutUint8(uint8(length))
	b.PutFixed(r.Value, AttributeValueSize)
	return b.Bytes()
}

// AttributeReadRequest is `u16 attr_id;`.
type AttributeReadRequest struct {
	AttributeID uint16
}

func (r AttributeReadRequest) Encode() []byte {
	b := wire.NewBuilder(2)
	b.PutUint16(r.AttributeID)
	return b.Bytes()
}

// AttributeReadConfirm is `u8 result; u16 attr_id; u8 len; u8 value[16];`.
type AttributeReadConfirm struct {
	Result      byte
	AttributeID uint16
	Value       []byte // Length bytes actually valid
}

func DecodeAttributeReadConfirm(payload []byte) (AttributeReadConfirm, error) {
	p := wire.NewParser(payload)
	result, err := p.Uint8()
	if err != nil {
		return AttributeReadConfirm{}, err
	}
	attrID, err := p.Uint16()
	if err != nil {
		return AttributeReadConfirm{}, err
	}
	length, err := p.Uint8()
	if err != nil {
		return AttributeReadConfirm{}, err
	}
	value, err := p.Bytes(AttributeValueSize)
	if err != nil {
		return AttributeReadConfirm{}, err
	}
	if int(length) > AttributeValueSize {
		length = AttributeValueSize
	}
	return AttributeReadConfirm{
		Result:      result,
		AttributeID: attrID,
		Value:       append([]byte{}, value[:length]...),
	}, nil
}

// GenericConfirm is `u8 result;` — shared by every primitive whose
// confirm carries nothing but a result byte (stack start/stop, scratchpad
// clear, factory reset, config-data-item set, ...).
type GenericConfirm struct {
	Result byte
}

func DecodeGenericConfirm(payload []byte) (GenericConfirm, error) {
	p := wire.NewParser(payload)
	result, err := p.Uint8()
	if err != nil {
		return GenericConfirm{}, err
	}
	return GenericConfirm{Result: result}, nil
}
