package sap

import (
	"fmt"

	"github.com/wirepas/wpc-go/pkg/wire"
	"github.com/wirepas/wpc-go/pkg/wpcerr"
)

// MaxConfigDataItemSize bounds a single config data item's value, mirroring
// the app-config value cap (spec §6.3 treats config data items as a
// generalization of the single app-config blob into a key/value store).
const MaxConfigDataItemSize = 80

// ConfigDataItemGetRequest is `u16 item_id;`.
type ConfigDataItemGetRequest struct {
	ItemID uint16
}

func (r ConfigDataItemGetRequest) Encode() []byte {
	b := wire.NewBuilder(2)
	b.PutUint16(r.ItemID)
	return b.Bytes()
}

// ConfigDataItemGetConfirm is `u8 result; u16 item_id; u8 len;
// u8 value[80];`.
type ConfigDataItemGetConfirm struct {
	Result byte
	ItemID uint16
	Value  []byte
}

func DecodeConfigDataItemGetConfirm(payload []byte) (ConfigDataItemGetConfirm, error) {
	p := wire.NewParser(payload)
	c := ConfigDataItemGetConfirm{}
	var err error
	if c.Result, err = p.Uint8(); err != nil {
		return ConfigDataItemGetConfirm{}, err
	}
	if c.ItemID, err = p.Uint16(); err != nil {
		return ConfigDataItemGetConfirm{}, err
	}
	length, err := p.Uint8()
	if err != nil {
		return ConfigDataItemGetConfirm{}, err
	}
	value, err := p.Bytes(int(length))
	if err != nil {
		return ConfigDataItemGetConfirm{}, err
	}
	c.Value = append([]byte{}, value...)
	return c, nil
}

// ConfigDataItemSetRequest is `u16 item_id; u8 len; u8 value[80];`.
type ConfigDataItemSetRequest struct {
	ItemID uint16
	Value  []byte
}

func (r ConfigDataItemSetRequest) Encode() ([]byte, error) {
	if len(r.Value) > MaxConfigDataItemSize {
		return nil, fmt.Errorf("%w: config item value exceeds %d bytes", wpcerr.ErrWrongParam, MaxConfigDataItemSize)
	}
	b := wire.NewBuilder(3 + len(r.Value))
	b.PutUint16(r.ItemID)
	b.PutUint8(uint8(len(r.Value)))
	b.PutBytes(r.Value)
	return b.Bytes(), nil
}

// ConfigDataItemListRequest has no parameters: it asks for every item id
// currently set on the node.
type ConfigDataItemListRequest struct{}

func (ConfigDataItemListRequest) Encode() []byte { return nil }

// ConfigDataItemListConfirm is `u8 result; u8 count; u16 item_ids[...];`.
type ConfigDataItemListConfirm struct {
	Result  byte
	ItemIDs []uint16
}

// ConfigDataItemRxIndication is fired when a config data item the node
// tracks changes value, the config-data-item analogue of
// AppConfigRxIndication. Wire shape `u16 item_id; u8 len; u8 value[80];`.
type ConfigDataItemRxIndication struct {
	ItemID uint16
	Value  []byte
}

func DecodeConfigDataItemRxIndication(payload []byte) (ConfigDataItemRxIndication, error) {
	p := wire.NewParser(payload)
	ind := ConfigDataItemRxIndication{}
	var err error
	if ind.ItemID, err = p.Uint16(); err != nil {
		return ConfigDataItemRxIndication{}, err
	}
	length, err := p.Uint8()
	if err != nil {
		return ConfigDataItemRxIndication{}, err
	}
	value, err := p.Bytes(int(length))
	if err != nil {
		return ConfigDataItemRxIndication{}, err
	}
	ind.Value = append([]byte{}, value...)
	return ind, nil
}

func DecodeConfigDataItemListConfirm(payload []byte) (ConfigDataItemListConfirm, error) {
	p := wire.NewParser(payload)
	result, err := p.Uint8()
	if err != nil {
		return ConfigDataItemListConfirm{}, err
	}
	count, err := p.Uint8()
	if err != nil {
		return ConfigDataItemListConfirm{}, err
	}
	ids := make([]uint16, 0, count)
	for i := 0; i < int(count); i++ {
		id, err := p.Uint16()
		if err != nil {
			return ConfigDataItemListConfirm{}, err
		}
		ids = append(ids, id)
	}
	return ConfigDataItemListConfirm{Result: result, ItemIDs: ids}, nil
}
