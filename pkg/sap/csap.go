// csap.go covers CSAP, the network-configuration attribute family (node
// address, network address, network channel, role) — spec §6.3. Payload
// shapes are shared with MSAP/LSAP attribute access and live in
// attribute.go; this file holds CSAP's own attribute ids and the
// factory-reset primitive.
package sap

// CSAP attribute ids, grounded on original_source/lib/wpc/include/wpc_types.h
// (network address, node address, network channel and role are the
// attributes every dual-MCU deployment configures before starting the
// stack).
const (
	CSAPAttributeNodeAddress    uint16 = 1
	CSAPAttributeNetworkAddress uint16 = 2
	CSAPAttributeNetworkChannel uint16 = 3
	CSAPAttributeNodeRole       uint16 = 4
)

// FactoryResetRequest has no parameters: it asks the node to erase its
// persistent configuration.
type FactoryResetRequest struct{}

func (FactoryResetRequest) Encode() []byte { return nil }
