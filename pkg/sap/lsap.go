// Package sap's lsap.go covers LSAP, the attribute family scoped to the
// local host-to-node link itself (baud rate, protocol version) rather than
// the wireless network CSAP/MSAP configure. Same wire shape as CSAP/MSAP
// attribute access, so it reuses AttributeReadRequest/AttributeWriteRequest
// from attribute.go.
package sap

// Local attribute ids, spec §6.3's LSAP family. Grounded on
// original_source/lib/wpc/include/wpc_types.h's link-local attribute
// enumeration (protocol version, max frame size, chip id).
const (
	LSAPAttributeProtocolVersion uint16 = 1
	LSAPAttributeMaxFrameSize    uint16 = 2
	LSAPAttributeChipID         uint16 = 3
)
