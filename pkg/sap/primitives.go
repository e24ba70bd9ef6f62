// Package sap implements the SAP message shapes spec §4.6/§6.3 describe:
// CSAP (configuration), MSAP (management), DSAP (data), LSAP (local) and
// TSAP (test) request/indication payloads, their primitive ids, and the
// packed little-endian encoders/decoders for each.
//
// The primitive-id table itself (wpc_constants.h in the original C
// implementation) was filtered out of the retrieved source slice; spec §6.2
// is explicit that the core "does not need to enumerate every primitive" —
// only apply ConfirmOffset/ResponseOffset mechanically. The concrete ids
// below are this implementation's own internally-consistent numbering,
// anchored on the one id spec §8 scenario S1 fixes by name: CSAP attribute
// write is primitive 0x0D. See DESIGN.md for the full allocation rationale.
package sap

import "github.com/wirepas/wpc-go/pkg/frame"

// Request primitive ids, 0x01-0x2F. Confirms are frame.ConfirmPrimitive(id).
const (
	CSAPAttributeReadRequest  byte = 0x01
	CSAPAttributeWriteRequest byte = 0x0D // fixed by spec §8 scenario S1
	CSAPFactoryResetRequest   byte = 0x0E

	MSAPStackStartRequest          byte = 0x10
	MSAPStackStopRequest           byte = 0x11
	MSAPAttributeReadRequest       byte = 0x12
	MSAPAttributeWriteRequest      byte = 0x13
	MSAPAppConfigDataWriteRequest  byte = 0x14
	MSAPAppConfigDataReadRequest   byte = 0x15
	MSAPScratchpadStartRequest     byte = 0x16
	MSAPScratchpadBlockRequest     byte = 0x17
	MSAPScratchpadStatusRequest    byte = 0x18
	MSAPScratchpadUpdateRequest    byte = 0x19
	MSAPScratchpadClearRequest     byte = 0x1A
	MSAPScratchpadTargetReadReq    byte = 0x1B
	MSAPScratchpadTargetWriteReq   byte = 0x1C
	MSAPScratchpadBlockReadRequest byte = 0x1D
	MSAPImageRemoteStatusRequest   byte = 0x1E
	MSAPImageRemoteUpdateRequest   byte = 0x1F
	MSAPSinkCostWriteRequest       byte = 0x20
	MSAPSinkCostReadRequest        byte = 0x21
	MSAPScanNeighborsRequest       byte = 0x22
	MSAPGetNeighborsRequest        byte = 0x23
	MSAPConfigDataItemGetRequest   byte = 0x24
	MSAPConfigDataItemSetRequest   byte = 0x25
	MSAPConfigDataItemListRequest  byte = 0x26
	MSAPIndicationPollRequest      byte = 0x27

	DSAPDataTxRequest           byte = 0x28
	DSAPDataTxTTRequest         byte = 0x29
	DSAPDataTxFragmentedRequest byte = 0x2A

	LSAPAttributeReadRequest  byte = 0x2B
	LSAPAttributeWriteRequest byte = 0x2C

	TSAPTestModeStartRequest  byte = 0x2D
	TSAPTestModeStopRequest   byte = 0x2E
	TSAPSignalTestSendRequest byte = 0x2F
)

// Indication primitive ids, 0xB0-0xBF. Responses are
// frame.ResponsePrimitive(id).
const (
	DSAPDataTxIndication         byte = 0xB0
	DSAPDataRxIndication         byte = 0xB1
	DSAPDataRxFragmentIndication byte = 0xB2
	MSAPStackStateIndication     byte = 0xB3
	MSAPAppConfigRxIndication    byte = 0xB4
	MSAPScanNeighborsIndication  byte = 0xB5
	MSAPImageRemoteStatusInd     byte = 0xB6
	MSAPConfigDataItemRxIndication byte = 0xB7
)

// ConfirmOf and ResponseOf are thin re-exports of the frame package's
// mechanical offset functions, kept here so callers working purely in
// terms of sap primitive ids do not need to import pkg/frame directly.
func ConfirmOf(request byte) byte      { return frame.ConfirmPrimitive(request) }
func ResponseOf(indication byte) byte  { return frame.ResponsePrimitive(indication) }
