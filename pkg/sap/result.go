package sap

import "github.com/wirepas/wpc-go/pkg/wpcerr"

// resultTables maps each confirm primitive's raw result byte to the
// richer node-level taxonomy (spec §7: "the same numeric code means
// different things in different primitives"). Primitives not listed fall
// back to the generic table.
var resultTables = map[byte]map[byte]wpcerr.Result{
	MSAPStackStartRequest: {
		0: wpcerr.ResultOK,
		1: wpcerr.ResultInvalidValue,
		2: wpcerr.ResultRoleNotSet,
		3: wpcerr.ResultNoConfig,
	},
	MSAPStackStopRequest: {
		0: wpcerr.ResultOK,
		1: wpcerr.ResultStackNotStopped,
	},
	MSAPAttributeWriteRequest: {
		0: wpcerr.ResultOK,
		1: wpcerr.ResultInvalidValue,
		2: wpcerr.ResultAccessDenied,
	},
	MSAPAttributeReadRequest: {
		0: wpcerr.ResultOK,
		1: wpcerr.ResultAttributeNotFound,
	},
	CSAPAttributeWriteRequest: {
		0: wpcerr.ResultOK,
		1: wpcerr.ResultInvalidValue,
		2: wpcerr.ResultAccessDenied,
	},
	CSAPAttributeReadRequest: {
		0: wpcerr.ResultOK,
		1: wpcerr.ResultAttributeNotFound,
	},
	MSAPScratchpadStartRequest: {
		0: wpcerr.ResultOK,
		1: wpcerr.ResultInvalidScratchpad,
		2: wpcerr.ResultOutOfMemory,
	},
	MSAPScratchpadBlockRequest: {
		0: wpcerr.ResultOK,
		1: wpcerr.ResultInvalidScratchpad,
		2: wpcerr.ResultOutOfMemory,
	},
	MSAPScratchpadUpdateRequest: {
		0: wpcerr.ResultOK,
		1: wpcerr.ResultInvalidScratchpad,
		2: wpcerr.ResultStackNotStopped,
	},
	MSAPAppConfigDataWriteRequest: {
		0: wpcerr.ResultOK,
		1: wpcerr.ResultInvalidValue,
		2: wpcerr.ResultAlreadySet,
	},
}

var genericResultTable = map[byte]wpcerr.Result{
	0: wpcerr.ResultOK,
	1: wpcerr.ResultInvalidValue,
}

// ResultFor maps a confirm's raw result byte to the taxonomy appropriate
// for requestPrimitive.
func ResultFor(requestPrimitive byte, rawResult byte) wpcerr.Result {
	if table, ok := resultTables[requestPrimitive]; ok {
		if r, ok := table[rawResult]; ok {
			return r
		}
		return wpcerr.ResultUnknown
	}
	if r, ok := genericResultTable[rawResult]; ok {
		return r
	}
	return wpcerr.ResultUnknown
}
