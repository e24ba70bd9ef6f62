package sap

import "time"

// TicksPerSecond is the node clock's resolution: spec §6.4 specifies
// network-time fields as counted in 1/128th-of-a-second ticks, matching
// original_source/lib/wpc/include/wpc_types.h's network_time_t.
const TicksPerSecond = 128

// TicksToDuration converts a raw node tick count to a time.Duration.
func TicksToDuration(ticks uint32) time.Duration {
	return time.Duration(ticks) * time.Second / TicksPerSecond
}

// DurationToTicks converts a time.Duration to the nearest whole node tick
// count, saturating at the uint32 range rather than wrapping.
func DurationToTicks(d time.Duration) uint32 {
	if d <= 0 {
		return 0
	}
	ticks := int64(d) * TicksPerSecond / int64(time.Second)
	if ticks > int64(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(ticks)
}
