// Copyright (c) 2024 Neomantra Corp
//
// Nanosecond timestamp helpers shared across the clock, ticks, and bar
// layers. Price carries its own per-instrument precision rather than a
// single hardcoded scale, so these stick to the UnixNano <-> time.Time/
// YYYYMMDD conversions every other layer needs.

package tradecore

import (
	"time"

	"github.com/neomantra/ymdflag"
)

// TimestampToSecNanos splits a UnixNano timestamp into seconds and the
// remaining nanoseconds.
func TimestampToSecNanos(tsNs uint64) (int64, int64) {
	secs := int64(tsNs / 1e9)
	nanos := int64(tsNs) - int64(secs*1e9)
	return secs, nanos
}

// TimestampToTime converts a UnixNano timestamp to time.Time.
func TimestampToTime(tsNs uint64) time.Time {
	secs, nanos := TimestampToSecNanos(tsNs)
	return time.Unix(secs, nanos)
}

// TimeToYMD returns YYYYMMDD for t in t's own location. A zero time
// returns 0. Delegates to ymdflag, the same YMD convention
// cmd/tradecore-replay's --from-date/--to-date flags parse into.
func TimeToYMD(t time.Time) uint32 {
	if t.IsZero() {
		return 0
	}
	return ymdflag.TimeToYMD(t)
}
