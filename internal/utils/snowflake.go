package utils

import (
	"strconv"
	"time"
)

// Discord epoch, milliseconds since Unix epoch.
const discordEpoch int64 = 1420070400000

// TimeToSnowflake returns the smallest snowflake ID created at or after t.
// Inverse of discordgo.SnowflakeTimestamp, used to turn a lookback cutoff
// into an `after` parameter for channel history requests.
func TimeToSnowflake(t time.Time) string {
	ms := t.UnixMilli() - discordEpoch
	if ms < 0 {
		ms = 0
	}
	return strconv.FormatInt(ms<<22, 10)
}
