package helpers

import (
	"time"

	"github.com/rs/zerolog/log"
)

// ParseDuration parses durationStr, falling back to def when it is invalid.
func ParseDuration(durationStr string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(durationStr)
	if err != nil {
		log.Warn().Err(err).Str("value", durationStr).Dur("default", def).Msg("Invalid duration, using default")
		return def
	}
	return d
}

// EpochMillis converts t to milliseconds since the Unix epoch.
func EpochMillis(t time.Time) int64 {
	return t.UnixMilli()
}
