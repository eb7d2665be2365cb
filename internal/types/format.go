package types

import "time"

// ClientTime is the one formatting helper used by every read path that
// returns a timestamp to a client. Timestamps are normalized to UTC RFC3339
// so the same row always formats identically regardless of which handler
// served it.
func ClientTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
