// Package runid generates time-sortable identifiers for import runs
package runid

import (
	crand "crypto/rand"
	"strings"
	"time"
)

const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

const (
	// Prefix marks import run ids
	Prefix = "imp"

	stampLength  = 6
	randomLength = 14
)

// EncodeTime encodes the Unix seconds of t as a fixed-width base62 string.
// Output sorts lexicographically in time order.
func EncodeTime(t time.Time) string {
	n := t.Unix()
	if n < 0 {
		n = 0
	}
	out := make([]byte, stampLength)
	for i := stampLength - 1; i >= 0; i-- {
		out[i] = alphabet[n%62]
		n /= 62
	}
	return string(out)
}

// DecodeTime reverses EncodeTime
func DecodeTime(stamp string) (time.Time, bool) {
	if len(stamp) != stampLength {
		return time.Time{}, false
	}
	var n int64
	for i := 0; i < len(stamp); i++ {
		d := strings.IndexByte(alphabet, stamp[i])
		if d < 0 {
			return time.Time{}, false
		}
		n = n*62 + int64(d)
	}
	return time.Unix(n, 0).UTC(), true
}

// New returns "imp_" followed by a timestamp and random base62 characters
func New() string {
	return NewAt(time.Now())
}

// NewAt is New with an explicit clock reading
func NewAt(t time.Time) string {
	return Prefix + "_" + EncodeTime(t) + random(randomLength)
}

// StartedAt extracts the creation time of a run id
func StartedAt(id string) (time.Time, bool) {
	rest, ok := strings.CutPrefix(id, Prefix+"_")
	if !ok || len(rest) < stampLength {
		return time.Time{}, false
	}
	return DecodeTime(rest[:stampLength])
}

// random draws n base62 characters by rejection sampling 6-bit values
func random(n int) string {
	var sb strings.Builder
	sb.Grow(n)
	buf := make([]byte, n+8)
	for sb.Len() < n {
		if _, err := crand.Read(buf); err != nil {
			panic("failed to read random bytes: " + err.Error())
		}
		for _, b := range buf {
			if v := b & 0x3f; v < 62 {
				sb.WriteByte(alphabet[v])
				if sb.Len() == n {
					break
				}
			}
		}
	}
	return sb.String()
}
