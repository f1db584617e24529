package util

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewID mints a ULID, optionally prefixed. ULIDs sort by creation time,
// which keeps item and event ids roughly chronological in storage.
func NewID(prefix string) string {
	id := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader)
	if prefix == "" {
		return strings.ToLower(id.String())
	}
	return prefix + "_" + strings.ToLower(id.String())
}
