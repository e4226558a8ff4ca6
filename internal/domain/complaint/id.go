package complaint

import (
	"strconv"
	"time"
)

const idPrefix = "CMP-"

// NewComplaintID returns a record identifier: a fixed prefix plus a
// millisecond timestamp. Uniqueness is best-effort for a single-operator
// client; two creations in the same millisecond would collide.
func NewComplaintID(now time.Time) string {
	return idPrefix + strconv.FormatInt(now.UnixMilli(), 10)
}
