package invitations

import (
	"strconv"
	"time"

	"github.com/gosimple/slug"
)

// GenerateSlug builds the public URL identifier for an invitation from its
// event name plus a millisecond timestamp. Uniqueness is not pre-checked;
// the insert surfaces a constraint violation in the rare collision case.
func GenerateSlug(eventName string, now time.Time) string {
	base := slug.Make(eventName)
	if base == "" {
		base = "evento"
	}
	return base + "-" + strconv.FormatInt(now.UnixMilli(), 10)
}
