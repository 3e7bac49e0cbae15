// Package migrate creates, applies, rolls back, and reports schema
// migrations. A migration is a directory named <version>_<slug> holding an up
// script, a down script, and the schema snapshot the next diff runs against.
// Applied-state is persisted through the State interface, either a journal
// file or a database table.
package migrate

import (
	"fmt"
	"time"
)

// NewVersionID allocates a millisecond-resolution UTC timestamp id. When two
// migrations land inside the same millisecond the id grows a "-N" suffix.
// The suffix keeps the version free of underscores, so a directory name
// always splits into version and slug at its first underscore even when the
// slug itself starts with digits.
func NewVersionID(now time.Time, taken map[string]bool) string {
	utc := now.UTC()
	base := utc.Format("20060102150405") + fmt.Sprintf("%03d", utc.Nanosecond()/int(time.Millisecond))
	id := base
	for n := 1; taken[id]; n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	return id
}
