package commands

import (
	"fmt"
	"time"
)

// timeUntil renders a duration the way the replies expect: whole seconds
// under a minute, then minutes, hours, days. Buckets truncate rather than
// round, so "90s" reads as "1 minutes" once set.
func timeUntil(d time.Duration) string {
	secs := int64(d.Seconds())
	switch {
	case secs < 60:
		return fmt.Sprintf("%d seconds", secs)
	case secs < 3600:
		return fmt.Sprintf("%d minutes", secs/60)
	case secs < 86400:
		return fmt.Sprintf("%d hours", secs/3600)
	default:
		return fmt.Sprintf("%d days", secs/86400)
	}
}
