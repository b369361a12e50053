package ports

import "time"

// Clock is the source of time for expiry decisions
type Clock interface {
	Now() time.Time
}
