package service

import "time"

// Clock supplies the current time to circulation decisions.
type Clock interface {
	Now() time.Time
}
