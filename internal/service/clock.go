package service

import "time"

// Clock supplies the current time to rules that depend on "today".
type Clock interface {
	Now() time.Time
}

// RealClock reads the wall clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
