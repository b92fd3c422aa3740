// Package clock provides the civil-timezone clock used for all schedule
// comparisons. Stored service windows are civil-zone timestamps, so "now"
// must be produced in the same zone before any window check.
package clock

import (
	"fmt"
	"time"
)

// Clock yields the current time in a fixed civil timezone.
type Clock struct {
	loc *time.Location
}

// New loads the named timezone (e.g. "America/Bogota").
func New(tzName string) (*Clock, error) {
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %s: %v", tzName, err)
	}
	return &Clock{loc: loc}, nil
}

// Now returns the current time in the civil timezone.
func (c *Clock) Now() time.Time {
	return time.Now().In(c.loc)
}

// In converts t to the civil timezone.
func (c *Clock) In(t time.Time) time.Time {
	return t.In(c.loc)
}

// Location returns the underlying timezone.
func (c *Clock) Location() *time.Location {
	return c.loc
}
