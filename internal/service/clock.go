package service

import (
	"time"

	"github.com/noah-isme/attendance-request-api/internal/models"
)

// clock resolves "today" in the configured institution timezone.
type clock struct {
	loc *time.Location
	now func() time.Time
}

func newClock(loc *time.Location) clock {
	if loc == nil {
		loc = time.UTC
	}
	return clock{loc: loc, now: time.Now}
}

func (c clock) today() models.Date {
	return models.DateOf(c.now().In(c.loc))
}
