package cron

import (
	"fmt"
	"strings"
	"time"

	robfig "github.com/robfig/cron"
)

// DefaultSchedule runs one cycle a day at 06:00 in the worker's time zone.
const DefaultSchedule = "0 6 * * *"

// Schedule yields the next activation time after a given instant.
type Schedule interface {
	Next(time.Time) time.Time
}

// ParseSchedule accepts a five-field cron expression or a descriptor such as
// "@hourly" or "@every 15m".
func ParseSchedule(spec string) (Schedule, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		spec = DefaultSchedule
	}
	sched, err := robfig.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse cron schedule %q: %w", spec, err)
	}
	return sched, nil
}
