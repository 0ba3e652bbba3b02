package cron

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScheduleDefaultsToDailyMorningRun(t *testing.T) {
	sched, err := ParseSchedule("")
	require.NoError(t, err)

	bogota, err := time.LoadLocation("America/Bogota")
	require.NoError(t, err)
	from := time.Date(2026, 3, 1, 7, 0, 0, 0, bogota)
	assert.Equal(t, time.Date(2026, 3, 2, 6, 0, 0, 0, bogota), sched.Next(from))
}

func TestParseScheduleDescriptors(t *testing.T) {
	sched, err := ParseSchedule("@every 15m")
	require.NoError(t, err)
	from := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)
	assert.Equal(t, from.Add(15*time.Minute), sched.Next(from))
}

func TestParseScheduleRejectsGarbage(t *testing.T) {
	_, err := ParseSchedule("every morning")
	require.Error(t, err)
}
