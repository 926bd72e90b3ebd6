package autosolve

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIntervalFor(t *testing.T) {
	assert.Equal(t, 3*time.Second, IntervalFor(SpeedIntervals, 1))
	assert.Equal(t, time.Second, IntervalFor(SpeedIntervals, 3))
	assert.Equal(t, 200*time.Millisecond, IntervalFor(SpeedIntervals, 5))
	assert.Equal(t, DefaultInterval, IntervalFor(SpeedIntervals, 0))
	assert.Equal(t, DefaultInterval, IntervalFor(SpeedIntervals, 6))
}
