package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSystem_NowAdvances(t *testing.T) {
	var s System
	first := s.Now()
	time.Sleep(time.Millisecond)
	second := s.Now()
	assert.True(t, second.After(first))
}

func TestFake_NowIsStableUntilAdvanced(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f := NewFake(start)

	assert.Equal(t, start, f.Now())
	assert.Equal(t, start, f.Now())

	f.Advance(time.Hour)
	assert.Equal(t, start.Add(time.Hour), f.Now())
}

func TestFake_SatisfiesClockInterface(t *testing.T) {
	var _ Clock = NewFake(time.Now())
	var _ Clock = System{}
}
