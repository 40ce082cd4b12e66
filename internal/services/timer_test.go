package services

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerFires(t *testing.T) {
	s := NewTimerService()
	defer s.Stop()

	fired := make(chan struct{})
	s.Start("p1", time.Now().Add(30*time.Millisecond), func() { close(fired) })

	require.True(t, s.IsActive("p1"))
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
	assert.Eventually(t, func() bool { return !s.IsActive("p1") }, time.Second, 10*time.Millisecond)
}

func TestTimerImmediateExpiry(t *testing.T) {
	s := NewTimerService()
	defer s.Stop()

	var fired atomic.Bool
	s.Start("p1", time.Now().Add(-time.Second), func() { fired.Store(true) })

	assert.True(t, fired.Load(), "past deadline should fire on the calling goroutine")
	assert.False(t, s.IsActive("p1"))
}

func TestTimerCancel(t *testing.T) {
	s := NewTimerService()
	defer s.Stop()

	var fired atomic.Bool
	s.Start("p1", time.Now().Add(50*time.Millisecond), func() { fired.Store(true) })
	s.Cancel("p1")

	assert.False(t, s.IsActive("p1"))
	time.Sleep(100 * time.Millisecond)
	assert.False(t, fired.Load())
}

func TestTimerSupersede(t *testing.T) {
	s := NewTimerService()
	defer s.Stop()

	var old atomic.Bool
	fired := make(chan struct{})
	s.Start("p1", time.Now().Add(30*time.Millisecond), func() { old.Store(true) })
	s.Start("p1", time.Now().Add(60*time.Millisecond), func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("superseding timer did not fire")
	}
	assert.False(t, old.Load(), "superseded callback must not run")
}

func TestTimerCallbackPanicIsContained(t *testing.T) {
	s := NewTimerService()
	defer s.Stop()

	// Must not take the process down.
	s.Start("p1", time.Now().Add(-time.Second), func() { panic("boom") })
}

func TestRemainingMS(t *testing.T) {
	s := NewTimerService()
	defer s.Stop()

	assert.Equal(t, int64(0), s.RemainingMS(time.Now().Add(-time.Minute)))
	assert.Greater(t, s.RemainingMS(time.Now().Add(time.Minute)), int64(50000))
}
