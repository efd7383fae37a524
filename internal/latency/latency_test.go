package latency

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestDelayResolution(t *testing.T) {
	s := New(200*time.Millisecond, map[string]time.Duration{
		"Login":             50 * time.Millisecond,
		"GetDashboardStats": -time.Second,
	})

	assert.Equal(t, 200*time.Millisecond, s.Delay("GetAllUsers"))
	assert.Equal(t, 50*time.Millisecond, s.Delay("Login"))
	assert.Equal(t, time.Duration(0), s.Delay("GetDashboardStats"))

	s.Set("GetAllUsers", time.Second)
	assert.Equal(t, time.Second, s.Delay("GetAllUsers"))
}

func TestWaitUsesConfiguredDelay(t *testing.T) {
	var mu sync.Mutex
	var slept []time.Duration
	s := New(300*time.Millisecond, map[string]time.Duration{"fast": 0})
	s.sleep = func(d time.Duration) {
		mu.Lock()
		slept = append(slept, d)
		mu.Unlock()
	}

	s.Wait("slow")
	s.Wait("fast")

	assert.Equal(t, []time.Duration{300 * time.Millisecond}, slept)
}

func TestNilAndOffNeverWait(t *testing.T) {
	var s *Simulator
	assert.Zero(t, s.Delay("anything"))
	assert.Zero(t, Off().Delay("anything"))
}
