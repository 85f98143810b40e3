package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSystem_Now(t *testing.T) {
	now := System{}.Now()
	assert.Equal(t, time.UTC, now.Location())
	assert.Zero(t, now.Nanosecond()%int(time.Millisecond))
	assert.WithinDuration(t, time.Now(), now, time.Second)
}

func TestFixed(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	clk := NewFixed(at)
	assert.Equal(t, at, clk.Now())
	assert.Equal(t, at, clk.Now())

	later := at.Add(time.Hour)
	clk.Set(later)
	assert.Equal(t, later, clk.Now())
}
