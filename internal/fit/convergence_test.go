package fit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker_DetectsPlateau(t *testing.T) {
	p := NewProgressTracker(PlateauConfig{Patience: 2, Threshold: 0.01})

	assert.False(t, p.Update(0, 100))
	assert.False(t, p.Update(10, 50))    // 50% better
	assert.False(t, p.Update(20, 49.9))  // stale 1
	assert.True(t, p.Update(30, 49.8))   // stale 2
	assert.True(t, p.Update(40, 49.8))   // still flat
	assert.False(t, p.Update(50, 10))    // real progress resets
	assert.Equal(t, 0, p.StaleCount())
}

func TestProgressTracker_HistoryIsCopy(t *testing.T) {
	p := NewProgressTracker(DefaultPlateauConfig())
	p.Update(0, 3)
	p.Update(10, 2)

	h := p.History()
	assert.Equal(t, []float64{3, 2}, h)
	h[0] = 99
	assert.Equal(t, 3.0, p.History()[0])
}

func TestProgressTracker_ZeroEnergy(t *testing.T) {
	p := NewProgressTracker(PlateauConfig{Patience: 1, Threshold: 0.1})
	p.Update(0, 0)
	assert.True(t, p.Update(10, 0))
}
