package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0,g=maybe")

	for _, name := range []string{"a", "c", "e", "A"} {
		assert.True(t, m.Enabled(name, 1), name)
	}
	for _, name := range []string{"b", "d", "f", "g", "missing"} {
		assert.False(t, m.Enabled(name, 1), name)
	}
}

func TestEnabled_PercentageValues(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%,junk=x%")

	assert.True(t, m.Enabled("always", 0))
	assert.False(t, m.Enabled("never", 1))
	assert.False(t, m.Enabled("junk", 1))
	assert.False(t, m.Enabled("canary", 0), "rollout requires a member")

	first := m.Enabled("canary", 42)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.Enabled("canary", 42))
	}

	on := 0
	for id := uint(1); id <= 1000; id++ {
		if m.Enabled("canary", id) {
			on++
		}
	}
	assert.InDelta(t, 250, on, 80)
}

func TestParseAndSnapshot(t *testing.T) {
	m := NewManager(" bad ,x=on, Y = 20% ,z=off,=on,w= ")

	assert.Equal(t, map[string]string{"x": "on", "y": "20%", "z": "off"}, m.Raw())
	assert.Equal(t, []string{"x", "y", "z"}, m.Names())

	snap := m.Snapshot(123)
	assert.Len(t, snap, 3)
	assert.True(t, snap["x"])
	assert.False(t, snap["z"])
}

func TestNilManager(t *testing.T) {
	var m *Manager
	assert.False(t, m.Enabled(LiveUpdates, 1))
}
