package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0")

	for _, name := range []string{"a", "c", "e"} {
		assert.True(t, m.Enabled(name, "u1"), name)
	}
	for _, name := range []string{"b", "d", "f", "missing"} {
		assert.False(t, m.Enabled(name, "u1"), name)
	}
}

func TestEnabled_PercentageValues(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%,junk=abc%")

	assert.True(t, m.Enabled("always", "u1"))
	assert.False(t, m.Enabled("never", "u1"))
	assert.False(t, m.Enabled("junk", "u1"))

	first := m.Enabled("canary", "0b6f1c1e-6a0e-4c57-9c39-5f1f4b9a2d11")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.Enabled("canary", "0b6f1c1e-6a0e-4c57-9c39-5f1f4b9a2d11"))
	}
	assert.False(t, m.Enabled("canary", ""), "anonymous viewers are outside partial rollouts")
}

func TestEnabled_RolloutIsRoughlyProportional(t *testing.T) {
	m := NewManager("half=50%")
	on := 0
	for i := 0; i < 1000; i++ {
		if m.Enabled("half", string(rune('a'+i%26))+string(rune('A'+i/26))) {
			on++
		}
	}
	assert.InDelta(t, 500, on, 150)
}

func TestParseAndSnapshot(t *testing.T) {
	m := NewManager(" bad ,x=on, Y = 20% ,z=off ")

	raw := m.Raw()
	assert.Equal(t, map[string]string{"x": "on", "y": "20%", "z": "off"}, raw)
	assert.Len(t, m.Snapshot("u1"), 3)
}

func TestNilManager(t *testing.T) {
	var m *Manager
	assert.False(t, m.Enabled("x", "u1"))
	assert.Empty(t, m.Raw())
	assert.Empty(t, m.Snapshot("u1"))
}

func TestEnabledOr(t *testing.T) {
	m := NewManager("webp_variants=off")
	assert.False(t, m.EnabledOr("webp_variants", "", true))
	assert.True(t, m.EnabledOr("unknown", "", true))
	assert.False(t, m.EnabledOr("unknown", "", false))

	var nilManager *Manager
	assert.True(t, nilManager.EnabledOr("webp_variants", "", true))
}
