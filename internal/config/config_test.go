package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestServiceLaneSet(t *testing.T) {
	tests := []struct {
		name    string
		letters string
		want    map[string]bool
	}{
		{"default desk lane", "B", map[string]bool{"B": true}},
		{"multiple lanes", "BX", map[string]bool{"B": true, "X": true}},
		{"lower case normalized", "bz", map[string]bool{"B": true, "Z": true}},
		{"junk ignored", "B,1 -", map[string]bool{"B": true}},
		{"empty", "", map[string]bool{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Config{ServiceLaneLetters: tt.letters}
			assert.Equal(t, tt.want, c.ServiceLaneSet())
		})
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_BOOL", "yes")
	assert.True(t, envBool("X_BOOL", false))
	assert.False(t, envBool("X_BOOL_MISSING", false))

	t.Setenv("X_INT", "42")
	assert.Equal(t, 42, envInt("X_INT", 7))
	assert.Equal(t, 7, envInt("X_INT_MISSING", 7))

	t.Setenv("X_DUR", "90s")
	assert.Equal(t, 90*time.Second, envDur("X_DUR", time.Minute))
	assert.Equal(t, time.Minute, envDur("X_DUR_MISSING", time.Minute))
}
