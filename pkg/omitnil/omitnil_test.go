package omitnil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type position struct {
	Seconds float64
}

func TestCompact(t *testing.T) {
	var nilPosition *position
	var nilSlice []string
	var nilMap map[string]int

	got := Compact(map[string]any{
		"room_id":  "abc",
		"zero":     0,
		"position": &position{Seconds: 1.5},
		"missing":  nilPosition,
		"slice":    nilSlice,
		"map":      nilMap,
		"empty":    []string{},
		"nil":      nil,
	})

	assert.Equal(t, map[string]any{
		"room_id":  "abc",
		"zero":     0,
		"position": position{Seconds: 1.5},
		"empty":    []string{},
	}, got)
}
