package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayString(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		fallback string
		want     string
	}{
		{"string passes through", "Central Hospital", "fallback", "Central Hospital"},
		{"nil yields fallback", nil, "fallback", "fallback"},
		{"number converts", 42.5, "fallback", "42.5"},
		{"bool converts", true, "fallback", "true"},
		{"object with name", map[string]any{"name": "Central Hospital"}, "fallback", "Central Hospital"},
		{"object with cityName", map[string]any{"cityName": "Bengaluru"}, "fallback", "Bengaluru"},
		{"coordinate pair is not a label", map[string]any{"lat": 10.0, "lng": 20.0}, "fallback", "fallback"},
		{"name wins over coordinates", map[string]any{"name": "X", "lat": 1.0, "lng": 2.0}, "fallback", "X"},
		{
			"nested candidate recurses one level",
			map[string]any{"name": map[string]any{"label": "Ward 12"}},
			"fallback",
			"Ward 12",
		},
		{
			"empty candidate falls through to next key",
			map[string]any{"name": "", "area": "North Zone"},
			"fallback",
			"North Zone",
		},
		{"unknown object serializes", map[string]any{"zone": "A"}, "fallback", `{"zone":"A"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayString(tt.input, tt.fallback))
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence(`{"a":1}`))
}

func TestDecode(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	t.Run("fenced body parses identically to unwrapped", func(t *testing.T) {
		var fenced, plain payload
		assert.True(t, Decode("```json\n{\"name\":\"x\"}\n```", &fenced))
		assert.True(t, Decode(`{"name":"x"}`, &plain))
		assert.Equal(t, plain, fenced)
	})

	t.Run("malformed input leaves zero shape", func(t *testing.T) {
		var p payload
		assert.False(t, Decode("not json at all {", &p))
		assert.Equal(t, payload{}, p)
	})

	t.Run("empty input is a failed parse", func(t *testing.T) {
		var p payload
		assert.False(t, Decode("", &p))
	})
}
