package keytree

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNest(t *testing.T) {
	tests := []struct {
		name string
		flat map[string]string
		want map[string]any
	}{
		{
			name: "empty",
			flat: map[string]string{},
			want: map[string]any{},
		},
		{
			name: "single level",
			flat: map[string]string{"title": "Hello"},
			want: map[string]any{"title": "Hello"},
		},
		{
			name: "shared prefixes",
			flat: map[string]string{
				"auth.login":          "Login",
				"auth.logout":         "Logout",
				"auth.errors.invalid": "Invalid credentials",
			},
			want: map[string]any{
				"auth": map[string]any{
					"login":  "Login",
					"logout": "Logout",
					"errors": map[string]any{"invalid": "Invalid credentials"},
				},
			},
		},
		{
			name: "leaf replaced by deeper key",
			flat: map[string]string{"a": "leaf", "a.b.c": "deep"},
			want: map[string]any{"a": map[string]any{"b": map[string]any{"c": "deep"}}},
		},
		{
			name: "empty segments",
			flat: map[string]string{"a..b": "x"},
			want: map[string]any{"a": map[string]any{"": map[string]any{"b": "x"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Nest(tt.flat))
		})
	}
}

func TestNest_Deterministic(t *testing.T) {
	flat := map[string]string{"a": "1", "a.b": "2", "a.b.c": "3", "b": "4", "b.x": "5"}

	first, err := json.Marshal(Nest(flat))
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := json.Marshal(Nest(flat))
		require.NoError(t, err)
		assert.JSONEq(t, string(first), string(again))
	}
	assert.JSONEq(t, `{"a":{"b":{"c":"3"}},"b":{"x":"5"}}`, string(first))
}

func TestFlattenRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	segments := []string{"auth", "login", "errors", "title", "menu", "home"}

	for i := 0; i < 50; i++ {
		flat := make(map[string]string)
		for j := 0; j < 10; j++ {
			depth := 1 + rng.Intn(3)
			key := ""
			for d := 0; d < depth; d++ {
				if d > 0 {
					key += Separator
				}
				key += segments[rng.Intn(len(segments))]
			}
			flat[key] = fmt.Sprintf("value-%d", j)
		}
		removeCollisions(flat)

		assert.Equal(t, flat, Flatten(Nest(flat)))
	}
}

// removeCollisions drops keys that are a strict prefix of another key
func removeCollisions(flat map[string]string) {
	for k := range flat {
		for other := range flat {
			if other != k && len(other) > len(k) && other[:len(k)+1] == k+Separator {
				delete(flat, k)
				break
			}
		}
	}
}
