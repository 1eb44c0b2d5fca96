package redis

import (
	"errors"
	"fmt"
	"testing"

	"github.com/redis/go-redis/v9"
)

func TestIsNilError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil reply", redis.Nil, true},
		{"wrapped nil reply", fmt.Errorf("get match: %w", redis.Nil), true},
		{"other", errors.New("connection refused"), false},
		{"no error", nil, false},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNilError(tt.err); got != tt.want {
				t.Errorf("IsNilError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
