package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllow(t *testing.T) {
	tests := []struct {
		name      string
		likes     int64
		threshold int
		expected  bool
	}{
		{"above", 11, 10, true},
		{"equal boundary", 10, 10, true},
		{"below", 9, 10, false},
		{"zero threshold zero likes", 0, 0, true},
		{"zero likes", 0, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := VideoMetadata{LikeCount: tt.likes}
			assert.Equal(t, tt.expected, Allow(meta, tt.threshold))
		})
	}
}
