package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"shorter", "abc", 5, "abc"},
		{"exact", "abcde", 5, "abcde"},
		{"longer", "abcdef", 3, "abc"},
		{"multibyte", "привет мир", 6, "привет"},
		{"zero", "abc", 0, ""},
		{"negative", "abc", -1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TruncateRunes(tt.in, tt.n))
		})
	}
}

func TestTimestampedAt(t *testing.T) {
	ts := time.Date(2024, 3, 5, 14, 7, 9, 123456000, time.UTC)
	assert.Equal(t, "20240305_140709_123456__report.pdf", TimestampedAt(ts, "report.pdf"))
	assert.Equal(t, "20240305_140709_123456__passwd", TimestampedAt(ts, "../../etc/passwd"))
}
