package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatPosition(t *testing.T) {
	tests := []struct {
		sec  int64
		want string
	}{
		{0, "-"},
		{-5, "-"},
		{7, "0:07"},
		{125, "2:05"},
		{3600, "1:00:00"},
		{3723, "1:02:03"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatPosition(tt.sec), "formatPosition(%d)", tt.sec)
	}
}

func TestFormatTimeAgo(t *testing.T) {
	assert.Equal(t, "never", formatTimeAgo(time.Time{}))
	assert.Equal(t, "2 hours ago", formatTimeAgo(time.Now().Add(-2*time.Hour)))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
	assert.Equal(t, "ééé", truncate("ééé", 3), "counts runes, not bytes")
}

func TestDeref(t *testing.T) {
	n := 3
	assert.Equal(t, "3", deref(&n, "-"))
	assert.Equal(t, "-", deref[int](nil, "-"))
}
