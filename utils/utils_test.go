package utils

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildImageURL(t *testing.T) {
	assert.Equal(t,
		"http://localhost:8080/images/posts/abc/x_a.png",
		BuildImageURL("http://localhost:8080/images/", "posts", "abc", "x_a.png"),
	)
	assert.Equal(t,
		"https://cdn.example.com/users/abc/x_photo(1).png",
		BuildImageURL("https://cdn.example.com", "users", "abc", "x_photo(1).png"),
	)
	assert.Equal(t,
		"https://cdn.example.com/users/abc/x_café.png",
		BuildImageURL("https://cdn.example.com", "users", "abc", "x_café.png"),
	)
}

func TestIsClientDisconnect(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil error", err: nil, expected: false},
		{name: "direct context.Canceled", err: context.Canceled, expected: true},
		{name: "wrapped context.Canceled", err: fmt.Errorf("wrapped: %w", context.Canceled), expected: true},
		{name: "string contains context canceled", err: errors.New("Head \"http://example.com\": context canceled"), expected: true},
		{name: "broken pipe", err: errors.New("write tcp: broken pipe"), expected: true},
		{name: "deadline exceeded", err: context.DeadlineExceeded, expected: false},
		{name: "other error", err: errors.New("some other error"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsClientDisconnect(tt.err))
		})
	}
}

func TestHumanReadableSize(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1048576, "1.00 MB"},
		{1073741824, "1.00 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, HumanReadableSize(tt.bytes))
		})
	}
}

func TestSanitizeLogMessage(t *testing.T) {
	assert.Equal(t, "a b c", SanitizeLogMessage("a\nb\tc"))
	assert.Equal(t, "ab", SanitizeLogMessage("a\x00\x1bb"))
}
