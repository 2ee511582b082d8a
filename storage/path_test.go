package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidStoragePath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"posts/0b3f/abc_a.png", true},
		{"users/0b3f", true},
		{"image.jpg", true},
		{"posts/owner/file with space.png", true},
		{"", false},
		{"/etc/passwd", false},
		{"../../../etc/passwd", false},
		{"posts/../users", false},
		{"posts/./a.png", false},
		{"posts//a.png", false},
		{"posts/a.png/", false},
		{"..", false},
		{".", false},
		{"..\\windows\\system32", false},
		{"posts/a\x00.png", false},
		{"posts/a\n.png", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidStoragePath(tt.path))
		})
	}
}

func TestScopeAndBlobPath(t *testing.T) {
	assert.Equal(t, "posts/abc", ScopePath("posts", "abc"))
	assert.Equal(t, "users/abc/x.png", BlobPath("users", "abc", "x.png"))
}
