package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		input   string
		want    Category
		wantErr bool
	}{
		{input: "POST", want: CategoryPost},
		{input: "post", want: CategoryPost},
		{input: " User ", want: CategoryUser},
		{input: "", wantErr: true},
		{input: "ALBUM", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCategory(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCategory_Folder(t *testing.T) {
	assert.Equal(t, "posts", CategoryPost.Folder())
	assert.Equal(t, "users", CategoryUser.Folder())

	c, ok := CategoryFromFolder("posts")
	assert.True(t, ok)
	assert.Equal(t, CategoryPost, c)

	_, ok = CategoryFromFolder("albums")
	assert.False(t, ok)
}
