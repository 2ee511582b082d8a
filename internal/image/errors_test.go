package image

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestErrors_IsAndAs(t *testing.T) {
	cause := errors.New("disk full")

	tests := []struct {
		name     string
		err      error
		sentinel error
		others   []error
	}{
		{name: "upload", err: &UploadError{Identifier: "owner-1", Msg: "failed to store image", Err: cause}, sentinel: ErrUpload, others: []error{ErrDeletion, ErrNotFound}},
		{name: "deletion", err: &DeletionError{Identifier: "a.png", Msg: "failed to delete image", Err: cause}, sentinel: ErrDeletion, others: []error{ErrUpload, ErrNotFound}},
		{name: "not found", err: &NotFoundError{Identifier: "a.png", Msg: "image not found"}, sentinel: ErrNotFound, others: []error{ErrUpload, ErrDeletion}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("handler: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
			for _, other := range tt.others {
				assert.NotErrorIs(t, wrapped, other)
			}
		})
	}

	var upErr *UploadError
	assert.True(t, errors.As(fmt.Errorf("x: %w", tests[0].err), &upErr))
	assert.Equal(t, "owner-1", upErr.Identifier)
	assert.ErrorIs(t, upErr, cause)
}

func TestErrors_MessageCarriesIdentifier(t *testing.T) {
	err := &DeletionError{Identifier: "abc_a.png", Msg: "failed to delete image", Err: errors.New("io")}
	assert.Equal(t, "failed to delete image: abc_a.png: io", err.Error())

	nf := &NotFoundError{Identifier: "x.png", Msg: "image not found"}
	assert.Equal(t, "image not found: x.png", nf.Error())
}

func TestGenerateFileName(t *testing.T) {
	tests := []struct {
		input      string
		wantSuffix string
		wantOK     bool
	}{
		{input: "a.png", wantSuffix: "_a.png", wantOK: true},
		{input: "my photo.jpg", wantSuffix: "_my_photo.jpg", wantOK: true},
		{input: "tab\tand  spaces.gif", wantSuffix: "_tab_and_spaces.gif", wantOK: true},
		{input: "../../etc/passwd", wantSuffix: "_.._.._etc_passwd", wantOK: true},
		{input: `a<b>c:d"e|f?g*h\i.png`, wantSuffix: "_a_b_c_d_e_f_g_h_i.png", wantOK: true},
		{input: "  padded.png  ", wantSuffix: "_padded.png", wantOK: true},
		{input: "", wantOK: false},
		{input: "   ", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := generateFileName(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			assert.True(t, strings.HasSuffix(got, tt.wantSuffix), got)
			_, err := uuid.Parse(strings.TrimSuffix(got, tt.wantSuffix))
			assert.NoError(t, err)
			assert.NotContains(t, got, "/")
		})
	}

	a, _ := generateFileName("same.png")
	b, _ := generateFileName("same.png")
	assert.NotEqual(t, a, b)
}

func TestScopeLocker(t *testing.T) {
	l := newScopeLocker()

	var mu sync.Mutex
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("POST:owner")
			defer unlock()
			mu.Lock()
			counter++
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, l.size())

	r1 := l.RLock("USER:owner")
	r2 := l.RLock("USER:owner")
	assert.Equal(t, 1, l.size())
	r1()
	r2()
	assert.Equal(t, 0, l.size())
}
