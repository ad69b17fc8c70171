package pipeline

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextLooksRateLimited(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"HTTP 429 from provider", true},
		{"RESOURCE_EXHAUSTED: quota exceeded", true},
		{"Quota exceeded for requests", true},
		{"Rate Limit reached, slow down", true},
		{"Too Many Requests", true},
		{"TOO MANY REQUESTS", true},
		{"connection refused", false},
		{"invalid prompt", false},
		{"", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TextLooksRateLimited(tc.text), "text: %q", tc.text)
	}
}

func TestIsRateLimited_StructuredKindWins(t *testing.T) {
	// Kind tag set at the collaborator boundary, clean message text.
	err := WrapError(KindRateLimited, errors.New("request rejected"))
	assert.True(t, IsRateLimited(err))

	// Untagged error falls back to text matching.
	assert.True(t, IsRateLimited(errors.New("quota exceeded")))
	assert.False(t, IsRateLimited(errors.New("disk full")))
	assert.False(t, IsRateLimited(nil))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindMalformed, KindOf(WrapError(KindMalformed, errors.New("bad json"))))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))

	// Kind survives wrapping.
	wrapped := fmt.Errorf("stage failed: %w", WrapError(KindUnavailable, errors.New("503")))
	assert.Equal(t, KindUnavailable, KindOf(wrapped))
}

func TestWrapError_NilPassthrough(t *testing.T) {
	assert.NoError(t, WrapError(KindRateLimited, nil))
}
