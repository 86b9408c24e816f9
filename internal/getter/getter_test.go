package getter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/donaldgifford/puppetenv/internal/getter"
)

func TestWithRef(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		src      string
		ref      string
		expected string
	}{
		{
			name:     "with ref",
			src:      "git::https://git.example.com/puppet.git//puppetenv.yaml",
			ref:      "v2.1.0",
			expected: "git::https://git.example.com/puppet.git//puppetenv.yaml?ref=v2.1.0",
		},
		{
			name:     "without ref",
			src:      "https://example.com/puppetenv.yaml",
			ref:      "",
			expected: "https://example.com/puppetenv.yaml",
		},
		{
			name:     "existing query",
			src:      "s3::https://s3.amazonaws.com/bucket/puppetenv.yaml?version=3",
			ref:      "main",
			expected: "s3::https://s3.amazonaws.com/bucket/puppetenv.yaml?version=3&ref=main",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, getter.WithRef(tt.src, tt.ref))
		})
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	g := getter.New(nil)
	assert.NotNil(t, g)
}
