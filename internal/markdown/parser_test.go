package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWithFrontmatter(t *testing.T) {
	p := NewParser()

	var meta struct {
		Subject string `yaml:"subject"`
	}
	html, err := p.ParseWithFrontmatter([]byte("---\nsubject: Time to read\n---\n## Read\n\nTen pages."), &meta)
	require.NoError(t, err)

	assert.Equal(t, "Time to read", meta.Subject)
	assert.Contains(t, string(html), "<h2>Read</h2>")
	assert.Contains(t, string(html), "<p>Ten pages.</p>")
	assert.NotContains(t, string(html), "subject:")
}

func TestParseWithoutFrontmatter(t *testing.T) {
	p := NewParser()

	var meta struct {
		Subject string `yaml:"subject"`
	}
	html, err := p.ParseWithFrontmatter([]byte("plain"), &meta)
	require.NoError(t, err)
	assert.Empty(t, meta.Subject)
	assert.Equal(t, "<p>plain</p>\n", string(html))
}
