package docs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopics(t *testing.T) {
	assert.Equal(t, []string{"config", "guide", "http"}, Topics())
}

func TestGet(t *testing.T) {
	body, ok := Get(" Guide ")
	require.True(t, ok)
	assert.Contains(t, body, "# todo")

	_, ok = Get("nope")
	assert.False(t, ok)
	_, ok = Get("")
	assert.False(t, ok)
}

func TestRenderPlain(t *testing.T) {
	out := Render("# Title\n\nSome *text*.", 60, false)
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "text")
}
