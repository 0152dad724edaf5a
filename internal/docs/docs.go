// Package docs holds the usage guides shown by `todo docs`.
package docs

import (
	"embed"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

//go:embed content/*.md
var contentFS embed.FS

// DefaultTopic is shown when no topic is named.
const DefaultTopic = "guide"

func Topics() []string {
	entries, err := fs.Glob(contentFS, "content/*.md")
	if err != nil {
		return []string{}
	}
	var topics []string
	for _, p := range entries {
		base := path.Base(p)
		topic := strings.TrimSuffix(base, path.Ext(base))
		if topic != "" {
			topics = append(topics, topic)
		}
	}
	sort.Strings(topics)
	return topics
}

func Get(topic string) (string, bool) {
	topic = strings.ToLower(strings.TrimSpace(topic))
	if topic == "" {
		return "", false
	}
	b, err := contentFS.ReadFile(path.Join("content", topic+".md"))
	if err != nil {
		return "", false
	}
	return string(b), true
}

var (
	renderMu  sync.Mutex
	renderers = map[string]*glamour.TermRenderer{}
)

// Render formats md for a terminal of the given width. Without color the
// notty style is used so output stays plain. On renderer failure the raw
// markdown comes back.
func Render(md string, width int, color bool) string {
	if width < 20 {
		width = 20
	}
	style := "notty"
	if color {
		style = "dark"
	}
	key := style + ":" + strconv.Itoa(width)

	renderMu.Lock()
	defer renderMu.Unlock()
	r := renderers[key]
	if r == nil {
		// WithAutoStyle queries the terminal and can block; keep the style fixed.
		rr, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		renderers[key] = rr
		r = rr
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

