package cli

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tadasync/internal/model"
	"github.com/Makepad-fr/tadasync/internal/store/memstore"
)

// Run with -update to rewrite testdata/golden after an intended output change.
func TestListGolden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	cases := []struct {
		name string
		args []string
	}{
		{"ls_text_mono", []string{"ls"}},
		{"ls_json_pretty", []string{"ls", "--format", "json", "--pretty"}},
		{"ls_yaml", []string{"ls", "--format", "yaml"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, memstore.New(
				model.Fields{Text: "Buy milk"},
				model.Fields{Text: "Walk dog", Completed: true},
			))
			r := h.run(tc.args...)
			require.Equal(t, 0, r.code, r.stderr)
			g.Assert(t, tc.name, []byte(r.stdout))
		})
	}
}
