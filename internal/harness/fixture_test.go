package harness

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nodelog/internal/ir"
	"github.com/roach88/nodelog/internal/queryir"
)

func TestLoadFixture_Sample(t *testing.T) {
	f, err := LoadFixture("testdata/fixtures/sample.yaml")
	require.NoError(t, err)

	assert.Equal(t, "sample", f.Name)
	require.Len(t, f.Events, 6)
	assert.Equal(t, map[string]any{"name": "ada"}, f.Events[0].Payload)
	require.Len(t, f.Milestones, 3)
	assert.Empty(t, f.Milestones[0].Checks)

	brace := f.Milestones[1].Checks[2]
	assert.Equal(t, "/n/{users/1,orders/a}", brace.Path)
	assert.Equal(t, 2, brace.GroupLimit)

	window := f.Milestones[1].Checks[3]
	require.NotNil(t, window.Limit)
	require.NotNil(t, window.Skip)
	assert.Equal(t, 2, *window.Limit)
	assert.Equal(t, 1, *window.Skip)
	assert.Equal(t, []string{"users/2", "users/2"}, window.Expect.Nodes)
}

func TestParseFixture_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown field",
			yaml: "name: x\nevents: [{node: a/1, kind: created, ts: 1}]\nmilestones: [{at: 1}]\nassertions: []\n",
			want: "field assertions not found",
		},
		{
			name: "missing name",
			yaml: "events: [{node: a/1, kind: created, ts: 1}]\nmilestones: [{at: 1}]\n",
			want: "name is required",
		},
		{
			name: "no events",
			yaml: "name: x\nmilestones: [{at: 1}]\n",
			want: "at least one event",
		},
		{
			name: "no milestones",
			yaml: "name: x\nevents: [{node: a/1, kind: created, ts: 1}]\n",
			want: "at least one milestone",
		},
		{
			name: "bad kind",
			yaml: "name: x\nevents: [{node: a/1, kind: removed, ts: 1}]\nmilestones: [{at: 1}]\n",
			want: "events[0]",
		},
		{
			name: "negative ts",
			yaml: "name: x\nevents: [{node: a/1, kind: created, ts: -1}]\nmilestones: [{at: 1}]\n",
			want: "ts must be non-negative",
		},
		{
			name: "check without path",
			yaml: "name: x\nevents: [{node: a/1, kind: created, ts: 1}]\nmilestones: [{at: 1, checks: [{groupBy: node}]}]\n",
			want: "path is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFixture([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFixture_Missing(t *testing.T) {
	_, err := LoadFixture(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestCheck_OptionsAndString(t *testing.T) {
	c := Check{Path: "/c/users", GroupBy: "node", GroupLimit: 3, Limit: queryir.Int(5), Skip: queryir.Int(0)}

	opts := c.Options(42)
	require.NotNil(t, opts.Until)
	assert.Equal(t, int64(42), *opts.Until)
	assert.Equal(t, queryir.ModeGrouped, opts.Mode())
	assert.Equal(t, 3, opts.EffectiveGroupLimit())

	assert.Equal(t, "/c/users groupBy=node groupLimit=3 limit=5 skip=0", c.String())
	assert.Equal(t, "/ countsOnly", Check{Path: "/", CountsOnly: true}.String())
}

func TestFixtureEvent_Event(t *testing.T) {
	e := FixtureEvent{Node: "users/1", Graph: "people", Kind: "updated", TS: 7}.Event()
	assert.Equal(t, ir.Event{NodeID: "users/1", Graph: "people", Kind: ir.KindUpdated, Timestamp: 7}, e)
}
