package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFieldNaming(t *testing.T) {
	ev := Event{
		ID:         "abc",
		Seq:        3,
		NodeID:     "users/1",
		Collection: "users",
		Graph:      "people",
		Kind:       KindCreated,
		Timestamp:  10,
	}
	data, err := json.Marshal(ev)
	require.NoError(t, err)

	assert.Contains(t, string(data), `"node_id"`)
	assert.Contains(t, string(data), `"timestamp"`)
	assert.NotContains(t, string(data), `"nodeId"`)
	assert.NotContains(t, string(data), `"payload"`, "empty payload is omitted")
}

func TestParseEventKind(t *testing.T) {
	for _, s := range []string{"created", "updated", "deleted"} {
		k, err := ParseEventKind(s)
		require.NoError(t, err)
		assert.Equal(t, EventKind(s), k)
	}

	_, err := ParseEventKind("archived")
	require.Error(t, err)
}

func TestIsTombstone(t *testing.T) {
	assert.True(t, Event{Kind: KindDeleted}.IsTombstone())
	assert.False(t, Event{Kind: KindUpdated}.IsTombstone())
}

func TestGroupedNodeLatest(t *testing.T) {
	g := GroupedNode{NodeID: "users/1", Events: []Event{{Timestamp: 3}, {Timestamp: 1}}}
	assert.Equal(t, int64(3), g.Latest().Timestamp)
	assert.Equal(t, Event{}, GroupedNode{}.Latest())
}

func TestTotalJSON(t *testing.T) {
	data, err := json.Marshal([]Total{{Total: 4}})
	require.NoError(t, err)
	assert.Equal(t, `[{"total":4}]`, string(data))
}

func TestSplitNodeID(t *testing.T) {
	tests := []struct {
		id         string
		collection string
		key        string
		wantErr    bool
	}{
		{"users/1", "users", "1", false},
		{"order-items/a:b.c@d", "order-items", "a:b.c@d", false},
		{"users", "", "", true},
		{"users/", "", "", true},
		{"/1", "", "", true},
		{"users/a/b", "", "", true},
		{"users/a*", "", "", true},
		{"users/{1}", "", "", true},
		{"us ers/1", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			c, k, err := SplitNodeID(tt.id)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, "", CollectionOf(tt.id))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.collection, c)
			assert.Equal(t, tt.key, k)
			assert.Equal(t, tt.collection, CollectionOf(tt.id))
		})
	}
}

func TestValidName(t *testing.T) {
	assert.True(t, ValidName("people"))
	assert.True(t, ValidName("order_items-2"))
	assert.False(t, ValidName(""))
	assert.False(t, ValidName("a/b"))
	assert.False(t, ValidName("a*"))
}
