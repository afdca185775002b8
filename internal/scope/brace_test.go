package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandBraces(t *testing.T) {
	tests := []struct {
		pattern string
		want    []string
	}{
		{"users/1", []string{"users/1"}},
		{"users/{1,2}", []string{"users/1", "users/2"}},
		{"{users/1,orders/{a,b}}", []string{"users/1", "orders/a", "orders/b"}},
		{"users/{a,b}-{x,y}", []string{"users/a-x", "users/a-y", "users/b-x", "users/b-y"}},
		{"users/{1}", []string{"users/1"}},
		{"users/x{}", []string{"users/x"}},
		{"users/{1,}", []string{"users/1", "users/"}},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got, err := ExpandBraces(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpandBraces_Unbalanced(t *testing.T) {
	for _, p := range []string{"{a,b", "a}", "{a,{b}", "}{"} {
		t.Run(p, func(t *testing.T) {
			_, err := ExpandBraces(p)
			require.Error(t, err)
		})
	}
}

func TestExpandBraces_Limit(t *testing.T) {
	// 10^4 combinations exceeds the expansion bound.
	d := "{0,1,2,3,4,5,6,7,8,9}"
	_, err := ExpandBraces("users/" + d + d + d + d)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expands to more than")
}

func TestExpandNodeIDs(t *testing.T) {
	ids, err := ExpandNodeIDs("{users/2,users/1,users/2}")
	require.NoError(t, err)
	assert.Equal(t, []string{"users/2", "users/1"}, ids)

	_, err = ExpandNodeIDs("users/{1,}")
	require.Error(t, err, "empty key is not a valid node id")

	_, err = ExpandNodeIDs("")
	require.Error(t, err)
}
