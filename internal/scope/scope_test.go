package scope

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_Variants(t *testing.T) {
	tests := []struct {
		path string
		want Scope
	}{
		{"/", Database{}},
		{"/anything/else", Database{}},
		{"/g", Database{}},
		{"/g/people", Graph{Name: "people"}},
		{"/g/people/users/1", Graph{Name: "people"}},
		{"/c/users", Collection{Name: "users"}},
		{"/c/users/", Collection{Name: "users"}},
		{"/ng/users/*", NodeGlob{Pattern: "users/*"}},
		{"/ng/*", NodeGlob{Pattern: "*"}},
		{"/ng/users/[0-9]?", NodeGlob{Pattern: "users/[0-9]?"}},
		{"/n/users/1", NodeBrace{Pattern: "users/1", IDs: []string{"users/1"}}},
		{"/n/{users/1,users/2}", NodeBrace{Pattern: "{users/1,users/2}", IDs: []string{"users/1", "users/2"}}},
		{"/n/users/{1,2,1}", NodeBrace{Pattern: "users/{1,2,1}", IDs: []string{"users/1", "users/2"}}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := Resolve(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_PriorityOrder(t *testing.T) {
	// "/ng/" must not be mistaken for "/n/" and "/n/" must not swallow "/ng/".
	s, err := Resolve("/ng/g*")
	require.NoError(t, err)
	assert.IsType(t, NodeGlob{}, s)

	s, err = Resolve("/n/ng/1")
	require.NoError(t, err)
	assert.IsType(t, NodeBrace{}, s)
}

func TestResolve_InvalidPath(t *testing.T) {
	paths := []string{
		"",
		"users/1",
		"/g/",
		"/g/bad name",
		"/c//users",
		"/c/us*rs",
		"/ng/",
		"/ng/users/{1,2}",
		"/ng/users/[0-9",
		`/ng/users/\*`,
		"/n/",
		"/n/{users/1,users/2",
		"/n/users/1}",
		"/n/{users/1,not-an-id}",
		"/n/users/*",
	}

	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			s, err := Resolve(p)
			require.Error(t, err)
			assert.Nil(t, s)
			assert.True(t, errors.Is(err, ErrInvalidPath), "error should match ErrInvalidPath: %v", err)

			var pe *PathError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, p, pe.Path)
		})
	}
}

func TestResolve_Capabilities(t *testing.T) {
	tests := []struct {
		path            string
		hasFilters      bool
		hasInitializers bool
	}{
		{"/", false, false},
		{"/g/people", true, false},
		{"/c/users", true, false},
		{"/ng/users/*", true, false},
		{"/n/{users/1,users/2}", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			s, err := Resolve(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.hasFilters, HasFilters(s))
			assert.Equal(t, tt.hasInitializers, HasInitializers(s))
		})
	}
}

func TestPathPatternIsPrefixOfPath(t *testing.T) {
	paths := []string{
		"/",
		"/misc",
		"/g/people",
		"/g/people/x",
		"/c/users",
		"/ng/users/*",
		"/n/users/{1,2}",
	}

	for _, p := range paths {
		s, err := Resolve(p)
		require.NoError(t, err, p)
		assert.True(t, strings.HasPrefix(p, s.PathPattern()), "%q should start with %q", p, s.PathPattern())
	}
}

func TestSearchPattern(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/", "/"},
		{"/other", "/other"},
		{"/g/people/tail", "people"},
		{"/c/users", "users"},
		{"/ng/users/a*", "users/a*"},
		{"/n/{users/1,orders/{a,b}}", "{users/1,orders/{a,b}}"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			s, err := Resolve(tt.path)
			require.NoError(t, err)
			got := SearchPattern(s, tt.path)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, tt.path, got, "search pattern must be a substring of the path")
		})
	}
}

func TestKind(t *testing.T) {
	assert.Equal(t, "database", Kind(Database{}))
	assert.Equal(t, "graph", Kind(Graph{}))
	assert.Equal(t, "collection", Kind(Collection{}))
	assert.Equal(t, "node_glob", Kind(NodeGlob{}))
	assert.Equal(t, "node_brace", Kind(NodeBrace{}))
}
