package scope

// Path prefixes, in resolution priority order.
const (
	PrefixDatabase   = "/"
	PrefixGraph      = "/g/"
	PrefixCollection = "/c/"
	PrefixNodeGlob   = "/ng/"
	PrefixNodeBrace  = "/n/"
)

// Scope is the subset of nodes a path addresses.
//
// This is a sealed interface: the marker method restricts implementations to
// this package so type switches over the variants are exhaustive.
type Scope interface {
	// PathPattern returns the prefix that selected this scope. It is always
	// a prefix of the resolved path.
	PathPattern() string

	scopeNode()
}

// Filterable is implemented by scopes that restrict the node set with a
// predicate. Database does not implement it.
type Filterable interface {
	Scope
	filterable()
}

// Initializable is implemented by scopes whose node set must be
// materialized before filtering. Only NodeBrace implements it.
type Initializable interface {
	Filterable
	initializable()
}

// Database addresses every node in the log.
type Database struct{}

// Graph addresses the nodes belonging to one named graph.
type Graph struct {
	Name string
}

// Collection addresses the nodes of one named collection.
type Collection struct {
	Name string
}

// NodeGlob addresses the nodes whose id matches a wildcard pattern.
// '*' matches any run of characters (including '/'), '?' one character,
// and [...] a character class.
type NodeGlob struct {
	Pattern string
}

// NodeBrace addresses an explicit set of node ids.
//
// Pattern is the raw brace text as it appeared in the path; IDs is its
// expansion, validated and de-duplicated in first-occurrence order.
type NodeBrace struct {
	Pattern string
	IDs     []string
}

func (Database) PathPattern() string   { return PrefixDatabase }
func (Graph) PathPattern() string      { return PrefixGraph }
func (Collection) PathPattern() string { return PrefixCollection }
func (NodeGlob) PathPattern() string   { return PrefixNodeGlob }
func (NodeBrace) PathPattern() string  { return PrefixNodeBrace }

func (Database) scopeNode()   {}
func (Graph) scopeNode()      {}
func (Collection) scopeNode() {}
func (NodeGlob) scopeNode()   {}
func (NodeBrace) scopeNode()  {}

func (Graph) filterable()      {}
func (Collection) filterable() {}
func (NodeGlob) filterable()   {}
func (NodeBrace) filterable()  {}

func (NodeBrace) initializable() {}

// HasFilters reports whether s exposes the filter capability.
func HasFilters(s Scope) bool {
	_, ok := s.(Filterable)
	return ok
}

// HasInitializers reports whether s exposes the initializer capability.
func HasInitializers(s Scope) bool {
	_, ok := s.(Initializable)
	return ok
}

// Kind returns a short stable name for the variant, used in logs and metric
// labels.
func Kind(s Scope) string {
	switch s.(type) {
	case Database:
		return "database"
	case Graph:
		return "graph"
	case Collection:
		return "collection"
	case NodeGlob:
		return "node_glob"
	case NodeBrace:
		return "node_brace"
	default:
		return "unknown"
	}
}
