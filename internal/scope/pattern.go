package scope

// SearchPattern derives the literal that downstream filtering matches
// against. The result is always a substring of path.
//
//	Database    the full path
//	Graph       the graph name
//	Collection  the collection name
//	NodeGlob    the glob, wildcards preserved
//	NodeBrace   the raw brace text after /n/
func SearchPattern(s Scope, path string) string {
	switch sc := s.(type) {
	case Database:
		return path
	case Graph:
		return sc.Name
	case Collection:
		return sc.Name
	case NodeGlob:
		return sc.Pattern
	case NodeBrace:
		return sc.Pattern
	default:
		return path
	}
}
