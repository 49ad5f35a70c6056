package ingest

// Walker runs a selector against a syntax tree and returns the matches.
type Walker interface {
	// Query executes selector against root. For tree-sitter roots the
	// selector is an S-expression query.
	Query(root any, selector string) ([]Match, error)
}

// Match is a single query result.
type Match interface {
	// Values returns the captured source text keyed by capture name.
	Values() map[string]any

	// Context returns the node captured as @scope, usable as the root of a
	// child query, or nil.
	Context() any
}
