package query

// SearchOptions carries the per-search evaluation flags.
type SearchOptions struct {
	CaseInsensitive bool
}
