package domain

// ResolutionRecord is the outcome for a single repository visit.
// Manifest is nil for repositories that could not be resolved.
type ResolutionRecord struct {
	RepoName string
	Manifest *Manifest
}

// Valid reports whether the record carries a manifest.
func (r ResolutionRecord) Valid() bool {
	return r.Manifest != nil
}

// Resolution is the result of one validation run.
type Resolution struct {
	Valid   []ResolutionRecord
	Invalid []ResolutionRecord
	// Cycles lists dependency paths that led back to one of their own ancestors.
	// Each path ends with the repeated repository.
	Cycles [][]string
}

// EventKind distinguishes the two result partitions.
type EventKind string

const (
	// EventValid marks a repository whose manifest was resolved.
	EventValid EventKind = "valid"
	// EventInvalid marks a repository that could not be resolved.
	EventInvalid EventKind = "invalid"
)

// Event is emitted once per record after a validation run settles.
type Event struct {
	Kind   EventKind
	Record ResolutionRecord
}
