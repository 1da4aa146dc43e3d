package model

// MutantStatus is the lifecycle state of a produced mutant.
type MutantStatus int

const (
	// MutantCreated means the mutant was written to disk and not yet tested.
	MutantCreated MutantStatus = iota
	// MutantAborted means production or testing of the mutant failed.
	MutantAborted
	// MutantKilled means the selected tests detected the mutation.
	MutantKilled
	// MutantSurvived means the selected tests passed against the mutant.
	MutantSurvived
)

func (s MutantStatus) String() string {
	switch s {
	case MutantCreated:
		return "created"
	case MutantAborted:
		return "aborted"
	case MutantKilled:
		return "killed"
	case MutantSurvived:
		return "survived"
	default:
		return "unknown"
	}
}

// Mutant is one binary variant produced by applying a single mutation.
type Mutant struct {
	ID          string
	Operator    string
	Target      ElementReference
	Description string
	Path        Path // persisted binary, empty when aborted before persisting
	Status      MutantStatus
	Err         error // cause when Status is MutantAborted
}
