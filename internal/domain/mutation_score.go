package domain

import m "github.com/pavzaj/visualmutator/internal/model"

// MutationScore returns the fraction of tested mutants that were killed.
// Aborted and untested mutants are excluded from the denominator; with no
// tested mutant the score is 1.
func MutationScore(mutants []m.Mutant) float64 {
	killed := 0
	total := 0

	for _, mutant := range mutants {
		switch mutant.Status {
		case m.MutantKilled:
			killed++
			total++
		case m.MutantSurvived:
			total++
		case m.MutantCreated, m.MutantAborted:
			// Not tested, not scored.
		}
	}

	if total == 0 {
		return 1.0
	}

	return float64(killed) / float64(total)
}
