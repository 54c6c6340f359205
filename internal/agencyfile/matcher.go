package agencyfile

import (
	"fmt"
	"strings"
)

// MatchPolicy decides what happens when a department name has no fuzzy
// match above the cutoff.
type MatchPolicy string

const (
	// PolicyFail aborts the parse with a fatal validation error.
	PolicyFail MatchPolicy = "fail"
	// PolicyFlag drops the affected rows, counting and reporting them.
	PolicyFlag MatchPolicy = "flag"
	// PolicySentinel assigns the sentinel "unmapped" department code.
	PolicySentinel MatchPolicy = "sentinel"
)

// IsValid checks if the match policy is supported.
func (p MatchPolicy) IsValid() bool {
	switch p {
	case PolicyFail, PolicyFlag, PolicySentinel:
		return true
	default:
		return false
	}
}

// MatcherConfig holds the fuzzy department-name matching configuration.
type MatcherConfig struct {
	// Cutoff is the minimum similarity score for a candidate to count
	// as a match.
	Cutoff float64
	// Policy selects the behavior for names with no match above the
	// cutoff.
	Policy MatchPolicy
}

// DefaultMatcherConfig returns the standard matching configuration: the
// historical 0.6 cutoff with unmatched rows flagged and dropped.
func DefaultMatcherConfig() *MatcherConfig {
	return &MatcherConfig{
		Cutoff: 0.6,
		Policy: PolicyFlag,
	}
}

// Validate validates the matcher configuration.
func (c *MatcherConfig) Validate() error {
	if c.Cutoff < 0.0 || c.Cutoff > 1.0 {
		return fmt.Errorf("cutoff must be between 0.0 and 1.0, got %f", c.Cutoff)
	}
	if !c.Policy.IsValid() {
		return fmt.Errorf("invalid match policy: %s", c.Policy)
	}
	return nil
}

// BestMatch returns the single best candidate for a department name along
// with its similarity score, or ok=false when no candidate reaches the
// cutoff. Candidate order breaks score ties, so matching is deterministic
// for a given mapping sheet.
func (c *MatcherConfig) BestMatch(name string, candidates []string) (string, float64, bool) {
	best := ""
	bestScore := 0.0
	found := false

	for _, candidate := range candidates {
		score := Similarity(name, candidate)
		if score >= c.Cutoff && score > bestScore {
			best = candidate
			bestScore = score
			found = true
		}
	}

	return best, bestScore, found
}

// Similarity scores two strings in [0, 1] as twice the length of their
// longest common subsequence over the sum of their lengths. Equal strings
// score 1; disjoint strings score 0.
func Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	if a == b {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	return 2.0 * float64(longestCommonSubsequence(a, b)) / float64(len(a)+len(b))
}

// longestCommonSubsequence computes the LCS length over bytes with a
// two-row dynamic program.
func longestCommonSubsequence(a, b string) int {
	previous := make([]int, len(b)+1)
	current := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				current[j] = previous[j-1] + 1
			} else if previous[j] >= current[j-1] {
				current[j] = previous[j]
			} else {
				current[j] = current[j-1]
			}
		}
		previous, current = current, previous
	}

	return previous[len(b)]
}
