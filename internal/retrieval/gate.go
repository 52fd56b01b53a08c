package retrieval

import "github.com/akropatel/tenantrag/internal/vectorstore"

// gateByRole filters raw index candidates down to those visible to the
// requester's role and counts candidates blocked purely by role mismatch.
// An empty allowed-roles set means the passage is unrestricted. The count
// feeds the one-shot degraded-retry policy. Candidates are assumed to be
// tenant-scoped already by the index query's tag filter.
func gateByRole(candidates []vectorstore.Candidate, role Role, disabled bool) (allowed []vectorstore.Candidate, blocked int) {
	if disabled {
		return candidates, 0
	}

	allowed = make([]vectorstore.Candidate, 0, len(candidates))
	for _, cand := range candidates {
		if roleVisible(cand.AllowedRoles, role) {
			allowed = append(allowed, cand)
		} else {
			blocked++
		}
	}
	return allowed, blocked
}

func roleVisible(allowedRoles []string, role Role) bool {
	if len(allowedRoles) == 0 {
		return true
	}
	for _, r := range allowedRoles {
		if r == string(role) {
			return true
		}
	}
	return false
}
