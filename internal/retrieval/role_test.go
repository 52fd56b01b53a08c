package retrieval

import (
	"errors"
	"testing"

	"github.com/akropatel/tenantrag/internal/vectorstore"
)

func TestParseRole(t *testing.T) {
	for _, r := range Roles {
		got, err := ParseRole(r.String())
		if err != nil {
			t.Errorf("ParseRole(%q): %v", r, err)
		}
		if got != r {
			t.Errorf("ParseRole(%q) = %q", r, got)
		}
	}

	for _, s := range []string{"", "manager", "EMPLOYEE", "Hr", "root"} {
		if _, err := ParseRole(s); !errors.Is(err, ErrInvalidRole) {
			t.Errorf("ParseRole(%q): expected ErrInvalidRole, got %v", s, err)
		}
	}
}

func TestGateByRole(t *testing.T) {
	candidates := []vectorstore.Candidate{
		{ID: "c1", DocumentID: "open"},
		{ID: "c2", DocumentID: "hr-only", AllowedRoles: []string{"hr"}},
		{ID: "c3", DocumentID: "exec", AllowedRoles: []string{"ceo", "admin"}},
	}

	allowed, blocked := gateByRole(candidates, RoleEmployee, false)
	if len(allowed) != 1 || blocked != 2 {
		t.Errorf("employee: got %d allowed, %d blocked", len(allowed), blocked)
	}

	allowed, blocked = gateByRole(candidates, RoleHR, false)
	if len(allowed) != 2 || blocked != 1 {
		t.Errorf("hr: got %d allowed, %d blocked", len(allowed), blocked)
	}

	allowed, blocked = gateByRole(candidates, RoleAdmin, false)
	if len(allowed) != 2 || blocked != 1 {
		t.Errorf("admin: got %d allowed, %d blocked", len(allowed), blocked)
	}

	// With the gate disabled everything passes and nothing counts as
	// blocked.
	allowed, blocked = gateByRole(candidates, RoleEmployee, true)
	if len(allowed) != 3 || blocked != 0 {
		t.Errorf("disabled gate: got %d allowed, %d blocked", len(allowed), blocked)
	}
}
