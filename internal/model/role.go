package model

// Role grants a sequence of policies to its members. Policies holds policy
// uuids — see SPEC_FULL.md §1 for why this implementation resolved the
// spec's raw-text-vs-uuid Open Question in favor of uuids.
type Role struct {
	Type     string   `json:"type"`
	UUID     string   `json:"uuid"`
	Name     string   `json:"name"`
	Account  string   `json:"account"`
	Policies []string `json:"policies,omitempty"`
}

func (*Role) Kind() Kind { return KindRole }

// AddPolicy appends policyUUID if not already present.
func (r *Role) AddPolicy(policyUUID string) {
	for _, p := range r.Policies {
		if p == policyUUID {
			return
		}
	}
	r.Policies = append(r.Policies, policyUUID)
}

// RemovePolicy removes the first occurrence of policyUUID.
func (r *Role) RemovePolicy(policyUUID string) {
	for i, p := range r.Policies {
		if p == policyUUID {
			r.Policies = append(r.Policies[:i], r.Policies[i+1:]...)
			return
		}
	}
}
