package replication

import "strings"

// dnComponentValue returns the attribute value of the DN RDN at the given
// zero-based index, e.g. dnComponentValue("uuid=U, ou=users, o=smartdc", 0)
// == "U".
func dnComponentValue(dn string, index int) string {
	parts := strings.Split(dn, ",")
	if index < 0 || index >= len(parts) {
		return ""
	}
	comp := strings.TrimSpace(parts[index])
	if i := strings.Index(comp, "="); i >= 0 {
		return strings.TrimSpace(comp[i+1:])
	}
	return comp
}

// groupNameFromDN extracts a groupofuniquenames DN's name: the first DN
// component (spec.md §4.3).
func groupNameFromDN(dn string) string { return dnComponentValue(dn, 0) }

// uuidFromDN extracts the uuid a member DN names: also its first
// component, since uniquemember/membergroup values are themselves
// uuid=…-rooted DNs.
func uuidFromDN(dn string) string { return dnComponentValue(dn, 0) }
