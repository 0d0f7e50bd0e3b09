package model

// User is a sub-user of an Account (sdcaccountuser + sdcperson). Roles is
// the ordered sequence of role uuids the user has been granted directly;
// Groups is the ordered sequence of account-group uuids it belongs to — a
// distinct shape from Account.Groups, which is a directory top-level
// membership map keyed by group name.
type User struct {
	Type       string            `json:"type"`
	UUID       string            `json:"uuid"`
	Account    string            `json:"account"`
	Login      string            `json:"login"`
	Roles      []string          `json:"roles,omitempty"`
	Groups     []string          `json:"groups,omitempty"`
	Keys       map[string]string `json:"keys,omitempty"`
	AccessKeys map[string]string `json:"accesskeys,omitempty"`
}

func (*User) Kind() Kind { return KindUser }

func (u *User) EnsureMaps() {
	if u.Keys == nil {
		u.Keys = make(map[string]string)
	}
	if u.AccessKeys == nil {
		u.AccessKeys = make(map[string]string)
	}
}

// AddRole appends roleUUID to Roles if it is not already present.
func (u *User) AddRole(roleUUID string) {
	for _, r := range u.Roles {
		if r == roleUUID {
			return
		}
	}
	u.Roles = append(u.Roles, roleUUID)
}

// RemoveRole removes the first occurrence of roleUUID from Roles, if present.
func (u *User) RemoveRole(roleUUID string) {
	for i, r := range u.Roles {
		if r == roleUUID {
			u.Roles = append(u.Roles[:i], u.Roles[i+1:]...)
			return
		}
	}
}

// AddGroup appends groupUUID to Groups if it is not already present.
func (u *User) AddGroup(groupUUID string) {
	for _, g := range u.Groups {
		if g == groupUUID {
			return
		}
	}
	u.Groups = append(u.Groups, groupUUID)
}

// RemoveGroup removes the first occurrence of groupUUID from Groups.
func (u *User) RemoveGroup(groupUUID string) {
	for i, g := range u.Groups {
		if g == groupUUID {
			u.Groups = append(u.Groups[:i], u.Groups[i+1:]...)
			return
		}
	}
}
