package model

import "fmt"

// Key builders centralize the store's key layout (spec.md §3) so the
// replicator, the driver and the HTTP handlers never hand-format a key
// string independently and risk drifting apart.

func UUIDKey(uuid string) string { return "/uuid/" + uuid }

func AccountLoginKey(login string) string { return "/account/" + login }

func UserKey(accountUUID, login string) string {
	return fmt.Sprintf("/user/%s/%s", accountUUID, login)
}

func RoleKey(accountUUID, name string) string {
	return fmt.Sprintf("/role/%s/%s", accountUUID, name)
}

func PolicyKey(accountUUID, name string) string {
	return fmt.Sprintf("/policy/%s/%s", accountUUID, name)
}

func GroupKey(accountUUID, name string) string {
	return fmt.Sprintf("/group/%s/%s", accountUUID, name)
}

func AccessKeyKey(accessKeyID string) string { return "/accesskey/" + accessKeyID }

func SetAccountsKey() string { return "/set/accounts" }

func SetUsersKey(accountUUID string) string { return "/set/users/" + accountUUID }

func SetRolesKey(accountUUID string) string { return "/set/roles/" + accountUUID }

func SetPoliciesKey(accountUUID string) string { return "/set/policies/" + accountUUID }

func SetGroupsKey(accountUUID string) string { return "/set/groups/" + accountUUID }

// SetTempCredentialsKey is an additive index (not named in spec.md §3) kept
// so internal/housekeeping can enumerate temporary credentials using only
// the Set primitives spec.md §4.1 already defines, without inventing a new
// store operation such as a key scan. See SPEC_FULL.md §6 and DESIGN.md.
func SetTempCredentialsKey() string { return "/set/temporarycredentials" }

// ChangeNumberKey is the scalar replication high-water mark.
func ChangeNumberKey() string { return "changenumber" }

// VirginKey's presence means the cache has never caught up with the directory.
func VirginKey() string { return "virgin" }
