package replication

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/arkeep-io/authcache/internal/directory"
	"github.com/arkeep-io/authcache/internal/model"
	"github.com/arkeep-io/authcache/internal/storetest"
	"github.com/stretchr/testify/require"
)

func addEntry(cn int64, changes map[string]any) directory.Entry {
	raw, _ := json.Marshal(changes)
	return directory.Entry{ChangeType: "add", ChangeNumber: cn, Changes: raw}
}

func deleteEntry(cn int64, changes map[string]any) directory.Entry {
	raw, _ := json.Marshal(changes)
	return directory.Entry{ChangeType: "delete", ChangeNumber: cn, Changes: raw}
}

func modifyEntry(cn int64, targetDN string, postState map[string]any, mods []map[string]any) directory.Entry {
	ps, _ := json.Marshal(postState)
	ch, _ := json.Marshal(mods)
	return directory.Entry{ChangeType: "modify", ChangeNumber: cn, TargetDN: targetDN, PostEntry: ps, Changes: ch}
}

func mustDecode(t *testing.T, raw string) model.Record {
	t.Helper()
	rec, err := model.Decode([]byte(raw))
	require.NoError(t, err)
	return rec
}

func commitEntry(t *testing.T, ctx context.Context, tr *Transformer, s *storetest.Fake, entry directory.Entry) {
	t.Helper()
	batch := s.NewBatch()
	require.NoError(t, tr.Transform(ctx, batch, entry))
	require.NoError(t, s.Commit(ctx, batch))
}

// Scenario 1: add-account then delete-account.
func TestAddThenDeleteAccount(t *testing.T) {
	ctx := context.Background()
	s := storetest.New()
	tr := New(s, nil)

	commitEntry(t, ctx, tr, s, addEntry(1, map[string]any{
		"objectclass":               []string{"sdcperson"},
		"uuid":                      []string{"U"},
		"login":                     []string{"admin"},
		"approved_for_provisioning": []string{"false"},
	}))

	_, ok, err := s.Get(ctx, model.UUIDKey("U"))
	require.NoError(t, err)
	require.True(t, ok)

	commitEntry(t, ctx, tr, s, deleteEntry(2, map[string]any{
		"objectclass": []string{"sdcperson"},
		"uuid":        []string{"U"},
		"login":       []string{"admin"},
	}))

	_, ok, err = s.Get(ctx, model.UUIDKey("U"))
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = s.Get(ctx, model.AccountLoginKey("admin"))
	require.NoError(t, err)
	require.False(t, ok)

	isMember, err := s.SetIsMember(ctx, model.SetAccountsKey(), "U")
	require.NoError(t, err)
	require.False(t, isMember)

	for _, key := range []string{model.SetUsersKey("U"), model.SetRolesKey("U"), model.SetGroupsKey("U")} {
		card, err := s.SetCard(ctx, key)
		require.NoError(t, err)
		require.Zero(t, card)
	}
}

// Scenario 2: group membership round-trip.
func TestGroupMembershipRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := storetest.New()
	tr := New(s, nil)

	commitEntry(t, ctx, tr, s, addEntry(1, map[string]any{
		"objectclass": []string{"sdcperson"},
		"uuid":        []string{"U"},
		"login":       []string{"admin"},
	}))

	groupAdd := addEntry(2, map[string]any{
		"objectclass":  []string{"groupofuniquenames"},
		"uniquemember": []string{"uuid=U, ou=users, o=smartdc"},
	})
	groupAdd.TargetDN = "cn=operators, ou=groups, o=smartdc"
	commitEntry(t, ctx, tr, s, groupAdd)

	raw, ok, err := s.Get(ctx, model.UUIDKey("U"))
	require.NoError(t, err)
	require.True(t, ok)
	acc := mustDecode(t, raw).(*model.Account)
	require.True(t, acc.Groups["operators"])

	entry := modifyEntry(3, "cn=operators, ou=groups, o=smartdc",
		map[string]any{"objectclass": []string{"groupofuniquenames"}},
		[]map[string]any{{
			"operation": "delete",
			"modification": map[string]any{
				"type": "uniquemember",
				"vals": []string{"uuid=U, ou=users, o=smartdc"},
			},
		}},
	)
	commitEntry(t, ctx, tr, s, entry)

	raw, ok, err = s.Get(ctx, model.UUIDKey("U"))
	require.NoError(t, err)
	require.True(t, ok)
	acc = mustDecode(t, raw).(*model.Account)
	require.False(t, acc.Groups["operators"])
}

// Scenario 2 uses "cn=operators" as TargetDN so the group name resolves to
// "operators"; confirm the helper agrees.
func TestGroupNameFromDN(t *testing.T) {
	require.Equal(t, "operators", groupNameFromDN("cn=operators, ou=groups, o=smartdc"))
}

// Scenario 3: role rename.
func TestRoleRename(t *testing.T) {
	ctx := context.Background()
	s := storetest.New()
	tr := New(s, nil)

	commitEntry(t, ctx, tr, s, addEntry(1, map[string]any{
		"objectclass": []string{"sdcaccountrole"},
		"uuid":        []string{"R"},
		"account":     []string{"A"},
		"name":        []string{"developer_read"},
	}))

	uuidVal, ok, err := s.Get(ctx, model.RoleKey("A", "developer_read"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "R", uuidVal)

	entry := modifyEntry(2, "role-uuid=R, uuid=A, ou=users, o=smartdc",
		map[string]any{"objectclass": []string{"sdcaccountrole"}, "uuid": []string{"R"}, "account": []string{"A"}},
		[]map[string]any{{
			"operation": "replace",
			"modification": map[string]any{
				"type": "role",
				"vals": []string{"roletoreplace"},
			},
		}},
	)
	commitEntry(t, ctx, tr, s, entry)

	_, ok, err = s.Get(ctx, model.RoleKey("A", "developer_read"))
	require.NoError(t, err)
	require.False(t, ok)

	uuidVal, ok, err = s.Get(ctx, model.RoleKey("A", "roletoreplace"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "R", uuidVal)

	raw, ok, err := s.Get(ctx, model.UUIDKey("R"))
	require.NoError(t, err)
	require.True(t, ok)
	role := mustDecode(t, raw).(*model.Role)
	require.Equal(t, "roletoreplace", role.Name)
}
