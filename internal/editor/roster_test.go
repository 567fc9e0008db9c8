package editor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"team-roster-service/internal/editor"
	"team-roster-service/internal/model"
)

func person(id string) *model.Person {
	return &model.Person{ID: id, Name: "Person " + id, Email: id + "@example.com", Type: model.PersonTypeUser}
}

func TestMergeRoster(t *testing.T) {
	t.Run("Empty snapshot seeds one placeholder", func(t *testing.T) {
		roster := editor.MergeRoster(model.RosterSnapshot{CollectiveID: "c1"})

		require.Len(t, roster, 1)
		assert.Equal(t, model.MemberEntry{}, roster[0])
		assert.False(t, editor.Validate(roster))
	})

	t.Run("Members first, invitations lose their id", func(t *testing.T) {
		snap := model.RosterSnapshot{
			ConfirmedMembers: []model.MemberEntry{
				{ID: "m1", Role: model.RoleAdmin, Member: person("u1")},
			},
			PendingInvitations: []model.MemberEntry{
				{ID: "inv1", Role: model.RoleMember, Member: person("u2")},
			},
		}

		roster := editor.MergeRoster(snap)

		require.Len(t, roster, 2)
		assert.Equal(t, "m1", roster[0].ID)
		assert.Equal(t, model.KindMember, roster[0].Kind)
		assert.Empty(t, roster[1].ID)
		assert.Equal(t, model.KindInvitation, roster[1].Kind)
		assert.Equal(t, "u2", roster[1].Member.ID)

		// снимок не должен разделять указатели с черновиком
		roster[0].Member.Name = "changed"
		assert.Equal(t, "Person u1", snap.ConfirmedMembers[0].Member.Name)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		roster []model.MemberEntry
		want   bool
	}{
		{name: "Empty roster", roster: nil, want: true},
		{name: "All bound", roster: []model.MemberEntry{{Member: person("u1")}, {Member: person("u2")}}, want: true},
		{name: "One unbound", roster: []model.MemberEntry{{Member: person("u1")}, {Role: model.RoleAdmin}}, want: false},
		{name: "Placeholder", roster: []model.MemberEntry{{}}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, editor.Validate(tt.roster))
		})
	}
}

func TestBuildPayload(t *testing.T) {
	roster := []model.MemberEntry{
		{ID: "m1", Role: model.RoleAdmin, Description: "Founder", Member: person("u1"), Kind: model.KindMember},
		{Role: model.RoleAccountant, Member: &model.Person{Name: "New Person", Email: "new@example.com"}},
	}

	payload := editor.BuildPayload(roster)

	require.Len(t, payload, 2)
	assert.Equal(t, model.UpdateEntry{
		ID:          "m1",
		Role:        model.RoleAdmin,
		Description: "Founder",
		Member:      model.UpdatePerson{ID: "u1", Name: "Person u1", Email: "u1@example.com"},
	}, payload[0])
	assert.Empty(t, payload[1].ID)
	assert.Empty(t, payload[1].Member.ID)
	assert.Equal(t, "new@example.com", payload[1].Member.Email)
}

func TestBuildPayload_DefaultRole(t *testing.T) {
	payload := editor.BuildPayload([]model.MemberEntry{{Member: person("u1")}})

	require.Len(t, payload, 1)
	assert.Equal(t, model.DefaultRole, payload[0].Role)
}

func TestAdminCount(t *testing.T) {
	roster := []model.MemberEntry{
		{ID: "m1", Role: model.RoleAdmin, Member: person("u1")},
		{Role: model.RoleAdmin, Member: person("u2")},
		{ID: "m3", Role: model.RoleMember, Member: person("u3")},
	}

	assert.Equal(t, 1, editor.AdminCount(roster))
	assert.Equal(t, []string{"u1", "u2", "u3"}, editor.MemberIDs(roster))
}
