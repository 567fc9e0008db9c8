package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRole_Valid(t *testing.T) {
	for _, r := range Roles() {
		assert.True(t, r.Valid(), r)
	}
	assert.False(t, Role("").Valid())
	assert.False(t, Role("admin").Valid())
	assert.Equal(t, RoleAdmin, DefaultRole)
}

func TestMemberEntry_Clone(t *testing.T) {
	since := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	orig := MemberEntry{ID: "m1", Role: RoleAdmin, Since: &since, Member: &Person{ID: "u1", Name: "Ann"}}

	cp := orig.Clone()
	cp.Member.Name = "Changed"
	*cp.Since = since.AddDate(1, 0, 0)

	assert.Equal(t, "Ann", orig.Member.Name)
	assert.Equal(t, since, *orig.Since)
	assert.True(t, cp.HasMember())
	assert.False(t, MemberEntry{}.HasMember())
}

func TestToUpdateEntry(t *testing.T) {
	e := MemberEntry{ID: "m1", Role: RoleMember, Description: "Dev", Member: &Person{ID: "u1", Name: "Ann", Email: "ann@example.com", Slug: "ann"}}

	assert.Equal(t, UpdateEntry{
		ID:          "m1",
		Role:        RoleMember,
		Description: "Dev",
		Member:      UpdatePerson{ID: "u1", Name: "Ann", Email: "ann@example.com"},
	}, ToUpdateEntry(e))
	assert.Equal(t, UpdatePerson{}, ToUpdateEntry(MemberEntry{}).Member)
}
