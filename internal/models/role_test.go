package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for _, r := range AllRoles {
		parsed, err := ParseRole(string(r))
		require.NoError(t, err)
		assert.Equal(t, r, parsed)
	}

	for _, raw := range []string{"", "Admin", "superadmin", " admin", "principal"} {
		_, err := ParseRole(raw)
		assert.ErrorIs(t, err, ErrUnknownRole, raw)
	}
}

func TestRoleJSONRejectsUnknown(t *testing.T) {
	var payload struct {
		Role Role `json:"role"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"role":"parent"}`), &payload))
	assert.Equal(t, RoleParent, payload.Role)

	err := json.Unmarshal([]byte(`{"role":"root"}`), &payload)
	assert.Error(t, err)
}

func TestRoleScan(t *testing.T) {
	var r Role
	require.NoError(t, r.Scan([]byte("teacher")))
	assert.Equal(t, RoleTeacher, r)
	assert.ErrorIs(t, r.Scan("owner"), ErrUnknownRole)
	assert.Error(t, r.Scan(42))
}

func TestRoleValue(t *testing.T) {
	v, err := RoleStudent.Value()
	require.NoError(t, err)
	assert.Equal(t, "student", v)

	_, err = Role("ghost").Value()
	assert.Error(t, err)
}

func TestRoleSet(t *testing.T) {
	set := NewRoleSet(RoleAdmin, RoleTeacher, Role("bogus"))
	assert.True(t, set.Contains(RoleAdmin))
	assert.True(t, set.Contains(RoleTeacher))
	assert.False(t, set.Contains(RoleParent))
	assert.False(t, set.Contains(Role("bogus")))
	assert.Equal(t, "admin,teacher", set.String())

	assert.False(t, RoleSet{}.Contains(RoleAdmin))
}

func TestRoleHomePath(t *testing.T) {
	assert.Equal(t, "/admin", RoleAdmin.HomePath())
	assert.Equal(t, "/parent", RoleParent.HomePath())
	assert.Equal(t, "/student", RoleStudent.HomePath())
	assert.Equal(t, "/", RoleTeacher.HomePath())
	assert.Equal(t, "/", Role("x").HomePath())
}
