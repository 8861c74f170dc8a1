package models

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brainac/backend/pkg/types"
)

func TestUser_CanAccessGrade(t *testing.T) {
	student := &User{Grade: 6, Role: types.RoleStudent}
	require.True(t, student.CanAccessGrade(6))
	require.False(t, student.CanAccessGrade(7))

	admin := &User{Role: types.RoleAdmin}
	require.True(t, admin.CanAccessGrade(9))
}

func TestUser_FullName(t *testing.T) {
	require.Equal(t, "Asha Rao", (&User{FirstName: "Asha", LastName: "Rao"}).FullName())
	require.Equal(t, "Asha", (&User{FirstName: "Asha"}).FullName())
	require.Equal(t, "", (*User)(nil).FullName())
}
