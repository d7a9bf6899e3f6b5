package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/auth"
)

func TestHashPassword(t *testing.T) {
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out

	err := app.Run([]string{"admin", "hash-password", "--cost", "4", "--password", "Padawan42"})
	require.NoError(t, err)

	hash := strings.TrimSpace(out.String())
	assert.True(t, auth.NewPasswordHasher(4).Compare(hash, "Padawan42"))
}

func TestHashPasswordRejectsCost(t *testing.T) {
	app := newApp()
	app.Writer = &bytes.Buffer{}

	err := app.Run([]string{"admin", "hash-password", "--cost", "40", "--password", "Padawan42"})
	assert.ErrorContains(t, err, "bcrypt cost")
}

func TestCreateAdminRequiresFlags(t *testing.T) {
	app := newApp()
	app.Writer = &bytes.Buffer{}
	app.ErrWriter = &bytes.Buffer{}

	err := app.Run([]string{"admin", "create-admin", "--email", "yoda@tutoring.center"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first-name")
}
