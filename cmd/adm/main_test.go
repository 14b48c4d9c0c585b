package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faultdesk/cmd/adm/commands"
	"faultdesk/internal/config"
)

type stubMigrator struct{ version uint }

func (s stubMigrator) MigrateUp(context.Context, config.DatabaseConfig) error { return nil }

func (s stubMigrator) MigrateDown(context.Context, config.DatabaseConfig, int) error { return nil }

func (s stubMigrator) Version(context.Context, config.DatabaseConfig) (uint, bool, error) {
	return s.version, false, nil
}

func TestRootCommand_InitializesServicesOnlyForDataCommands(t *testing.T) {
	out := &bytes.Buffer{}
	deps := &commands.Deps{Config: &config.Config{}, Out: out}

	calls := 0
	initErr := errors.New("database unreachable")
	root := newRootCommand(deps.Config, deps, stubMigrator{version: 3}, func(context.Context) error {
		calls++
		return initErr
	})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	root.SetArgs([]string{"db", "version"})
	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Equal(t, 0, calls)
	assert.Contains(t, out.String(), "version=3")

	root.SetArgs([]string{"user", "list"})
	err := root.ExecuteContext(context.Background())
	assert.ErrorIs(t, err, initErr)
	assert.Equal(t, 1, calls)
}
