package main

import (
	"bytes"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(args ...string) error {
	root := newRootCommand()
	root.SetArgs(args)
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	return root.Execute()
}

func TestArgumentValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"migrate without target", []string{"migrate"}},
		{"migrate with both --all and schemas", []string{"migrate", "--all", "tenant_acme"}},
		{"create without tenant", []string{"create"}},
		{"create with two tenants", []string{"create", "acme", "beta"}},
		{"list with arguments", []string{"list", "extra"}},
		{"drop without tenant", []string{"drop", "--yes"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, execute(tt.args...))
		})
	}
}

func TestDropRequiresConfirmation(t *testing.T) {
	assert.ErrorIs(t, execute("drop", "acme"), errConfirmRequired)
}

func TestGlobalFlagsReachEverySubcommand(t *testing.T) {
	for _, name := range []string{"list", "status", "create", "migrate", "drop"} {
		t.Run(name, func(t *testing.T) {
			g := newGlobalFlags()
			root := buildRootCommand(g)

			cmd, _, err := root.Find([]string{name})
			require.NoError(t, err)
			require.NoError(t, cmd.ParseFlags([]string{"--output", "json", "--env-file", "prod.env"}))

			assert.Equal(t, "json", g.output.GetString())
			assert.Equal(t, "prod.env", g.envFile.GetString())
		})
	}
}

func TestGlobalFlagDefaults(t *testing.T) {
	g := newGlobalFlags()
	root := buildRootCommand(g)

	cmd, _, err := root.Find([]string{"list"})
	require.NoError(t, err)
	require.NoError(t, cmd.ParseFlags(nil))

	assert.Equal(t, "text", g.output.GetString())
	assert.Equal(t, ".env", g.envFile.GetString())
}

func TestRender(t *testing.T) {
	rows := []struct {
		Schema string `json:"schema"`
	}{{Schema: "tenant_acme"}}
	table := func(w io.Writer) { fmt.Fprintln(w, "SCHEMA\ttenant_acme") }

	var buf bytes.Buffer
	require.NoError(t, render(&buf, "json", rows, table))
	assert.JSONEq(t, `[{"schema":"tenant_acme"}]`, buf.String())

	buf.Reset()
	require.NoError(t, render(&buf, "text", rows, table))
	assert.Contains(t, buf.String(), "tenant_acme")

	assert.Error(t, render(&buf, "yaml", rows, table))
}
