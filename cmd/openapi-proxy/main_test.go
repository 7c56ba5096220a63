package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xKoRx/openapi-proxy/internal/command"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "openapi-proxy dev\n", out)
}

func TestCommandsCmd_Table(t *testing.T) {
	out, err := runCLI(t, "commands")
	require.NoError(t, err)
	assert.Contains(t, out, "COMMAND")
	assert.Contains(t, out, command.NameSetAccount)
	assert.Contains(t, out, command.NameTrendbars)
}

func TestCommandsCmd_JSON(t *testing.T) {
	out, err := runCLI(t, "commands", "--json")
	require.NoError(t, err)

	var contracts []command.Contract
	require.NoError(t, json.Unmarshal([]byte(out), &contracts))
	require.NotEmpty(t, contracts)
	assert.Equal(t, command.NameAccountLogout, contracts[0].Name)
}

func TestServeCmd_MissingToken(t *testing.T) {
	t.Setenv("CTRADER_TOKEN", "")
	t.Setenv("ETCD_ENDPOINTS", "")
	_, err := runCLI(t, "serve", "--env-file", t.TempDir()+"/missing.env")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CTRADER_TOKEN is not set")
}
