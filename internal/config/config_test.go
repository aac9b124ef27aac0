// ABOUTME: Tests for credential loading from YAML files and environment variables.
// ABOUTME: Covers per-field env precedence, validation, and unset-field omission.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfigFile(t, `
accountId: "12345678"
username: bot-user
password: hunter2
csdsDomain: adminlogin.example.com
requestTimeout: 10s
`)

	creds, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "12345678", creds.AccountID)
	assert.Equal(t, "bot-user", creds.Username)
	assert.Equal(t, "hunter2", creds.Password)
	assert.Equal(t, "adminlogin.example.com", creds.CSDSDomain)
	assert.Equal(t, 10*time.Second, creds.RequestTimeout)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
accountId: "12345678"
username: file-user
password: file-pass
`)

	t.Setenv("LP_USERNAME", "env-user")

	creds, err := Load(path)
	require.NoError(t, err)

	// Precedence is per field: the overridden field comes from the
	// environment, the rest still come from the file.
	assert.Equal(t, "env-user", creds.Username)
	assert.Equal(t, "file-pass", creds.Password)
	assert.Equal(t, "12345678", creds.AccountID)
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("LP_ACCOUNT_ID", "98765432")
	t.Setenv("LP_TOKEN", "bearer-token")

	creds, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "98765432", creds.AccountID)
	assert.Equal(t, "bearer-token", creds.Token)
}

func TestLoad_EnvDurations(t *testing.T) {
	t.Setenv("LP_ACCOUNT_ID", "98765432")
	t.Setenv("LP_REQUEST_TIMEOUT", "30s")
	t.Setenv("LP_ERROR_CHECK_INTERVAL", "1m")

	creds, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, creds.RequestTimeout)
	assert.Equal(t, time.Minute, creds.ErrorCheckInterval)
}

func TestLoad_MissingAccountIDFails(t *testing.T) {
	path := writeConfigFile(t, `
username: bot-user
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accountId is required")
}

func TestLoad_MalformedFileFails(t *testing.T) {
	path := writeConfigFile(t, "accountId: [unclosed")

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_MissingFileFallsBackToEnv(t *testing.T) {
	t.Setenv("LP_ACCOUNT_ID", "55555555")

	creds, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "55555555", creds.AccountID)
}

func TestFields_OmitsUnset(t *testing.T) {
	creds := &Credentials{
		AccountID: "12345678",
		Username:  "bot-user",
	}

	fields := creds.Fields()
	assert.Equal(t, map[string]any{
		"accountId": "12345678",
		"username":  "bot-user",
	}, fields)
}

func TestFields_IncludesDurationsWhenSet(t *testing.T) {
	creds := &Credentials{
		AccountID:      "12345678",
		RequestTimeout: 15 * time.Second,
	}

	fields := creds.Fields()
	assert.Equal(t, 15*time.Second, fields["requestTimeout"])
	assert.NotContains(t, fields, "errorCheckInterval")
}
