package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestKeygenTokenInspect(t *testing.T) {
	dir := t.TempDir()
	privPath := filepath.Join(dir, "AuthKey.p8")
	pubPath := filepath.Join(dir, "pub.pem")

	out, err := run(t, "keygen", "--kid", "KEY1", "--out", privPath, "--pub", pubPath)
	require.NoError(t, err)
	assert.Contains(t, out, `"kid":"KEY1"`)

	t.Setenv("CONFIG_PATH", "")
	t.Setenv("TEAM_ID", "TEAM1")
	t.Setenv("APP_ID", "APP1")
	t.Setenv("KEY_ID", "KEY1")
	t.Setenv("PRIVATE_KEY", "")
	t.Setenv("WEATHERKIT_PRIVATE_KEY", "")
	t.Setenv("PRIVATE_KEY_FILE", privPath)

	out, err = run(t, "token", "--config", "")
	require.NoError(t, err)
	tok := strings.TrimSpace(strings.SplitN(out, "\n", 2)[0])
	assert.True(t, strings.HasPrefix(tok, "Bearer "))

	out, err = run(t, "inspect", tok, "--pub", pubPath)
	require.NoError(t, err)
	assert.Contains(t, out, `"kid": "KEY1"`)
	assert.Contains(t, out, `"jti": "TEAM1.APP1"`)
	assert.Contains(t, out, "signature: valid")
}

func TestToken_MissingConfiguration(t *testing.T) {
	for _, k := range []string{"CONFIG_PATH", "TEAM_ID", "APPLE_TEAM_ID", "APP_ID", "APPLE_APP_ID", "KEY_ID", "APPLE_KEY_ID", "PRIVATE_KEY", "WEATHERKIT_PRIVATE_KEY", "PRIVATE_KEY_FILE"} {
		t.Setenv(k, "")
	}
	_, err := run(t, "token", "--config", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "private")
}

func TestInspect_Malformed(t *testing.T) {
	_, err := run(t, "inspect", "not-a-token")
	require.Error(t, err)
}

func TestForecast_RequiresTarget(t *testing.T) {
	_, err := run(t, "forecast")
	require.EqualError(t, err, "use --city or both --lat and --lng")
}
