package commands_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kanban/internal/commands"
	"kanban/internal/config"
	"kanban/internal/exitcode"
)

const testOAuthClient = `{"installed":{"client_id":"test","client_secret":"test","redirect_uris":["http://localhost"]}}`

// writeConfigFiles populates a config dir with the named files.
func writeConfigFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0600); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	return dir
}

func runAuthCommand(ctx context.Context, cmd commands.Command, dir string, quiet bool) (stdout, stderr string, code int) {
	var outBuf, errBuf bytes.Buffer
	cfg := &config.Config{Dir: dir, Quiet: quiet}
	code = cmd.Run(ctx, cfg, nil, nil, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func TestLoginCommand_NoOAuthClient(t *testing.T) {
	stdout, stderr, code := runAuthCommand(context.Background(), &commands.LoginCmd{}, t.TempDir(), false)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if stdout != "" {
		t.Errorf("expected no stdout, got %q", stdout)
	}
	if !strings.HasPrefix(stderr, "error: oauth_client.json not found in ") {
		t.Errorf("expected missing client error, got %q", stderr)
	}
	if !strings.Contains(stderr, "kanban login") {
		t.Errorf("expected instructions to mention kanban login, got %q", stderr)
	}
}

func TestLoginCommand_InvalidOAuthClient(t *testing.T) {
	dir := writeConfigFiles(t, map[string]string{config.OAuthClientFile: "not json"})

	_, stderr, code := runAuthCommand(context.Background(), &commands.LoginCmd{}, dir, false)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if !strings.Contains(stderr, "invalid oauth_client.json") {
		t.Errorf("expected invalid client error, got %q", stderr)
	}
}

// A stored token that cannot be refreshed must send the user through the
// browser flow again rather than report "already logged in".
func TestLoginCommand_UnusableToken(t *testing.T) {
	tokens := map[string]string{
		"no refresh token": `{"access_token":"expired","token_type":"Bearer"}`,
		"expired":          `{"access_token":"test","token_type":"Bearer","expiry":"2020-01-01T00:00:00Z"}`,
		"corrupt":          `{`,
	}
	for name, token := range tokens {
		t.Run(name, func(t *testing.T) {
			dir := writeConfigFiles(t, map[string]string{
				config.OAuthClientFile: testOAuthClient,
				config.TokenFile:       token,
			})

			// Cancelled so the command does not wait for the OAuth callback.
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			stdout, _, code := runAuthCommand(ctx, &commands.LoginCmd{}, dir, false)

			if stdout == "already logged in\n" {
				t.Error("should not say 'already logged in'")
			}
			if code != exitcode.AuthError {
				t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
			}
		})
	}
}

func TestLogoutCommand_OnlyRemovesToken(t *testing.T) {
	dir := writeConfigFiles(t, map[string]string{
		config.OAuthClientFile: testOAuthClient,
		config.TokenFile:       `{"access_token":"test","refresh_token":"test"}`,
	})

	stdout, stderr, code := runAuthCommand(context.Background(), &commands.LogoutCmd{}, dir, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "ok\n" {
		t.Errorf("expected 'ok\\n', got %q", stdout)
	}
	if _, err := os.Stat(filepath.Join(dir, config.TokenFile)); !os.IsNotExist(err) {
		t.Error("token.json should have been deleted")
	}
	if _, err := os.Stat(filepath.Join(dir, config.OAuthClientFile)); err != nil {
		t.Error("oauth_client.json should NOT have been deleted")
	}
}

func TestLogoutCommand_NotLoggedIn(t *testing.T) {
	tests := []struct {
		quiet bool
		want  string
	}{
		{quiet: false, want: "not logged in\n"},
		{quiet: true, want: ""},
	}
	for _, tt := range tests {
		stdout, stderr, code := runAuthCommand(context.Background(), &commands.LogoutCmd{}, t.TempDir(), tt.quiet)

		if code != exitcode.Success {
			t.Errorf("quiet=%v: expected exit code %d, got %d", tt.quiet, exitcode.Success, code)
		}
		if stderr != "" {
			t.Errorf("quiet=%v: expected no stderr, got %q", tt.quiet, stderr)
		}
		if stdout != tt.want {
			t.Errorf("quiet=%v: expected %q, got %q", tt.quiet, tt.want, stdout)
		}
	}
}
