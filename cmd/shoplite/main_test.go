package main

import (
	"bytes"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jxucoder/shoplite/internal/chattest"
	"github.com/jxucoder/shoplite/internal/config"
)

// isolateConfig points the config at a fresh directory and clears overrides.
func isolateConfig(t *testing.T) string {
	t.Helper()
	for _, key := range []string{config.KeyBaseURL, config.KeyTimeout, config.KeyDataDir} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	dir := t.TempDir()
	t.Setenv(config.KeyDataDir, dir)
	return dir
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// ---------------------------------------------------------------------------
// Interactive chat
// ---------------------------------------------------------------------------

func TestRoot_ChatLoop(t *testing.T) {
	isolateConfig(t)
	srv := chattest.NewServer(chattest.Echo)
	defer srv.Close()

	out, _, err := execute(t, "hello\nEXIT\n", "--server", srv.URL)
	if err != nil {
		t.Fatalf("execute returned unexpected error: %v", err)
	}
	if !strings.Contains(out, "Welcome to Shoplite Chat!") {
		t.Errorf("output %q should include the banner", out)
	}
	if !strings.Contains(out, "Bot: echo: hello\n") {
		t.Errorf("output %q should include the reply", out)
	}
	if strings.Contains(out, "You: ") {
		t.Errorf("output %q should not prompt when stdin is not a terminal", out)
	}
	if n := len(srv.Requests()); n != 1 {
		t.Errorf("server saw %d requests, want 1", n)
	}
}

func TestRoot_BaseURLFromEnv(t *testing.T) {
	isolateConfig(t)
	srv := chattest.NewServer(chattest.Echo)
	defer srv.Close()
	t.Setenv(config.KeyBaseURL, srv.URL)

	out, _, err := execute(t, "hi\n")
	if err != nil {
		t.Fatalf("execute returned unexpected error: %v", err)
	}
	if !strings.Contains(out, "Bot: echo: hi") {
		t.Errorf("output %q should include the reply", out)
	}
}

func TestRoot_ServerFlagOverridesEnv(t *testing.T) {
	isolateConfig(t)
	srv := chattest.NewServer(chattest.Echo)
	defer srv.Close()
	t.Setenv(config.KeyBaseURL, "http://127.0.0.1:1")

	out, _, err := execute(t, "hi\n", "--server", srv.URL)
	if err != nil {
		t.Fatalf("execute returned unexpected error: %v", err)
	}
	if !strings.Contains(out, "Bot: echo: hi") {
		t.Errorf("output %q should come from the --server URL", out)
	}
}

func TestRoot_InvalidServer(t *testing.T) {
	isolateConfig(t)

	_, _, err := execute(t, "", "--server", "not a url")
	if err == nil {
		t.Fatal("execute should reject an invalid --server")
	}
}

func TestRoot_RejectsArgs(t *testing.T) {
	isolateConfig(t)

	if _, _, err := execute(t, "", "unexpected"); err == nil {
		t.Fatal("execute should reject positional arguments")
	}
}

func TestRoot_VerboseLogsToStderr(t *testing.T) {
	isolateConfig(t)
	srv := chattest.NewServer(chattest.Echo)
	defer srv.Close()

	out, errOut, err := execute(t, "hi\n", "--server", srv.URL, "-v")
	if err != nil {
		t.Fatalf("execute returned unexpected error: %v", err)
	}
	if !strings.Contains(errOut, "[chat] POST "+srv.URL+"/chat") {
		t.Errorf("stderr %q should trace the request", errOut)
	}
	if strings.Contains(out, "[chat]") {
		t.Errorf("stdout %q should not contain log lines", out)
	}
}

// ---------------------------------------------------------------------------
// ask
// ---------------------------------------------------------------------------

func TestAsk(t *testing.T) {
	isolateConfig(t)
	srv := chattest.NewServer(chattest.Echo)
	defer srv.Close()

	out, _, err := execute(t, "", "ask", "--server", srv.URL, "where", "is", "my", "order?")
	if err != nil {
		t.Fatalf("ask returned unexpected error: %v", err)
	}
	if out != "Bot: echo: where is my order?\n" {
		t.Errorf("output = %q", out)
	}
	reqs := srv.Requests()
	if len(reqs) != 1 {
		t.Fatalf("server saw %d requests, want 1", len(reqs))
	}
	if p, _ := reqs[0].Prompt(); p != "where is my order?" {
		t.Errorf("prompt = %q", p)
	}
}

func TestAsk_Failure(t *testing.T) {
	isolateConfig(t)
	srv := chattest.NewServer(chattest.Status(http.StatusInternalServerError))
	defer srv.Close()

	out, _, err := execute(t, "", "ask", "--server", srv.URL, "hi")
	var code exitCodeError
	if !errors.As(err, &code) || code != 1 {
		t.Fatalf("ask error = %v, want exit status 1", err)
	}
	if !strings.HasPrefix(out, "Error: ") {
		t.Errorf("output %q should start with Error:", out)
	}
}

func TestAsk_ServiceErrorField(t *testing.T) {
	isolateConfig(t)
	srv := chattest.NewServer(chattest.Reply(map[string]any{"error": "model offline"}))
	defer srv.Close()

	out, _, err := execute(t, "", "ask", "--server", srv.URL, "hi")
	var code exitCodeError
	if !errors.As(err, &code) {
		t.Fatalf("ask error = %v, want an exit status", err)
	}
	if out != "Error: model offline\n" {
		t.Errorf("output = %q", out)
	}
}

func TestAsk_RequiresPrompt(t *testing.T) {
	isolateConfig(t)
	if _, _, err := execute(t, "", "ask"); err == nil {
		t.Fatal("ask without a prompt should fail")
	}
}

// ---------------------------------------------------------------------------
// health
// ---------------------------------------------------------------------------

func TestHealth(t *testing.T) {
	isolateConfig(t)
	srv := chattest.NewServer(nil)
	defer srv.Close()

	out, _, err := execute(t, "", "health", "--server", srv.URL)
	if err != nil {
		t.Fatalf("health returned unexpected error: %v", err)
	}
	if out != srv.URL+" is healthy\n" {
		t.Errorf("output = %q", out)
	}

	srv.SetHealthy(false)
	_, _, err = execute(t, "", "health", "--server", srv.URL)
	if err == nil || !strings.Contains(err.Error(), "unhealthy") {
		t.Fatalf("health error = %v, want unhealthy", err)
	}
}

// ---------------------------------------------------------------------------
// config
// ---------------------------------------------------------------------------

func TestConfig_SetShowPath(t *testing.T) {
	dir := isolateConfig(t)

	out, _, err := execute(t, "", "config", "path")
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	wantPath := filepath.Join(dir, "config.env")
	if strings.TrimSpace(out) != wantPath {
		t.Errorf("config path = %q, want %q", out, wantPath)
	}

	if _, _, err := execute(t, "", "config", "set", config.KeyBaseURL, "http://localhost:5000"); err != nil {
		t.Fatalf("config set: %v", err)
	}
	values, err := config.ReadFile(wantPath)
	if err != nil {
		t.Fatalf("reading config file: %v", err)
	}
	if values[config.KeyBaseURL] != "http://localhost:5000" {
		t.Errorf("stored %s = %q", config.KeyBaseURL, values[config.KeyBaseURL])
	}

	out, _, err = execute(t, "", "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "http://localhost:5000 (from config file)") {
		t.Errorf("config show = %q, want base URL from file", out)
	}
	if !strings.Contains(out, config.KeyTimeout+" ") || !strings.Contains(out, "(default)") {
		t.Errorf("config show = %q, want timeout default", out)
	}
}

func TestConfig_SetValidates(t *testing.T) {
	isolateConfig(t)

	tests := []struct {
		key, value string
	}{
		{config.KeyBaseURL, "localhost:5000"},
		{config.KeyTimeout, "soon"},
		{config.KeyTimeout, "-5s"},
	}
	for _, tt := range tests {
		if _, _, err := execute(t, "", "config", "set", tt.key, tt.value); err == nil {
			t.Errorf("config set %s %q should fail", tt.key, tt.value)
		}
	}
}

func TestConfigFileFeedsChat(t *testing.T) {
	dir := isolateConfig(t)
	srv := chattest.NewServer(chattest.Echo)
	defer srv.Close()

	if err := config.WriteFile(filepath.Join(dir, "config.env"), map[string]string{config.KeyBaseURL: srv.URL}); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	out, _, err := execute(t, "", "ask", "ping")
	if err != nil {
		t.Fatalf("ask returned unexpected error: %v", err)
	}
	if out != "Bot: echo: ping\n" {
		t.Errorf("output = %q", out)
	}
}

func TestConfigShow_AfterLoadKeepsFileSource(t *testing.T) {
	dir := isolateConfig(t)
	if err := config.WriteFile(filepath.Join(dir, "config.env"), map[string]string{config.KeyBaseURL: "http://file.example"}); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	if _, err := config.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	out, _, err := execute(t, "", "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "http://file.example (from config file)") {
		t.Errorf("config show = %q, want the file value labelled as from config file", out)
	}
}
