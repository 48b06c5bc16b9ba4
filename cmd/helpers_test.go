package cmd

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/cubsoftware/cubvault/internal/crypto"
	"github.com/cubsoftware/cubvault/internal/terminal"
	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
	gokeyring "github.com/zalando/go-keyring"
)

const testPassword = "correct horse battery staple"

func TestMain(m *testing.M) {
	color.NoColor = true
	gokeyring.MockInit()
	newEngine = func() *crypto.Engine {
		return crypto.New(crypto.WithIterations(1000))
	}
	os.Exit(m.Run())
}

// testEnv runs commands against one data directory
type testEnv struct {
	t       *testing.T
	dir     string
	storage string
	api     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv(terminal.PasswordEnv, testPassword)
	return &testEnv{t: t, dir: t.TempDir(), storage: "file"}
}

// runWithInput executes the root command with input on stdin. Output and
// errors share one buffer.
func (e *testEnv) runWithInput(input string, args ...string) (string, error) {
	e.t.Helper()

	full := []string{"--data-dir", e.dir, "--storage", e.storage}
	if e.api != "" {
		full = append(full, "--api", e.api)
	}
	full = append(full, args...)

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(input))
	root.SetArgs(full)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *testEnv) run(args ...string) (string, error) {
	e.t.Helper()
	return e.runWithInput("", args...)
}

func (e *testEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run(args...)
	require.NoError(e.t, err, out)
	return out
}

// initWithEntry creates a vault holding one GitHub entry
func (e *testEnv) initWithEntry() {
	e.t.Helper()
	e.mustRun("init")
	e.mustRun("add", "-t", "GitHub", "-u", "octocat", "-p", "Secret-Pass-9431", "--url", "https://github.com", "-c", "Development", "--tag", "code")
}

// fakeClipboard replaces the system clipboard for the test
func fakeClipboard(t *testing.T) *string {
	t.Helper()

	var clip string
	write, read := clipboardWrite, clipboardRead
	clipboardWrite = func(s string) error {
		clip = s
		return nil
	}
	clipboardRead = func() (string, error) {
		return clip, nil
	}
	t.Cleanup(func() {
		clipboardWrite, clipboardRead = write, read
	})
	return &clip
}
