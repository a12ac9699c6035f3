package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roniherschmann/biolink/internal/config"
	"github.com/roniherschmann/biolink/internal/store"
)

func TestVersionFlag(t *testing.T) {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := RunWithArgs("1.2.3", []string{"--version"})

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	buf.ReadFrom(r)

	assert.NoError(t, err)
	assert.Equal(t, "biolink 1.2.3", strings.TrimSpace(buf.String()))
}

func TestSubcommandsRecognized(t *testing.T) {
	parser, _, _ := buildParser("test")
	for _, name := range []string{"serve", "migrate", "verify"} {
		assert.NotNil(t, parser.Find(name), name)
	}
	assert.Nil(t, parser.Find("prune"))
}

func TestGlobalDSNFlag(t *testing.T) {
	parser, globals, cmds := buildParser("test")
	// Parse without selecting a subcommand so nothing executes.
	parser.SubcommandsOptional = true
	_, err := parser.ParseArgs([]string{"--dsn", "file:x.db"})
	require.NoError(t, err)
	assert.Equal(t, "file:x.db", globals.DSN)
	assert.Same(t, globals, cmds.Migrate.globals)

	t.Setenv("DB_DSN", "postgres://from-env")
	assert.Equal(t, "file:x.db", loadConfig(globals).DBDSN)
	assert.Equal(t, "postgres://from-env", loadConfig(&GlobalFlags{}).DBDSN)
}

func TestServeFlagsParse(t *testing.T) {
	parser, _, cmds := buildParser("test")
	cmd := parser.Find("serve")
	require.NotNil(t, cmd)
	assert.NotNil(t, cmd.FindOptionByLongName("port"))
	assert.NotNil(t, cmd.FindOptionByLongName("log-level"))
	assert.Zero(t, cmds.Serve.Port)
}

func TestMigrateRequiresDSN(t *testing.T) {
	err := migrate(context.Background(), "")
	assert.ErrorIs(t, err, store.ErrNotConfigured)
}

func TestMigrateThenVerify(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "events.db")
	require.NoError(t, migrate(context.Background(), dsn))
	// Re-running is a no-op.
	require.NoError(t, migrate(context.Background(), dsn))

	var out bytes.Buffer
	cmd := &VerifyCommand{out: &out}
	err := cmd.run(context.Background(), config.Config{DBDSN: dsn, AdminPassword: "pw", AdminSessionKey: "k"})
	require.NoError(t, err, out.String())
	assert.Contains(t, out.String(), "ok    analytics tables present")
	assert.Contains(t, out.String(), "ok    admin password set")
	assert.NotContains(t, out.String(), "FAIL")
}

func TestVerifyReportsMissingSchema(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "events.db")

	var out bytes.Buffer
	cmd := &VerifyCommand{out: &out}
	err := cmd.run(context.Background(), config.Config{DBDSN: dsn})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 setup check(s) failed")
	assert.Contains(t, out.String(), "ok    database reachable (sqlite)")
	assert.Contains(t, out.String(), "FAIL  analytics tables present")
	assert.Contains(t, out.String(), "FAIL  admin password set")
	assert.Contains(t, out.String(), "note  ADMIN_SESSION_KEY not set")
}

func TestVerifyNotConfigured(t *testing.T) {
	var out bytes.Buffer
	cmd := &VerifyCommand{out: &out}
	err := cmd.run(context.Background(), config.Config{AdminPassword: "pw"})
	require.Error(t, err)
	assert.Contains(t, out.String(), "FAIL  event store configured")
	assert.NotContains(t, out.String(), "database reachable")
}
