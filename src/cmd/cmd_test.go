package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theleywin/talent-nest-network/src/lib"
)

func sqliteEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AUTH_JWT_SECRET", "cli-test-secret")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_SQLITE_PATH", filepath.Join(t.TempDir(), "cli.db"))
	t.Setenv("LOG_LEVEL", "disabled")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return strings.TrimSpace(out.String()), err
}

func TestMigrateCreateUserAndToken(t *testing.T) {
	sqliteEnv(t)

	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Equal(t, "migration complete", out)

	id, err := run(t, "user", "create", "--username", "alice", "--email", "alice@example.com")
	require.NoError(t, err)
	assert.Len(t, id, 24)

	_, err = run(t, "user", "create", "--username", "alice", "--email", "other@example.com")
	assert.Error(t, err)

	token, err := run(t, "token", id)
	require.NoError(t, err)

	got, err := lib.NewJWT("cli-test-secret", time.Hour).VerifyJWT(token)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestTokenRejectsMalformedID(t *testing.T) {
	sqliteEnv(t)

	_, err := run(t, "token", "alice")
	assert.ErrorContains(t, err, "invalid user id")
}

func TestLoadFailsWithoutSecret(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_DRIVER", "sqlite")

	_, err := run(t, "migrate")
	assert.Error(t, err)
}
