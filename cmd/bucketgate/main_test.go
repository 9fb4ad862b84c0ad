package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bucketgate/pkg/jwt"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func executeRootCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("S3_BUCKET_NAME", "tenant-files")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIAEXAMPLE")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "aws-secret-value")
	t.Setenv("DATABASE_CONN_URL", "")
	t.Setenv("REDIS_URL", "")
}

func TestConfigCommand(t *testing.T) {
	setBaseEnv(t)

	out, err := executeRootCommand(t, "config")
	require.NoError(t, err)
	require.Contains(t, out, "bucket: tenant-files")
	require.NotContains(t, out, testSecret)
	require.NotContains(t, out, "aws-secret-value")
}

func TestConfigCommand_Invalid(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("S3_BUCKET_NAME", "")

	_, err := executeRootCommand(t, "config")
	require.ErrorContains(t, err, "S3_BUCKET_NAME")
}

func TestTokenCommand(t *testing.T) {
	setBaseEnv(t)

	out, err := executeRootCommand(t, "token", "--tenant", "tenant-42", "--ttl", "5m")
	require.NoError(t, err)

	svc, err := jwt.NewFromString(testSecret)
	require.NoError(t, err)
	claims, err := svc.Parse(strings.TrimSpace(out))
	require.NoError(t, err)
	require.Equal(t, "tenant-42", claims.Subject)
}

func TestTokenCommand_Rejects(t *testing.T) {
	setBaseEnv(t)

	_, err := executeRootCommand(t, "token")
	require.ErrorContains(t, err, "--tenant")

	_, err = executeRootCommand(t, "token", "--tenant", "a/b")
	require.Error(t, err)

	t.Setenv("JWT_SECRET", "short")
	_, err = executeRootCommand(t, "token", "--tenant", "tenant-42")
	require.ErrorIs(t, err, jwt.ErrSecretTooShort)
}

func TestDatabaseCommands_RequireDatabase(t *testing.T) {
	setBaseEnv(t)

	for _, args := range [][]string{
		{"migrate"},
		{"migrate", "status"},
		{"audit", "tail"},
	} {
		_, err := executeRootCommand(t, args...)
		require.ErrorIs(t, err, errNoDatabase, strings.Join(args, " "))
	}
}

func TestAuditTail_Flags(t *testing.T) {
	setBaseEnv(t)

	_, err := executeRootCommand(t, "audit", "tail", "--limit", "0")
	require.ErrorContains(t, err, "--limit")

	_, err = executeRootCommand(t, "audit", "tail", "--tenant", "../x")
	require.Error(t, err)
	require.NotErrorIs(t, err, errNoDatabase)
}
