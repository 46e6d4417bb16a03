package database

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildPostgresDSNDefaults(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{
		User: "guestbook",
		Name: "guestbook_db",
	})
	require.NoError(t, err)
	require.Equal(t, "host=localhost port=5432 user=guestbook dbname=guestbook_db TimeZone=UTC sslmode=disable", dsn)
}

func TestBuildPostgresDSNWithOptions(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{
		User:     "user",
		Name:     "db",
		Host:     "db.example.com",
		Port:     6543,
		Password: "pass",
		Options: map[string]string{
			"sslmode":     "require",
			"search_path": "public",
		},
	})
	require.NoError(t, err)

	for _, part := range []string{
		"host=db.example.com",
		"port=6543",
		"user=user",
		"dbname=db",
		"password=pass",
		"sslmode=require",
		"search_path=public",
	} {
		require.Contains(t, dsn, part)
	}
	require.NotContains(t, dsn, "sslmode=disable")
}

func TestBuildPostgresDSNRequiresUserAndName(t *testing.T) {
	_, err := buildPostgresDSN(Config{})
	require.Error(t, err)
}

func TestBuildMySQLDSNDefaults(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{
		User: "root",
		Name: "guestbook_db",
	})
	require.NoError(t, err)
	require.Equal(t, "root@tcp(127.0.0.1:3306)/guestbook_db?charset=utf8mb4&loc=UTC&parseTime=True", dsn)
}

func TestBuildMySQLDSNWithOptions(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{
		User:     "user",
		Password: "secret",
		Name:     "db",
		Host:     "db.example.com",
		Port:     3307,
		Options: map[string]string{
			"tls": "skip-verify",
		},
	})
	require.NoError(t, err)
	require.Contains(t, dsn, "user:secret@tcp(db.example.com:3307)/db?")
	require.Contains(t, dsn, "tls=skip-verify")
	require.Contains(t, dsn, "charset=utf8mb4")
}

func TestBuildMySQLDSNRequiresUserAndName(t *testing.T) {
	_, err := buildMySQLDSN(Config{Host: "localhost"})
	require.Error(t, err)
}

func TestDSNOverrideWins(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{DSN: "custom"})
	require.NoError(t, err)
	require.Equal(t, "custom", dsn)
}

func TestOpenRejectsUnknownDriverFromDSNSuite(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	require.Error(t, err)
}

func TestMemorySQLite(t *testing.T) {
	require.True(t, memorySQLite(Config{}))
	require.True(t, memorySQLite(Config{Path: ":MEMORY:"}))
	require.True(t, memorySQLite(Config{DSN: "file:gb?mode=memory&cache=shared"}))
	require.False(t, memorySQLite(Config{Path: "./data/guestbook.sqlite"}))
	require.False(t, memorySQLite(Config{DSN: "file:guestbook.sqlite"}))
}
