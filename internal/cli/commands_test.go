package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/segyhp/parking-billing/internal/auth"
	"github.com/segyhp/parking-billing/internal/config"
	"github.com/segyhp/parking-billing/internal/domain"
	"github.com/segyhp/parking-billing/pkg/billing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticConfig(cfg *config.Config) ConfigLoader {
	return func() (*config.Config, error) { return cfg, nil }
}

func run(t *testing.T, load ConfigLoader, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := NewRootCmd(load)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestBalanceCmd(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		owed      string
		remaining string
		ongoing   bool
	}{
		{
			name:      "ongoing with payment",
			args:      []string{"--start", "2024-01-01", "--rate", "300", "--as-of", "2024-01-11", "--paid", "60"},
			owed:      "100",
			remaining: "40",
			ongoing:   true,
		},
		{
			name:      "closed rental ignores as-of",
			args:      []string{"--start", "2024-01-01", "--end", "2024-01-31", "--rate", "300", "--as-of", "2024-06-01"},
			owed:      "300",
			remaining: "300",
		},
		{
			name:      "several payments",
			args:      []string{"--start", "2024-01-01", "--rate", "300", "--as-of", "2024-01-11", "--paid", "60", "--paid", "40"},
			owed:      "100",
			remaining: "0",
			ongoing:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, nil, append([]string{"balance"}, tt.args...)...)
			require.NoError(t, err)

			var balance billing.Balance
			require.NoError(t, json.Unmarshal([]byte(out), &balance))
			assert.True(t, balance.OwedAmount.Equal(decimal.RequireFromString(tt.owed)), "owed %s", balance.OwedAmount)
			assert.True(t, balance.RemainingAmount.Equal(decimal.RequireFromString(tt.remaining)), "remaining %s", balance.RemainingAmount)
			assert.Equal(t, tt.ongoing, balance.IsOngoing)
		})
	}
}

func TestBalanceCmd_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		msg  string
	}{
		{name: "missing rate", args: []string{"--start", "2024-01-01"}, msg: `required flag(s) "rate" not set`},
		{name: "bad start", args: []string{"--start", "01/01/2024", "--rate", "300"}, msg: "invalid --start"},
		{name: "as-of before start", args: []string{"--start", "2024-01-10", "--rate", "300", "--as-of", "2024-01-01"}, msg: "--as-of must not be before --start"},
		{name: "negative rate", args: []string{"--start", "2024-01-01", "--rate", "-1", "--as-of", "2024-01-02"}, msg: "monthly rate must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, nil, append([]string{"balance"}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestTokenCmd(t *testing.T) {
	cfg := &config.Config{Auth: config.AuthConfig{JWTSecret: "cli-secret", TokenTTL: time.Hour}}
	companyID := uuid.New()
	userID := uuid.New()

	out, err := run(t, staticConfig(cfg), "token", "--company", companyID.String(), "--user", userID.String(), "--role", "viewer")
	require.NoError(t, err)

	tenant, err := auth.NewTokenManager("cli-secret", time.Hour).Parse(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, domain.NewTenantContext(companyID, userID, domain.RoleViewer), tenant)

	_, err = run(t, staticConfig(cfg), "token", "--company", companyID.String(), "--role", "owner")
	assert.EqualError(t, err, `unknown role "owner"`)
}

func TestMigrateCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "billing.db")
	cfg := &config.Config{Database: config.DatabaseConfig{
		Driver:       "sqlite3",
		URL:          path,
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}}

	out, err := run(t, staticConfig(cfg), "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema applied (sqlite3)")

	// applying twice is a no-op
	_, err = run(t, staticConfig(cfg), "migrate")
	require.NoError(t, err)

	db, err := sqlx.Connect("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var tables int
	require.NoError(t, db.Get(&tables, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('spaces', 'rentals', 'payments')`))
	assert.Equal(t, 3, tables)
}
