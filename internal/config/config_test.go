package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"API_PORT", "POLL_INTERVAL_SECONDS", "SYMBOLS", "DETAIL_RANGE", "DB_ENABLED", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3001, cfg.APIPort)
	assert.Equal(t, 15*time.Second, cfg.PollInterval())
	assert.Equal(t, "1d", cfg.DetailRange)
	assert.False(t, cfg.DBEnabled)
	assert.Empty(t, cfg.Symbols)
	assert.NoError(t, cfg.Validate(zerolog.Nop()))
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("API_PORT", "8080")
	t.Setenv("POLL_INTERVAL_SECONDS", "30")
	t.Setenv("SYMBOLS", " aapl, MSFT ,,tsla")
	t.Setenv("DETAIL_SYMBOL", "msft")
	t.Setenv("DETAIL_RANGE", "ytd")
	t.Setenv("DB_ENABLED", "yes")
	t.Setenv("DB_USER", "postgres")
	t.Setenv("REQUESTS_PER_SECOND", "2.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.APIPort)
	assert.Equal(t, 30*time.Second, cfg.PollInterval())
	assert.Equal(t, []string{"aapl", "MSFT", "tsla"}, cfg.Symbols)
	assert.Equal(t, "MSFT", cfg.DetailSymbol)
	assert.True(t, cfg.DBEnabled)
	assert.Equal(t, 2.5, cfg.RequestsPerSecond)
	assert.Equal(t, "postgres://postgres:@localhost:5432/stocks?sslmode=disable", cfg.DSN())
	assert.NoError(t, cfg.Validate(zerolog.Nop()))
}

func TestValidate_Errors(t *testing.T) {
	cfg := &Config{APIPort: 0, PollIntervalSeconds: 0, DetailRange: "2w", DBEnabled: true}
	err := cfg.Validate(zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API_PORT")
	assert.Contains(t, err.Error(), "POLL_INTERVAL_SECONDS")
	assert.Contains(t, err.Error(), "DETAIL_RANGE")
	assert.Contains(t, err.Error(), "DB_USER")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("verbose"))
}

func TestLoadPortfolio(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "portfolio.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
stocks:
  - symbol: aapl
  - symbol: MSFT
  - symbol: ""
  - symbol: AAPL
`), 0o600))

	cfg := &Config{PortfolioFile: path, Symbols: []string{"tsla", "msft"}}
	p, err := cfg.LoadPortfolio()
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT", "TSLA"}, p.Symbols())
}

func TestLoadPortfolio_MissingFile(t *testing.T) {
	cfg := &Config{PortfolioFile: filepath.Join(t.TempDir(), "nope.yml"), Symbols: []string{"IBM"}}
	p, err := cfg.LoadPortfolio()
	require.NoError(t, err)
	assert.Equal(t, []string{"IBM"}, p.Symbols())
}

func TestParsePortfolio_Invalid(t *testing.T) {
	_, err := ParsePortfolio([]byte("stocks: [unclosed"))
	assert.Error(t, err)
}
