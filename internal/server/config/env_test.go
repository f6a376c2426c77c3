package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseEnv_OverlaysSetVariables(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "from-env")
	t.Setenv("ACCESS_TOKEN_TTL", "2m")
	t.Setenv("RESET_REVEAL_UNKNOWN_EMAIL", "false")
	t.Setenv("SMTP_PORT", "2525")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, "from-env", cfg.SecretKey)
	assert.Equal(t, 2*time.Minute, cfg.AccessTokenValidityDuration)
	assert.False(t, cfg.RevealUnknownResetEmail)
	assert.Equal(t, 2525, cfg.SMTPPort)

	// not set in the environment
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 30*time.Minute, cfg.ResetTokenValidityDuration)
}

func Test_parseEnv_DotenvFile(t *testing.T) {
	dotenv := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(dotenv, []byte("SMTP_HOST=smtp.example.com\nEMAIL_USER=mailer\n"), 0o600))

	// godotenv.Load sets variables process-wide; register cleanup through Setenv.
	t.Setenv("SMTP_HOST", "")
	t.Setenv("EMAIL_USER", "")
	require.NoError(t, os.Unsetenv("SMTP_HOST"))
	require.NoError(t, os.Unsetenv("EMAIL_USER"))

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg, dotenv)

	assert.Equal(t, "smtp.example.com", cfg.SMTPHost)
	assert.Equal(t, "mailer", cfg.SMTPUser)
}

func Test_parseEnv_MissingDotenvIsIgnored(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()
	require.NotPanics(t, func() { parseEnv(cfg, filepath.Join(t.TempDir(), "absent.env")) })
}
