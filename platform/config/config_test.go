package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func baseEnv() map[string]string {
	return map[string]string{
		"DATABASE_URL":      "postgres://localhost/brokerage",
		"JWT_ACCESS_SECRET": "secret",
	}
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(lookupFrom(baseEnv()))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.GetHTTPAddr())
	assert.Equal(t, 2*time.Second, cfg.GetOutreachMinDelay())
	assert.Equal(t, 8*time.Second, cfg.GetOutreachDelayJitter())
	assert.Equal(t, "IL", cfg.GetPhoneDefaultRegion())
	assert.Equal(t, "en", cfg.GetOutreachLocale())
	assert.False(t, cfg.IsSchedulerEnabled())
	assert.False(t, cfg.IsSMTPEnabled())
}

func TestFromEnvRequiresDatabase(t *testing.T) {
	env := baseEnv()
	delete(env, "DATABASE_URL")
	_, err := FromEnv(lookupFrom(env))
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestFromEnvRejectsBadDuration(t *testing.T) {
	env := baseEnv()
	env["OUTREACH_MIN_DELAY"] = "soon"
	_, err := FromEnv(lookupFrom(env))
	assert.ErrorContains(t, err, "OUTREACH_MIN_DELAY")
}

func TestFromEnvRejectsZeroJitter(t *testing.T) {
	env := baseEnv()
	env["OUTREACH_DELAY_JITTER"] = "0s"
	_, err := FromEnv(lookupFrom(env))
	assert.ErrorContains(t, err, "OUTREACH_DELAY_JITTER")
}

func TestFromEnvWildcardOriginDisablesCredentials(t *testing.T) {
	env := baseEnv()
	env["CORS_ORIGINS"] = "*"
	cfg, err := FromEnv(lookupFrom(env))
	require.NoError(t, err)
	assert.True(t, cfg.GetCORSAllowAll())
	assert.False(t, cfg.GetCORSAllowCreds())
}

func TestFromEnvSMTPNeedsSender(t *testing.T) {
	env := baseEnv()
	env["SMTP_HOST"] = "smtp.example.com"
	env["OPERATOR_REPORT_EMAIL"] = "ops@example.com"
	_, err := FromEnv(lookupFrom(env))
	assert.ErrorContains(t, err, "SMTP_FROM")
}
