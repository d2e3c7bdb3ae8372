package config

import (
	"errors"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catapult-platform/pkg/catapult"
)

func localConfig() Config {
	return Config{
		App:      AppConfig{Env: "local", Port: 8080},
		Auth:     AuthConfig{JWTSecret: "secret"},
		Catapult: CatapultConfig{UserID: "u-1", APIToken: "t", APISecret: "s"},
		Limits:   LimitsConfig{MaxConcurrentCalls: 5},
	}
}

func TestValidate_ReportsAllMissing(t *testing.T) {
	c := Config{}
	err := c.Validate()
	require.Error(t, err)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	assert.GreaterOrEqual(t, len(merr.Errors), 5)
	assert.Contains(t, err.Error(), "APP_ENV is required")
	assert.Contains(t, err.Error(), "JWT_SECRET is required")
	assert.Contains(t, err.Error(), "CATAPULT_API_SECRET is required")
}

func TestValidate_LocalWithoutStores(t *testing.T) {
	c := localConfig()
	require.NoError(t, c.Validate())
	assert.False(t, c.HasDB())
	assert.False(t, c.HasRedis())
	assert.Equal(t, 15*time.Minute, c.Auth.AccessTokenTTL)
	assert.Equal(t, 4*time.Hour, c.Limits.CallSlotTTL)
}

func TestValidate_LocalDefaultsSSLMode(t *testing.T) {
	c := localConfig()
	c.DB = DBConfig{Host: "localhost", Port: 5432, User: "postgres", Name: "catapult"}
	require.NoError(t, c.Validate())
	assert.Equal(t, "disable", c.DB.SSLMode)
	assert.Equal(t, "postgres://postgres:@localhost:5432/catapult?sslmode=disable", c.PostgresDSN())
}

func TestValidate_ProductionRequirements(t *testing.T) {
	c := localConfig()
	c.App.Env = "production"
	c.DB = DBConfig{Host: "db", Port: 5432, User: "app", Name: "catapult"}

	err := c.Validate()
	require.Error(t, err)
	for _, want := range []string{
		"DB_SSLMODE is required in production",
		"REDIS_HOST is required in production",
		"JWT_ISSUER is required in production",
		"CATAPULT_CALLBACK_URL is required in production",
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("CATAPULT_USER_ID", "u-1")
	t.Setenv("CATAPULT_API_TOKEN", "token")
	t.Setenv("CATAPULT_API_SECRET", "secret")
	t.Setenv("CATAPULT_BASE_URL", "https://api.example.com")
	t.Setenv("MAX_CONCURRENT_CALLS", "3")
	t.Setenv("CALL_SLOT_TTL", "30m")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", c.HTTPAddr())
	assert.Equal(t, "cache:6379", c.RedisAddr())
	assert.Equal(t, 3, c.Limits.MaxConcurrentCalls)
	assert.Equal(t, 30*time.Minute, c.Limits.CallSlotTTL)

	client, err := c.Catapult.NewClient()
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", client.BaseURL())
}

func TestLoad_ParseErrorsAggregate(t *testing.T) {
	t.Setenv("APP_PORT", "eighty")
	t.Setenv("JWT_ACCESS_TTL", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APP_PORT must be an integer")
	assert.Contains(t, err.Error(), "JWT_ACCESS_TTL must be a duration")
}

func TestLoadCatapult(t *testing.T) {
	t.Setenv("CATAPULT_USER_ID", "u-1")
	t.Setenv("CATAPULT_API_TOKEN", "")
	t.Setenv("CATAPULT_API_SECRET", "")

	_, err := LoadCatapult()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CATAPULT_API_TOKEN is required")

	t.Setenv("CATAPULT_API_TOKEN", "t")
	t.Setenv("CATAPULT_API_SECRET", "s")
	c, err := LoadCatapult()
	require.NoError(t, err)

	client, err := c.NewClient()
	require.NoError(t, err)
	assert.Equal(t, catapult.DefaultBaseURL, client.BaseURL())
}

func TestLoadAuth(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("JWT_ACCESS_TTL", "soon")
	_, err := LoadAuth()
	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 2)

	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_ACCESS_TTL", "1h")
	a, err := LoadAuth()
	require.NoError(t, err)
	assert.Equal(t, time.Hour, a.AccessTokenTTL)
}
