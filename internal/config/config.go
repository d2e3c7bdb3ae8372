package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"catapult-platform/pkg/catapult"
	"catapult-platform/pkg/utils"
)

// Config holds all configuration required by the API process.
// All values come from the environment.
type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Catapult CatapultConfig
	Routing  RoutingConfig
	Limits   LimitsConfig
}

type AppConfig struct {
	Env  string
	Port int
}

// DBConfig is optional outside production; an empty Host selects the
// in-memory call store.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

// RedisConfig is optional outside production; an empty Host selects
// in-process de-duplication and concurrency caps.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
}

type AuthConfig struct {
	JWTSecret      string
	JWTIssuer      string
	JWTAudience    string
	AccessTokenTTL time.Duration
}

// CatapultConfig holds the API credentials and the public URL Catapult
// posts callbacks to.
type CatapultConfig struct {
	UserID      string
	APIToken    string
	APISecret   string
	BaseURL     string
	CallbackURL string
}

type RoutingConfig struct {
	File string
}

type LimitsConfig struct {
	MaxConcurrentCalls int
	CallSlotTTL        time.Duration
}

// Load reads the full service configuration from the environment.
func Load() (Config, error) {
	var c Config
	var parseErrs *multierror.Error

	c.App.Env = env("APP_ENV")
	c.App.Port = intEnv("APP_PORT", 8080, &parseErrs)

	c.DB.Host = env("DB_HOST")
	c.DB.Port = intEnv("DB_PORT", 5432, &parseErrs)
	c.DB.User = env("DB_USER")
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = env("DB_NAME")
	c.DB.SSLMode = env("DB_SSLMODE")

	c.Redis.Host = env("REDIS_HOST")
	c.Redis.Port = intEnv("REDIS_PORT", 6379, &parseErrs)
	c.Redis.Password = os.Getenv("REDIS_PASSWORD")

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = env("JWT_ISSUER")
	c.Auth.JWTAudience = env("JWT_AUDIENCE")
	c.Auth.AccessTokenTTL = durationEnv("JWT_ACCESS_TTL", &parseErrs)

	c.Catapult = catapultFromEnv()

	c.Routing.File = env("ROUTING_FILE")

	c.Limits.MaxConcurrentCalls = intEnv("MAX_CONCURRENT_CALLS", 10, &parseErrs)
	c.Limits.CallSlotTTL = durationEnv("CALL_SLOT_TTL", &parseErrs)

	if err := parseErrs.ErrorOrNil(); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// LoadCatapult reads only the Catapult credentials. Command-line tools use
// it so they do not need the service's database or auth settings.
func LoadCatapult() (CatapultConfig, error) {
	c := catapultFromEnv()
	if err := c.Validate(); err != nil {
		return CatapultConfig{}, err
	}
	return c, nil
}

// LoadAuth reads only the token signing settings.
func LoadAuth() (AuthConfig, error) {
	var parseErrs *multierror.Error
	a := AuthConfig{
		JWTSecret:      os.Getenv("JWT_SECRET"),
		JWTIssuer:      env("JWT_ISSUER"),
		JWTAudience:    env("JWT_AUDIENCE"),
		AccessTokenTTL: durationEnv("JWT_ACCESS_TTL", &parseErrs),
	}
	if a.JWTSecret == "" {
		parseErrs = multierror.Append(parseErrs, errors.New("JWT_SECRET is required"))
	}
	if err := parseErrs.ErrorOrNil(); err != nil {
		return AuthConfig{}, err
	}
	return a, nil
}

func catapultFromEnv() CatapultConfig {
	return CatapultConfig{
		UserID:      env("CATAPULT_USER_ID"),
		APIToken:    env("CATAPULT_API_TOKEN"),
		APISecret:   os.Getenv("CATAPULT_API_SECRET"),
		BaseURL:     env("CATAPULT_BASE_URL"),
		CallbackURL: env("CATAPULT_CALLBACK_URL"),
	}
}

// Validate checks c and fills defaults. All problems are reported together.
func (c *Config) Validate() error {
	var errs *multierror.Error

	if c.App.Env == "" {
		errs = multierror.Append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = multierror.Append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if !validPort(c.App.Port) {
		errs = multierror.Append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.DB.Host != "" || c.IsProduction() {
		errs = multierror.Append(errs, c.DB.validate(c.IsProduction()))
	}
	if c.Redis.Host == "" && c.IsProduction() {
		errs = multierror.Append(errs, errors.New("REDIS_HOST is required in production"))
	}
	if c.Redis.Host != "" && !validPort(c.Redis.Port) {
		errs = multierror.Append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Auth.JWTSecret == "" {
		errs = multierror.Append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() {
		if c.Auth.JWTIssuer == "" {
			errs = multierror.Append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.JWTAudience == "" {
			errs = multierror.Append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
	}
	if c.Auth.AccessTokenTTL <= 0 {
		c.Auth.AccessTokenTTL = 15 * time.Minute
	}

	errs = multierror.Append(errs, c.Catapult.Validate())
	if c.Catapult.CallbackURL == "" && c.IsProduction() {
		errs = multierror.Append(errs, errors.New("CATAPULT_CALLBACK_URL is required in production"))
	}

	if c.Limits.MaxConcurrentCalls <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("MAX_CONCURRENT_CALLS must be > 0, got %d", c.Limits.MaxConcurrentCalls))
	}
	if c.Limits.CallSlotTTL <= 0 {
		c.Limits.CallSlotTTL = 4 * time.Hour
	}

	return errs.ErrorOrNil()
}

func (d *DBConfig) validate(production bool) error {
	var errs *multierror.Error
	if d.Host == "" {
		errs = multierror.Append(errs, errors.New("DB_HOST is required"))
	}
	if !validPort(d.Port) {
		errs = multierror.Append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", d.Port))
	}
	if d.User == "" {
		errs = multierror.Append(errs, errors.New("DB_USER is required"))
	}
	if d.Name == "" {
		errs = multierror.Append(errs, errors.New("DB_NAME is required"))
	}
	switch {
	case d.SSLMode == "" && production:
		errs = multierror.Append(errs, errors.New("DB_SSLMODE is required in production"))
	case d.SSLMode == "":
		d.SSLMode = "disable"
	case !isValidSSLMode(d.SSLMode):
		errs = multierror.Append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", d.SSLMode))
	}
	return errs.ErrorOrNil()
}

// Validate checks that credentials are present. The base URL is checked
// when the client is built.
func (c CatapultConfig) Validate() error {
	var errs *multierror.Error
	if c.UserID == "" {
		errs = multierror.Append(errs, errors.New("CATAPULT_USER_ID is required"))
	}
	if c.APIToken == "" {
		errs = multierror.Append(errs, errors.New("CATAPULT_API_TOKEN is required"))
	}
	if c.APISecret == "" {
		errs = multierror.Append(errs, errors.New("CATAPULT_API_SECRET is required"))
	}
	return errs.ErrorOrNil()
}

// NewClient builds an API client from c.
func (c CatapultConfig) NewClient(opts ...catapult.Option) (*catapult.Client, error) {
	if c.BaseURL != "" {
		opts = append([]catapult.Option{catapult.WithBaseURL(c.BaseURL)}, opts...)
	}
	return catapult.New(c.UserID, c.APIToken, c.APISecret, opts...)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

// HasDB reports whether a Postgres store is configured.
func (c Config) HasDB() bool { return c.DB.Host != "" }

// HasRedis reports whether Redis is configured.
func (c Config) HasRedis() bool { return c.Redis.Host != "" }

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

// PostgresDSN must not be logged; it contains the password.
func (c Config) PostgresDSN() string {
	return utils.PostgresDSN(c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Name, c.DB.SSLMode)
}

func (c Config) RedisAddr() string {
	return net.JoinHostPort(c.Redis.Host, strconv.Itoa(c.Redis.Port))
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func intEnv(key string, def int, errs **multierror.Error) int {
	v := env(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = multierror.Append(*errs, fmt.Errorf("%s must be an integer, got %q", key, v))
		return 0
	}
	return n
}

func durationEnv(key string, errs **multierror.Error) time.Duration {
	v := env(key)
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = multierror.Append(*errs, fmt.Errorf("%s must be a duration, got %q", key, v))
		return 0
	}
	return d
}

func validPort(p int) bool { return p > 0 && p <= 65535 }

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}
