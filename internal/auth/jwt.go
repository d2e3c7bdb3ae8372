package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"catapult-platform/internal/config"
)

// Manager issues and verifies HS256 access tokens.
type Manager struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	leeway   time.Duration
}

func NewManager(cfg config.AuthConfig) (*Manager, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	ttl := cfg.AccessTokenTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Manager{
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.JWTIssuer,
		audience: cfg.JWTAudience,
		ttl:      ttl,
		leeway:   30 * time.Second,
	}, nil
}

// Issue signs an access token for subject in workspaceID. A positive ttl
// overrides the configured lifetime.
func (m *Manager) Issue(now time.Time, subject, workspaceID string, role Role, ttl time.Duration) (string, error) {
	if subject == "" || workspaceID == "" {
		return "", errors.New("auth: subject and workspace are required")
	}
	if !role.Valid() {
		return "", fmt.Errorf("auth: unknown role %q", role)
	}
	if ttl <= 0 {
		ttl = m.ttl
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		WorkspaceID: workspaceID,
		Role:        role,
	}
	if m.audience != "" {
		claims.Audience = jwt.ClaimStrings{m.audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify parses tokenString and checks signature, lifetime, issuer,
// audience and the workspace/role claims as of now.
func (m *Manager) Verify(tokenString string, now time.Time) (Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(m.leeway),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	if m.audience != "" {
		opts = append(opts, jwt.WithAudience(m.audience))
	}

	var claims Claims
	_, err := jwt.NewParser(opts...).ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return Claims{}, err
	}

	if claims.Subject == "" {
		return Claims{}, errors.New("auth: subject missing")
	}
	if claims.WorkspaceID == "" {
		return Claims{}, errors.New("auth: workspace_id missing")
	}
	if !claims.Role.Valid() {
		return Claims{}, fmt.Errorf("auth: unknown role %q", claims.Role)
	}
	return claims, nil
}
