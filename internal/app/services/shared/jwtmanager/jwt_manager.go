package jwtmanager

import (
	"caresync-service/internal/app/config"
	"caresync-service/internal/app/contracts"
	"caresync-service/internal/pkg/exceptions"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

// JWTManager signs the bearer tokens attached to outbound FHIR requests.
// Tokens are short-lived and minted per request, so revocation is never
// needed.
type JWTManager struct {
	log    *zap.Logger
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewJWTManager(cfg *config.InternalConfig, log *zap.Logger) (contracts.RequestSigner, error) {
	secret := strings.TrimSpace(cfg.JWT.Secret)
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is empty")
	}

	ttl := time.Duration(cfg.JWT.ExpTimeInMinute) * time.Minute
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &JWTManager{
		log:    log,
		secret: []byte(secret),
		issuer: cfg.JWT.Issuer,
		ttl:    ttl,
	}, nil
}

// CreateToken generates a signed HS256 JWT with iat, nbf and exp claims for
// the given subject.
func (j *JWTManager) CreateToken(ctx context.Context, subject string) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", exceptions.ErrTokenGenerate(fmt.Errorf("subject is required"))
	}

	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"iss": j.issuer,
		"sub": subject,
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"exp": now.Add(j.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secret)
	if err != nil {
		return "", exceptions.ErrTokenGenerate(err)
	}
	return signed, nil
}
