package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrMissingToken = errors.New("token is required")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Claims is the identity established by a verified token
type Claims struct {
	UserID uuid.UUID
	Email  string
	Name   string
}

// TokenValidator verifies bearer tokens for the HTTP and websocket handshakes
type TokenValidator interface {
	VerifyToken(ctx context.Context, token string) (*Claims, error)
}

// JWTManager issues and verifies HS256 tokens
type JWTManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTManager creates a JWTManager. ttl <= 0 defaults to 24h.
func NewJWTManager(secret, issuer string, ttl time.Duration) *JWTManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// IssueToken signs a token for the given identity
func (m *JWTManager) IssueToken(claims Claims) (string, error) {
	if claims.UserID == uuid.Nil {
		return "", fmt.Errorf("user id is required")
	}
	now := m.now()
	mc := jwt.MapClaims{
		"sub":     claims.UserID.String(),
		"user_id": claims.UserID.String(),
		"iat":     now.Unix(),
		"exp":     now.Add(m.ttl).Unix(),
	}
	if m.issuer != "" {
		mc["iss"] = m.issuer
	}
	if claims.Email != "" {
		mc["email"] = claims.Email
	}
	if claims.Name != "" {
		mc["name"] = claims.Name
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, mc).SignedString(m.secret)
}

// VerifyToken returns the claims of a valid token or ErrMissingToken / ErrInvalidToken
func (m *JWTManager) VerifyToken(_ context.Context, tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	// support multiple claim formats
	var userIDStr string
	for _, key := range []string{"user_id", "sub", "userId"} {
		if v, ok := mc[key].(string); ok && v != "" {
			userIDStr = v
			break
		}
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims := &Claims{UserID: userID}
	claims.Email, _ = mc["email"].(string)
	claims.Name, _ = mc["name"].(string)
	return claims, nil
}
