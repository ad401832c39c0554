package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DevTokenPrefix marks development bypass tokens of the form dev_{user_id}.
// They are honored only when the service runs outside production.
const DevTokenPrefix = "dev_"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Identity is the resolved caller attached to a request after token
// verification. Email and Name may be empty for development tokens.
type Identity struct {
	UID   string `json:"uid"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// TokenService mints and verifies the locally-issued session tokens that
// mirror the identity provider's tokens.
type TokenService struct {
	secret        []byte
	expiry        time.Duration
	allowDevToken bool
}

func NewTokenService(secret string, expiry time.Duration, allowDevToken bool) *TokenService {
	return &TokenService{
		secret:        []byte(secret),
		expiry:        expiry,
		allowDevToken: allowDevToken,
	}
}

// GenerateToken issues a signed session token for the given identity and
// returns it together with the unix expiry timestamp.
func (s *TokenService) GenerateToken(id Identity) (string, int64, error) {
	if id.UID == "" {
		return "", 0, errors.New("cannot issue token without a user id")
	}
	now := time.Now()
	expiry := now.Add(s.expiry).Unix()
	claims := jwt.MapClaims{
		"uid":   id.UID,
		"email": id.Email,
		"name":  id.Name,
		"iat":   now.Unix(),
		"exp":   expiry,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", 0, err
	}
	return signed, expiry, nil
}

// ValidateToken verifies a locally-issued session token and returns the
// identity encoded in its claims.
func (s *TokenService) ValidateToken(tokenString string) (Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrExpiredToken
		}
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Identity{}, ErrInvalidToken
	}
	uid, ok := claims["uid"].(string)
	if !ok || uid == "" {
		return Identity{}, fmt.Errorf("%w: 'uid' claim missing or not a string", ErrInvalidToken)
	}

	id := Identity{UID: uid}
	if email, ok := claims["email"].(string); ok {
		id.Email = email
	}
	if name, ok := claims["name"].(string); ok {
		id.Name = name
	}
	return id, nil
}

// ParseDevToken resolves a development bypass token to an identity. It
// returns ErrInvalidToken when the token has no user id or when development
// tokens are disabled (production environments).
func (s *TokenService) ParseDevToken(tokenString string) (Identity, error) {
	if !s.allowDevToken {
		return Identity{}, ErrInvalidToken
	}
	if !strings.HasPrefix(tokenString, DevTokenPrefix) {
		return Identity{}, ErrInvalidToken
	}
	uid := strings.TrimPrefix(tokenString, DevTokenPrefix)
	if uid == "" {
		return Identity{}, fmt.Errorf("%w: development token carries no user id", ErrInvalidToken)
	}
	return Identity{
		UID:   uid,
		Email: fmt.Sprintf("dev_%s@example.com", uid),
		Name:  fmt.Sprintf("Dev User %s", uid),
	}, nil
}

// IsDevToken reports whether the raw bearer token has the development prefix.
func IsDevToken(tokenString string) bool {
	return strings.HasPrefix(tokenString, DevTokenPrefix)
}
