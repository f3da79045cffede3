package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"buzzatt/internal/model"
)

// AccessToken is a signed bearer token and its metadata.
type AccessToken struct {
	Value     string
	ID        string
	ExpiresAt time.Time
}

// Claims represents JWT payload. The subject is the user's email.
type Claims struct {
	Role model.ProfileType `json:"role"`
	jwt.RegisteredClaims
}

// Issue signs an HS256 access token for subject, valid for ttl.
func Issue(subject string, role model.ProfileType, issuer, key string, ttl time.Duration) (AccessToken, error) {
	if key == "" {
		return AccessToken{}, errors.New("signing key required")
	}
	now := time.Now()
	exp := now.Add(ttl)
	id := uuid.NewString()

	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Issuer:    issuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Value: signed, ID: id, ExpiresAt: exp}, nil
}

// Parse validates a token and returns claims.
func Parse(tokenStr, key, issuer string) (Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return []byte(key), nil
	}, opts...)
	if err != nil {
		return Claims{}, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, errors.New("invalid token")
	}
	if claims.Subject == "" || claims.ID == "" {
		return Claims{}, errors.New("token missing subject or id")
	}
	if !claims.Role.Valid() {
		return Claims{}, errors.New("token carries unknown role")
	}
	return *claims, nil
}
