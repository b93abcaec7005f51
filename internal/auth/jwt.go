// Package auth validates access tokens issued by the identity service.
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/emrahgewer/yorumatorapp/pkg/middleware"
)

// Claims are the access token claims this service reads.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Validator checks HS256 access tokens.
type Validator struct {
	secret []byte
	issuer string
}

// NewValidator creates a validator. An empty issuer disables the issuer check.
func NewValidator(secret, issuer string) *Validator {
	return &Validator{secret: []byte(secret), issuer: issuer}
}

// Validate parses tokenString and returns the caller identity. The user ID
// falls back to the subject claim and the role defaults to "user".
func (v *Validator) Validate(tokenString string) (*middleware.Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid access token")
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return nil, errors.New("access token has no subject")
	}
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("access token subject %q is not a user id: %w", userID, err)
	}
	userID = id.String()

	role := claims.Role
	if role == "" {
		role = middleware.RoleUser
	}

	return &middleware.Claims{UserID: userID, Role: role}, nil
}

// TokenValidator adapts v to the HTTP authentication middleware.
func (v *Validator) TokenValidator() middleware.TokenValidator {
	return v.Validate
}
