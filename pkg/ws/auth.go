// Copyright (c) 2025 Transcendence Inc. All Rights Reserved.
// This is licensed software from Transcendence Inc, for limitations
// and restrictions contact your company contract manager.

package ws

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// AuthClaims is the handshake token payload. The numeric id claim is
// the only required field; it becomes the string userID everywhere
// inside the core.
type AuthClaims struct {
	ID       float64 `json:"id"`
	Username string  `json:"username,omitempty"`
	Email    string  `json:"email,omitempty"`
	Provider string  `json:"provider,omitempty"`
	jwt.RegisteredClaims
}

type TokenVerifier struct {
	secretKey string
}

func NewTokenVerifier(secretKey string) *TokenVerifier {
	return &TokenVerifier{secretKey: secretKey}
}

// Verify validates the HS256 signature and returns the user ID coerced
// to a string. Tokens without a positive numeric id are rejected.
func (v *TokenVerifier) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&AuthClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return []byte(v.secretKey), nil
		},
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return "", ErrExpiredToken
	}

	if claims.ID <= 0 || claims.ID != float64(int64(claims.ID)) {
		return "", fmt.Errorf("%w: id claim must be a positive integer", ErrInvalidToken)
	}

	return strconv.FormatInt(int64(claims.ID), 10), nil
}
