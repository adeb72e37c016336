// Copyright (c) 2025 Transcendence Inc. All Rights Reserved.
// This is licensed software from Transcendence Inc, for limitations
// and restrictions contact your company contract manager.

package ws

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestVerify_AcceptsNumericID(t *testing.T) {
	verifier := NewTokenVerifier(testSecret)

	token := signToken(t, jwt.MapClaims{
		"id":       float64(42),
		"username": "alice",
		"provider": "local",
	}, testSecret)

	userID, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "42", userID)
}

func TestVerify_RejectsWrongSecret(t *testing.T) {
	verifier := NewTokenVerifier(testSecret)

	token := signToken(t, jwt.MapClaims{"id": float64(42)}, "other-secret")

	_, err := verifier.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RejectsNonPositiveOrFractionalID(t *testing.T) {
	verifier := NewTokenVerifier(testSecret)

	for _, id := range []float64{0, -3, 1.5} {
		token := signToken(t, jwt.MapClaims{"id": id}, testSecret)
		_, err := verifier.Verify(token)
		require.ErrorIs(t, err, ErrInvalidToken, "id %v", id)
	}
}

func TestVerify_RejectsMissingID(t *testing.T) {
	verifier := NewTokenVerifier(testSecret)

	token := signToken(t, jwt.MapClaims{"username": "alice"}, testSecret)
	_, err := verifier.Verify(token)
	require.Error(t, err)
}

func TestVerify_RejectsExpiredToken(t *testing.T) {
	verifier := NewTokenVerifier(testSecret)

	token := signToken(t, jwt.MapClaims{
		"id":  float64(42),
		"exp": time.Now().Add(-time.Hour).Unix(),
	}, testSecret)

	_, err := verifier.Verify(token)
	require.Error(t, err)
}

func TestVerify_RejectsGarbage(t *testing.T) {
	verifier := NewTokenVerifier(testSecret)

	_, err := verifier.Verify("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}
