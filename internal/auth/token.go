// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token verification failures. Every token-consuming operation maps its
// failure onto one of these two values; callers treat both as "operation
// denied" and never crash on them.
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Claim keys, one per token purpose. A token carries exactly one of the
// purpose keys, so a token minted for one operation is structurally useless
// to every other: verification for a purpose demands its own key.
const (
	claimConfirm     = "confirm"
	claimReset       = "reset"
	claimChangeEmail = "change_email"
	claimNewEmail    = "new_email"
	claimAuth        = "id"
)

// Codec issues and verifies signed, expiring, purpose-tagged tokens.
// It holds no mutable state and is safe for concurrent use.
type Codec struct {
	secret []byte
}

// NewCodec creates a Codec signing with the given secret key.
func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// issue signs the claims with an expiry of now + ttl. Expiry is wall clock;
// no skew compensation is applied.
func (c *Codec) issue(claims jwt.MapClaims, ttl time.Duration) (string, error) {
	claims["exp"] = jwt.NewNumericDate(time.Now().Add(ttl))
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// parse verifies signature and expiry and returns the claims.
func (c *Codec) parse(token string) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// claimInt64 extracts an integer claim. JSON numbers decode as float64.
func claimInt64(claims jwt.MapClaims, key string) (int64, error) {
	v, ok := claims[key]
	if !ok {
		return 0, ErrTokenInvalid
	}
	f, ok := v.(float64)
	if !ok {
		return 0, ErrTokenInvalid
	}
	return int64(f), nil
}

// ConfirmationToken issues a token authorizing email confirmation for a user.
func (c *Codec) ConfirmationToken(userID int64, ttl time.Duration) (string, error) {
	return c.issue(jwt.MapClaims{claimConfirm: userID}, ttl)
}

// VerifyConfirmation returns the user ID embedded in a confirmation token.
func (c *Codec) VerifyConfirmation(token string) (int64, error) {
	claims, err := c.parse(token)
	if err != nil {
		return 0, err
	}
	return claimInt64(claims, claimConfirm)
}

// ResetToken issues a token authorizing a password reset for a user.
func (c *Codec) ResetToken(userID int64, ttl time.Duration) (string, error) {
	return c.issue(jwt.MapClaims{claimReset: userID}, ttl)
}

// VerifyReset returns the user ID embedded in a password-reset token.
func (c *Codec) VerifyReset(token string) (int64, error) {
	claims, err := c.parse(token)
	if err != nil {
		return 0, err
	}
	return claimInt64(claims, claimReset)
}

// EmailChangeToken issues a token authorizing a change of address for a user.
// The new address rides inside the signed payload so the apply step cannot be
// redirected to a different address.
func (c *Codec) EmailChangeToken(userID int64, newEmail string, ttl time.Duration) (string, error) {
	return c.issue(jwt.MapClaims{claimChangeEmail: userID, claimNewEmail: newEmail}, ttl)
}

// VerifyEmailChange returns the user ID and new address embedded in an
// email-change token.
func (c *Codec) VerifyEmailChange(token string) (int64, string, error) {
	claims, err := c.parse(token)
	if err != nil {
		return 0, "", err
	}
	id, err := claimInt64(claims, claimChangeEmail)
	if err != nil {
		return 0, "", err
	}
	newEmail, ok := claims[claimNewEmail].(string)
	if !ok || newEmail == "" {
		return 0, "", ErrTokenInvalid
	}
	return id, newEmail, nil
}

// AuthToken issues a bearer token identifying a user to the API.
func (c *Codec) AuthToken(userID int64, ttl time.Duration) (string, error) {
	return c.issue(jwt.MapClaims{claimAuth: userID}, ttl)
}

// VerifyAuth returns the user ID embedded in an auth token.
func (c *Codec) VerifyAuth(token string) (int64, error) {
	claims, err := c.parse(token)
	if err != nil {
		return 0, err
	}
	return claimInt64(claims, claimAuth)
}
