// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package svcauth issues short-lived service-to-service JWTs.

It is the worker's side of the RS256 token service the teacher uses for
end-user authentication, repurposed here to authenticate this worker to the
catalog and IAM HTTP collaborators instead of authenticating a human.

Core Components:

  - TokenService: signs short-lived Bearer tokens with the worker's RSA
    private key.

This is ambient infrastructure SPEC_FULL.md section 4.3.1 calls for; it is
not a DSL feature.
*/
package svcauth

import (
	"crypto/rsa"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ServiceClaims is the payload embedded in a service-to-service token.
type ServiceClaims struct {
	jwt.RegisteredClaims
}

// TokenService signs outbound service tokens using RS256.
type TokenService struct {
	privateKey *rsa.PrivateKey
	issuer     string
}

// NewTokenService loads the worker's private signing key from disk.
func NewTokenService(privateKeyPath, issuer string) (*TokenService, error) {
	keyData, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("svcauth: failed to read private key from %s: %w", privateKeyPath, err)
	}

	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(keyData)
	if err != nil {
		return nil, fmt.Errorf("svcauth: failed to parse private key: %w", err)
	}

	return &TokenService{privateKey: privateKey, issuer: issuer}, nil
}

// Issue mints a short-lived token identifying this worker as the caller.
func (s *TokenService) Issue(ttl time.Duration) (string, error) {
	now := time.Now()
	claims := ServiceClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.issuer,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(s.privateKey)
	if err != nil {
		return "", fmt.Errorf("svcauth: failed to sign token: %w", err)
	}
	return signed, nil
}
