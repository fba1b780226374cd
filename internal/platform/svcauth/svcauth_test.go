// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package svcauth_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/co-codin/query-compiler/internal/platform/svcauth"
)

func writeTempPrivateKey(t *testing.T) (string, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}
	path := filepath.Join(t.TempDir(), "private.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))
	return path, key
}

func TestTokenService_IssuesVerifiableRS256Token(t *testing.T) {
	path, key := writeTempPrivateKey(t)

	tokens, err := svcauth.NewTokenService(path, "query-compiler")
	require.NoError(t, err)

	signed, err := tokens.Issue(2 * time.Minute)
	require.NoError(t, err)

	parsed, err := jwt.ParseWithClaims(signed, &svcauth.ServiceClaims{}, func(token *jwt.Token) (any, error) {
		return &key.PublicKey, nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims := parsed.Claims.(*svcauth.ServiceClaims)
	assert.Equal(t, "query-compiler", claims.Issuer)
	assert.Equal(t, "query-compiler", claims.Subject)
}

func TestTokenService_MissingKeyFileErrors(t *testing.T) {
	_, err := svcauth.NewTokenService(filepath.Join(t.TempDir(), "missing.pem"), "query-compiler")
	assert.Error(t, err)
}
