/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2026 The LoveConnect Authors
 */

package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"

	"github.com/loveconnect/loveconnect-go-sdk/sdk"
)

// LoginRequest is the credentials payload for the login endpoint
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Token is the bearer token returned by a successful login
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Claims are the fields the platform puts into its access tokens
type Claims struct {
	// Subject is the account email
	Subject string
	// Expiry is when the token stops working
	Expiry time.Time
}

// Expired reports whether the token is past its expiry
func (c *Claims) Expired() bool {
	return !c.Expiry.IsZero() && time.Now().After(c.Expiry)
}

// Login exchanges credentials for an access token. It runs before any
// authenticated client exists, so it takes the transport config directly
// rather than an *sdk.Client.
func Login(ctx context.Context, config *sdk.Config, email, password string) (*Token, error) {
	if config == nil {
		config = sdk.DefaultConfig()
	}

	body, err := json.Marshal(&LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, config.BaseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	httpClient := config.HttpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, sdk.NewAPIError(resp, respBody)
	}

	var token Token
	if err := json.Unmarshal(respBody, &token); err != nil {
		return nil, fmt.Errorf("failed to parse login response: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("login response carried no access token")
	}
	return &token, nil
}

// ParseToken extracts the claims from an access token without verifying
// the signature. The signing secret lives on the server; clients only
// need the subject and expiry, for display and proactive re-login.
func ParseToken(accessToken string) (*Claims, error) {
	parsed, err := jwt.ParseSigned(accessToken, []jose.SignatureAlgorithm{jose.HS256})
	if err != nil {
		return nil, fmt.Errorf("failed to parse access token: %w", err)
	}

	var raw jwt.Claims
	if err := parsed.UnsafeClaimsWithoutVerification(&raw); err != nil {
		return nil, fmt.Errorf("failed to read token claims: %w", err)
	}

	claims := &Claims{Subject: raw.Subject}
	if raw.Expiry != nil {
		claims.Expiry = raw.Expiry.Time()
	}
	return claims, nil
}
