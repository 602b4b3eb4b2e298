// Package oauth wraps the external identity providers the resolver can link.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mateovilla/clickshop-backend/pkg/config"
	"github.com/mateovilla/clickshop-backend/pkg/enums"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserinfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// Profile is the normalized external identity handed to the identity resolver.
type Profile struct {
	Provider          enums.Provider
	ProviderAccountID string
	Email             string
	EmailVerified     bool
	Name              string
	Picture           string
	AccessToken       string
	RefreshToken      string
	IDToken           string
}

// GoogleClient exchanges authorization codes for Google identity profiles.
type GoogleClient struct {
	oauthCfg *oauth2.Config
}

// NewGoogle builds a Google OAuth client from configuration.
func NewGoogle(cfg config.GoogleOAuthConfig) (*GoogleClient, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("google oauth client credentials are required")
	}
	return &GoogleClient{
		oauthCfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
	}, nil
}

// AuthCodeURL returns the provider consent URL for the given state.
func (g *GoogleClient) AuthCodeURL(state string) string {
	return g.oauthCfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for tokens and fetches the userinfo
// document, returning a normalized profile.
func (g *GoogleClient) Exchange(ctx context.Context, code string) (*Profile, error) {
	token, err := g.oauthCfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging code: %w", err)
	}

	client := g.oauthCfg.Client(ctx, token)
	resp, err := client.Get(googleUserinfoURL)
	if err != nil {
		return nil, fmt.Errorf("fetching userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var info struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decoding userinfo: %w", err)
	}
	if info.Sub == "" {
		return nil, fmt.Errorf("userinfo missing subject")
	}

	profile := &Profile{
		Provider:          enums.ProviderGoogle,
		ProviderAccountID: info.Sub,
		Email:             info.Email,
		EmailVerified:     info.EmailVerified,
		Name:              info.Name,
		Picture:           info.Picture,
		AccessToken:       token.AccessToken,
		RefreshToken:      token.RefreshToken,
	}
	if idToken, ok := token.Extra("id_token").(string); ok {
		profile.IDToken = idToken
	}
	return profile, nil
}
