package payments

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/glowdesk/backend/gateway"
	"github.com/glowdesk/backend/models"
)

// BuildAuthorizationURL returns the gateway authorization URL that starts
// the merchant linking flow for a tenant. The tenant id rides in the opaque
// `state` parameter: the gateway echoes it back on the redirect, and it is
// the only correlation back to the tenant because the callback arrives
// unauthenticated.
//
// Fails with ErrOAuthNotConfigured when the platform OAuth client id or
// redirect URI is missing from configuration.
func (s *Service) BuildAuthorizationURL(tenantID string) (string, error) {
	if tenantID == "" {
		return "", &ValidationError{Field: "tenant_id", Reason: "must not be empty"}
	}
	if s.cfg.OAuthClientID == "" || s.cfg.OAuthRedirectURI == "" {
		return "", ErrOAuthNotConfigured
	}

	q := url.Values{}
	q.Set("client_id", s.cfg.OAuthClientID)
	q.Set("response_type", "code")
	q.Set("platform_id", "mp")
	q.Set("state", tenantID)
	q.Set("redirect_uri", s.cfg.OAuthRedirectURI)

	return s.cfg.BaseURL + "/authorization?" + q.Encode(), nil
}

// CompleteLink exchanges an authorization code for merchant gateway
// credentials and persists them for the tenant named by state.
//
// The redirectURI must be byte-identical to the one used when building the
// authorization URL (gateway-enforced); when empty the configured one is
// used. Authorization codes are single-use: a replayed code fails at the
// gateway and surfaces as a recoverable *ExchangeError, never a crash.
//
// Credential writes are all-or-nothing: a failed exchange leaves the
// tenant's previous bundle untouched, and a successful re-link overwrites
// it completely.
func (s *Service) CompleteLink(ctx context.Context, code, state, redirectURI string) error {
	if code == "" {
		return &ValidationError{Field: "code", Reason: "must not be empty"}
	}
	if state == "" {
		return &ValidationError{Field: "state", Reason: "must not be empty"}
	}
	if s.cfg.OAuthClientID == "" || s.cfg.OAuthClientSecret == "" {
		return ErrOAuthNotConfigured
	}
	if redirectURI == "" {
		redirectURI = s.cfg.OAuthRedirectURI
	}

	tok, err := s.gw.ExchangeOAuthCode(ctx, gateway.OAuthTokenRequest{
		ClientID:     s.cfg.OAuthClientID,
		ClientSecret: s.cfg.OAuthClientSecret,
		Code:         code,
		GrantType:    "authorization_code",
		RedirectURI:  redirectURI,
	})
	if err != nil {
		var apiErr *gateway.APIError
		if errors.As(err, &apiErr) {
			return &ExchangeError{StatusCode: apiErr.StatusCode, Detail: apiErr.Body}
		}
		return classifyGatewayErr(err)
	}
	if tok.AccessToken == "" {
		return ErrMalformedTokenResponse
	}

	creds := models.GatewayCredentials{
		AccessToken:    tok.AccessToken,
		RefreshToken:   tok.RefreshToken,
		PublicKey:      tok.PublicKey,
		ExternalUserID: strconv.FormatInt(tok.UserID, 10),
		LiveMode:       tok.LiveMode,
	}
	if tok.ExpiresIn > 0 {
		creds.ExpiresAt = time.Now().UTC().Add(time.Duration(tok.ExpiresIn) * time.Second)
	}

	if err := s.store.SetCredentials(state, creds); err != nil {
		return fmt.Errorf("persist credentials for tenant %s: %w", state, err)
	}

	s.logger.Info("merchant gateway account linked",
		zap.String("tenant_id", state),
		zap.Bool("live_mode", tok.LiveMode))
	return nil
}

// Disconnect clears the tenant's gateway credentials. Explicit disconnect is
// the only path besides the linking flow allowed to write credential fields.
func (s *Service) Disconnect(tenantID string) error {
	if tenantID == "" {
		return &ValidationError{Field: "tenant_id", Reason: "must not be empty"}
	}
	if err := s.store.ClearCredentials(tenantID); err != nil {
		return err
	}
	s.logger.Info("merchant gateway account disconnected", zap.String("tenant_id", tenantID))
	return nil
}
