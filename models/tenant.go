// Package models defines the core domain types for the payments backend.
package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TenantStatus is the lifecycle state of a merchant business.
type TenantStatus string

const (
	TenantActive    TenantStatus = "ACTIVE"
	TenantPending   TenantStatus = "PENDING"
	TenantSuspended TenantStatus = "SUSPENDED"
)

// DefaultSplitPercent is applied when a tenant has no revenue split
// configured. The administrative UI clamps stored values to [0,50].
const DefaultSplitPercent = 10

// GatewayCredentials is the per-tenant payment-gateway credential bundle,
// populated by the OAuth linking flow and consumed by intent creation.
//
// AccessToken is the bearer credential for every gateway call made on the
// tenant's behalf. A tenant without a non-empty access token cannot accept
// payments.
type GatewayCredentials struct {
	AccessToken    string    `json:"accessToken"`
	RefreshToken   string    `json:"refreshToken"`
	PublicKey      string    `json:"publicKey"`
	ExternalUserID string    `json:"externalUserId"`
	LiveMode       bool      `json:"liveMode"`
	ExpiresAt      time.Time `json:"expiresAt"`
}

// Present reports whether the bundle carries a usable access token.
// Whitespace-only tokens are treated as absent.
func (c GatewayCredentials) Present() bool {
	return strings.TrimSpace(c.AccessToken) != ""
}

// Tenant represents a merchant business using the platform. Tenants are the
// unit of isolation: every payment, credential bundle, and ledger entry is
// keyed by tenant id.
type Tenant struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Type        string       `json:"type"`
	Status      TenantStatus `json:"status"`
	Description string       `json:"description"`
	Address     string       `json:"address"`
	Image       string       `json:"image"`

	// SplitPercent is the platform's revenue share of every sale, in whole
	// percentage points. Zero means "unset"; see EffectiveSplitPercent.
	SplitPercent decimal.Decimal `json:"splitPercent"`

	// MonthlyFee is a fixed platform charge, kept for reporting only. It
	// plays no part in per-payment fee computation.
	MonthlyFee decimal.Decimal `json:"monthlyFee"`

	Credentials GatewayCredentials `json:"credentials"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// EffectiveSplitPercent returns the tenant's revenue split, falling back to
// DefaultSplitPercent when none is configured.
func (t *Tenant) EffectiveSplitPercent() decimal.Decimal {
	if t.SplitPercent.IsZero() {
		return decimal.NewFromInt(DefaultSplitPercent)
	}
	return t.SplitPercent
}

// CanAcceptPayments reports whether a payment intent may be created for this
// tenant: the tenant must be ACTIVE and hold gateway credentials.
func (t *Tenant) CanAcceptPayments() bool {
	return t.Status == TenantActive && t.Credentials.Present()
}
