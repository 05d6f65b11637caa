package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	bolt "github.com/boltdb/bolt"
	"github.com/shopspring/decimal"

	"github.com/glowdesk/backend/models"
)

// adminFieldWhitelist names the only tenant fields the generic
// administrative update path may write. Anything else in the payload is
// silently dropped, never applied. Credential fields are deliberately
// absent: only the OAuth linking flow, explicit disconnect, and the
// privileged path may touch them.
var adminFieldWhitelist = map[string]bool{
	"name":          true,
	"type":          true,
	"revenue_split": true,
	"monthly_fee":   true,
	"status":        true,
	"description":   true,
	"address":       true,
	"image":         true,
}

// privilegedFieldWhitelist extends the admin whitelist for the separate
// privileged path that may set gateway credentials directly.
var privilegedFieldWhitelist = map[string]bool{
	"mp_access_token": true,
	"mp_public_key":   true,
}

// PutTenant creates or replaces a tenant record wholesale. Intended for
// provisioning and tests; administrative edits go through
// UpdateTenantFields and credential writes through SetCredentials.
func (s *Store) PutTenant(t *models.Tenant) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(tenantsBucket)

		now := time.Now().UTC()
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		t.UpdatedAt = now

		data, err := json.Marshal(t)
		if err != nil {
			return err
		}
		return b.Put([]byte(t.ID), data)
	})
}

// GetTenant retrieves a tenant by id. Returns ErrTenantNotFound if the key
// does not exist.
func (s *Store) GetTenant(id string) (*models.Tenant, error) {
	var t models.Tenant

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(tenantsBucket)
		v := b.Get([]byte(id))
		if v == nil {
			return ErrTenantNotFound
		}
		return json.Unmarshal(v, &t)
	})
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// ListTenants returns all tenants. Returns an empty slice rather than nil so
// the JSON encoder emits [] instead of null.
func (s *Store) ListTenants() ([]models.Tenant, error) {
	var items []models.Tenant

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(tenantsBucket)
		return b.ForEach(func(k, v []byte) error {
			var t models.Tenant
			if err := json.Unmarshal(v, &t); err != nil {
				return err
			}
			items = append(items, t)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if items == nil {
		items = []models.Tenant{}
	}
	return items, nil
}

// DeleteTenant removes a tenant by id. Deleting a tenant that does not exist
// is not an error, so retries are unconditionally safe. Ledger entries owned
// by the tenant are retained as financial history.
func (s *Store) DeleteTenant(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(tenantsBucket).Delete([]byte(id))
	})
}

// UpdateTenantFields applies an administrative update to a tenant. Only
// whitelisted fields are applied; unknown or forbidden fields are dropped
// without error. When privileged is true the credential sub-whitelist
// (mp_access_token, mp_public_key) is honored as well.
//
// Returns (updated, written, err) in the write-avoidance style: written is
// false when every supplied value matched the stored record and no write
// occurred.
func (s *Store) UpdateTenantFields(id string, fields map[string]any, privileged bool) (*models.Tenant, bool, error) {
	var result models.Tenant
	written := false

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(tenantsBucket)

		raw := b.Get([]byte(id))
		if raw == nil {
			return ErrTenantNotFound
		}

		var t models.Tenant
		if err := json.Unmarshal(raw, &t); err != nil {
			return err
		}

		changed := false
		for key, value := range fields {
			allowed := adminFieldWhitelist[key] || (privileged && privilegedFieldWhitelist[key])
			if !allowed {
				continue
			}
			applied, err := applyTenantField(&t, key, value)
			if err != nil {
				return err
			}
			changed = changed || applied
		}

		if !changed {
			result = t
			return nil
		}

		t.UpdatedAt = time.Now().UTC()
		data, err := json.Marshal(&t)
		if err != nil {
			return err
		}

		written = true
		result = t
		return b.Put([]byte(id), data)
	})
	if err != nil {
		return nil, false, err
	}

	return &result, written, nil
}

// applyTenantField sets a single whitelisted field, reporting whether the
// stored value actually changed.
func applyTenantField(t *models.Tenant, key string, value any) (bool, error) {
	setString := func(dst *string) (bool, error) {
		str, ok := value.(string)
		if !ok {
			return false, fmt.Errorf("field %s: expected string, got %T", key, value)
		}
		if *dst == str {
			return false, nil
		}
		*dst = str
		return true, nil
	}
	setDecimal := func(dst *decimal.Decimal) (bool, error) {
		var d decimal.Decimal
		switch v := value.(type) {
		case float64:
			d = decimal.NewFromFloat(v)
		case string:
			var err error
			d, err = decimal.NewFromString(v)
			if err != nil {
				return false, fmt.Errorf("field %s: %w", key, err)
			}
		default:
			return false, fmt.Errorf("field %s: expected number, got %T", key, value)
		}
		if dst.Equal(d) {
			return false, nil
		}
		*dst = d
		return true, nil
	}

	switch key {
	case "name":
		return setString(&t.Name)
	case "type":
		return setString(&t.Type)
	case "description":
		return setString(&t.Description)
	case "address":
		return setString(&t.Address)
	case "image":
		return setString(&t.Image)
	case "status":
		str, ok := value.(string)
		if !ok {
			return false, fmt.Errorf("field status: expected string, got %T", value)
		}
		next := models.TenantStatus(str)
		switch next {
		case models.TenantActive, models.TenantPending, models.TenantSuspended:
		default:
			return false, fmt.Errorf("field status: unknown value %q", str)
		}
		if t.Status == next {
			return false, nil
		}
		t.Status = next
		return true, nil
	case "revenue_split":
		return setDecimal(&t.SplitPercent)
	case "monthly_fee":
		return setDecimal(&t.MonthlyFee)
	case "mp_access_token":
		str, ok := value.(string)
		if !ok {
			return false, fmt.Errorf("field mp_access_token: expected string, got %T", value)
		}
		str = strings.TrimSpace(str)
		if t.Credentials.AccessToken == str {
			return false, nil
		}
		t.Credentials.AccessToken = str
		return true, nil
	case "mp_public_key":
		str, ok := value.(string)
		if !ok {
			return false, fmt.Errorf("field mp_public_key: expected string, got %T", value)
		}
		if t.Credentials.PublicKey == str {
			return false, nil
		}
		t.Credentials.PublicKey = str
		return true, nil
	}
	return false, nil
}

// GetCredentials returns the tenant's gateway credential bundle. Returns
// ErrTenantNotFound if the tenant does not exist. A bundle with an absent
// access token is returned as-is; callers use Present() to decide whether
// the tenant is linked.
func (s *Store) GetCredentials(tenantID string) (models.GatewayCredentials, error) {
	t, err := s.GetTenant(tenantID)
	if err != nil {
		return models.GatewayCredentials{}, err
	}
	return t.Credentials, nil
}

// SetCredentials overwrites the tenant's credential bundle. Only credential
// fields are touched; the rest of the tenant record is preserved exactly.
// A whitespace-only access token is normalized to absent.
func (s *Store) SetCredentials(tenantID string, creds models.GatewayCredentials) error {
	creds.AccessToken = strings.TrimSpace(creds.AccessToken)

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(tenantsBucket)

		raw := b.Get([]byte(tenantID))
		if raw == nil {
			return ErrTenantNotFound
		}

		var t models.Tenant
		if err := json.Unmarshal(raw, &t); err != nil {
			return err
		}

		t.Credentials = creds
		t.UpdatedAt = time.Now().UTC()

		data, err := json.Marshal(&t)
		if err != nil {
			return err
		}
		return b.Put([]byte(tenantID), data)
	})
}

// ClearCredentials is the explicit disconnect: every credential field is
// reset to absent. The tenant record itself survives.
func (s *Store) ClearCredentials(tenantID string) error {
	return s.SetCredentials(tenantID, models.GatewayCredentials{})
}
