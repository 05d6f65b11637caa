package payments

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/glowdesk/backend/gateway"
	"github.com/glowdesk/backend/models"
	"github.com/glowdesk/backend/store"
)

// Notification is a parsed inbound webhook: a payment- or order-scoped
// trigger carrying only a resource id. The body is never trusted as a
// status source; the engine always re-fetches the authoritative state from
// the gateway, which defends against spoofed or stale webhook payloads.
type Notification struct {
	Type string // "payment" or "order"
	ID   string
}

// StatusResult is what the polling client sees.
type StatusResult struct {
	Status   models.LedgerStatus `json:"status"`
	Approved bool                `json:"approved"`
}

// mapGatewayStatus translates the gateway's payment vocabulary into ledger
// states. Rejected and cancelled are first-class terminal states here; the
// engine never collapses them into PENDING, so a dead payment is always
// distinguishable from one still awaiting confirmation.
func mapGatewayStatus(s string) models.LedgerStatus {
	switch s {
	case gateway.StatusApproved:
		return models.LedgerPaid
	case gateway.StatusRejected:
		return models.LedgerRejected
	case gateway.StatusCancelled:
		return models.LedgerCancelled
	case gateway.StatusRefunded:
		return models.LedgerRefunded
	default:
		return models.LedgerPending
	}
}

// HandleNotification reconciles a webhook push (channel B).
//
// For payment notifications the ledger entry is located by trying, in
// order: exact intent id, correlation-token equality, correlation-token
// substring containment (the composite "local|ORDxxx" format). First match
// wins. The gateway is then queried for the authoritative current status.
//
// For order notifications the entry is resolved by correlation-token exact
// match only, and the status is derived from the payments attached to the
// order: any approved makes the order approved; all rejected or cancelled
// (and at least one present) makes it rejected; otherwise it stays pending.
//
// Returns ErrReconciliationNotFound when the lookup chain is exhausted —
// callers acknowledge the webhook anyway, since the entry may simply not
// exist yet (creation racing the webhook).
func (s *Service) HandleNotification(ctx context.Context, n Notification) error {
	switch n.Type {
	case "payment":
		return s.reconcilePayment(ctx, n.ID)
	case "order":
		return s.reconcileOrder(ctx, n.ID)
	default:
		return &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown notification type %q", n.Type)}
	}
}

func (s *Service) reconcilePayment(ctx context.Context, paymentID string) error {
	entry, err := s.locateEntry(paymentID)
	if err != nil {
		return err
	}

	creds, err := s.store.GetCredentials(entry.TenantID)
	if err != nil {
		return fmt.Errorf("load credentials for tenant %s: %w", entry.TenantID, err)
	}
	if !creds.Present() {
		return ErrCredentialsMissing
	}

	payment, err := s.gw.GetPayment(ctx, creds.AccessToken, paymentID)
	if err != nil {
		return classifyGatewayErr(err)
	}

	return s.applyStatus(entry, mapGatewayStatus(payment.Status), paymentID)
}

func (s *Service) reconcileOrder(ctx context.Context, orderID string) error {
	entry, err := s.store.GetByCorrelationToken(orderID)
	if err != nil {
		if errors.Is(err, store.ErrEntryNotFound) {
			return ErrReconciliationNotFound
		}
		return err
	}

	creds, err := s.store.GetCredentials(entry.TenantID)
	if err != nil {
		return fmt.Errorf("load credentials for tenant %s: %w", entry.TenantID, err)
	}
	if !creds.Present() {
		return ErrCredentialsMissing
	}

	order, err := s.gw.GetOrder(ctx, creds.AccessToken, orderID)
	if err != nil {
		return classifyGatewayErr(err)
	}

	return s.applyStatus(entry, deriveOrderStatus(order.Payments), entry.IntentID)
}

// deriveOrderStatus folds the payments attached to an order into one status:
// any approved payment approves the order; a non-empty set that is entirely
// rejected or cancelled rejects it; anything else is still pending.
func deriveOrderStatus(payments []gateway.OrderPayment) models.LedgerStatus {
	if len(payments) == 0 {
		return models.LedgerPending
	}
	allDead := true
	for _, p := range payments {
		switch p.Status {
		case gateway.StatusApproved:
			return models.LedgerPaid
		case gateway.StatusRejected, gateway.StatusCancelled:
		default:
			allDead = false
		}
	}
	if allDead {
		return models.LedgerRejected
	}
	return models.LedgerPending
}

// CheckStatus is the client polling fallback (channel C). It answers from
// the ledger first; when the entry is non-terminal and the id is purely
// numeric it additionally queries the gateway live, covering missed or
// delayed webhooks, and opportunistically records an approved payment.
func (s *Service) CheckStatus(ctx context.Context, intentID, tenantID string) (*StatusResult, error) {
	entry, err := s.locateEntry(intentID)
	if err != nil {
		return nil, err
	}

	if entry.Status.Terminal() || !isNumeric(intentID) {
		return &StatusResult{Status: entry.Status, Approved: entry.Status == models.LedgerPaid}, nil
	}

	creds, err := s.store.GetCredentials(tenantID)
	if err != nil || !creds.Present() {
		// No usable credentials for a live fetch; the ledger answer stands.
		return &StatusResult{Status: entry.Status, Approved: false}, nil
	}

	payment, err := s.gw.GetPayment(ctx, creds.AccessToken, intentID)
	if err != nil {
		// Live fallback is best-effort; polling continues on the next tick.
		s.logger.Debug("live status fetch failed, serving ledger state",
			zap.String("intent_id", intentID), zap.Error(err))
		return &StatusResult{Status: entry.Status, Approved: false}, nil
	}

	if payment.Status == gateway.StatusApproved {
		err := s.applyStatus(entry, models.LedgerPaid, intentID)
		if err != nil && !errors.Is(err, ErrLedgerConflict) {
			return nil, err
		}
		// On a write conflict the ledger keeps its prior state and a later
		// signal will land the PAID; the payer still sees the approval now.
		return &StatusResult{Status: models.LedgerPaid, Approved: true}, nil
	}

	return &StatusResult{Status: entry.Status, Approved: false}, nil
}

// locateEntry runs the channel-B lookup chain: exact intent id, then
// correlation-token equality, then substring containment. First match wins.
func (s *Service) locateEntry(id string) (*models.LedgerEntry, error) {
	entry, err := s.store.GetByIntentID(id)
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, store.ErrEntryNotFound) {
		return nil, err
	}

	entry, err = s.store.GetByCorrelationToken(id)
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, store.ErrEntryNotFound) {
		return nil, err
	}

	entry, err = s.store.FindByCorrelationTokenContaining(id)
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, store.ErrEntryNotFound) {
		return nil, err
	}
	return nil, ErrReconciliationNotFound
}

// applyStatus writes a status transition at most once. The primary write is
// by intent id; when that resolves no entry (id drift between creation-time
// and callback-time ids) it retries once by correlation token, which also
// corrects the stored intent id. Both missing means ErrLedgerConflict: the
// entry keeps its prior state and a later signal may still succeed.
//
// Repeats of an already-applied status and downgrades from terminal states
// are refused by the store's transition table, so this is idempotent and
// keeps PAID sticky under any arrival order.
func (s *Service) applyStatus(entry *models.LedgerEntry, status models.LedgerStatus, intentID string) error {
	written, err := s.store.UpdateStatusByIntentID(intentID, status)
	if err == nil {
		if written {
			s.logger.Info("ledger status updated",
				zap.String("intent_id", intentID),
				zap.String("status", string(status)))
		}
		return nil
	}
	if !errors.Is(err, store.ErrEntryNotFound) {
		return err
	}

	written, err = s.store.UpdateStatusByCorrelationToken(entry.CorrelationToken, status, intentID)
	if err == nil {
		if written {
			s.logger.Info("ledger status updated via correlation token",
				zap.String("correlation_token", entry.CorrelationToken),
				zap.String("intent_id", intentID),
				zap.String("status", string(status)))
		}
		return nil
	}
	if !errors.Is(err, store.ErrEntryNotFound) {
		return err
	}

	s.logger.Warn("ledger write conflict, entry unchanged",
		zap.String("correlation_token", entry.CorrelationToken),
		zap.String("intent_id", intentID))
	return ErrLedgerConflict
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}
