package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	gatewaydomain "github.com/formpay/formpay/internal/gateway/domain"
	orderdomain "github.com/formpay/formpay/internal/order/domain"
	"github.com/formpay/formpay/internal/reconcile/domain"
)

// resolve maps a notification to exactly one local order. Strategies run in
// strict priority order; the first one that yields a single match wins:
//
//  1. provider_order_ref == sourceProviderOrderRef
//  2. order_id == sourceProviderOrderRef (provider echoed our id back)
//  3. any secondary ref against provider_order_ref, then order_id
//  4. newest pending order for (payer_email, form_id), as a best-effort fallback
//
// An exact strategy (1–3) matching more than one row is a data-integrity
// fault and resolves to ErrAmbiguousOrder. The heuristic (4) picks the most
// recent and logs the ambiguity instead.
func (s *Service) resolve(ctx context.Context, notification *gatewaydomain.PaymentNotification) (*orderdomain.Order, error) {
	primary := strings.TrimSpace(notification.ProviderOrderRef)

	if primary != "" {
		matches, err := s.orders.FindByProviderOrderRef(ctx, s.db, primary)
		if err != nil {
			return nil, err
		}
		if len(matches) == 1 {
			return &matches[0], nil
		}
		if len(matches) > 1 {
			s.log.Error("multiple orders share a provider_order_ref",
				zap.String("provider_order_ref", primary),
				zap.Int("matches", len(matches)),
			)
			return nil, domain.ErrAmbiguousOrder
		}

		order, err := s.orders.FindByOrderID(ctx, s.db, primary)
		if err != nil {
			return nil, err
		}
		if order != nil {
			return order, nil
		}
	}

	if order, err := s.resolveSecondary(ctx, notification); err != nil || order != nil {
		return order, err
	}

	return s.resolveHeuristic(ctx, notification)
}

func (s *Service) resolveSecondary(ctx context.Context, notification *gatewaydomain.PaymentNotification) (*orderdomain.Order, error) {
	refs := make([]string, 0, len(notification.SecondaryRefs))
	for _, ref := range notification.SecondaryRefs {
		if ref = strings.TrimSpace(ref); ref != "" {
			refs = append(refs, ref)
		}
	}
	if len(refs) == 0 {
		return nil, nil
	}

	matches, err := s.orders.FindByAnyProviderOrderRef(ctx, s.db, refs)
	if err != nil {
		return nil, err
	}
	if len(matches) == 1 {
		return &matches[0], nil
	}
	if len(matches) > 1 {
		s.log.Error("secondary refs matched multiple orders",
			zap.Strings("refs", refs),
			zap.Int("matches", len(matches)),
		)
		return nil, domain.ErrAmbiguousOrder
	}

	for _, ref := range refs {
		order, err := s.orders.FindByOrderID(ctx, s.db, ref)
		if err != nil {
			return nil, err
		}
		if order != nil {
			return order, nil
		}
	}
	return nil, nil
}

func (s *Service) resolveHeuristic(ctx context.Context, notification *gatewaydomain.PaymentNotification) (*orderdomain.Order, error) {
	payerEmail := strings.TrimSpace(strings.ToLower(notification.PayerEmail))
	formID := strings.TrimSpace(notification.FormID)
	if payerEmail == "" || formID == "" {
		return nil, domain.ErrOrderNotFound
	}

	pending, err := s.orders.FindPendingByPayer(ctx, s.db, payerEmail, formID)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, domain.ErrOrderNotFound
	}
	if len(pending) > 1 {
		s.log.Warn("heuristic resolution is ambiguous, picking most recent pending order",
			zap.String("payer_email", payerEmail),
			zap.String("form_id", formID),
			zap.Int("candidates", len(pending)),
			zap.String("picked_order_id", pending[0].OrderID),
		)
	}
	return &pending[0], nil
}
