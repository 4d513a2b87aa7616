package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/formpay/formpay/internal/money"
	orderdomain "github.com/formpay/formpay/internal/order/domain"
	"github.com/formpay/formpay/internal/settlement/domain"
	"github.com/formpay/formpay/pkg/db"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("settlement.ledger"),
		genID: p.GenID,
	}
}

// ApplyIfAbsent moves the order to a terminal state at most once. The status
// update is a compare-and-swap guarded on the current status being
// non-terminal, and for paid the commission insert rides in the same
// transaction: both writes commit or neither does. Providers retry webhooks,
// and the redirect path races the webhook path for the same order; whoever
// loses the CAS observes AlreadyTerminal.
func (s *Service) ApplyIfAbsent(ctx context.Context, orderID string, target orderdomain.Status, split *money.Split) (domain.Outcome, *orderdomain.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.OutcomeRejected, nil, nil
	}
	if !target.Terminal() {
		return domain.OutcomeRejected, nil, domain.ErrInvalidTransition
	}
	if target == orderdomain.StatusPaid && split == nil {
		return domain.OutcomeRejected, nil, domain.ErrSplitRequired
	}
	if target != orderdomain.StatusPaid {
		split = nil
	}

	outcome := domain.OutcomeRejected
	var settled *orderdomain.Order

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		updates := map[string]any{
			"status":     target,
			"updated_at": now,
		}
		if split != nil {
			updates["gateway_fee"] = split.GatewayFee
			updates["platform_commission"] = split.PlatformCommission
			updates["net_to_payee"] = split.NetToPayee
		}

		res := tx.Model(&orderdomain.Order{}).
			Where("order_id = ? AND status IN ?", orderID, []orderdomain.Status{orderdomain.StatusCreated, orderdomain.StatusPending}).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			var existing orderdomain.Order
			err := tx.Where("order_id = ?", orderID).First(&existing).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				outcome = domain.OutcomeRejected
				return nil
			}
			if err != nil {
				return err
			}
			outcome = domain.OutcomeAlreadyTerminal
			settled = &existing
			return nil
		}

		if split != nil {
			record := orderdomain.CommissionRecord{
				ID:          s.genID.Generate(),
				OrderID:     orderID,
				GatewayFee:  split.GatewayFee,
				PlatformFee: split.PlatformCommission,
				NetToPayee:  split.NetToPayee,
				RecordedAt:  now,
			}
			if err := tx.Create(&record).Error; err != nil {
				if db.IsDuplicateKeyErr(err) {
					// A commission row without a live CAS win means a
					// previous settlement already committed; the unique
					// index is the last line of defence.
					return errDuplicateCommission
				}
				return err
			}
		}

		var updated orderdomain.Order
		if err := tx.Where("order_id = ?", orderID).First(&updated).Error; err != nil {
			return err
		}
		outcome = domain.OutcomeApplied
		settled = &updated
		return nil
	})

	if errors.Is(err, errDuplicateCommission) {
		s.log.Warn("commission record already present, treating as terminal",
			zap.String("order_id", orderID),
		)
		// Our transaction rolled back; return the row the winning
		// settlement committed.
		var existing orderdomain.Order
		if readErr := s.db.WithContext(ctx).Where("order_id = ?", orderID).First(&existing).Error; readErr != nil {
			return domain.OutcomeAlreadyTerminal, nil, nil
		}
		return domain.OutcomeAlreadyTerminal, &existing, nil
	}
	if err != nil {
		return domain.OutcomeRejected, nil, err
	}

	switch outcome {
	case domain.OutcomeApplied:
		fields := []zap.Field{
			zap.String("order_id", orderID),
			zap.String("status", string(target)),
		}
		if split != nil {
			fields = append(fields,
				zap.String("gateway_fee", split.GatewayFee.String()),
				zap.String("platform_commission", split.PlatformCommission.String()),
				zap.String("net_to_payee", split.NetToPayee.String()),
			)
		}
		s.log.Info("settlement applied", fields...)
	case domain.OutcomeAlreadyTerminal:
		s.log.Info("settlement already terminal",
			zap.String("order_id", orderID),
			zap.String("target", string(target)),
			zap.String("current", string(currentStatus(settled))),
		)
	case domain.OutcomeRejected:
		s.log.Warn("settlement rejected, unknown order",
			zap.String("order_id", orderID),
		)
	}

	return outcome, settled, nil
}

var errDuplicateCommission = errors.New("duplicate_commission_record")

func currentStatus(order *orderdomain.Order) orderdomain.Status {
	if order == nil {
		return ""
	}
	return order.Status
}
