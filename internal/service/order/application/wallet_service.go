package application

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"giftify/internal/pkg/apperror"
	"giftify/internal/pkg/logger"
	"giftify/internal/service/order/domain"
	"giftify/internal/service/order/domain/service"
)

type WalletApplicationService struct {
	wallet *service.WalletService
	tracer trace.Tracer
}

func NewWalletApplicationService(wallet *service.WalletService, tracer trace.Tracer) *WalletApplicationService {
	return &WalletApplicationService{wallet: wallet, tracer: tracer}
}

func (s *WalletApplicationService) GetWallet(ctx context.Context, userID string) (*WalletView, error) {
	ctx, span := s.tracer.Start(ctx, "app.GetWallet")
	defer span.End()

	balance, err := s.wallet.Balance(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, apperror.From(err, "WALLET_LOOKUP_FAILED", "Failed to load wallet")
	}
	return &WalletView{UserID: userID, Balance: NewAmount(balance), MaxBalance: NewAmount(s.wallet.MaxBalance())}, nil
}

func (s *WalletApplicationService) ListTransactions(ctx context.Context, userID string, limit int) ([]TransactionView, error) {
	ctx, span := s.tracer.Start(ctx, "app.ListTransactions")
	defer span.End()

	limit = pageSize(limit)
	txs, err := s.wallet.Transactions(ctx, userID, limit)
	if err != nil {
		span.RecordError(err)
		return nil, apperror.From(err, "WALLET_LOOKUP_FAILED", "Failed to load wallet transactions")
	}
	out := make([]TransactionView, 0, len(txs))
	for _, tx := range txs {
		out = append(out, buildTransactionView(tx))
	}
	return out, nil
}

// TopUp credits the wallet. Anything but a rejected amount or an unknown
// user surfaces as TOPUP_FAILED.
func (s *WalletApplicationService) TopUp(ctx context.Context, userID string, amount int64) (*TopUpResponse, error) {
	ctx, span := s.tracer.Start(ctx, "app.TopUp")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.Int64("amount", amount))

	tx, err := s.wallet.TopUp(ctx, userID, amount)
	switch {
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrUserNotFound):
		return nil, err
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "top-up failed")
		logger.Ctx(ctx).Error().Err(err).Str("user_id", userID).Int64("amount", amount).Msg("wallet top-up failed")
		return nil, domain.ErrTopUpFailed.Because(err)
	}

	logger.Ctx(ctx).Info().Str("user_id", userID).Int64("amount", amount).Str("transaction_id", tx.TransactionID).Msg("wallet topped up")
	return &TopUpResponse{Transaction: buildTransactionView(tx), Balance: NewAmount(tx.BalanceAfter)}, nil
}
