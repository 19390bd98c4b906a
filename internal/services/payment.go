package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tixup/internal/logger"
	"tixup/internal/models"
	"tixup/internal/utils"
)

// ErrPaymentDeclined is returned when the card is refused
var ErrPaymentDeclined = errors.New("pagamento recusado pela operadora do cartão")

// DeclinedTestCard always fails in the mock payment service
const DeclinedTestCard = "4000000000000002"

// PaymentRequest is a charge for one checkout
type PaymentRequest struct {
	Amount    decimal.Decimal
	Email     string
	Reference string
	Card      models.PaymentFormData
}

// PaymentResult describes a completed charge
type PaymentResult struct {
	PaymentID     string          `json:"payment_id"`
	Status        string          `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	TransactionID string          `json:"transaction_id"`
	ProcessedAt   time.Time       `json:"processed_at"`
}

// PaymentService charges the buyer
type PaymentService interface {
	ProcessPayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error)
}

// MockPaymentService simulates a gateway. Every charge succeeds except
// for DeclinedTestCard.
type MockPaymentService struct {
	logger *zap.Logger
}

// NewMockPaymentService creates a mock payment service
func NewMockPaymentService(logger *zap.Logger) *MockPaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MockPaymentService{logger: logger}
}

// ProcessPayment simulates a charge
func (s *MockPaymentService) ProcessPayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("invalid payment amount %s", req.Amount.StringFixed(2))
	}

	card := utils.DigitsOnly(req.Card.CardNumber)
	last4 := card
	if len(card) > 4 {
		last4 = card[len(card)-4:]
	}

	if card == DeclinedTestCard {
		s.logger.Info("mock payment declined",
			zap.String("reference", req.Reference),
			zap.String("card_last4", last4))
		return nil, ErrPaymentDeclined
	}

	result := &PaymentResult{
		PaymentID:     "mock_pay_" + uuid.NewString(),
		Status:        "success",
		Amount:        req.Amount,
		TransactionID: "txn_" + uuid.NewString(),
		ProcessedAt:   time.Now().UTC(),
	}

	s.logger.Info("mock payment processed",
		zap.String("reference", req.Reference),
		zap.String("amount", req.Amount.StringFixed(2)),
		zap.String("buyer", logger.MaskEmail(req.Email)),
		zap.String("card_last4", last4),
		zap.String("payment_id", result.PaymentID))

	return result, nil
}
