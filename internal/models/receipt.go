package models

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

// Order number format: ORD-YYYYMMDD-XXXXXX (e.g., ORD-20240101-123456)
var orderNumberRegex = regexp.MustCompile(`^ORD-\d{8}-\d{6}$`)

// Receipt is produced by a successful checkout
type Receipt struct {
	OrderNumber       string          `json:"order_number"`
	EventName         string          `json:"event_name"`
	BuyerName         string          `json:"buyer_name"`
	BuyerEmail        string          `json:"buyer_email"`
	BuyerDocumentHash string          `json:"buyer_document_hash,omitempty"`
	Lines             []SummaryLine   `json:"lines"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	ServiceFee        decimal.Decimal `json:"service_fee"`
	Total             decimal.Decimal `json:"total"`
	PaymentID         string          `json:"payment_id"`
	CreatedAt         time.Time       `json:"created_at"`
}

// Validate checks that the receipt is complete enough to archive
func (r *Receipt) Validate() error {
	if r.OrderNumber == "" {
		return errors.New("order number is required")
	}
	if !orderNumberRegex.MatchString(r.OrderNumber) {
		return errors.New("order number format is invalid")
	}
	if r.BuyerEmail == "" {
		return errors.New("buyer email is required")
	}
	if r.Total.IsNegative() {
		return errors.New("total cannot be negative")
	}
	return nil
}

// GenerateOrderNumber generates an order number for the given day
func GenerateOrderNumber(now time.Time) string {
	dateStr := now.Format("20060102")

	max := big.NewInt(1000000)
	randomNum, err := rand.Int(rand.Reader, max)
	if err != nil {
		return fmt.Sprintf("ORD-%s-%06d", dateStr, now.UnixNano()%1000000)
	}

	return fmt.Sprintf("ORD-%s-%06d", dateStr, randomNum.Int64())
}
