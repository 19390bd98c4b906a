package models

import (
	"github.com/shopspring/decimal"
)

// DefaultEventName is shown when checkout is opened without a cart hand-off
const DefaultEventName = "Festival de Música Eletrônica 2024"

// TicketCategory is a price tier of a ticket type
type TicketCategory struct {
	Type        string          `json:"type"`
	Multiplier  decimal.Decimal `json:"multiplier"`
	Description string          `json:"description,omitempty"`
}

// TicketType is one ticket product offered at checkout
type TicketType struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	BasePrice   decimal.Decimal  `json:"base_price"`
	Description string           `json:"description"`
	Available   int              `json:"available"`
	Categories  []TicketCategory `json:"categories"`
}

// Category looks up a category by type
func (tt *TicketType) Category(categoryType string) (TicketCategory, bool) {
	for _, c := range tt.Categories {
		if c.Type == categoryType {
			return c, true
		}
	}
	return TicketCategory{}, false
}

// Validate checks that the ticket type has at least one category and that
// every multiplier is positive
func (tt *TicketType) Validate() error {
	if len(tt.Categories) == 0 {
		return NewValidationError("categories", "ticket type must have at least one category")
	}
	for _, c := range tt.Categories {
		if !c.Multiplier.IsPositive() {
			return NewValidationError("categories", "category multiplier must be greater than 0")
		}
	}
	return nil
}

// DefaultCategories returns the full/half price tiers
func DefaultCategories() []TicketCategory {
	return []TicketCategory{
		{Type: CategoryFull, Multiplier: decimal.NewFromInt(1)},
		{Type: CategoryHalf, Multiplier: decimal.NewFromFloat(0.5), Description: "Estudantes com carteirinha válida"},
	}
}

// SelectedTicket references a ticket type and category chosen for purchase
type SelectedTicket struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Quantity int    `json:"quantity"`
}

// CheckoutPayload is the hand-off from the cart to checkout
type CheckoutPayload struct {
	SelectedTickets []SelectedTicket `json:"selected_tickets"`
	Tickets         []TicketType     `json:"tickets"`
	EventName       string           `json:"event_name"`
}

// SummaryLine is one display line of the order summary
type SummaryLine struct {
	TicketID   string          `json:"ticket_id"`
	TicketName string          `json:"ticket_name"`
	Category   string          `json:"category"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	LineTotal  decimal.Decimal `json:"line_total"`
}

// OrderSummary is derived from the selected tickets and never persisted
type OrderSummary struct {
	Lines      []SummaryLine   `json:"lines"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	ServiceFee decimal.Decimal `json:"service_fee"`
	Total      decimal.Decimal `json:"total"`
}

// BuyerInfo holds the buyer form
type BuyerInfo struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required"`
	CPF   string `json:"cpf" validate:"required"`
	Phone string `json:"phone" validate:"required"`
}

// PaymentFormData holds the card form. It is never persisted or logged.
type PaymentFormData struct {
	CardNumber string `json:"card_number" validate:"required"`
	CardName   string `json:"card_name" validate:"required"`
	ExpiryDate string `json:"expiry_date" validate:"required"`
	CVV        string `json:"cvv" validate:"required"`
}

// CheckoutState is the state of a checkout
type CheckoutState string

const (
	CheckoutEditing    CheckoutState = "editing"
	CheckoutSubmitting CheckoutState = "submitting"
	CheckoutSuccess    CheckoutState = "success"
	CheckoutFailed     CheckoutState = "failed"
)

// ProfileForm is the profile edit form
type ProfileForm struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	CPF       string `json:"cpf"`
	BirthDate string `json:"birth_date"`
}
