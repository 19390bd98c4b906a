package models

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices are stored and served as JSON numbers, the shape carts
	// written by the web app already have.
	decimal.MarshalJSONWithoutQuotes = true
}

// Category names offered for every ticket type
const (
	CategoryFull = "Inteira"
	CategoryHalf = "Meia Entrada"
)

// CartItem represents one purchasable line in the shopping cart
type CartItem struct {
	ID           int             `json:"id"`
	Title        string          `json:"title"`
	EventName    string          `json:"event_name,omitempty"`
	TicketTypeID string          `json:"ticket_type_id,omitempty"`
	TicketName   string          `json:"ticket_name,omitempty"`
	Category     string          `json:"category,omitempty"`
	Date         string          `json:"date"`
	Time         string          `json:"time"`
	Location     string          `json:"location"`
	Venue        string          `json:"venue"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
}

// Subtotal returns price times quantity for the line
func (i CartItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Validate checks the invariants of a cart line
func (i CartItem) Validate() error {
	if i.Quantity < 1 {
		return NewValidationError("quantity", "quantity must be at least 1")
	}
	if i.Price.IsNegative() {
		return NewValidationError("price", "price cannot be negative")
	}
	if strings.TrimSpace(i.Title) == "" && strings.TrimSpace(i.TicketTypeID) == "" {
		return NewValidationError("title", "title or ticket type is required")
	}
	return nil
}

// Normalize fills the typed ticket reference of items written before the
// reference was carried on the line. Older carts only had the display
// title, e.g. "Festival - Pista Meia".
func (i CartItem) Normalize() CartItem {
	lower := strings.ToLower(i.Title)
	parts := strings.SplitN(i.Title, " - ", 2)

	if i.TicketTypeID == "" {
		switch {
		case strings.Contains(lower, "pista"):
			i.TicketTypeID = "pista"
		case strings.Contains(lower, "vip"):
			i.TicketTypeID = "vip"
		default:
			i.TicketTypeID = "camarote"
		}
	}
	if i.Category == "" {
		if strings.Contains(i.Title, "Meia") {
			i.Category = CategoryHalf
		} else {
			i.Category = CategoryFull
		}
	}
	if i.EventName == "" && len(parts) == 2 {
		i.EventName = strings.TrimSpace(parts[0])
	}
	if i.TicketName == "" {
		if len(parts) == 2 {
			name := strings.TrimSpace(parts[1])
			name = strings.TrimSuffix(name, " Inteira")
			name = strings.TrimSuffix(name, " Meia")
			i.TicketName = name
		} else {
			_, size := utf8.DecodeRuneInString(i.TicketTypeID)
			i.TicketName = strings.ToUpper(i.TicketTypeID[:size]) + i.TicketTypeID[size:]
		}
	}
	return i
}

// CartTotal returns the sum of price times quantity over all lines
func CartTotal(items []CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}
