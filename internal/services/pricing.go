package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"tixup/internal/models"
)

// DefaultServiceFee is the flat fee added to every order
var DefaultServiceFee = decimal.NewFromInt(25)

// PricingService derives order totals from selected tickets. Unresolved
// references degrade silently so the checkout summary always renders; use
// the Strict variants wherever a wrong total must not go unnoticed.
type PricingService struct {
	serviceFee decimal.Decimal
}

// NewPricingService creates a pricing service with the given flat fee
func NewPricingService(serviceFee decimal.Decimal) *PricingService {
	return &PricingService{serviceFee: serviceFee}
}

// ServiceFee returns the flat fee
func (s *PricingService) ServiceFee() decimal.Decimal {
	return s.serviceFee
}

// Subtotal sums basePrice × multiplier × quantity over the selection. A
// ticket id missing from the catalog contributes zero and a category
// missing from the ticket prices at multiplier 1.
func (s *PricingService) Subtotal(selected []models.SelectedTicket, tickets []models.TicketType) decimal.Decimal {
	subtotal := decimal.Zero
	for _, line := range s.lines(selected, tickets) {
		subtotal = subtotal.Add(line.LineTotal)
	}
	return subtotal
}

// Total is the subtotal plus the service fee
func (s *PricingService) Total(selected []models.SelectedTicket, tickets []models.TicketType) decimal.Decimal {
	return s.Subtotal(selected, tickets).Add(s.serviceFee)
}

// Summary builds the order summary shown next to the checkout form
func (s *PricingService) Summary(selected []models.SelectedTicket, tickets []models.TicketType) models.OrderSummary {
	lines := s.lines(selected, tickets)
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.LineTotal)
	}
	return models.OrderSummary{
		Lines:      lines,
		Subtotal:   subtotal,
		ServiceFee: s.serviceFee,
		Total:      subtotal.Add(s.serviceFee),
	}
}

func (s *PricingService) lines(selected []models.SelectedTicket, tickets []models.TicketType) []models.SummaryLine {
	lines := make([]models.SummaryLine, 0, len(selected))
	for _, sel := range selected {
		line := models.SummaryLine{
			TicketID:  sel.ID,
			Category:  sel.Category,
			Quantity:  sel.Quantity,
			UnitPrice: decimal.Zero,
			LineTotal: decimal.Zero,
		}

		if ticket := findTicket(tickets, sel.ID); ticket != nil {
			multiplier := decimal.NewFromInt(1)
			if category, ok := ticket.Category(sel.Category); ok {
				multiplier = category.Multiplier
			}
			line.TicketName = ticket.Name
			line.UnitPrice = ticket.BasePrice.Mul(multiplier)
			line.LineTotal = line.UnitPrice.Mul(decimal.NewFromInt(int64(sel.Quantity)))
		}

		lines = append(lines, line)
	}
	return lines
}

// ResolveStrict resolves every selection against the catalog and fails on
// the first unknown ticket id or category instead of degrading.
func (s *PricingService) ResolveStrict(selected []models.SelectedTicket, tickets []models.TicketType) ([]models.SummaryLine, error) {
	lines := make([]models.SummaryLine, 0, len(selected))
	for _, sel := range selected {
		ticket := findTicket(tickets, sel.ID)
		if ticket == nil {
			return nil, fmt.Errorf("%w: %q", models.ErrTicketTypeNotFound, sel.ID)
		}
		category, ok := ticket.Category(sel.Category)
		if !ok {
			return nil, fmt.Errorf("%w: %q for ticket type %q", models.ErrCategoryNotFound, sel.Category, sel.ID)
		}
		if sel.Quantity < 1 {
			return nil, models.NewValidationError("quantity", fmt.Sprintf("quantity for %q must be at least 1", sel.ID))
		}

		unit := ticket.BasePrice.Mul(category.Multiplier)
		lines = append(lines, models.SummaryLine{
			TicketID:   ticket.ID,
			TicketName: ticket.Name,
			Category:   category.Type,
			Quantity:   sel.Quantity,
			UnitPrice:  unit,
			LineTotal:  unit.Mul(decimal.NewFromInt(int64(sel.Quantity))),
		})
	}
	return lines, nil
}

// StrictSubtotal is Subtotal without the permissive fallbacks
func (s *PricingService) StrictSubtotal(selected []models.SelectedTicket, tickets []models.TicketType) (decimal.Decimal, error) {
	lines, err := s.ResolveStrict(selected, tickets)
	if err != nil {
		return decimal.Zero, err
	}
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.LineTotal)
	}
	return subtotal, nil
}

func findTicket(tickets []models.TicketType, id string) *models.TicketType {
	for i := range tickets {
		if tickets[i].ID == id {
			return &tickets[i]
		}
	}
	return nil
}
