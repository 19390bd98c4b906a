package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tixup/internal/models"
	"tixup/internal/repositories"
)

// CartService implements the cart operations over one cart repository.
// Every mutation writes the whole cart back.
type CartService struct {
	repo             repositories.CartRepository
	logger           *zap.Logger
	placeholderEvent string
}

// NewCartService creates a cart service
func NewCartService(repo repositories.CartRepository, logger *zap.Logger, placeholderEvent string) *CartService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if placeholderEvent == "" {
		placeholderEvent = models.DefaultEventName
	}
	return &CartService{
		repo:             repo,
		logger:           logger,
		placeholderEvent: placeholderEvent,
	}
}

// Load returns the stored cart. A corrupt store is reset to an empty cart
// and lines that fail validation are dropped from the store.
func (s *CartService) Load(ctx context.Context) ([]models.CartItem, error) {
	items, err := s.repo.Load(ctx)
	if errors.Is(err, models.ErrStorageCorrupt) {
		s.logger.Warn("cart storage corrupt, resetting to empty", zap.Error(err))
		if saveErr := s.repo.Save(ctx, []models.CartItem{}); saveErr != nil {
			s.logger.Error("failed to reset corrupt cart", zap.Error(saveErr))
		}
		return []models.CartItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	valid := make([]models.CartItem, 0, len(items))
	for _, item := range items {
		if err := item.Validate(); err != nil {
			s.logger.Warn("dropping invalid cart line", zap.Int("item_id", item.ID), zap.Error(err))
			continue
		}
		valid = append(valid, item.Normalize())
	}
	if len(valid) != len(items) {
		if err := s.repo.Save(ctx, valid); err != nil {
			s.logger.Error("failed to rewrite cart without invalid lines", zap.Error(err))
		}
	}
	return valid, nil
}

// Add puts an item in the cart. Adding an id that is already present
// increases that line's quantity.
func (s *CartService) Add(ctx context.Context, item models.CartItem) ([]models.CartItem, error) {
	if err := item.Validate(); err != nil {
		return nil, err
	}
	item = item.Normalize()

	items, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range items {
		if items[i].ID == item.ID {
			if item.Quantity > math.MaxInt-items[i].Quantity {
				return nil, models.NewValidationError("quantity", "quantity is too large")
			}
			items[i].Quantity += item.Quantity
			found = true
			break
		}
	}
	if !found {
		items = append(items, item)
	}

	if err := s.save(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// Remove drops the item with the given id. Unknown ids leave the cart as is.
func (s *CartService) Remove(ctx context.Context, id int) ([]models.CartItem, error) {
	items, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	updated := make([]models.CartItem, 0, len(items))
	for _, item := range items {
		if item.ID != id {
			updated = append(updated, item)
		}
	}
	if len(updated) == len(items) {
		return items, nil
	}

	if err := s.save(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateQuantity sets the quantity of an item. Quantities below 1 are
// ignored so the cart never holds an empty line.
func (s *CartService) UpdateQuantity(ctx context.Context, id, quantity int) ([]models.CartItem, error) {
	items, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	if quantity < 1 {
		return items, nil
	}

	changed := false
	for i := range items {
		if items[i].ID == id {
			items[i].Quantity = quantity
			changed = true
		}
	}
	if !changed {
		return items, nil
	}

	if err := s.save(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// Clear empties the cart
func (s *CartService) Clear(ctx context.Context) error {
	return s.save(ctx, []models.CartItem{})
}

// Total returns Σ price × quantity
func (s *CartService) Total(items []models.CartItem) decimal.Decimal {
	return models.CartTotal(items)
}

// CheckoutPayload converts the cart into the selection handed to checkout:
// one selected ticket per line and one ticket type per distinct type id.
func (s *CartService) CheckoutPayload(items []models.CartItem) models.CheckoutPayload {
	payload := models.CheckoutPayload{
		SelectedTickets: make([]models.SelectedTicket, 0, len(items)),
		Tickets:         []models.TicketType{},
		EventName:       s.placeholderEvent,
	}

	seen := make(map[string]bool)
	for _, item := range items {
		item = item.Normalize()

		payload.SelectedTickets = append(payload.SelectedTickets, models.SelectedTicket{
			ID:       item.TicketTypeID,
			Category: item.Category,
			Quantity: item.Quantity,
		})

		if seen[item.TicketTypeID] {
			continue
		}
		seen[item.TicketTypeID] = true

		categories := models.DefaultCategories()
		multiplier := decimal.NewFromInt(1)
		for _, c := range categories {
			if c.Type == item.Category {
				multiplier = c.Multiplier
			}
		}

		payload.Tickets = append(payload.Tickets, models.TicketType{
			ID:          item.TicketTypeID,
			Name:        item.TicketName,
			BasePrice:   item.Price.Div(multiplier),
			Description: "Acesso à área " + strings.ToLower(item.TicketName),
			Available:   1000,
			Categories:  categories,
		})
	}

	if len(items) > 0 {
		if name := items[0].Normalize().EventName; name != "" {
			payload.EventName = name
		}
	}

	return payload
}

func (s *CartService) save(ctx context.Context, items []models.CartItem) error {
	if err := s.repo.Save(ctx, items); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}
