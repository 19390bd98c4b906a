package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"tixup/internal/logger"
	"tixup/internal/models"
	"tixup/internal/utils"
)

// Messages shown to the buyer on the checkout page
const (
	MsgMissingPaymentFields = "Por favor, preencha todos os campos de pagamento."
	MsgMissingBuyerFields   = "Por favor, preencha todas as informações do comprador."
	MsgInvalidEmail         = "Por favor, insira um e-mail válido."
	MsgInvalidCPF           = "Por favor, insira um CPF válido."
	MsgNoTicketSelected     = "Nenhum ingresso selecionado."
	MsgReservationExpired   = "O tempo de reserva expirou. Os ingressos foram liberados."
	MsgUnknownSubmitError   = "Ocorreu um erro desconhecido ao processar a compra."
)

// CheckoutService holds the collaborators shared by every checkout
type CheckoutService struct {
	pricing          *PricingService
	payments         PaymentService
	receipts         ReceiptStore
	publisher        OrderPublisher
	validate         *validator.Validate
	logger           *zap.Logger
	documentSalt     string
	placeholderEvent string
	now              func() time.Time
}

// CheckoutServiceConfig configures a CheckoutService. Receipts and
// Publisher are optional.
type CheckoutServiceConfig struct {
	Pricing          *PricingService
	Payments         PaymentService
	Receipts         ReceiptStore
	Publisher        OrderPublisher
	Logger           *zap.Logger
	DocumentHashSalt string
	PlaceholderEvent string
	Now              func() time.Time
}

// NewCheckoutService creates a checkout service
func NewCheckoutService(cfg CheckoutServiceConfig) *CheckoutService {
	s := &CheckoutService{
		pricing:          cfg.Pricing,
		payments:         cfg.Payments,
		receipts:         cfg.Receipts,
		publisher:        cfg.Publisher,
		validate:         validator.New(),
		logger:           cfg.Logger,
		documentSalt:     cfg.DocumentHashSalt,
		placeholderEvent: cfg.PlaceholderEvent,
		now:              cfg.Now,
	}
	if s.pricing == nil {
		s.pricing = NewPricingService(DefaultServiceFee)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.payments == nil {
		s.payments = NewMockPaymentService(s.logger)
	}
	if s.placeholderEvent == "" {
		s.placeholderEvent = models.DefaultEventName
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Pricing returns the pricing service used for summaries
func (s *CheckoutService) Pricing() *PricingService {
	return s.pricing
}

// Open starts a checkout for the hand-off payload. A nil payload opens an
// empty checkout for the placeholder event. cart and reservation may be nil.
func (s *CheckoutService) Open(payload *models.CheckoutPayload, cart *CartService, reservation *Reservation) *Checkout {
	p := models.CheckoutPayload{
		SelectedTickets: []models.SelectedTicket{},
		Tickets:         []models.TicketType{},
		EventName:       s.placeholderEvent,
	}
	if payload != nil {
		if payload.SelectedTickets != nil {
			p.SelectedTickets = payload.SelectedTickets
		}
		if payload.Tickets != nil {
			p.Tickets = payload.Tickets
		}
		if payload.EventName != "" {
			p.EventName = payload.EventName
		}
	}

	return &Checkout{
		service:     s,
		payload:     p,
		cart:        cart,
		reservation: reservation,
		state:       models.CheckoutEditing,
	}
}

// Checkout is one buyer's pass through the checkout form:
// editing → submitting → success, or back to editing with an error.
type Checkout struct {
	mu           sync.Mutex
	service      *CheckoutService
	payload      models.CheckoutPayload
	cart         *CartService
	reservation  *Reservation
	state        models.CheckoutState
	buyer        models.BuyerInfo
	payment      models.PaymentFormData
	errMsg       string
	receipt      *models.Receipt
	confirmation string
}

func (c *Checkout) State() models.CheckoutState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Busy reports whether a submission is running
func (c *Checkout) Busy() bool {
	return c.State() == models.CheckoutSubmitting
}

// ErrorMessage returns the message of the last failed submit, if any
func (c *Checkout) ErrorMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

func (c *Checkout) Payload() models.CheckoutPayload {
	return c.payload
}

func (c *Checkout) EventName() string {
	return c.payload.EventName
}

func (c *Checkout) Summary() models.OrderSummary {
	return c.service.pricing.Summary(c.payload.SelectedTickets, c.payload.Tickets)
}

func (c *Checkout) Reservation() *Reservation {
	return c.reservation
}

func (c *Checkout) Buyer() models.BuyerInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buyer
}

func (c *Checkout) Receipt() *models.Receipt {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.receipt
}

// Confirmation is the success text, empty until the purchase succeeds
func (c *Checkout) Confirmation() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.confirmation
}

// SetBuyerField stores a buyer form field after applying its input mask
func (c *Checkout) SetBuyerField(name, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch name {
	case "name":
		c.buyer.Name = value
	case "email":
		c.buyer.Email = value
	case "cpf":
		c.buyer.CPF = utils.FormatCPF(value)
	case "phone":
		c.buyer.Phone = utils.FormatPhone(value)
	default:
		return models.NewValidationError(name, "unknown buyer field")
	}
	return nil
}

// SetPaymentField stores a card form field after applying its input mask
func (c *Checkout) SetPaymentField(name, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch name {
	case "cardNumber", "card_number":
		c.payment.CardNumber = utils.FormatCardNumber(value)
	case "cardName", "card_name":
		c.payment.CardName = value
	case "expiryDate", "expiry_date":
		c.payment.ExpiryDate = utils.FormatExpiryDate(value)
	case "cvv":
		c.payment.CVV = utils.FormatCVV(value)
	default:
		return models.NewValidationError(name, "unknown payment field")
	}
	return nil
}

// SetBuyer stores the whole buyer form. The field names are known, so the
// per-field errors cannot occur.
func (c *Checkout) SetBuyer(info models.BuyerInfo) {
	_ = c.SetBuyerField("name", info.Name)
	_ = c.SetBuyerField("email", info.Email)
	_ = c.SetBuyerField("cpf", info.CPF)
	_ = c.SetBuyerField("phone", info.Phone)
}

// SetPayment stores the whole card form. The field names are known, so the
// per-field errors cannot occur.
func (c *Checkout) SetPayment(data models.PaymentFormData) {
	_ = c.SetPaymentField("card_number", data.CardNumber)
	_ = c.SetPaymentField("card_name", data.CardName)
	_ = c.SetPaymentField("expiry_date", data.ExpiryDate)
	_ = c.SetPaymentField("cvv", data.CVV)
}

// WatchReservation releases the cart when an enforced reservation expires
func (c *Checkout) WatchReservation() {
	if c.reservation == nil {
		return
	}
	c.reservation.Watch(c.releaseCart)
}

func (c *Checkout) releaseCart() {
	if c.cart == nil {
		return
	}
	if err := c.cart.Clear(context.Background()); err != nil {
		c.service.logger.Error("failed to release cart after reservation expiry", zap.Error(err))
		return
	}
	c.service.logger.Info("reservation expired, cart released", zap.String("event_name", c.payload.EventName))
}

// Submit validates the form and places the order. A *models.ValidationError
// or *models.SubmissionError leaves the checkout editable with ErrorMessage set;
// the entered fields are kept.
func (c *Checkout) Submit(ctx context.Context) (*models.Receipt, error) {
	c.mu.Lock()
	switch c.state {
	case models.CheckoutSuccess:
		c.mu.Unlock()
		return nil, models.ErrAlreadyCompleted
	case models.CheckoutSubmitting:
		c.mu.Unlock()
		return nil, models.ErrSubmissionInProgress
	}

	c.errMsg = ""
	if err := c.validateLocked(); err != nil {
		c.errMsg = err.Message
		c.mu.Unlock()
		if err.Message == MsgReservationExpired {
			c.releaseCart()
		}
		return nil, err
	}

	c.state = models.CheckoutSubmitting
	buyer, payment := c.buyer, c.payment
	c.mu.Unlock()

	receipt, err := c.purchase(ctx, buyer, payment)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		var subErr *models.SubmissionError
		if !errors.As(err, &subErr) {
			subErr = &models.SubmissionError{Message: err.Error(), Err: err}
		}
		c.state = models.CheckoutEditing
		c.errMsg = subErr.Message
		c.service.logger.Warn("checkout submission failed",
			zap.String("event_name", c.payload.EventName),
			zap.Error(subErr.Err))
		return nil, subErr
	}

	c.state = models.CheckoutSuccess
	c.receipt = receipt
	c.confirmation = fmt.Sprintf("Obrigado por sua compra para %s. Você receberá uma confirmação em %s.",
		c.payload.EventName, buyer.Email)
	return receipt, nil
}

// validateLocked runs the submit guards in order; the first failure wins
func (c *Checkout) validateLocked() *models.ValidationError {
	if err := c.service.validate.Struct(c.payment); err != nil {
		return models.NewValidationError("", MsgMissingPaymentFields)
	}
	if err := c.service.validate.Struct(c.buyer); err != nil {
		return models.NewValidationError("", MsgMissingBuyerFields)
	}
	if !utils.ValidateEmail(c.buyer.Email) {
		return models.NewValidationError("", MsgInvalidEmail)
	}
	if !utils.CPFHasElevenDigits(c.buyer.CPF) {
		return models.NewValidationError("", MsgInvalidCPF)
	}
	if len(c.payload.SelectedTickets) == 0 || c.payload.SelectedTickets[0].ID == "" {
		return models.NewValidationError("", MsgNoTicketSelected)
	}
	if c.reservation != nil && c.reservation.Blocks(c.service.now()) {
		return models.NewValidationError("", MsgReservationExpired)
	}
	return nil
}

// purchase charges the buyer and builds the receipt. Panics are turned
// into a SubmissionError with the generic message.
func (c *Checkout) purchase(ctx context.Context, buyer models.BuyerInfo, payment models.PaymentFormData) (receipt *models.Receipt, err error) {
	s := c.service

	defer func() {
		if r := recover(); r != nil {
			receipt = nil
			err = &models.SubmissionError{Message: MsgUnknownSubmitError, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	summary := c.Summary()
	now := s.now().UTC()
	orderNumber := models.GenerateOrderNumber(now)

	result, err := s.payments.ProcessPayment(ctx, PaymentRequest{
		Amount:    summary.Total,
		Email:     buyer.Email,
		Reference: orderNumber,
		Card:      payment,
	})
	if err != nil {
		return nil, &models.SubmissionError{Message: err.Error(), Err: err}
	}

	documentHash, err := utils.HashDocument(buyer.CPF, s.documentSalt)
	if err != nil {
		s.logger.Warn("buyer document not hashed", zap.Error(err))
		documentHash = ""
	}

	receipt = &models.Receipt{
		OrderNumber:       orderNumber,
		EventName:         c.payload.EventName,
		BuyerName:         buyer.Name,
		BuyerEmail:        buyer.Email,
		BuyerDocumentHash: documentHash,
		Lines:             summary.Lines,
		Subtotal:          summary.Subtotal,
		ServiceFee:        summary.ServiceFee,
		Total:             summary.Total,
		PaymentID:         result.PaymentID,
		CreatedAt:         now,
	}
	if err := receipt.Validate(); err != nil {
		return nil, &models.SubmissionError{Message: MsgUnknownSubmitError, Err: err}
	}

	if s.receipts != nil {
		if location, err := s.receipts.Save(ctx, receipt); err != nil {
			s.logger.Error("failed to archive receipt", zap.String("order_number", orderNumber), zap.Error(err))
		} else {
			s.logger.Debug("receipt archived", zap.String("order_number", orderNumber), zap.String("location", location))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishOrderCompleted(ctx, NewOrderCompletedEvent(receipt)); err != nil {
			s.logger.Error("failed to publish order", zap.String("order_number", orderNumber), zap.Error(err))
		}
	}

	if c.reservation != nil {
		c.reservation.Cancel()
	}
	if c.cart != nil {
		if err := c.cart.Clear(ctx); err != nil {
			s.logger.Error("failed to clear cart after purchase", zap.String("order_number", orderNumber), zap.Error(err))
		}
	}

	s.logger.Info("checkout completed",
		zap.String("order_number", orderNumber),
		zap.String("event_name", receipt.EventName),
		zap.String("buyer", logger.MaskEmail(buyer.Email)),
		zap.String("total", receipt.Total.StringFixed(2)))

	return receipt, nil
}
