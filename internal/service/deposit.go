package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/zotapay/deposit-gateway/internal/domain"
	"github.com/zotapay/deposit-gateway/internal/merchant"
	"github.com/zotapay/deposit-gateway/internal/models"
	"github.com/zotapay/deposit-gateway/internal/observability"
	"github.com/zotapay/deposit-gateway/internal/zota"
	"go.uber.org/zap"
)

// DefaultExpirationWindow bounds how long an order may stay pending before
// the sweep forces a status recheck.
const DefaultExpirationWindow = 4 * time.Hour

// DepositService builds deposit requests from orders and submits them to the
// processor.
type DepositService struct {
	store            OrderStore
	gateway          zota.Gateway
	merchant         *merchant.Provider
	publicBaseURL    string
	expirationWindow time.Duration
	audit            *AuditService
	now              func() time.Time
}

func NewDepositService(store OrderStore, gw zota.Gateway, provider *merchant.Provider, publicBaseURL string, expirationWindow time.Duration) *DepositService {
	if expirationWindow <= 0 {
		expirationWindow = DefaultExpirationWindow
	}
	return &DepositService{
		store:            store,
		gateway:          gw,
		merchant:         provider,
		publicBaseURL:    NormalizeBaseURL(publicBaseURL),
		expirationWindow: expirationWindow,
		audit:            NewAuditService(store),
		now:              time.Now,
	}
}

// CreateDepositRequest is the checkout-side input for a deposit.
type CreateDepositRequest struct {
	Amount   string          `json:"amount"`
	Currency string          `json:"currency"`
	Customer models.Customer `json:"customer"`
}

// CreateDepositResponse reports a successfully submitted deposit. DepositURL
// is the hosted payment page the payer must be redirected to.
type CreateDepositResponse struct {
	OrderID          int64  `json:"order_id"`
	MerchantOrderID  string `json:"merchant_order_id"`
	ProcessorOrderID string `json:"processor_order_id"`
	Status           string `json:"status"`
	DepositURL       string `json:"deposit_url"`
}

// CreateDeposit validates the request, persists a new order and submits it to
// the processor. On processor rejection the order is left in status new and
// the displayable error is returned; the caller keeps its checkout state.
func (s *DepositService) CreateDeposit(ctx context.Context, req *CreateDepositRequest) (*CreateDepositResponse, error) {
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if !domain.IsSupportedCurrency(currency) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedCurrency, currency)
	}
	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	if _, err := mail.ParseAddress(req.Customer.Email); err != nil {
		return nil, fmt.Errorf("invalid customer email: %w", err)
	}

	cfg, err := s.merchant.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		Amount:   amount,
		Currency: currency,
		Customer: req.Customer,
	}
	if err := s.store.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	depositReq, err := s.BuildRequest(order, cfg)
	if err != nil {
		return nil, err
	}

	result, err := s.gateway.Deposit(ctx, depositReq)
	if err != nil {
		observability.IncrementDeposit("rejected")
		var subErr *domain.SubmissionError
		if errors.As(err, &subErr) {
			zap.L().Warn("deposit submission rejected",
				zap.Int64("order_id", order.ID),
				zap.String("code", subErr.Code),
				zap.String("message", subErr.Message),
			)
			s.audit.Note(ctx, order.ID, "Deposit request failed: %s", subErr.Display())
			return nil, subErr
		}
		return nil, err
	}

	expiresAt := s.now().Add(s.expirationWindow)
	if err := s.store.AttachProcessorIDs(ctx, order.ID, depositReq.MerchantOrderID, result.ProcessorOrderID, expiresAt); err != nil {
		return nil, err
	}
	order.MerchantOrderID = depositReq.MerchantOrderID
	order.ProcessorOrderID = result.ProcessorOrderID

	if _, err := applyOrderTransition(ctx, s.store, s.audit, order, domain.OrderStatusPending); err != nil {
		return nil, err
	}

	observability.IncrementDeposit("accepted")
	s.audit.Note(ctx, order.ID, "Deposit request accepted. Order ID #%s / Merchant Order ID #%s", result.ProcessorOrderID, depositReq.MerchantOrderID)

	return &CreateDepositResponse{
		OrderID:          order.ID,
		MerchantOrderID:  order.MerchantOrderID,
		ProcessorOrderID: order.ProcessorOrderID,
		Status:           order.Status,
		DepositURL:       result.DepositURL,
	}, nil
}

// BuildRequest maps an order and merchant configuration onto the wire
// payload. Pure and deterministic: no I/O, same inputs always yield the same
// merchant order id and URLs.
func (s *DepositService) BuildRequest(order *models.Order, cfg *merchant.Config) (*zota.DepositRequest, error) {
	endpointID, err := cfg.EndpointForCurrency(order.Currency)
	if err != nil {
		return nil, err
	}

	return &zota.DepositRequest{
		EndpointID:        endpointID,
		MerchantOrderID:   cfg.MerchantOrderID(order.ID),
		MerchantOrderDesc: fmt.Sprintf("Order #%d", order.ID),
		OrderAmount:       domain.FormatAmount(order.Amount),
		OrderCurrency:     order.Currency,
		CustomerEmail:     order.Customer.Email,
		CustomerFirstName: order.Customer.FirstName,
		CustomerLastName:  order.Customer.LastName,
		CustomerAddress:   order.Customer.Address,
		CustomerCountry:   order.Customer.CountryCode,
		CustomerCity:      order.Customer.City,
		CustomerZipCode:   order.Customer.ZipCode,
		CustomerPhone:     order.Customer.Phone,
		CustomerIP:        order.Customer.IP,
		RedirectURL:       s.RedirectURL(order.ID),
		CallbackURL:       s.CallbackURL(order.ID),
		CheckoutURL:       s.RedirectURL(order.ID),
	}, nil
}

// CallbackURL is the notification endpoint registered with the processor.
// The order id rides along as a query parameter for log correlation; matching
// is always done on the merchant order id in the payload.
func (s *DepositService) CallbackURL(orderID int64) string {
	return fmt.Sprintf("%s/v1/gateway/%s/callback?order=%d", s.publicBaseURL, domain.GatewayID, orderID)
}

// RedirectURL is where the hosted payment page returns the payer.
func (s *DepositService) RedirectURL(orderID int64) string {
	return fmt.Sprintf("%s/v1/orders/%d/return", s.publicBaseURL, orderID)
}

var httpSchemeRe = regexp.MustCompile(`(?i)^http:`)

// NormalizeBaseURL upgrades a plain-http base URL to https and strips any
// trailing slash. Callback URLs must always be https regardless of how the
// store URL is configured.
func NormalizeBaseURL(base string) string {
	base = strings.TrimSpace(base)
	base = httpSchemeRe.ReplaceAllString(base, "https:")
	return strings.TrimRight(base, "/")
}
