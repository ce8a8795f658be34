// Package payment turns a validated checkout session into an order through
// one of the method-specific flows.
package payment

import (
	"context"
	"errors"
	"net/url"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/omnishop/checkout-service/internal/commerce"
	"github.com/omnishop/checkout-service/internal/model"
	"github.com/omnishop/checkout-service/pkg/metrics"
)

// OutcomeKind is the closed set of dispatch results.
type OutcomeKind string

const (
	OutcomeRedirect         OutcomeKind = "redirect"
	OutcomeCompleted        OutcomeKind = "completed"
	OutcomeValidationFailed OutcomeKind = "validation_failed"
	OutcomeAuthRequired     OutcomeKind = "auth_required"
	OutcomeFailed           OutcomeKind = "failed"
)

// Outcome is a tagged union; the populated fields depend on Kind.
type Outcome struct {
	Kind           OutcomeKind
	RedirectURL    string                    // redirect
	OrderID        string                    // redirect, completed
	Amount         string                    // redirect, completed
	Method         model.PaymentMethod       // all kinds
	Reconciliation *model.CartReconciliation // validation_failed
	Retryable      bool                      // failed
	Reason         string                    // failed
}

// Snapshot is the read-only view of a checkout session the dispatcher works
// from. The orchestrator owns session mutation; nothing here writes back.
type Snapshot struct {
	SessionID       string
	Items           []model.CheckoutItem
	ShippingAddress model.Address
	CouponCode      string
	Pricing         model.PricingDetails
}

type Dispatcher struct {
	orders  commerce.OrderService
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewDispatcher(orders commerce.OrderService, m *metrics.Metrics, log *zap.Logger) *Dispatcher {
	return &Dispatcher{orders: orders, metrics: m, logger: log}
}

// Dispatch creates an order for the chosen method and interprets the result.
// Exactly one order-creation request is issued per call; concurrent-submit
// protection is the orchestrator's job (isProcessing), not repeated here.
func (d *Dispatcher) Dispatch(ctx context.Context, method model.PaymentMethod, snap Snapshot) Outcome {
	out := d.dispatch(ctx, method, snap)
	out.Method = method
	if d.metrics != nil {
		d.metrics.Dispatch.WithLabelValues(method.String(), string(out.Kind)).Inc()
	}
	return out
}

func (d *Dispatcher) dispatch(ctx context.Context, method model.PaymentMethod, snap Snapshot) Outcome {
	if !method.Valid() {
		return Outcome{Kind: OutcomeFailed, Reason: "unsupported payment method"}
	}

	req := &model.CreateOrderRequest{
		Items:           snap.Items,
		ShippingAddress: snap.ShippingAddress,
		PaymentMethod:   method,
		CouponCode:      snap.CouponCode,
	}

	resp, err := d.orders.CreateOrder(ctx, req, uuid.NewString())
	if err != nil {
		return d.interpretError(snap.SessionID, err)
	}

	d.logger.Info("order created",
		zap.String("session_id", snap.SessionID),
		zap.String("order_id", resp.OrderID),
		zap.String("method", method.String()),
	)

	switch method {
	case model.PaymentUPI:
		// The gateway owns the rest of the protocol; hand the user over.
		if resp.PaymentURL == "" {
			return Outcome{Kind: OutcomeFailed, Reason: "backend returned no payment url", Retryable: true}
		}
		return Outcome{Kind: OutcomeRedirect, RedirectURL: resp.PaymentURL, OrderID: resp.OrderID, Amount: resp.Amount}
	case model.PaymentCOD:
		return Outcome{Kind: OutcomeCompleted, OrderID: resp.OrderID, Amount: resp.Amount}
	default:
		return Outcome{
			Kind:        OutcomeRedirect,
			RedirectURL: confirmationURL(method, resp),
			OrderID:     resp.OrderID,
			Amount:      resp.Amount,
		}
	}
}

// interpretError distinguishes the cart-validation rejection from ordinary
// failures. A CART_VALIDATION_FAILED body carries a fresh reconciliation that
// must flow back to the orchestrator instead of being flattened into a
// message.
func (d *Dispatcher) interpretError(sessionID string, err error) Outcome {
	var apiErr *commerce.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.CartValidationFailed() && apiErr.ValidationData != nil:
			d.logger.Info("order rejected, cart no longer valid", zap.String("session_id", sessionID))
			return Outcome{Kind: OutcomeValidationFailed, Reconciliation: apiErr.ValidationData}
		case apiErr.AuthRequired():
			return Outcome{Kind: OutcomeAuthRequired, Reason: apiErr.Message}
		default:
			return Outcome{Kind: OutcomeFailed, Reason: apiErr.Message, Retryable: apiErr.Retryable()}
		}
	}

	d.logger.Error("order creation failed", zap.String("session_id", sessionID), zap.Error(err))
	return Outcome{Kind: OutcomeFailed, Reason: "order creation failed", Retryable: true}
}

func confirmationURL(method model.PaymentMethod, resp *model.CreateOrderResponse) string {
	q := url.Values{}
	q.Set("orderId", resp.OrderID)
	q.Set("paymentMethod", method.String())
	q.Set("amount", resp.Amount)
	return "/order-confirmation?" + q.Encode()
}
