package checkout

import (
	"errors"
	"sync"
	"time"

	"github.com/omnishop/checkout-service/internal/model"
)

var (
	ErrSessionNotFound  = errors.New("checkout session not found")
	ErrSessionTerminal  = errors.New("checkout session already finished")
	ErrSignInRequired   = errors.New("sign in required to continue checkout")
	ErrAddressRequired  = errors.New("select a delivery address to continue")
	ErrCartNotReady     = errors.New("cart has items that need attention")
	ErrPaymentRequired  = errors.New("select a payment method")
	ErrDispatchInFlight = errors.New("an order submission is already in progress")
	ErrInvalidAction    = errors.New("action not valid for the current step")
)

// Session is the lifetime-scoped state of one checkout attempt. It is mutated
// only by the orchestrator, under mu; collaborators get read-only snapshots
// and hand back new data.
type Session struct {
	mu sync.Mutex

	ID            string
	UserID        string
	Authenticated bool
	Items         []model.CheckoutItem

	Step              model.CheckoutStep
	Addresses         []model.Address
	SelectedAddressID string
	Reconciliation    *model.CartReconciliation
	Pricing           model.PricingDetails
	PaymentMethod     model.PaymentMethod
	CouponCode        string

	IsProcessing bool
	Error        string

	// Set when a dispatch outcome carries the user somewhere else.
	RedirectURL string
	OrderID     string
	Amount      string

	CreatedAt time.Time
	UpdatedAt time.Time

	// reconcileSeq tags outstanding reconcile requests; a response is applied
	// only while its token is still the most recently issued one, so a slow
	// stale response can never overwrite a newer reconciliation.
	reconcileSeq uint64
	validating   int
}

// SessionView is the read-only projection handed to the presentation layer.
// The reconciliation pointer is safe to share: the orchestrator replaces it
// wholesale and never mutates a published reconciliation in place.
type SessionView struct {
	ID                string                    `json:"id"`
	Step              model.CheckoutStep        `json:"step"`
	StepName          string                    `json:"stepName"`
	IsAuthenticated   bool                      `json:"isAuthenticated"`
	Items             []model.CheckoutItem      `json:"items"`
	Addresses         []model.Address           `json:"addresses"`
	SelectedAddressID string                    `json:"selectedAddressId,omitempty"`
	Reconciliation    *model.CartReconciliation `json:"reconciliation,omitempty"`
	Pricing           model.PricingDetails      `json:"pricing"`
	PaymentMethod     model.PaymentMethod       `json:"paymentMethod,omitempty"`
	CouponCode        string                    `json:"couponCode,omitempty"`
	IsProcessing      bool                      `json:"isProcessing"`
	IsValidating      bool                      `json:"isValidatingCart"`
	Error             string                    `json:"error,omitempty"`
	RedirectURL       string                    `json:"redirectUrl,omitempty"`
	OrderID           string                    `json:"orderId,omitempty"`
	Amount            string                    `json:"amount,omitempty"`
}

// view must be called with s.mu held.
func (s *Session) view() *SessionView {
	items := make([]model.CheckoutItem, len(s.Items))
	copy(items, s.Items)
	addrs := make([]model.Address, len(s.Addresses))
	copy(addrs, s.Addresses)

	return &SessionView{
		ID:                s.ID,
		Step:              s.Step,
		StepName:          s.Step.String(),
		IsAuthenticated:   s.Authenticated,
		Items:             items,
		Addresses:         addrs,
		SelectedAddressID: s.SelectedAddressID,
		Reconciliation:    s.Reconciliation,
		Pricing:           s.Pricing,
		PaymentMethod:     s.PaymentMethod,
		CouponCode:        s.CouponCode,
		IsProcessing:      s.IsProcessing,
		IsValidating:      s.validating > 0,
		Error:             s.Error,
		RedirectURL:       s.RedirectURL,
		OrderID:           s.OrderID,
		Amount:            s.Amount,
	}
}

// selectedAddress must be called with s.mu held.
func (s *Session) selectedAddress() (model.Address, bool) {
	for _, a := range s.Addresses {
		if a.ID == s.SelectedAddressID {
			return a, true
		}
	}
	return model.Address{}, false
}

// eligibleCount must be called with s.mu held.
func (s *Session) eligibleCount() int {
	if s.Reconciliation == nil {
		return 0
	}
	n := 0
	for _, l := range s.Reconciliation.Lines {
		if l.CanProceedToCheckout {
			n++
		}
	}
	return n
}
