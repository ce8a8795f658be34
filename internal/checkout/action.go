package checkout

import "github.com/omnishop/checkout-service/internal/model"

// Action is the single command interface into the orchestrator. The
// presentation layer submits one of these instead of wiring a callback per
// interaction; the state machine stays the only source of truth.
type Action interface {
	isAction()
}

type SelectAddress struct {
	AddressID string
}

// Advance asks the state machine to move to the next step. Step guards may
// reject it without changing the step.
type Advance struct{}

type Back struct{}

// Refresh re-runs reconciliation against live stock and recomputes pricing.
type Refresh struct{}

// RemoveItem drops one line and triggers a full re-reconciliation; the
// backend is the source of truth for whether that unlocks eligibility.
type RemoveItem struct {
	ProductID string
	VariantID string
}

type SelectPayment struct {
	Method model.PaymentMethod
}

type ApplyCoupon struct {
	Code string
}

type Submit struct{}

type Abandon struct{}

func (SelectAddress) isAction() {}
func (Advance) isAction()       {}
func (Back) isAction()          {}
func (Refresh) isAction()       {}
func (RemoveItem) isAction()    {}
func (SelectPayment) isAction() {}
func (ApplyCoupon) isAction()   {}
func (Submit) isAction()        {}
func (Abandon) isAction()       {}
