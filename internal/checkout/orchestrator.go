package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/omnishop/checkout-service/internal/commerce"
	"github.com/omnishop/checkout-service/internal/model"
	"github.com/omnishop/checkout-service/internal/payment"
	"github.com/omnishop/checkout-service/internal/pricing"
	"github.com/omnishop/checkout-service/internal/validation"
)

// Orchestrator is the checkout step state machine. It owns all session
// mutation; the validation engine and the payment dispatcher only ever see
// read-only snapshots and return new data.
type Orchestrator struct {
	store      *Store
	engine     validation.UseCase
	addresses  commerce.AddressService
	dispatcher *payment.Dispatcher
	logger     *zap.Logger
}

func NewOrchestrator(
	store *Store,
	engine validation.UseCase,
	addresses commerce.AddressService,
	dispatcher *payment.Dispatcher,
	log *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:      store,
		engine:     engine,
		addresses:  addresses,
		dispatcher: dispatcher,
		logger:     log,
	}
}

// Start creates a session for a non-empty item list. The address list and the
// initial reconciliation are independent fetches; they run concurrently and
// are joined before pricing is computed. Both failures are recoverable via an
// explicit Refresh, so neither aborts session creation.
func (o *Orchestrator) Start(ctx context.Context, userID string, authenticated bool, items []model.CheckoutItem) (*SessionView, error) {
	if len(items) == 0 {
		return nil, validation.ErrEmptyCart
	}

	now := time.Now()
	s := &Session{
		ID:            uuid.NewString(),
		UserID:        userID,
		Authenticated: authenticated,
		Items:         append([]model.CheckoutItem(nil), items...),
		Step:          model.StepAuthGate,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	var (
		rec     *model.CartReconciliation
		addrs   []model.Address
		recErr  error
		addrErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rec, recErr = o.engine.Reconcile(gctx, s.Items)
		return nil
	})
	if authenticated {
		g.Go(func() error {
			addrs, addrErr = o.addresses.ListAddresses(gctx, userID)
			return nil
		})
	}
	_ = g.Wait() // both errors are recoverable and captured above

	if recErr != nil {
		if errors.Is(recErr, validation.ErrEmptyCart) {
			return nil, recErr
		}
		o.logger.Warn("initial reconciliation failed", zap.String("session_id", s.ID), zap.Error(recErr))
		s.Error = "We couldn't check your cart against current stock. Please refresh."
	} else {
		s.Reconciliation = rec
		s.Pricing = pricing.Compute(rec)
	}

	if addrErr != nil {
		o.logger.Warn("address fetch failed", zap.String("session_id", s.ID), zap.Error(addrErr))
		if s.Error == "" {
			s.Error = "We couldn't load your addresses. Please refresh."
		}
	} else {
		s.Addresses = addrs
	}

	for _, a := range s.Addresses {
		if a.IsDefault {
			s.SelectedAddressID = a.ID
			break
		}
	}
	if s.SelectedAddressID == "" && len(s.Addresses) > 0 {
		s.SelectedAddressID = s.Addresses[0].ID
	}

	// Auto-advance past steps the user has already satisfied. Jumping to
	// review requires the reconciliation to have completed; the review to
	// payment guard is still enforced on Advance, never skipped.
	if authenticated {
		s.Step = model.StepAddress
		if len(s.Addresses) > 0 && s.Reconciliation != nil {
			s.Step = model.StepReview
		}
	}

	o.store.Put(s)
	o.logger.Info("checkout session started",
		zap.String("session_id", s.ID),
		zap.Int("items", len(s.Items)),
		zap.String("step", s.Step.String()),
	)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view(), nil
}

// Get returns the current session view.
func (o *Orchestrator) Get(sessionID string) (*SessionView, error) {
	s, ok := o.store.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view(), nil
}

// Apply runs one action against the state machine. The returned view
// reflects the session after the action, including rejected transitions
// where only Error changed.
func (o *Orchestrator) Apply(ctx context.Context, sessionID string, action Action) (*SessionView, error) {
	s, ok := o.store.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Step.IsTerminal() {
		return s.view(), ErrSessionTerminal
	}
	s.UpdatedAt = time.Now()

	var err error
	switch a := action.(type) {
	case SelectAddress:
		err = o.selectAddress(s, a)
	case Advance:
		err = o.advance(s)
	case Back:
		err = o.back(s)
	case Refresh:
		err = o.refresh(ctx, s)
	case RemoveItem:
		err = o.removeItem(ctx, s, a)
	case SelectPayment:
		err = o.selectPayment(s, a)
	case ApplyCoupon:
		s.CouponCode = a.Code
	case Submit:
		err = o.submit(ctx, s)
	case Abandon:
		o.abandon(s)
	default:
		err = ErrInvalidAction
	}

	return s.view(), err
}

func (o *Orchestrator) selectAddress(s *Session, a SelectAddress) error {
	for _, addr := range s.Addresses {
		if addr.ID == a.AddressID {
			s.SelectedAddressID = addr.ID
			s.Error = ""
			return nil
		}
	}
	return ErrAddressRequired
}

func (o *Orchestrator) advance(s *Session) error {
	switch s.Step {
	case model.StepAuthGate:
		if !s.Authenticated {
			// The caller redirects to sign-in; the session stays suspended
			// at this step until re-entry with authenticated context.
			return ErrSignInRequired
		}
		s.Step = model.StepAddress
	case model.StepAddress:
		if _, ok := s.selectedAddress(); !ok {
			return ErrAddressRequired
		}
		s.Step = model.StepReview
	case model.StepReview:
		if s.Reconciliation == nil || !s.Reconciliation.CanProceedToCheckout || s.eligibleCount() == 0 {
			s.Error = "Resolve the highlighted cart issues before continuing to payment."
			return ErrCartNotReady
		}
		s.Step = model.StepPayment
	default:
		return ErrInvalidAction
	}
	s.Error = ""
	return nil
}

func (o *Orchestrator) back(s *Session) error {
	switch s.Step {
	case model.StepAddress, model.StepReview, model.StepPayment:
		s.Step--
		s.Error = ""
		return nil
	default:
		return ErrInvalidAction
	}
}

// refresh re-runs reconciliation and replaces reconciliation and pricing in
// the same critical section, so no reader ever sees pricing computed from an
// older reconciliation. Called with s.mu held; releases it across the
// network call.
func (o *Orchestrator) refresh(ctx context.Context, s *Session) error {
	s.reconcileSeq++
	token := s.reconcileSeq
	items := append([]model.CheckoutItem(nil), s.Items...)
	s.validating++

	s.mu.Unlock()
	rec, err := o.engine.Reconcile(ctx, items)
	s.mu.Lock()

	s.validating--
	if token != s.reconcileSeq {
		// A later refresh was issued while this one was in flight; its
		// response owns the session now. Drop this one.
		o.logger.Debug("discarding stale reconciliation",
			zap.String("session_id", s.ID),
			zap.Uint64("token", token),
			zap.Uint64("latest", s.reconcileSeq),
		)
		return nil
	}
	if err != nil {
		if errors.Is(err, validation.ErrEmptyCart) {
			o.abandon(s)
			return err
		}
		s.Error = "We couldn't check your cart against current stock. Please try again."
		return fmt.Errorf("refresh reconciliation: %w", err)
	}

	s.Reconciliation = rec
	s.Pricing = pricing.Compute(rec)
	s.Error = ""
	return nil
}

// removeItem drops the line and re-reconciles the whole cart. A local patch
// is not enough: the backend is the source of truth for aggregate
// eligibility.
func (o *Orchestrator) removeItem(ctx context.Context, s *Session, a RemoveItem) error {
	kept := make([]model.CheckoutItem, 0, len(s.Items))
	for _, it := range s.Items {
		if it.ProductID == a.ProductID && it.VariantID == a.VariantID {
			continue
		}
		kept = append(kept, it)
	}
	if len(kept) == len(s.Items) {
		return nil
	}
	s.Items = kept

	if len(s.Items) == 0 {
		// Nothing left to check out; the session has no valid state to show.
		o.abandon(s)
		return nil
	}
	return o.refresh(ctx, s)
}

func (o *Orchestrator) selectPayment(s *Session, a SelectPayment) error {
	if s.Step != model.StepPayment {
		return ErrInvalidAction
	}
	if !a.Method.Valid() {
		return ErrPaymentRequired
	}
	s.PaymentMethod = a.Method
	s.Error = ""
	return nil
}

// submit delegates to the payment dispatcher. IsProcessing is the
// double-submission guard: while a dispatch is in flight every further
// Submit is rejected, so double-clicks produce exactly one order-creation
// request. Called with s.mu held; releases it across the dispatch.
func (o *Orchestrator) submit(ctx context.Context, s *Session) error {
	if s.Step != model.StepPayment {
		return ErrInvalidAction
	}
	if s.IsProcessing {
		return ErrDispatchInFlight
	}
	if !s.PaymentMethod.Valid() {
		return ErrPaymentRequired
	}
	addr, ok := s.selectedAddress()
	if !ok {
		return ErrAddressRequired
	}
	if s.Reconciliation == nil || !s.Reconciliation.CanProceedToCheckout || s.eligibleCount() == 0 {
		return ErrCartNotReady
	}

	s.IsProcessing = true
	s.Error = ""
	method := s.PaymentMethod
	snap := payment.Snapshot{
		SessionID:       s.ID,
		Items:           append([]model.CheckoutItem(nil), s.Items...),
		ShippingAddress: addr,
		CouponCode:      s.CouponCode,
		Pricing:         s.Pricing,
	}

	s.mu.Unlock()
	out := o.dispatcher.Dispatch(ctx, method, snap)
	s.mu.Lock()

	s.IsProcessing = false

	switch out.Kind {
	case payment.OutcomeCompleted, payment.OutcomeRedirect:
		s.Step = model.StepCompleted
		s.OrderID = out.OrderID
		s.Amount = out.Amount
		s.RedirectURL = out.RedirectURL
		o.store.Delete(s.ID)
		o.logger.Info("checkout completed",
			zap.String("session_id", s.ID),
			zap.String("order_id", out.OrderID),
			zap.String("method", method.String()),
		)
	case payment.OutcomeValidationFailed:
		// The backend rejected the order with a fresh reconciliation; fall
		// back to review and show the updated line issues. No order was
		// created.
		s.Step = model.StepReview
		s.Reconciliation = out.Reconciliation
		s.Pricing = pricing.Compute(out.Reconciliation)
		s.Error = "Your cart changed while you were checking out. Review the updated items."
	case payment.OutcomeAuthRequired:
		s.Error = "Your session expired. Sign in to continue."
		return ErrSignInRequired
	default:
		s.Error = out.Reason
		if s.Error == "" {
			s.Error = "We couldn't place your order. Please try again."
		}
	}
	return nil
}

// abandon must be called with s.mu held.
func (o *Orchestrator) abandon(s *Session) {
	s.Step = model.StepAbandoned
	o.store.Delete(s.ID)
}
