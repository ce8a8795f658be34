package validation

import (
	"context"
	"errors"

	"github.com/omnishop/checkout-service/internal/model"
)

// ErrEmptyCart means a caller tried to reconcile a checkout with no items.
// That is a programmer error on the presentation side; sessions must not be
// created from it.
var ErrEmptyCart = errors.New("checkout requires at least one item")

// UseCase reconciles a requested item list against live stock. Read-only, no
// caching: callers must reconcile again after any cart mutation, the backend
// is the source of truth. No internal retries either; retry policy belongs to
// the orchestrator.
type UseCase interface {
	Reconcile(ctx context.Context, items []model.CheckoutItem) (*model.CartReconciliation, error)
}
