// Package commerce wraps the remote commerce API the storefront depends on.
// All durable state (inventory, orders, addresses) lives behind it; this
// service only orchestrates.
package commerce

import (
	"context"

	"github.com/omnishop/checkout-service/internal/model"
)

// CartService is the live-stock reconciliation backend.
type CartService interface {
	CheckProductsInCart(ctx context.Context, items []model.CheckoutItem) (*model.CartReconciliation, error)
}

// OrderService creates orders and payment intents. The payment gateway
// protocol behind PaymentURL is opaque to this service.
type OrderService interface {
	CreateOrder(ctx context.Context, req *model.CreateOrderRequest, idempotencyKey string) (*model.CreateOrderResponse, error)
}

// AddressService is CRUD over delivery addresses.
type AddressService interface {
	ListAddresses(ctx context.Context, userID string) ([]model.Address, error)
	CreateAddress(ctx context.Context, userID string, input *model.AddressInput) (*model.Address, error)
	UpdateAddress(ctx context.Context, addressID string, input *model.AddressInput) (*model.Address, error)
	DeleteAddress(ctx context.Context, addressID string) error
}
