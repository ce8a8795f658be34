package model

import "github.com/shopspring/decimal"

// StockStatusCode classifies one reconciled cart line against live inventory.
type StockStatusCode string

const (
	StatusInStock          StockStatusCode = "IN_STOCK"
	StatusLowStock         StockStatusCode = "LOW_STOCK"
	StatusOutOfStock       StockStatusCode = "OUT_OF_STOCK"
	StatusQuantityExceeded StockStatusCode = "QUANTITY_EXCEEDED"
	StatusProductNotFound  StockStatusCode = "PRODUCT_NOT_FOUND"
	StatusVariantNotFound  StockStatusCode = "VARIANT_NOT_FOUND"
	StatusItemNotInCart    StockStatusCode = "ITEM_NOT_IN_CART"
)

func (c StockStatusCode) Valid() bool {
	switch c {
	case StatusInStock, StatusLowStock, StatusOutOfStock, StatusQuantityExceeded,
		StatusProductNotFound, StatusVariantNotFound, StatusItemNotInCart:
		return true
	}
	return false
}

// Eligible reports whether a line with this code may proceed to checkout.
func (c StockStatusCode) Eligible() bool {
	return c == StatusInStock || c == StatusLowStock
}

// Action returns the UI hint derived one-to-one from the status code.
func (c StockStatusCode) Action() LineAction {
	switch c {
	case StatusInStock:
		return ActionProceed
	case StatusLowStock:
		return ActionProceedWithCaution
	case StatusQuantityExceeded:
		return ActionReduceQuantity
	default:
		// OUT_OF_STOCK, not-found and not-in-cart lines can only be removed.
		return ActionRemove
	}
}

func (c StockStatusCode) String() string {
	return string(c)
}

// LineAction is a non-binding hint for the presentation layer.
type LineAction string

const (
	ActionProceed            LineAction = "proceed"
	ActionProceedWithCaution LineAction = "proceed_with_caution"
	ActionRemove             LineAction = "remove"
	ActionReduceQuantity     LineAction = "reduce_quantity"
)

// OverallStatus summarizes a whole reconciliation.
type OverallStatus string

const (
	OverallReady           OverallStatus = "ready"
	OverallLowStockWarning OverallStatus = "low_stock_warning"
	OverallRequiresAction  OverallStatus = "requires_action"
)

// CheckoutItem is the client's checkout request for one line. Immutable once
// submitted to validation.
type CheckoutItem struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId,omitempty"`
	Quantity  int    `json:"quantity"`
}

// StockInfo is a snapshot of live inventory for one line.
type StockInfo struct {
	AvailableStock int  `json:"availableStock"`
	CartQuantity   int  `json:"cartQuantity"`
	MaxAllowed     *int `json:"maxAllowed,omitempty"`
	IsOutOfStock   bool `json:"isOutOfStock"`
	IsLowStock     bool `json:"isLowStock"`
}

type ProductDetails struct {
	Name     string          `json:"name"`
	ImageURL string          `json:"imageUrl,omitempty"`
	Price    decimal.Decimal `json:"price"`
}

type CartDetails struct {
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	ItemTotal decimal.Decimal `json:"itemTotal"`
}

// LineVerdict is the per-item reconciliation result.
type LineVerdict struct {
	ProductID            string          `json:"productId"`
	VariantID            string          `json:"variantId,omitempty"`
	Status               string          `json:"status"`
	StatusCode           StockStatusCode `json:"statusCode"`
	Message              string          `json:"message"`
	Action               LineAction      `json:"action"`
	CanProceedToCheckout bool            `json:"canProceedToCheckout"`
	StockInfo            *StockInfo      `json:"stockInfo,omitempty"`
	ProductDetails       ProductDetails  `json:"productDetails"`
	CartDetails          CartDetails     `json:"cartDetails"`
}

type CartSummary struct {
	TotalValidItems         int             `json:"totalValidItems"`
	TotalPrice              decimal.Decimal `json:"totalPrice"`
	ItemsRequiringAttention int             `json:"itemsRequiringAttention"`
	HasOutOfStockItems      bool            `json:"hasOutOfStockItems"`
	HasLowStockWarnings     bool            `json:"hasLowStockWarnings"`
	HasQuantityIssues       bool            `json:"hasQuantityIssues"`
}

type Recommendations struct {
	OutOfStockCount     int  `json:"outOfStockCount"`
	QuantityIssuesCount int  `json:"quantityIssuesCount"`
	LowStockCount       int  `json:"lowStockCount"`
	ActionRequired      bool `json:"actionRequired"`
}

// CartReconciliation is the aggregate verdict for a requested item list.
//
// Invariant: CanProceedToCheckout is true iff every line is eligible and at
// least one line exists.
type CartReconciliation struct {
	Success              bool            `json:"success"`
	OverallStatus        OverallStatus   `json:"overallStatus"`
	CanProceedToCheckout bool            `json:"canProceedToCheckout"`
	CheckoutMessage      string          `json:"checkoutMessage"`
	CartSummary          CartSummary     `json:"cartSummary"`
	Lines                []LineVerdict   `json:"lines"`
	Recommendations      Recommendations `json:"recommendations"`
}

// EligibleLines returns the lines that may proceed to checkout.
func (r *CartReconciliation) EligibleLines() []LineVerdict {
	out := make([]LineVerdict, 0, len(r.Lines))
	for _, l := range r.Lines {
		if l.CanProceedToCheckout {
			out = append(out, l)
		}
	}
	return out
}
