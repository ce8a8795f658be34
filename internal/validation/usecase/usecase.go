package usecase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/omnishop/checkout-service/internal/commerce"
	"github.com/omnishop/checkout-service/internal/model"
	"github.com/omnishop/checkout-service/internal/validation"
)

type cartValidationUseCase struct {
	cart              commerce.CartService
	lowStockThreshold int
	logger            *zap.Logger
}

func NewCartValidationUseCase(cart commerce.CartService, lowStockThreshold int, log *zap.Logger) validation.UseCase {
	return &cartValidationUseCase{
		cart:              cart,
		lowStockThreshold: lowStockThreshold,
		logger:            log,
	}
}

// Reconcile fetches the live stock snapshot for the requested items and
// classifies every line. The backend response is normalized here so the
// classification rules below stay authoritative even when the backend omits
// or disagrees on derived fields.
func (uc *cartValidationUseCase) Reconcile(ctx context.Context, items []model.CheckoutItem) (*model.CartReconciliation, error) {
	if len(items) == 0 {
		return nil, validation.ErrEmptyCart
	}

	rec, err := uc.cart.CheckProductsInCart(ctx, items)
	if err != nil {
		return nil, fmt.Errorf("check products in cart: %w", err)
	}

	for i := range rec.Lines {
		uc.classifyLine(&rec.Lines[i])
	}
	uc.aggregate(rec)

	uc.logger.Debug("cart reconciled",
		zap.Int("lines", len(rec.Lines)),
		zap.String("overall_status", string(rec.OverallStatus)),
		zap.Bool("can_proceed", rec.CanProceedToCheckout),
	)
	return rec, nil
}

// classifyLine applies the eligibility rules in priority order: not-found
// beats out-of-stock beats quantity-exceeded beats low-stock.
func (uc *cartValidationUseCase) classifyLine(l *model.LineVerdict) {
	code := l.StatusCode

	switch {
	case code == model.StatusProductNotFound,
		code == model.StatusVariantNotFound,
		code == model.StatusItemNotInCart:
		// Only the backend can know these; keep them.
	case l.StockInfo == nil:
		code = model.StatusProductNotFound
	case l.StockInfo.AvailableStock == 0:
		code = model.StatusOutOfStock
	case l.StockInfo.CartQuantity > l.StockInfo.AvailableStock:
		code = model.StatusQuantityExceeded
	case l.StockInfo.AvailableStock <= uc.lowStockThreshold:
		code = model.StatusLowStock
	default:
		code = model.StatusInStock
	}

	l.StatusCode = code
	l.Action = code.Action()
	l.CanProceedToCheckout = code.Eligible()
	l.Message = uc.lineMessage(l)
	if l.CanProceedToCheckout {
		l.Status = "available"
	} else {
		l.Status = "unavailable"
	}
	if l.StockInfo != nil {
		l.StockInfo.IsOutOfStock = code == model.StatusOutOfStock
		l.StockInfo.IsLowStock = code == model.StatusLowStock
	}
}

func (uc *cartValidationUseCase) lineMessage(l *model.LineVerdict) string {
	switch l.StatusCode {
	case model.StatusInStock:
		return "In stock"
	case model.StatusLowStock:
		return fmt.Sprintf("Only %d left in stock", l.StockInfo.AvailableStock)
	case model.StatusOutOfStock:
		return "This item is out of stock"
	case model.StatusQuantityExceeded:
		return fmt.Sprintf("Only %d available, you requested %d", l.StockInfo.AvailableStock, l.StockInfo.CartQuantity)
	case model.StatusVariantNotFound:
		return "Selected option is no longer available"
	case model.StatusItemNotInCart:
		return "Item is not in your cart"
	default:
		return "Product is no longer available"
	}
}

// aggregate recomputes the cart summary, recommendations and the cart-level
// eligibility signal by folding over the classified lines. A cart with zero
// eligible lines can never proceed.
func (uc *cartValidationUseCase) aggregate(rec *model.CartReconciliation) {
	var (
		summary  model.CartSummary
		recs     model.Recommendations
		eligible int
		lowStock bool
	)
	summary.TotalPrice = decimal.Zero

	for _, l := range rec.Lines {
		switch l.StatusCode {
		case model.StatusOutOfStock:
			summary.HasOutOfStockItems = true
			recs.OutOfStockCount++
		case model.StatusQuantityExceeded:
			summary.HasQuantityIssues = true
			recs.QuantityIssuesCount++
		case model.StatusLowStock:
			summary.HasLowStockWarnings = true
			recs.LowStockCount++
			lowStock = true
		}
		if l.CanProceedToCheckout {
			eligible++
			summary.TotalValidItems++
			summary.TotalPrice = summary.TotalPrice.Add(l.CartDetails.ItemTotal)
		} else {
			summary.ItemsRequiringAttention++
		}
	}

	recs.ActionRequired = summary.ItemsRequiringAttention > 0

	rec.Success = true
	rec.CartSummary = summary
	rec.Recommendations = recs
	rec.CanProceedToCheckout = eligible > 0 && summary.ItemsRequiringAttention == 0

	switch {
	case summary.ItemsRequiringAttention > 0:
		rec.OverallStatus = model.OverallRequiresAction
		rec.CheckoutMessage = "Some items need attention before checkout"
	case lowStock:
		rec.OverallStatus = model.OverallLowStockWarning
		rec.CheckoutMessage = "Some items are low in stock, checkout soon"
	default:
		rec.OverallStatus = model.OverallReady
		rec.CheckoutMessage = "All items are in stock"
	}
}
