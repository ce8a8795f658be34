package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/omnishop/checkout-service/internal/checkout"
	"github.com/omnishop/checkout-service/internal/commerce"
	"github.com/omnishop/checkout-service/internal/model"
	"github.com/omnishop/checkout-service/internal/validation"
	"github.com/omnishop/checkout-service/pkg/metrics"
)

// CheckoutHandler adapts the presentation layer's REST calls into
// orchestrator actions. All checkout semantics live in the orchestrator;
// this layer only translates.
type CheckoutHandler struct {
	orchestrator *checkout.Orchestrator
	addresses    commerce.AddressService
	metrics      *metrics.Metrics
	logger       *zap.Logger
}

func NewCheckoutHandler(
	orchestrator *checkout.Orchestrator,
	addresses commerce.AddressService,
	m *metrics.Metrics,
	log *zap.Logger,
) *CheckoutHandler {
	return &CheckoutHandler{
		orchestrator: orchestrator,
		addresses:    addresses,
		metrics:      m,
		logger:       log,
	}
}

func (h *CheckoutHandler) Register(e *echo.Echo) {
	if h.metrics != nil {
		e.Use(h.measure)
		e.GET("/metrics", echo.WrapHandler(h.metrics.Handler()))
	}
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	g := e.Group("/api/v1")
	g.POST("/checkout/sessions", h.startSession)
	g.GET("/checkout/sessions/:id", h.getSession)
	g.POST("/checkout/sessions/:id/actions", h.applyAction)
	g.DELETE("/checkout/sessions/:id", h.abandonSession)

	g.GET("/addresses", h.listAddresses)
	g.POST("/addresses", h.createAddress)
	g.PUT("/addresses/:id", h.updateAddress)
	g.DELETE("/addresses/:id", h.deleteAddress)
}

func (h *CheckoutHandler) measure(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		status := c.Response().Status
		if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
		}
		h.metrics.Requests.WithLabelValues(c.Path(), strconv.Itoa(status)).Inc()
		h.metrics.LatencyMS.WithLabelValues(c.Path()).Observe(float64(time.Since(start).Milliseconds()))
		return err
	}
}

type startSessionRequest struct {
	UserID        string               `json:"userId"`
	Authenticated bool                 `json:"authenticated"`
	Items         []model.CheckoutItem `json:"items"`
}

type actionRequest struct {
	Type      string              `json:"type"`
	AddressID string              `json:"addressId,omitempty"`
	ProductID string              `json:"productId,omitempty"`
	VariantID string              `json:"variantId,omitempty"`
	Method    model.PaymentMethod `json:"method,omitempty"`
	Code      string              `json:"code,omitempty"`
}

type sessionResponse struct {
	Session *checkout.SessionView `json:"session,omitempty"`
	Error   string                `json:"error,omitempty"`
}

func (h *CheckoutHandler) startSession(c echo.Context) error {
	var req startSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	view, err := h.orchestrator.Start(c.Request().Context(), req.UserID, req.Authenticated, req.Items)
	if err != nil {
		return h.respondError(c, view, err)
	}
	return c.JSON(http.StatusCreated, sessionResponse{Session: view})
}

func (h *CheckoutHandler) getSession(c echo.Context) error {
	view, err := h.orchestrator.Get(c.Param("id"))
	if err != nil {
		return h.respondError(c, view, err)
	}
	return c.JSON(http.StatusOK, sessionResponse{Session: view})
}

func (h *CheckoutHandler) applyAction(c echo.Context) error {
	var req actionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	action, err := toAction(req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	view, err := h.orchestrator.Apply(c.Request().Context(), c.Param("id"), action)
	if err != nil {
		return h.respondError(c, view, err)
	}
	return c.JSON(http.StatusOK, sessionResponse{Session: view})
}

func (h *CheckoutHandler) abandonSession(c echo.Context) error {
	view, err := h.orchestrator.Apply(c.Request().Context(), c.Param("id"), checkout.Abandon{})
	if err != nil && !errors.Is(err, checkout.ErrSessionTerminal) {
		return h.respondError(c, view, err)
	}
	return c.JSON(http.StatusOK, sessionResponse{Session: view})
}

func toAction(req actionRequest) (checkout.Action, error) {
	switch req.Type {
	case "select_address":
		return checkout.SelectAddress{AddressID: req.AddressID}, nil
	case "advance":
		return checkout.Advance{}, nil
	case "back":
		return checkout.Back{}, nil
	case "refresh":
		return checkout.Refresh{}, nil
	case "remove_item":
		return checkout.RemoveItem{ProductID: req.ProductID, VariantID: req.VariantID}, nil
	case "select_payment":
		return checkout.SelectPayment{Method: req.Method}, nil
	case "apply_coupon":
		return checkout.ApplyCoupon{Code: req.Code}, nil
	case "submit":
		return checkout.Submit{}, nil
	case "abandon":
		return checkout.Abandon{}, nil
	default:
		return nil, errors.New("unknown action type: " + req.Type)
	}
}

// respondError maps orchestrator errors onto HTTP statuses. Guard
// rejections still carry the session view so the client can render the
// updated error state.
func (h *CheckoutHandler) respondError(c echo.Context, view *checkout.SessionView, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, validation.ErrEmptyCart):
		status = http.StatusBadRequest
	case errors.Is(err, checkout.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, checkout.ErrSessionTerminal),
		errors.Is(err, checkout.ErrSignInRequired),
		errors.Is(err, checkout.ErrAddressRequired),
		errors.Is(err, checkout.ErrCartNotReady),
		errors.Is(err, checkout.ErrPaymentRequired),
		errors.Is(err, checkout.ErrDispatchInFlight),
		errors.Is(err, checkout.ErrInvalidAction):
		status = http.StatusConflict
	default:
		var apiErr *commerce.APIError
		if errors.As(err, &apiErr) {
			status = http.StatusBadGateway
		}
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("checkout request failed", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.JSON(status, sessionResponse{Session: view, Error: err.Error()})
}

func (h *CheckoutHandler) userID(c echo.Context) (string, error) {
	id := c.Request().Header.Get("X-User-ID")
	if id == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing X-User-ID header")
	}
	return id, nil
}

func (h *CheckoutHandler) listAddresses(c echo.Context) error {
	userID, err := h.userID(c)
	if err != nil {
		return err
	}
	addrs, err := h.addresses.ListAddresses(c.Request().Context(), userID)
	if err != nil {
		return h.mapAddressError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"addresses": addrs})
}

func (h *CheckoutHandler) createAddress(c echo.Context) error {
	userID, err := h.userID(c)
	if err != nil {
		return err
	}
	var input model.AddressInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	addr, err := h.addresses.CreateAddress(c.Request().Context(), userID, &input)
	if err != nil {
		return h.mapAddressError(err)
	}
	return c.JSON(http.StatusCreated, addr)
}

func (h *CheckoutHandler) updateAddress(c echo.Context) error {
	var input model.AddressInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	addr, err := h.addresses.UpdateAddress(c.Request().Context(), c.Param("id"), &input)
	if err != nil {
		return h.mapAddressError(err)
	}
	return c.JSON(http.StatusOK, addr)
}

func (h *CheckoutHandler) deleteAddress(c echo.Context) error {
	if err := h.addresses.DeleteAddress(c.Request().Context(), c.Param("id")); err != nil {
		return h.mapAddressError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CheckoutHandler) mapAddressError(err error) error {
	var apiErr *commerce.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.AuthRequired():
			return echo.NewHTTPError(http.StatusUnauthorized, apiErr.Message)
		case apiErr.StatusCode == http.StatusNotFound:
			return echo.NewHTTPError(http.StatusNotFound, apiErr.Message)
		case apiErr.StatusCode == http.StatusUnprocessableEntity:
			return echo.NewHTTPError(http.StatusUnprocessableEntity, apiErr.Message)
		}
	}
	return echo.NewHTTPError(http.StatusBadGateway, "address service unavailable")
}
