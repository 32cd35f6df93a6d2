package order

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/shopdientu/electro-shop-backend/internal/cart"
	"github.com/shopdientu/electro-shop-backend/internal/pricing"
	"github.com/shopdientu/electro-shop-backend/internal/user"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the order endpoints. optionalAuth lets guests
// check out and track; auth guards account and admin operations.
func (h *Handler) RegisterRoutes(app *fiber.App, auth, optionalAuth fiber.Handler) {
	app.Post("/api/v1/orders", optionalAuth, h.placeOrder)
	app.Get("/api/v1/orders/track", h.track)
	app.Get("/api/v1/orders", auth, h.listMyOrders)
	app.Get("/api/v1/orders/:id<[0-9]+>", auth, h.getOrder)
	app.Post("/api/v1/orders/:id<[0-9]+>/cancel", auth, h.cancelOrder)
	app.Put("/api/v1/admin/orders/:id<[0-9]+>/status", auth, h.updateStatus)
}

func requesterFromCtx(c *fiber.Ctx) Requester {
	req := Requester{Admin: user.IsAdmin(c)}
	if userID, err := user.GetUserIDFromCtx(c); err == nil {
		req.UserID = &userID
	}
	return req
}

type placeOrderRequest struct {
	Recipient       string `json:"recipient"`
	Phone           string `json:"phone"`
	Address         string `json:"address"`
	Note            string `json:"note"`
	PaymentMethodID int    `json:"paymentMethodID"`
	VoucherCode     string `json:"voucherCode"`
	Email           string `json:"email"`
}

func (h *Handler) placeOrder(c *fiber.Ctx) error {
	payload := new(placeOrderRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	params := PlaceOrderParams{
		CartKey:         cart.KeyFromCtx(c),
		Recipient:       payload.Recipient,
		Phone:           payload.Phone,
		Address:         payload.Address,
		Note:            payload.Note,
		PaymentMethodID: payload.PaymentMethodID,
		VoucherCode:     payload.VoucherCode,
		GuestEmail:      payload.Email,
	}
	if userID, err := user.GetUserIDFromCtx(c); err == nil {
		params.UserID = &userID
	}

	o, err := h.service.PlaceOrder(c.Context(), params)
	if err != nil {
		var stockErr *InsufficientStockError
		switch {
		case errors.As(err, &stockErr):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message":   stockErr.Error(),
				"productID": stockErr.ProductID,
				"available": stockErr.Available,
			})
		case errors.Is(err, ErrEmptyCart),
			errors.Is(err, pricing.ErrInvalidCode),
			errors.Is(err, pricing.ErrMinimumNotMet):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
		}
	}
	return c.Status(fiber.StatusCreated).JSON(orderResponse(o))
}

func (h *Handler) listMyOrders(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": err.Error()})
	}
	orders, err := h.service.ListByUser(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	out := make([]fiber.Map, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderResponse(o))
	}
	return c.JSON(out)
}

func (h *Handler) getOrder(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid order id"})
	}

	o, err := h.service.GetByID(c.Context(), id, requesterFromCtx(c))
	if err != nil {
		return statusError(c, err)
	}
	return c.JSON(orderResponse(o))
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) cancelOrder(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid order id"})
	}
	payload := new(cancelOrderRequest)
	c.BodyParser(payload) // body is optional

	o, err := h.service.CancelOrder(c.Context(), id, requesterFromCtx(c), payload.Reason)
	if err != nil {
		return statusError(c, err)
	}
	return c.JSON(orderResponse(o))
}

func (h *Handler) track(c *fiber.Ctx) error {
	number := c.Query("number")
	email := c.Query("email")
	if number == "" || email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "number and email are required"})
	}

	o, history, err := h.service.Track(c.Context(), number, email)
	if err != nil {
		return statusError(c, err)
	}
	resp := orderResponse(o)
	resp["history"] = history
	return c.JSON(resp)
}

type updateStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

func (h *Handler) updateStatus(c *fiber.Ctx) error {
	if !user.IsAdmin(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "admin only"})
	}
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid order id"})
	}
	payload := new(updateStatusRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	o, err := h.service.UpdateStatus(c.Context(), id, Status(payload.Status), payload.Note)
	if err != nil {
		return statusError(c, err)
	}
	return c.JSON(orderResponse(o))
}

func statusError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, ErrUnauthorized):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, ErrAlreadyProcessed):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, ErrInvalidTransition):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"message": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
}

func orderResponse(o Order) fiber.Map {
	return fiber.Map{
		"orderID":         o.ID,
		"orderNumber":     o.Number,
		"recipient":       o.Recipient,
		"phone":           o.Phone,
		"address":         o.Address,
		"note":            o.Note,
		"paymentMethodID": o.PaymentMethodID,
		"subtotal":        o.Subtotal,
		"discount":        o.Discount,
		"total":           o.Total,
		"voucherCode":     o.VoucherCode,
		"status":          o.Status,
		"statusDisplay":   o.Status.Display(),
		"createdAt":       o.CreatedAt,
		"details":         o.Details,
	}
}
