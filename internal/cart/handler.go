package cart

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/shopdientu/electro-shop-backend/internal/pricing"
	"github.com/shopdientu/electro-shop-backend/internal/product"
	"github.com/shopdientu/electro-shop-backend/internal/user"
)

// SessionCookie carries the anonymous cart session token.
const SessionCookie = "cart_session"

// BuyerSource resolves the discount-relevant view of the current user.
// Satisfied by user.Service.
type BuyerSource interface {
	BuyerFor(ctx context.Context, userID int) (pricing.Buyer, error)
}

type Handler struct {
	service *Service
	catalog Catalog
	buyers  BuyerSource
}

func NewHandler(service *Service, catalog Catalog, buyers BuyerSource) *Handler {
	return &Handler{service: service, catalog: catalog, buyers: buyers}
}

// RegisterRoutes mounts the cart endpoints. auth should be an optional
// JWT middleware: anonymous requests fall back to a session-cookie cart.
func (h *Handler) RegisterRoutes(app *fiber.App, auth fiber.Handler) {
	app.Get("/api/v1/cart", auth, h.getCart)
	app.Post("/api/v1/cart/items", auth, h.addItem)
	app.Put("/api/v1/cart/items/:productId<[0-9]+>", auth, h.setQuantity)
	app.Delete("/api/v1/cart/items/:productId<[0-9]+>", auth, h.removeItem)
	app.Delete("/api/v1/cart", auth, h.clearCart)
}

// KeyFromCtx returns the cart key for the request: the user key when a
// JWT identity is present, otherwise the session-cookie key (setting the
// cookie on first use).
func KeyFromCtx(c *fiber.Ctx) string {
	if userID, err := user.GetUserIDFromCtx(c); err == nil {
		return UserKey(userID)
	}
	return SessionKey(sessionToken(c))
}

func sessionToken(c *fiber.Ctx) string {
	if tok := c.Cookies(SessionCookie); tok != "" {
		return tok
	}
	tok := uuid.NewString()
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    tok,
		HTTPOnly: true,
		MaxAge:   int((30 * time.Minute).Seconds()),
	})
	return tok
}

func (h *Handler) buyerFromCtx(c *fiber.Ctx) pricing.Buyer {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return pricing.Buyer{}
	}
	buyer, err := h.buyers.BuyerFor(c.Context(), userID)
	if err != nil {
		// an unknown rank never blocks shopping; the buyer just gets no discount
		return pricing.Buyer{}
	}
	return buyer
}

type addItemRequest struct {
	ProductID int `json:"productID"`
	Quantity  int `json:"quantity"`
}

func (h *Handler) addItem(c *fiber.Ctx) error {
	payload := new(addItemRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.Quantity == 0 {
		payload.Quantity = 1
	}
	if payload.ProductID <= 0 || payload.Quantity < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid productID or quantity"})
	}

	// stock pre-check belongs to the caller of the cart store; the final
	// word is the checkout transaction
	key := KeyFromCtx(c)
	p, err := h.catalog.GetByID(c.Context(), payload.ProductID)
	if err != nil {
		if err == product.ErrNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "product not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	snap, err := h.service.Get(c.Context(), key)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	inCart := 0
	if i := snap.find(payload.ProductID); i >= 0 {
		inCart = snap.Items[i].Quantity
	}
	if inCart+payload.Quantity > p.Stock {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message":   "not enough stock",
			"available": p.Stock,
		})
	}

	snap, err = h.service.Add(c.Context(), key, h.buyerFromCtx(c), payload.ProductID, payload.Quantity)
	if err != nil {
		switch err {
		case ErrInvalidQuantity:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
		case product.ErrNotFound:
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "product not found"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
		}
	}
	return c.JSON(snap)
}

func (h *Handler) getCart(c *fiber.Ctx) error {
	snap, err := h.service.Get(c.Context(), KeyFromCtx(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(fiber.Map{
		"items":     snap.Items,
		"total":     snap.Total(),
		"itemCount": snap.ItemCount(),
	})
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) setQuantity(c *fiber.Ctx) error {
	productID, err := strconv.Atoi(c.Params("productId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid productId"})
	}
	payload := new(setQuantityRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	snap, err := h.service.SetQuantity(c.Context(), KeyFromCtx(c), productID, payload.Quantity)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(snap)
}

func (h *Handler) removeItem(c *fiber.Ctx) error {
	productID, err := strconv.Atoi(c.Params("productId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid productId"})
	}

	snap, err := h.service.Remove(c.Context(), KeyFromCtx(c), productID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(snap)
}

func (h *Handler) clearCart(c *fiber.Ctx) error {
	if err := h.service.Clear(c.Context(), KeyFromCtx(c)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
