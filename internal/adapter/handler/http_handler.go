package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/sarismart-cart/internal/core/domain"
	"github.com/rl1809/sarismart-cart/internal/core/service"
)

type HTTPHandler struct {
	cartService *service.CartService
	logger      *zap.Logger
}

type CreateCartHTTPRequest struct {
	Name string `json:"name"`
}

type AddItemHTTPRequest struct {
	ProductID string `json:"productId"`
	Quantity  *int   `json:"quantity,omitempty"`
}

type UpdateQuantityHTTPRequest struct {
	Quantity int `json:"quantity"`
}

type CartItemsHTTPResponse struct {
	Items []domain.CartItem `json:"items"`
	Total decimal.Decimal   `json:"total"`
}

type MessageHTTPResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func NewHTTPHandler(cartService *service.CartService, logger *zap.Logger) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHandler{cartService: cartService, logger: logger}
}

// Routes mounts every cart operation on r.
func (h *HTTPHandler) Routes(r chi.Router) {
	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Post("/reset", h.Reset)
		r.Route("/stores/{storeID}/carts", func(r chi.Router) {
			r.Get("/", h.ListCarts)
			r.Post("/", h.CreateCart)
			r.Route("/{cartID}", func(r chi.Router) {
				r.Get("/", h.GetCart)
				r.Delete("/", h.DeleteCart)
				r.Post("/checkout", h.Checkout)
				r.Get("/items", h.GetCartItems)
				r.Post("/items", h.AddItem)
				r.Put("/items/{itemID}", h.UpdateItemQuantity)
				r.Delete("/items/{itemID}", h.RemoveItem)
			})
		})
	})
}

func (h *HTTPHandler) CreateCart(w http.ResponseWriter, r *http.Request) {
	var req CreateCartHTTPRequest
	// the body is optional, an empty one means a default name
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cart, err := h.cartService.CreateCart(r.Context(), chi.URLParam(r, "storeID"), req.Name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cart)
}

func (h *HTTPHandler) ListCarts(w http.ResponseWriter, r *http.Request) {
	carts, err := h.cartService.ListCartsForStore(r.Context(), chi.URLParam(r, "storeID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, carts)
}

func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cartService.GetCart(r.Context(), chi.URLParam(r, "cartID"), chi.URLParam(r, "storeID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if cart == nil {
		writeMessage(w, http.StatusNotFound, "cart not found")
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *HTTPHandler) DeleteCart(w http.ResponseWriter, r *http.Request) {
	if err := h.cartService.DeleteCart(r.Context(), chi.URLParam(r, "cartID"), chi.URLParam(r, "storeID")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) GetCartItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.cartService.GetCartItems(r.Context(), chi.URLParam(r, "cartID"), chi.URLParam(r, "storeID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CartItemsHTTPResponse{Items: items, Total: service.Total(items)})
}

// AddItem defaults the quantity to 1 when the field is omitted.
func (h *HTTPHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProductID == "" {
		writeMessage(w, http.StatusBadRequest, "missing required fields")
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	err := h.cartService.AddItemToCart(r.Context(), chi.URLParam(r, "cartID"), chi.URLParam(r, "storeID"), req.ProductID, quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "item added")
}

func (h *HTTPHandler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.cartService.UpdateCartItemQuantity(r.Context(),
		chi.URLParam(r, "cartID"), chi.URLParam(r, "storeID"), chi.URLParam(r, "itemID"), req.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "quantity updated")
}

func (h *HTTPHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	err := h.cartService.RemoveCartItem(r.Context(),
		chi.URLParam(r, "cartID"), chi.URLParam(r, "storeID"), chi.URLParam(r, "itemID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	result, err := h.cartService.Checkout(r.Context(), chi.URLParam(r, "cartID"), chi.URLParam(r, "storeID"))
	if err != nil {
		status, _ := statusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("checkout failed", zap.Error(err))
		}
		writeJSON(w, status, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *HTTPHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.cartService.Reset(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, err error) {
	status, message := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
	}
	writeMessage(w, status, message)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidQuantity):
		return http.StatusBadRequest, "invalid quantity"
	case errors.Is(err, service.ErrCartNotFound):
		return http.StatusNotFound, "cart not found"
	case errors.Is(err, service.ErrItemNotFound):
		return http.StatusNotFound, "item not found"
	case errors.Is(err, service.ErrProductNotFound):
		return http.StatusUnprocessableEntity, "product not found"
	case errors.Is(err, service.ErrEmptyCart):
		return http.StatusUnprocessableEntity, "cart is empty"
	case errors.Is(err, service.ErrInsufficientStock):
		return http.StatusGone, "sold out"
	case errors.Is(err, service.ErrExternalService):
		return http.StatusBadGateway, "product service unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, MessageHTTPResponse{Success: status < http.StatusBadRequest, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
