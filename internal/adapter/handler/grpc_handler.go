package handler

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rl1809/sarismart-cart/internal/core/service"
)

type GRPCHandler struct {
	cartService *service.CartService
	logger      *zap.Logger
}

var _ CartServiceServer = (*GRPCHandler)(nil)

func NewGRPCHandler(cartService *service.CartService, logger *zap.Logger) *GRPCHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GRPCHandler{cartService: cartService, logger: logger}
}

func (h *GRPCHandler) CreateCart(ctx context.Context, req *CreateCartRequest) (*CartResponse, error) {
	if req.StoreID == "" {
		return nil, status.Error(codes.InvalidArgument, "store id is required")
	}
	cart, err := h.cartService.CreateCart(ctx, req.StoreID, req.Name)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &CartResponse{Cart: &cart, Found: true}, nil
}

func (h *GRPCHandler) ListCarts(ctx context.Context, req *ListCartsRequest) (*ListCartsResponse, error) {
	carts, err := h.cartService.ListCartsForStore(ctx, req.StoreID)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &ListCartsResponse{Carts: carts}, nil
}

func (h *GRPCHandler) GetCart(ctx context.Context, req *CartRequest) (*CartResponse, error) {
	cart, err := h.cartService.GetCart(ctx, req.CartID, req.StoreID)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &CartResponse{Cart: cart, Found: cart != nil}, nil
}

func (h *GRPCHandler) DeleteCart(ctx context.Context, req *CartRequest) (*Empty, error) {
	if err := h.cartService.DeleteCart(ctx, req.CartID, req.StoreID); err != nil {
		return nil, h.toStatus(err)
	}
	return &Empty{}, nil
}

func (h *GRPCHandler) AddItem(ctx context.Context, req *AddItemRequest) (*Empty, error) {
	if req.ProductID == "" {
		return nil, status.Error(codes.InvalidArgument, "product id is required")
	}
	quantity := int(req.Quantity)
	if quantity == 0 {
		quantity = 1
	}
	if err := h.cartService.AddItemToCart(ctx, req.CartID, req.StoreID, req.ProductID, quantity); err != nil {
		return nil, h.toStatus(err)
	}
	return &Empty{}, nil
}

func (h *GRPCHandler) UpdateItemQuantity(ctx context.Context, req *UpdateQuantityRequest) (*Empty, error) {
	err := h.cartService.UpdateCartItemQuantity(ctx, req.CartID, req.StoreID, req.ItemID, int(req.Quantity))
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &Empty{}, nil
}

func (h *GRPCHandler) RemoveItem(ctx context.Context, req *RemoveItemRequest) (*Empty, error) {
	if err := h.cartService.RemoveCartItem(ctx, req.CartID, req.StoreID, req.ItemID); err != nil {
		return nil, h.toStatus(err)
	}
	return &Empty{}, nil
}

func (h *GRPCHandler) GetCartItems(ctx context.Context, req *CartRequest) (*CartItemsResponse, error) {
	items, err := h.cartService.GetCartItems(ctx, req.CartID, req.StoreID)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &CartItemsResponse{Items: items, Total: service.Total(items)}, nil
}

// Checkout reports business failures in the response, not as a status.
func (h *GRPCHandler) Checkout(ctx context.Context, req *CartRequest) (*CheckoutResponse, error) {
	result, err := h.cartService.Checkout(ctx, req.CartID, req.StoreID)
	if err != nil {
		if !errors.Is(err, service.ErrCheckoutFailed) {
			return nil, h.toStatus(err)
		}
		_, message := statusFor(err)
		return &CheckoutResponse{Result: result, Message: message}, nil
	}
	return &CheckoutResponse{Result: result, Message: "sale recorded"}, nil
}

func (h *GRPCHandler) Reset(ctx context.Context, _ *ResetRequest) (*Empty, error) {
	if err := h.cartService.Reset(ctx); err != nil {
		return nil, h.toStatus(err)
	}
	return &Empty{}, nil
}

func (h *GRPCHandler) WatchCartItems(req *CartRequest, stream grpc.ServerStreamingServer[CartItemsResponse]) error {
	ctx := stream.Context()
	updates, err := h.cartService.WatchCartItems(ctx, req.CartID, req.StoreID)
	if err != nil {
		return h.toStatus(err)
	}

	for items := range updates {
		if err := stream.Send(&CartItemsResponse{Items: items, Total: service.Total(items)}); err != nil {
			return err
		}
	}
	return ctx.Err()
}

func (h *GRPCHandler) toStatus(err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidQuantity):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrCartNotFound), errors.Is(err, service.ErrItemNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, service.ErrProductNotFound):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, service.ErrExternalService):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		h.logger.Error("grpc call failed", zap.Error(err))
		return status.Error(codes.Internal, "internal error")
	}
}
