package handler

import (
	"context"

	"google.golang.org/grpc"
)

const CartServiceName = "sarismart.cart.v1.CartService"

// CartServiceServer is the server side of sarismart.cart.v1.CartService.
type CartServiceServer interface {
	CreateCart(context.Context, *CreateCartRequest) (*CartResponse, error)
	ListCarts(context.Context, *ListCartsRequest) (*ListCartsResponse, error)
	GetCart(context.Context, *CartRequest) (*CartResponse, error)
	DeleteCart(context.Context, *CartRequest) (*Empty, error)
	AddItem(context.Context, *AddItemRequest) (*Empty, error)
	UpdateItemQuantity(context.Context, *UpdateQuantityRequest) (*Empty, error)
	RemoveItem(context.Context, *RemoveItemRequest) (*Empty, error)
	GetCartItems(context.Context, *CartRequest) (*CartItemsResponse, error)
	Checkout(context.Context, *CartRequest) (*CheckoutResponse, error)
	Reset(context.Context, *ResetRequest) (*Empty, error)
	WatchCartItems(*CartRequest, grpc.ServerStreamingServer[CartItemsResponse]) error
}

var CartServiceDesc = grpc.ServiceDesc{
	ServiceName: CartServiceName,
	HandlerType: (*CartServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateCart", CartServiceServer.CreateCart),
		unary("ListCarts", CartServiceServer.ListCarts),
		unary("GetCart", CartServiceServer.GetCart),
		unary("DeleteCart", CartServiceServer.DeleteCart),
		unary("AddItem", CartServiceServer.AddItem),
		unary("UpdateItemQuantity", CartServiceServer.UpdateItemQuantity),
		unary("RemoveItem", CartServiceServer.RemoveItem),
		unary("GetCartItems", CartServiceServer.GetCartItems),
		unary("Checkout", CartServiceServer.Checkout),
		unary("Reset", CartServiceServer.Reset),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchCartItems",
			Handler:       watchCartItemsHandler,
			ServerStreams: true,
		},
	},
	Metadata: "sarismart/cart/v1/cart_service",
}

func RegisterCartServiceServer(s grpc.ServiceRegistrar, srv CartServiceServer) {
	s.RegisterService(&CartServiceDesc, srv)
}

func fullMethod(name string) string {
	return "/" + CartServiceName + "/" + name
}

func unary[Req, Resp any](name string, call func(CartServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(CartServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(CartServiceServer), ctx, req.(*Req))
			})
		},
	}
}

func watchCartItemsHandler(srv any, stream grpc.ServerStream) error {
	in := new(CartRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(CartServiceServer).WatchCartItems(in, &grpc.GenericServerStream[CartRequest, CartItemsResponse]{ServerStream: stream})
}

// CartServiceClient calls sarismart.cart.v1.CartService with the JSON codec.
type CartServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewCartServiceClient(cc grpc.ClientConnInterface) *CartServiceClient {
	return &CartServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, c *CartServiceClient, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(JSONCodecName)}, opts...)
	if err := c.cc.Invoke(ctx, fullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CartServiceClient) CreateCart(ctx context.Context, in *CreateCartRequest, opts ...grpc.CallOption) (*CartResponse, error) {
	return invoke[CartResponse](ctx, c, "CreateCart", in, opts)
}

func (c *CartServiceClient) ListCarts(ctx context.Context, in *ListCartsRequest, opts ...grpc.CallOption) (*ListCartsResponse, error) {
	return invoke[ListCartsResponse](ctx, c, "ListCarts", in, opts)
}

func (c *CartServiceClient) GetCart(ctx context.Context, in *CartRequest, opts ...grpc.CallOption) (*CartResponse, error) {
	return invoke[CartResponse](ctx, c, "GetCart", in, opts)
}

func (c *CartServiceClient) DeleteCart(ctx context.Context, in *CartRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c, "DeleteCart", in, opts)
}

func (c *CartServiceClient) AddItem(ctx context.Context, in *AddItemRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c, "AddItem", in, opts)
}

func (c *CartServiceClient) UpdateItemQuantity(ctx context.Context, in *UpdateQuantityRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c, "UpdateItemQuantity", in, opts)
}

func (c *CartServiceClient) RemoveItem(ctx context.Context, in *RemoveItemRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c, "RemoveItem", in, opts)
}

func (c *CartServiceClient) GetCartItems(ctx context.Context, in *CartRequest, opts ...grpc.CallOption) (*CartItemsResponse, error) {
	return invoke[CartItemsResponse](ctx, c, "GetCartItems", in, opts)
}

func (c *CartServiceClient) Checkout(ctx context.Context, in *CartRequest, opts ...grpc.CallOption) (*CheckoutResponse, error) {
	return invoke[CheckoutResponse](ctx, c, "Checkout", in, opts)
}

func (c *CartServiceClient) Reset(ctx context.Context, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c, "Reset", &ResetRequest{}, opts)
}

func (c *CartServiceClient) WatchCartItems(ctx context.Context, in *CartRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[CartItemsResponse], error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(JSONCodecName)}, opts...)
	stream, err := c.cc.NewStream(ctx, &CartServiceDesc.Streams[0], fullMethod("WatchCartItems"), opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[CartRequest, CartItemsResponse]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
