package handler

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/rl1809/sarismart-cart/internal/core/service"
)

func startGRPC(t *testing.T, products *stubProducts, opts ...service.Option) (*CartServiceClient, *grpc.ClientConn, *service.CartService) {
	t.Helper()
	svc := newTestCartService(t, products, opts...)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterCartServiceServer(srv, NewGRPCHandler(svc, nil))
	healthpb.RegisterHealthServer(srv, health.NewServer())
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return NewCartServiceClient(conn), conn, svc
}

func TestGRPC_Health(t *testing.T) {
	_, conn, _ := startGRPC(t, newStubProducts())

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}

func TestGRPC_CartFlow(t *testing.T) {
	client, _, _ := startGRPC(t, newStubProducts())
	ctx := context.Background()

	created, err := client.CreateCart(ctx, &CreateCartRequest{StoreID: testStore, Name: "Front"})
	require.NoError(t, err)
	require.NotNil(t, created.Cart)
	ref := &CartRequest{StoreID: testStore, CartID: created.Cart.ID}

	_, err = client.AddItem(ctx, &AddItemRequest{StoreID: testStore, CartID: ref.CartID, ProductID: "p1"})
	require.NoError(t, err)
	_, err = client.AddItem(ctx, &AddItemRequest{StoreID: testStore, CartID: ref.CartID, ProductID: "p1", Quantity: 1})
	require.NoError(t, err)
	_, err = client.AddItem(ctx, &AddItemRequest{StoreID: testStore, CartID: ref.CartID, ProductID: "p2", Quantity: 1})
	require.NoError(t, err)

	got, err := client.GetCart(ctx, ref)
	require.NoError(t, err)
	assert.True(t, got.Found)
	assert.Equal(t, 2, got.Cart.ItemCount)

	items, err := client.GetCartItems(ctx, ref)
	require.NoError(t, err)
	require.Len(t, items.Items, 2)
	assert.Equal(t, "25", items.Total.String())

	_, err = client.UpdateItemQuantity(ctx, &UpdateQuantityRequest{StoreID: testStore, CartID: ref.CartID, ItemID: items.Items[1].ItemID, Quantity: 0})
	require.NoError(t, err)
	got, err = client.GetCart(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Cart.ItemCount)

	out, err := client.Checkout(ctx, ref)
	require.NoError(t, err)
	assert.True(t, out.Result.Success)
	require.NotNil(t, out.Result.Sale)
	assert.Equal(t, "20", out.Result.Sale.Total.String())

	got, err = client.GetCart(ctx, ref)
	require.NoError(t, err)
	assert.False(t, got.Found)

	list, err := client.ListCarts(ctx, &ListCartsRequest{StoreID: testStore})
	require.NoError(t, err)
	assert.Empty(t, list.Carts)
}

func TestGRPC_StatusCodes(t *testing.T) {
	client, _, svc := startGRPC(t, newStubProducts(), service.WithStockGuard(true))
	ctx := context.Background()
	cart, err := svc.CreateCart(ctx, testStore, "")
	require.NoError(t, err)

	_, err = client.AddItem(ctx, &AddItemRequest{StoreID: testStore, CartID: "ghost", ProductID: "p1"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.AddItem(ctx, &AddItemRequest{StoreID: testStore, CartID: cart.ID, ProductID: "p1", Quantity: -2})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.AddItem(ctx, &AddItemRequest{StoreID: testStore, CartID: cart.ID, ProductID: "nope"})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = client.CreateCart(ctx, &CreateCartRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	out, err := client.Checkout(ctx, &CartRequest{StoreID: testStore, CartID: cart.ID})
	require.NoError(t, err)
	assert.False(t, out.Result.Success)
	assert.Equal(t, "cart is empty", out.Message)
}

func TestGRPC_WatchCartItems(t *testing.T) {
	client, _, svc := startGRPC(t, newStubProducts())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cart, err := svc.CreateCart(ctx, testStore, "")
	require.NoError(t, err)

	stream, err := client.WatchCartItems(ctx, &CartRequest{StoreID: testStore, CartID: cart.ID})
	require.NoError(t, err)

	first, err := stream.Recv()
	require.NoError(t, err)
	assert.Empty(t, first.Items)

	require.NoError(t, svc.AddItemToCart(ctx, cart.ID, testStore, "p1", 2))

	for {
		msg, err := stream.Recv()
		require.NoError(t, err)
		if len(msg.Items) == 1 && msg.Items[0].Quantity == 2 {
			assert.Equal(t, "20", msg.Total.String())
			break
		}
	}
}
