package handler

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/rl1809/marketplace/internal/core/service"
)

func newTestGRPCClient(t *testing.T) (*MarketplaceClient, *testEnv) {
	t.Helper()

	env := newTestEnv(t)
	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer(NewGRPCHandler(env.ledger, env.verifier, nil))
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

	return NewMarketplaceClient(conn), env
}

func withToken(t *testing.T, s testSigner) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+s.token(t))
}

func TestGRPC_EndToEnd(t *testing.T) {
	client, env := newTestGRPCClient(t)
	seller := newTestSigner(t)
	buyer := newTestSigner(t)
	_, err := env.wallets.Deposit(context.Background(), buyer.id, 1000)
	require.NoError(t, err)

	resp, err := client.CreateItem(withToken(t, seller), &CreateItemRequest{Id: 1, Name: "Widget", Quantity: 10, Price: 100})
	require.NoError(t, err)
	require.True(t, resp.Success, resp.Message)
	assert.Equal(t, seller.id, resp.Item.Authority)

	purchase, err := client.PurchaseItem(withToken(t, buyer), &PurchaseItemRequest{
		RequestId: "req-1", Id: 1, Quantity: 3, Seller: seller.id.String(),
	})
	require.NoError(t, err)
	require.True(t, purchase.Success, purchase.Message)
	assert.Equal(t, uint64(300), purchase.Receipt.Total)

	balance, err := env.wallets.Balance(context.Background(), seller.id)
	require.NoError(t, err)
	assert.Equal(t, uint64(300), balance)

	resp, err = client.UpdateQuantity(withToken(t, buyer), &UpdateQuantityRequest{Id: 1, Quantity: 50})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, service.KindUnauthorizedAccess, resp.Error)

	resp, err = client.UpdateQuantity(withToken(t, seller), &UpdateQuantityRequest{Id: 1, Quantity: 50})
	require.NoError(t, err)
	require.True(t, resp.Success)
	assert.Equal(t, uint64(50), resp.Item.Quantity)

	list, err := client.ListItems(context.Background(), &ListItemsRequest{})
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)

	resp, err = client.DeleteItem(withToken(t, seller), &DeleteItemRequest{Id: 1})
	require.NoError(t, err)
	require.True(t, resp.Success)

	resp, err = client.GetItem(context.Background(), &GetItemRequest{Id: 1})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, service.KindItemNotFound, resp.Error)
}

func TestGRPC_Unauthenticated(t *testing.T) {
	client, _ := newTestGRPCClient(t)

	_, err := client.CreateItem(context.Background(), &CreateItemRequest{Id: 1, Name: "Widget", Quantity: 1, Price: 1})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	ctx := metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer garbage")
	_, err = client.DeleteItem(ctx, &DeleteItemRequest{Id: 1})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestGRPC_InvalidInputs(t *testing.T) {
	client, _ := newTestGRPCClient(t)
	seller := newTestSigner(t)

	resp, err := client.CreateItem(withToken(t, seller), &CreateItemRequest{Id: 1, Name: "Widget", Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, service.KindInvalidPrice, resp.Error)

	purchase, err := client.PurchaseItem(withToken(t, seller), &PurchaseItemRequest{Id: 1, Quantity: 1, Seller: "bad"})
	require.NoError(t, err)
	assert.Equal(t, service.KindInvalidInput, purchase.Error)
}

func TestGRPC_PurchaseWithoutSeller(t *testing.T) {
	client, _ := newTestGRPCClient(t)
	seller := newTestSigner(t)
	buyer := newTestSigner(t)

	resp, err := client.CreateItem(withToken(t, seller), &CreateItemRequest{Id: 2, Name: "Widget", Quantity: 1, Price: 1})
	require.NoError(t, err)
	require.True(t, resp.Success, resp.Message)

	purchase, err := client.PurchaseItem(withToken(t, buyer), &PurchaseItemRequest{Id: 2, Quantity: 0})
	require.NoError(t, err)
	assert.False(t, purchase.Success)
	assert.Equal(t, service.KindInvalidQuantity, purchase.Error)

	purchase, err = client.PurchaseItem(withToken(t, buyer), &PurchaseItemRequest{Id: 2, Quantity: 1})
	require.NoError(t, err)
	assert.False(t, purchase.Success)
	assert.Equal(t, service.KindUnauthorizedAccess, purchase.Error)
}
