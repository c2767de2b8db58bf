package handler

import (
	"context"

	"google.golang.org/grpc"

	"github.com/rl1809/marketplace/internal/core/domain"
)

const marketplaceServiceName = "marketplace.v1.Marketplace"

type CreateItemRequest struct {
	Id       uint64 `json:"id"`
	Name     string `json:"name"`
	Quantity uint64 `json:"quantity"`
	Price    uint64 `json:"price"`
}

type UpdateQuantityRequest struct {
	Id       uint64 `json:"id"`
	Quantity uint64 `json:"quantity"`
}

type PurchaseItemRequest struct {
	RequestId string `json:"request_id"`
	Id        uint64 `json:"id"`
	Quantity  uint64 `json:"quantity"`
	Seller    string `json:"seller"`
}

type DeleteItemRequest struct {
	Id uint64 `json:"id"`
}

type GetItemRequest struct {
	Id uint64 `json:"id"`
}

type ListItemsRequest struct{}

type ItemResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Error   string       `json:"error,omitempty"`
	Item    *domain.Item `json:"item,omitempty"`
}

type ListItemsResponse struct {
	Success bool          `json:"success"`
	Error   string        `json:"error,omitempty"`
	Message string        `json:"message,omitempty"`
	Items   []domain.Item `json:"items,omitempty"`
}

type PurchaseItemResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
	Receipt *domain.Receipt `json:"receipt,omitempty"`
}

// MarketplaceServer is the server API for the Marketplace service.
type MarketplaceServer interface {
	CreateItem(context.Context, *CreateItemRequest) (*ItemResponse, error)
	UpdateQuantity(context.Context, *UpdateQuantityRequest) (*ItemResponse, error)
	PurchaseItem(context.Context, *PurchaseItemRequest) (*PurchaseItemResponse, error)
	DeleteItem(context.Context, *DeleteItemRequest) (*ItemResponse, error)
	GetItem(context.Context, *GetItemRequest) (*ItemResponse, error)
	ListItems(context.Context, *ListItemsRequest) (*ListItemsResponse, error)
}

func RegisterMarketplaceServer(s grpc.ServiceRegistrar, srv MarketplaceServer) {
	s.RegisterService(&marketplaceServiceDesc, srv)
}

func unaryHandler[Req any, Resp any](method string, call func(MarketplaceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(MarketplaceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + marketplaceServiceName + "/" + method,
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(MarketplaceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var marketplaceServiceDesc = grpc.ServiceDesc{
	ServiceName: marketplaceServiceName,
	HandlerType: (*MarketplaceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("CreateItem", MarketplaceServer.CreateItem),
		unaryHandler("UpdateQuantity", MarketplaceServer.UpdateQuantity),
		unaryHandler("PurchaseItem", MarketplaceServer.PurchaseItem),
		unaryHandler("DeleteItem", MarketplaceServer.DeleteItem),
		unaryHandler("GetItem", MarketplaceServer.GetItem),
		unaryHandler("ListItems", MarketplaceServer.ListItems),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "marketplace/v1/marketplace.proto",
}

// MarketplaceClient is the client API for the Marketplace service. The
// connection must use JSONCodec.
type MarketplaceClient struct {
	cc grpc.ClientConnInterface
}

func NewMarketplaceClient(cc grpc.ClientConnInterface) *MarketplaceClient {
	return &MarketplaceClient{cc: cc}
}

func (c *MarketplaceClient) invoke(ctx context.Context, method string, in, out any, opts ...grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.ForceCodec(JSONCodec{})}, opts...)
	return c.cc.Invoke(ctx, "/"+marketplaceServiceName+"/"+method, in, out, opts...)
}

func (c *MarketplaceClient) CreateItem(ctx context.Context, in *CreateItemRequest, opts ...grpc.CallOption) (*ItemResponse, error) {
	out := new(ItemResponse)
	if err := c.invoke(ctx, "CreateItem", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MarketplaceClient) UpdateQuantity(ctx context.Context, in *UpdateQuantityRequest, opts ...grpc.CallOption) (*ItemResponse, error) {
	out := new(ItemResponse)
	if err := c.invoke(ctx, "UpdateQuantity", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MarketplaceClient) PurchaseItem(ctx context.Context, in *PurchaseItemRequest, opts ...grpc.CallOption) (*PurchaseItemResponse, error) {
	out := new(PurchaseItemResponse)
	if err := c.invoke(ctx, "PurchaseItem", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MarketplaceClient) DeleteItem(ctx context.Context, in *DeleteItemRequest, opts ...grpc.CallOption) (*ItemResponse, error) {
	out := new(ItemResponse)
	if err := c.invoke(ctx, "DeleteItem", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MarketplaceClient) GetItem(ctx context.Context, in *GetItemRequest, opts ...grpc.CallOption) (*ItemResponse, error) {
	out := new(ItemResponse)
	if err := c.invoke(ctx, "GetItem", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MarketplaceClient) ListItems(ctx context.Context, in *ListItemsRequest, opts ...grpc.CallOption) (*ListItemsResponse, error) {
	out := new(ListItemsResponse)
	if err := c.invoke(ctx, "ListItems", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
