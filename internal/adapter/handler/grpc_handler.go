package handler

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/rl1809/marketplace/internal/auth"
	"github.com/rl1809/marketplace/internal/core/domain"
	"github.com/rl1809/marketplace/internal/core/service"
)

type GRPCHandler struct {
	ledger   *service.LedgerService
	verifier *auth.Verifier
	logger   *zap.Logger
}

var _ MarketplaceServer = (*GRPCHandler)(nil)

func NewGRPCHandler(ledger *service.LedgerService, verifier *auth.Verifier, logger *zap.Logger) *GRPCHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GRPCHandler{ledger: ledger, verifier: verifier, logger: logger}
}

// NewGRPCServer returns a server speaking JSONCodec with the handler registered.
func NewGRPCServer(h *GRPCHandler, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{grpc.ForceServerCodec(JSONCodec{})}, opts...)
	s := grpc.NewServer(opts...)
	RegisterMarketplaceServer(s, h)
	return s
}

func (h *GRPCHandler) signer(ctx context.Context) (domain.Identity, error) {
	var token string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get("authorization"); len(values) > 0 {
			token = auth.BearerToken(values[0])
		}
	}

	signer, err := h.verifier.Verify(token)
	if err != nil {
		return domain.Identity{}, status.Error(codes.Unauthenticated, err.Error())
	}
	return signer, nil
}

// failure reports a ledger error in the response body; only unclassified
// errors are logged.
func (h *GRPCHandler) failure(method string, err error) (string, string) {
	kind := service.ErrorKind(err)
	if kind == service.KindInternal {
		h.logger.Error("grpc request failed", zap.String("method", method), zap.Error(err))
		return kind, "internal error"
	}
	return kind, err.Error()
}

func (h *GRPCHandler) CreateItem(ctx context.Context, req *CreateItemRequest) (*ItemResponse, error) {
	signer, err := h.signer(ctx)
	if err != nil {
		return nil, err
	}

	item, err := h.ledger.Create(ctx, signer, req.Id, req.Name, req.Quantity, req.Price)
	if err != nil {
		kind, message := h.failure("CreateItem", err)
		return &ItemResponse{Success: false, Error: kind, Message: message}, nil
	}
	return &ItemResponse{Success: true, Message: "item created", Item: item}, nil
}

func (h *GRPCHandler) UpdateQuantity(ctx context.Context, req *UpdateQuantityRequest) (*ItemResponse, error) {
	signer, err := h.signer(ctx)
	if err != nil {
		return nil, err
	}

	item, err := h.ledger.UpdateQuantity(ctx, signer, req.Id, req.Quantity)
	if err != nil {
		kind, message := h.failure("UpdateQuantity", err)
		return &ItemResponse{Success: false, Error: kind, Message: message}, nil
	}
	return &ItemResponse{Success: true, Message: "quantity updated", Item: item}, nil
}

func (h *GRPCHandler) PurchaseItem(ctx context.Context, req *PurchaseItemRequest) (*PurchaseItemResponse, error) {
	signer, err := h.signer(ctx)
	if err != nil {
		return nil, err
	}

	// an empty seller reaches the ledger as the zero identity and fails its checks
	var seller domain.Identity
	if req.Seller != "" {
		seller, err = domain.ParseIdentity(req.Seller)
		if err != nil {
			return &PurchaseItemResponse{Success: false, Error: service.KindInvalidInput, Message: err.Error()}, nil
		}
	}

	receipt, err := h.ledger.Purchase(ctx, service.PurchaseRequest{
		RequestID: req.RequestId,
		ItemID:    req.Id,
		Quantity:  req.Quantity,
		Buyer:     signer,
		Seller:    seller,
	})
	if err != nil {
		kind, message := h.failure("PurchaseItem", err)
		return &PurchaseItemResponse{Success: false, Error: kind, Message: message}, nil
	}
	return &PurchaseItemResponse{Success: true, Message: "purchase completed", Receipt: receipt}, nil
}

func (h *GRPCHandler) DeleteItem(ctx context.Context, req *DeleteItemRequest) (*ItemResponse, error) {
	signer, err := h.signer(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.ledger.Delete(ctx, signer, req.Id); err != nil {
		kind, message := h.failure("DeleteItem", err)
		return &ItemResponse{Success: false, Error: kind, Message: message}, nil
	}
	return &ItemResponse{Success: true, Message: "item deleted"}, nil
}

func (h *GRPCHandler) GetItem(ctx context.Context, req *GetItemRequest) (*ItemResponse, error) {
	item, err := h.ledger.Get(ctx, req.Id)
	if err != nil {
		kind, message := h.failure("GetItem", err)
		return &ItemResponse{Success: false, Error: kind, Message: message}, nil
	}
	return &ItemResponse{Success: true, Item: item}, nil
}

func (h *GRPCHandler) ListItems(ctx context.Context, _ *ListItemsRequest) (*ListItemsResponse, error) {
	items, err := h.ledger.List(ctx)
	if err != nil {
		kind, message := h.failure("ListItems", err)
		return &ListItemsResponse{Success: false, Error: kind, Message: message}, nil
	}
	return &ListItemsResponse{Success: true, Items: items}, nil
}
