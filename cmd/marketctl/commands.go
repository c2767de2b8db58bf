package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/urfave/cli"

	"github.com/rl1809/marketplace/internal/adapter/handler"
	"github.com/rl1809/marketplace/internal/auth"
	"github.com/rl1809/marketplace/internal/core/domain"
)

func printJSON(w io.Writer, message interface{}) error {
	b, err := json.MarshalIndent(message, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s\n", b)
	return nil
}

func config(c *cli.Context) *metadata {
	return c.App.Metadata["config"].(*metadata)
}

func requireID(c *cli.Context) (uint64, error) {
	if !c.IsSet("id") {
		return 0, errors.New("item id is required")
	}
	return c.Uint64("id"), nil
}

func runKeygen(c *cli.Context) error {
	m := config(c)

	id, priv, err := auth.GenerateKey()
	if err != nil {
		return err
	}
	return printJSON(m.w, map[string]string{
		"identity":    id.String(),
		"private_key": auth.EncodePrivateKey(priv),
	})
}

func runList(c *cli.Context) error {
	m := config(c)

	var resp handler.HTTPResponse
	if err := m.client.do(http.MethodGet, "/api/items", false, nil, &resp); err != nil {
		return err
	}
	return printJSON(m.w, resp.Items)
}

func runShow(c *cli.Context) error {
	m := config(c)
	id, err := requireID(c)
	if err != nil {
		return err
	}

	var item, receipts handler.HTTPResponse
	if err := m.client.do(http.MethodGet, fmt.Sprintf("/api/items/%d", id), false, nil, &item); err != nil {
		return err
	}
	if err := m.client.do(http.MethodGet, fmt.Sprintf("/api/items/%d/receipts", id), false, nil, &receipts); err != nil {
		return err
	}
	return printJSON(m.w, map[string]interface{}{
		"item":     item.Item,
		"receipts": receipts.Receipts,
	})
}

func runCreate(c *cli.Context) error {
	m := config(c)
	id, err := requireID(c)
	if err != nil {
		return err
	}

	var resp handler.HTTPResponse
	err = m.client.do(http.MethodPost, "/api/items", true, handler.CreateItemHTTPRequest{
		ID:       id,
		Name:     c.String("name"),
		Quantity: c.Uint64("quantity"),
		Price:    c.Uint64("price"),
	}, &resp)
	if err != nil {
		return err
	}
	return printJSON(m.w, resp.Item)
}

func runUpdate(c *cli.Context) error {
	m := config(c)
	id, err := requireID(c)
	if err != nil {
		return err
	}

	var resp handler.HTTPResponse
	err = m.client.do(http.MethodPut, fmt.Sprintf("/api/items/%d/quantity", id), true, handler.UpdateQuantityHTTPRequest{
		Quantity: c.Uint64("quantity"),
	}, &resp)
	if err != nil {
		return err
	}
	return printJSON(m.w, resp.Item)
}

func runPurchase(c *cli.Context) error {
	m := config(c)
	id, err := requireID(c)
	if err != nil {
		return err
	}

	var seller domain.Identity
	if s := c.String("seller"); s != "" {
		if seller, err = domain.ParseIdentity(s); err != nil {
			return err
		}
	} else {
		// pay whoever the ledger currently records as authority
		var item handler.HTTPResponse
		if err := m.client.do(http.MethodGet, fmt.Sprintf("/api/items/%d", id), false, nil, &item); err != nil {
			return err
		}
		seller = item.Item.Authority
	}

	requestID := c.String("request-id")
	if requestID == "" {
		requestID = uuid.NewString()
	}

	var resp handler.HTTPResponse
	err = m.client.do(http.MethodPost, fmt.Sprintf("/api/items/%d/purchase", id), true, handler.PurchaseHTTPRequest{
		RequestID: requestID,
		Quantity:  c.Uint64("quantity"),
		Seller:    seller,
	}, &resp)
	if err != nil {
		return err
	}
	return printJSON(m.w, resp.Receipt)
}

func runDelete(c *cli.Context) error {
	m := config(c)
	id, err := requireID(c)
	if err != nil {
		return err
	}

	if err := m.client.do(http.MethodDelete, fmt.Sprintf("/api/items/%d", id), true, nil, nil); err != nil {
		return err
	}
	return printJSON(m.w, map[string]uint64{"deleted": id})
}

func runDeposit(c *cli.Context) error {
	m := config(c)
	owner, err := domain.ParseIdentity(c.String("owner"))
	if err != nil {
		return err
	}

	var resp handler.HTTPResponse
	err = m.client.do(http.MethodPost, "/api/wallets/"+owner.String()+"/deposit", false, handler.DepositHTTPRequest{
		Amount: c.Uint64("amount"),
	}, &resp)
	if err != nil {
		return err
	}
	return printJSON(m.w, map[string]interface{}{"owner": owner, "balance": resp.Balance})
}

func runBalance(c *cli.Context) error {
	m := config(c)
	owner, err := domain.ParseIdentity(c.String("owner"))
	if err != nil {
		return err
	}

	var resp handler.HTTPResponse
	if err := m.client.do(http.MethodGet, "/api/wallets/"+owner.String(), false, nil, &resp); err != nil {
		return err
	}
	return printJSON(m.w, map[string]interface{}{"owner": owner, "balance": resp.Balance})
}
