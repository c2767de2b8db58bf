package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rl1809/marketplace/internal/adapter/handler"
	"github.com/rl1809/marketplace/internal/auth"
)

const (
	requestTimeout = 10 * time.Second
	tokenLifetime  = time.Minute
)

var errNoKey = errors.New("signer key required: use --key or MARKET_KEY")

type client struct {
	server string
	key    string
	http   *http.Client
}

func newClient(server, key string) *client {
	return &client{
		server: strings.TrimRight(server, "/"),
		key:    key,
		http:   &http.Client{Timeout: requestTimeout},
	}
}

func (c *client) do(method, path string, signed bool, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.server+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	if signed {
		token, err := c.token()
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var envelope handler.HTTPResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	if !envelope.Success {
		return fmt.Errorf("%s: %s", envelope.Error, envelope.Message)
	}
	if out != nil {
		*out.(*handler.HTTPResponse) = envelope
	}
	return nil
}

func (c *client) token() (string, error) {
	if c.key == "" {
		return "", errNoKey
	}
	priv, err := auth.ParsePrivateKey(c.key)
	if err != nil {
		return "", err
	}
	return auth.SignToken(priv, tokenLifetime)
}
