package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sweetshop/sweetshop-client/internal/backend"
	"github.com/sweetshop/sweetshop-client/internal/inventory/domain"
	"github.com/sweetshop/sweetshop-client/pkg/logger"
)

const sweetsPath = "/api/sweets"

// InventoryClient maps inventory operations onto the backend's /api/sweets endpoints
type InventoryClient struct {
	backend *backend.Client
	logger  *logger.Logger
}

// NewInventoryClient creates a new inventory gateway
func NewInventoryClient(b *backend.Client, log *logger.Logger) *InventoryClient {
	return &InventoryClient{
		backend: b,
		logger:  log,
	}
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

// List returns every sweet (public)
func (c *InventoryClient) List(ctx context.Context) ([]domain.Item, error) {
	var items []domain.Item
	if err := c.backend.Do(ctx, backend.Request{Method: http.MethodGet, Path: sweetsPath}, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Search returns sweets matching the criteria (public). Only constrained
// fields are sent.
func (c *InventoryClient) Search(ctx context.Context, criteria domain.FilterCriteria) ([]domain.Item, error) {
	criteria = criteria.Normalize()

	params := url.Values{}
	if criteria.Name != "" {
		params.Set("name", criteria.Name)
	}
	if criteria.Category != "" {
		params.Set("category", criteria.Category)
	}
	if criteria.MinPrice != nil {
		params.Set("minPrice", strconv.FormatFloat(*criteria.MinPrice, 'f', -1, 64))
	}
	if criteria.MaxPrice != nil {
		params.Set("maxPrice", strconv.FormatFloat(*criteria.MaxPrice, 'f', -1, 64))
	}

	path := sweetsPath + "/search"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var items []domain.Item
	if err := c.backend.Do(ctx, backend.Request{Method: http.MethodGet, Path: path}, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Create adds a sweet (protected)
func (c *InventoryClient) Create(ctx context.Context, input domain.ItemInput, token string) (string, error) {
	return c.mutate(ctx, http.MethodPost, sweetsPath, token, input)
}

// Update replaces a sweet's details (protected)
func (c *InventoryClient) Update(ctx context.Context, id int64, input domain.ItemInput, token string) (string, error) {
	return c.mutate(ctx, http.MethodPut, itemPath(id), token, input)
}

// Delete removes a sweet (admin only on the backend)
func (c *InventoryClient) Delete(ctx context.Context, id int64, token string) (string, error) {
	return c.mutate(ctx, http.MethodDelete, itemPath(id), token, nil)
}

// Purchase decrements stock (protected)
func (c *InventoryClient) Purchase(ctx context.Context, id int64, quantity int, token string) (string, error) {
	return c.mutate(ctx, http.MethodPost, itemPath(id)+"/purchase", token, quantityRequest{Quantity: quantity})
}

// Restock increments stock (admin only on the backend)
func (c *InventoryClient) Restock(ctx context.Context, id int64, quantity int, token string) (string, error) {
	return c.mutate(ctx, http.MethodPost, itemPath(id)+"/restock", token, quantityRequest{Quantity: quantity})
}

func (c *InventoryClient) mutate(ctx context.Context, method, path, token string, body interface{}) (string, error) {
	var resp backend.MessageResponse
	err := c.backend.Do(ctx, backend.Request{
		Method: method,
		Path:   path,
		Token:  token,
		Body:   body,
	}, &resp)
	if err != nil {
		return "", err
	}

	c.logger.Info().
		Str("method", method).
		Str("path", path).
		Str("message", resp.Message).
		Msg("inventory mutation accepted")

	return resp.Message, nil
}

func itemPath(id int64) string {
	return fmt.Sprintf("%s/%d", sweetsPath, id)
}
