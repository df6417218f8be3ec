// Package api talks to the remote todo service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/Makepad-fr/tada/internal/logging"
	"github.com/Makepad-fr/tada/internal/model"
)

// DefaultTimeout bounds a single request.
const DefaultTimeout = 10 * time.Second

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status=%d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s: status=%d body=%s", e.Method, e.Path, e.Status, e.Body)
}

// Config holds what a Client needs to reach the service.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client is a thin JSON client for the /items resource.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *log.Logger
}

// NewClient builds a client. A nil logger discards output.
func NewClient(cfg Config, logger *log.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// List returns every item belonging to ownerID, in server order.
func (c *Client) List(ctx context.Context, ownerID int) ([]model.Item, error) {
	q := url.Values{"ownerId": []string{strconv.Itoa(ownerID)}}
	data, err := c.do(ctx, http.MethodGet, "/items?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if err := validate(itemListSchema, data); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	var items []model.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse items: %w", err)
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

// Create posts a new item and returns the server's copy with its id.
func (c *Client) Create(ctx context.Context, item model.NewItem) (model.Item, error) {
	data, err := c.do(ctx, http.MethodPost, "/items", item)
	if err != nil {
		return model.Item{}, err
	}
	return decodeItem("create item", data)
}

// Update sends the full item and returns the server's version.
func (c *Client) Update(ctx context.Context, item model.Item) (model.Item, error) {
	data, err := c.do(ctx, http.MethodPatch, itemPath(item.ID), item)
	if err != nil {
		return model.Item{}, err
	}
	return decodeItem("update item", data)
}

// Delete removes item id.
func (c *Client) Delete(ctx context.Context, id int) error {
	_, err := c.do(ctx, http.MethodDelete, itemPath(id), nil)
	return err
}

func itemPath(id int) string { return "/items/" + strconv.Itoa(id) }

func decodeItem(op string, data []byte) (model.Item, error) {
	if err := validate(itemSchema, data); err != nil {
		return model.Item{}, fmt.Errorf("%s: %w", op, err)
	}
	var it model.Item
	if err := json.Unmarshal(data, &it); err != nil {
		return model.Item{}, fmt.Errorf("parse item: %w", err)
	}
	return it, nil
}

// do sends one request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	reqID := uuid.Must(uuid.NewV7()).String()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "method", method, "path", path, "request_id", reqID, "err", err)
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, readErr := io.ReadAll(resp.Body)
	c.logger.Debug("request", "method", method, "path", path, "status", resp.StatusCode,
		"request_id", reqID, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{
			Method: method,
			Path:   path,
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(data)),
		}
	}
	if readErr != nil {
		return nil, fmt.Errorf("read response: %w", readErr)
	}
	return data, nil
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == code
}
