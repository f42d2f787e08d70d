// Package client 封装 user-management REST API，并提供前端用的状态缓存 State
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"user-management/internal/domain"
)

// APIError 非 2xx 响应；Message 取自响应体的 error 或 message
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

func IsStatus(err error, status int) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == status
}

type Client struct {
	base string
	hc   *http.Client

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.hc = hc } }
func WithToken(tok string) Option           { return func(c *Client) { c.token = tok } }

// New baseURL 形如 http://localhost:3001/api
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		hc:   &http.Client{Timeout: 15 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) SetToken(tok string) {
	c.mu.Lock()
	c.token = tok
	c.mu.Unlock()
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var eb struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		_ = json.Unmarshal(raw, &eb)
		msg := eb.Error
		if msg == "" {
			msg = eb.Message
		}
		return &APIError{Status: res.StatusCode, Message: msg}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// Login 成功后后续请求自动带上 token
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	in := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/login", in, &out); err != nil {
		return "", err
	}
	c.SetToken(out.Token)
	return out.Token, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	err := c.do(ctx, http.MethodGet, "/users", nil, &out)
	return out, err
}

func (c *Client) ListDeletedUsers(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	err := c.do(ctx, http.MethodGet, "/deletedUsers", nil, &out)
	return out, err
}

func (c *Client) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var out domain.User
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateUser(ctx context.Context, in domain.UserInput) (*domain.User, error) {
	var out domain.User
	if err := c.do(ctx, http.MethodPost, "/users", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateUser(ctx context.Context, id string, in domain.UserInput) (*domain.User, error) {
	var out domain.User
	if err := c.do(ctx, http.MethodPut, "/users/"+url.PathEscape(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetDeleted DELETE /users/bulk，deleted=false 即恢复
func (c *Client) SetDeleted(ctx context.Context, ids []string, deleted bool) (*domain.BulkResult, error) {
	in := struct {
		IDs    []string `json:"ids"`
		Delete bool     `json:"delete"`
	}{IDs: ids, Delete: deleted}
	var out domain.BulkResult
	if err := c.do(ctx, http.MethodDelete, "/users/bulk", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AddAll(ctx context.Context, users []domain.UserInput) ([]domain.User, error) {
	in := struct {
		Users []domain.UserInput `json:"users"`
	}{Users: users}
	var out struct {
		Success       bool          `json:"success"`
		InsertedUsers []domain.User `json:"insertedUsers"`
	}
	if err := c.do(ctx, http.MethodPost, "/addAll", in, &out); err != nil {
		return nil, err
	}
	return out.InsertedUsers, nil
}
