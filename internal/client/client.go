// Package client is a Go client for the chat server's REST API and live
// connection. A connected client feeds server events into a Reconciler.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/weiawesome/duochat/internal/domain"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

// Unwrap maps the status to the domain error taxonomy so callers can use
// errors.Is with the same sentinels as the server.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		if e.Code == "CONFLICT" {
			return domain.ErrConflict
		}
		return domain.ErrInvalidArgument
	case http.StatusRequestEntityTooLarge:
		return domain.ErrFileTooLarge
	case http.StatusUnauthorized:
		return domain.ErrUnauthenticated
	case http.StatusForbidden:
		return domain.ErrForbidden
	case http.StatusNotFound:
		return domain.ErrNotFound
	default:
		return domain.ErrInternal
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// Client talks to one server as at most one signed-in user.
type Client struct {
	baseURL string
	http    *http.Client

	mu       sync.RWMutex
	token    string
	username string
}

// New returns a client for the server at baseURL, e.g. "http://localhost:5000".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken signs the client in with an existing token.
func (c *Client) SetToken(token, username string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token, c.username = token, username
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) Username() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.username
}

func (c *Client) Register(ctx context.Context, username, email, password string) (*domain.UserResponse, error) {
	var out domain.UserResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/register", &domain.RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Login signs in and keeps the returned token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.LoginResponse, error) {
	var out domain.LoginResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/login", &domain.LoginRequest{
		Email:    email,
		Password: password,
	}, &out)
	if err != nil {
		return nil, err
	}
	c.SetToken(out.Token, out.Username)
	return &out, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]domain.UserSummary, error) {
	var out []domain.UserSummary
	if err := c.doJSON(ctx, http.MethodGet, "/api/users", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// History fetches the direct and group messages of username, which must be
// the signed-in user.
func (c *Client) History(ctx context.Context, username string) ([]domain.Message, error) {
	var out []domain.Message
	if err := c.doJSON(ctx, http.MethodGet, "/api/messages/"+url.PathEscape(username), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GroupHistory(ctx context.Context, groupID string) ([]domain.Message, error) {
	var out []domain.Message
	if err := c.doJSON(ctx, http.MethodGet, "/api/groups/"+url.PathEscape(groupID)+"/messages", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SendDirect(ctx context.Context, receiver, text string, file *domain.File) (*domain.Message, error) {
	var out domain.Message
	err := c.doJSON(ctx, http.MethodPost, "/api/messages/send", &domain.SendDirectRequest{
		Receiver: receiver,
		Text:     text,
		File:     file,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SendGroup(ctx context.Context, groupID, text string, file *domain.File) (*domain.Message, error) {
	var out domain.Message
	err := c.doJSON(ctx, http.MethodPost, "/api/messages/send-group", &domain.SendGroupRequest{
		GroupID: groupID,
		Text:    text,
		File:    file,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteMessage(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/messages/"+url.PathEscape(id), nil, nil)
}

func (c *Client) CreateGroup(ctx context.Context, name string, members []string) (*domain.Group, error) {
	var out domain.Group
	err := c.doJSON(ctx, http.MethodPost, "/api/groups", &domain.CreateGroupRequest{
		Name:    name,
		Members: members,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListGroups(ctx context.Context) ([]domain.Group, error) {
	var out []domain.Group
	if err := c.doJSON(ctx, http.MethodGet, "/api/groups", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddMembers(ctx context.Context, groupID string, members []string) (*domain.Group, error) {
	var out domain.Group
	err := c.doJSON(ctx, http.MethodPost, "/api/groups/"+url.PathEscape(groupID)+"/add-members",
		&domain.AddMembersRequest{NewMembers: members}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Upload stores an attachment. Attach the result to a message with AsFile.
func (c *Client) Upload(ctx context.Context, name string, r io.Reader) (*domain.UploadResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/upload", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out domain.UploadResult
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= 300 {
			return &APIError{Status: resp.StatusCode, Code: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode >= 300 || !env.Success {
		apiErr := &APIError{Status: resp.StatusCode}
		if env.Error != nil {
			apiErr.Code, apiErr.Message = env.Error.Code, env.Error.Message
		}
		return apiErr
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}
