// Package client talks to the user registration REST API using fiber's
// HTTP agent.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"userreg/internal/models"
	"userreg/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/multierr"
)

const DefaultTimeout = 10 * time.Second

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string                 `json:"message"`
	Errors  []validation.Violation `json:"errors"`
}

func (e *APIError) Error() string {
	if msg := e.FirstMessage(); msg != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, msg)
	}
	return fmt.Sprintf("api error %d", e.Status)
}

// FirstMessage returns the first violation message, falling back to the
// top-level message. It is empty when the server sent neither.
func (e *APIError) FirstMessage() string {
	if len(e.Errors) > 0 && e.Errors[0].Msg != "" {
		return e.Errors[0].Msg
	}
	return e.Message
}

type Client struct {
	baseURL string
	timeout time.Duration
}

// New returns a client for the API mounted at baseURL, e.g.
// "http://localhost:5000/api".
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
	}
}

func (c *Client) ListUsers(ctx context.Context) ([]models.UserView, error) {
	var users []models.UserView
	if err := c.do(ctx, fiber.Get(c.url("/users")), fiber.StatusOK, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.UserView{}
	}
	return users, nil
}

func (c *Client) GetUser(ctx context.Context, id uint) (*models.UserView, error) {
	var user models.UserView
	if err := c.do(ctx, fiber.Get(c.url(fmt.Sprintf("/users/%d", id))), fiber.StatusOK, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) CreateUser(ctx context.Context, in models.UserInput) (*models.UserView, error) {
	var user models.UserView
	if err := c.do(ctx, fiber.Post(c.url("/users")).JSON(in), fiber.StatusCreated, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser sends in as a full replacement. An empty password keeps the
// stored one.
func (c *Client) UpdateUser(ctx context.Context, id uint, in models.UserInput) (*models.UserView, error) {
	var ack struct {
		Message string           `json:"message"`
		User    *models.UserView `json:"user"`
	}
	if err := c.do(ctx, fiber.Put(c.url(fmt.Sprintf("/users/%d", id))).JSON(in), fiber.StatusOK, &ack); err != nil {
		return nil, err
	}
	if ack.User == nil {
		return nil, errors.New("update response carries no user")
	}
	return ack.User, nil
}

func (c *Client) DeleteUser(ctx context.Context, id uint) error {
	return c.do(ctx, fiber.Delete(c.url(fmt.Sprintf("/users/%d", id))), fiber.StatusOK, nil)
}

func (c *Client) url(path string) string {
	return c.baseURL + path
}

// do sends the request and decodes a want-status body into out. Other
// statuses become *APIError.
func (c *Client) do(ctx context.Context, a *fiber.Agent, want int, out any) error {
	if err := ctx.Err(); err != nil {
		fiber.ReleaseAgent(a)
		return err
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		left := time.Until(deadline)
		if left <= 0 {
			// Agent treats a non-positive timeout as none at all
			fiber.ReleaseAgent(a)
			return context.DeadlineExceeded
		}
		if left < timeout {
			timeout = left
		}
	}

	code, body, errs := a.Timeout(timeout).Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("request failed: %w", multierr.Combine(errs...))
	}

	if code != want {
		apiErr := &APIError{Status: code}
		// a body that is not JSON leaves only the status
		_ = json.Unmarshal(body, apiErr)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
