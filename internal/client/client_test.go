package client_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"userreg/internal/client"
	"userreg/internal/models"
	"userreg/internal/repositories"
	"userreg/internal/server"
	"userreg/internal/services"
	"userreg/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// startServer runs the full app on a random local port and returns the API
// base URL.
func startServer(t *testing.T) string {
	t.Helper()

	svc := services.NewUserService(repositories.NewMemoryUserRepository(), zap.NewNop(), services.WithHashCost(bcrypt.MinCost))
	app := server.New(server.Config{}, svc, zap.NewNop())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	return "http://" + ln.Addr().String() + "/api"
}

func input(email string) models.UserInput {
	return models.UserInput{
		Name:     "Grace Hopper",
		Email:    email,
		Password: "C0bol&Bugs",
		Role:     models.RoleAdmin,
		Skills:   models.NewSkills("SQL", "Go"),
	}
}

func TestClientLifecycle(t *testing.T) {
	c := client.New(startServer(t), time.Second)
	ctx := context.Background()

	users, err := c.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	created, err := c.CreateUser(ctx, input("grace@example.com"))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, []string{"SQL", "Go"}, created.Skills)

	fetched, err := c.GetUser(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Email, fetched.Email)

	in := input("grace@example.com")
	in.Password = ""
	in.Name = "Rear Admiral Hopper"
	updated, err := c.UpdateUser(ctx, created.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Rear Admiral Hopper", updated.Name)

	users, err = c.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)

	require.NoError(t, c.DeleteUser(ctx, created.ID))

	_, err = c.GetUser(ctx, created.ID)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Status)
	assert.Equal(t, "User not found", apiErr.FirstMessage())
}

func TestClientValidationError(t *testing.T) {
	c := client.New(startServer(t), time.Second)

	in := input("not-an-email")
	in.Name = "G"
	_, err := c.CreateUser(context.Background(), in)

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Status)
	require.Len(t, apiErr.Errors, 2)
	assert.Equal(t, validation.MsgName, apiErr.FirstMessage())
}

func TestClientDuplicateEmail(t *testing.T) {
	c := client.New(startServer(t), time.Second)
	ctx := context.Background()

	_, err := c.CreateUser(ctx, input("dup@example.com"))
	require.NoError(t, err)

	_, err = c.CreateUser(ctx, input("dup@example.com"))
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Empty(t, apiErr.Errors)
	assert.Equal(t, "Email already registered", apiErr.FirstMessage())
}

func TestClientTransportFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	c := client.New("http://"+addr+"/api", 200*time.Millisecond)
	_, err = c.ListUsers(context.Background())
	require.Error(t, err)

	var apiErr *client.APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestClientCanceledContext(t *testing.T) {
	c := client.New("http://127.0.0.1:1/api", time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListUsers(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

// expiredCtx reports a passed deadline before its Err catches up, the state a
// context is in right as its timer fires.
type expiredCtx struct{ context.Context }

func (expiredCtx) Deadline() (time.Time, bool) { return time.Now().Add(-time.Millisecond), true }

func TestClientDeadlinePassedBeforeSend(t *testing.T) {
	c := client.New(startServer(t), time.Second)

	_, err := c.ListUsers(expiredCtx{context.Background()})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClientDeadlineShorterThanTimeout(t *testing.T) {
	c := client.New(startServer(t), time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	users, err := c.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestAPIErrorFirstMessage(t *testing.T) {
	e := &client.APIError{Status: 500}
	assert.Empty(t, e.FirstMessage())
	assert.Equal(t, "api error 500", e.Error())

	e.Message = "Server error"
	assert.Equal(t, "Server error", e.FirstMessage())

	e.Errors = []validation.Violation{{Msg: "first"}, {Msg: "second"}}
	assert.Equal(t, "first", e.FirstMessage())
}
