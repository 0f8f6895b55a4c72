package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"userreg/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	app := fiber.New()
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(zap.New(core)))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/missing", func(c *fiber.Ctx) error { return fiber.ErrNotFound })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()

	entries := logs.All()
	require.Len(t, entries, 2)

	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "/ok", entries[0].ContextMap()["path"])
	assert.EqualValues(t, http.StatusOK, entries[0].ContextMap()["status"])
	assert.NotEmpty(t, entries[0].ContextMap()["request_id"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.EqualValues(t, http.StatusNotFound, entries[1].ContextMap()["status"])
	assert.Equal(t, "/missing", entries[1].ContextMap()["path"])
}

// Observed fields outlive the request; they must not change when fiber
// reuses its buffers for later requests.
func TestRequestLoggerFieldsSurviveLaterRequests(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	app := fiber.New()
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(zap.New(core)))
	app.All("/*", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	paths := []string{"/a", "/users/first", "/users/second-and-longer", "/z"}
	methods := []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodPut}
	for i, path := range paths {
		resp, err := app.Test(httptest.NewRequest(methods[i], path, nil), -1)
		require.NoError(t, err)
		resp.Body.Close()
	}

	entries := logs.All()
	require.Len(t, entries, len(paths))
	seen := map[string]bool{}
	for i, entry := range entries {
		fields := entry.ContextMap()
		assert.Equal(t, paths[i], fields["path"])
		assert.Equal(t, methods[i], fields["method"])

		id, _ := fields["request_id"].(string)
		assert.NotEmpty(t, id)
		assert.False(t, seen[id], "request id %q logged twice", id)
		seen[id] = true
	}
}
