package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newApp(logger *zap.Logger) *fiber.App {
	app := fiber.New()
	app.Use(RequestLogger(logger))
	app.Get("/ok", func(c fiber.Ctx) error {
		return c.SendString(RequestID(c))
	})
	app.Get("/fail", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusBadGateway).SendString("upstream")
	})
	return app
}

func TestRequestLogger_AssignsID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	app := newApp(zap.New(core))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.NoError(t, err)

	id := resp.Header.Get(RequestIDHeader)
	_, err = uuid.Parse(id)
	assert.NoError(t, err)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].ContextMap()["request_id"])
	assert.Equal(t, "/ok", entries[0].ContextMap()["path"])
	assert.Equal(t, int64(200), entries[0].ContextMap()["status"])
}

func TestRequestLogger_KeepsValidIncomingID(t *testing.T) {
	app := newApp(zap.NewNop())
	incoming := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(RequestIDHeader, incoming)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, incoming, resp.Header.Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.NotEqual(t, "not-a-uuid", resp.Header.Get(RequestIDHeader))
}

func TestRequestLogger_WarnsOnServerErrors(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	app := newApp(zap.New(core))

	_, err := app.Test(httptest.NewRequest(http.MethodGet, "/fail", nil))
	require.NoError(t, err)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, int64(502), logs.All()[0].ContextMap()["status"])
}
