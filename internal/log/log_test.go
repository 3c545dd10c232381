package log_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http/httptest"
	"strings"
	"testing"

	applog "bikeshop/internal/log"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevFlags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
	})
	return &buf
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &m), buf.String())
	return m
}

func TestEventRedactsSecrets(t *testing.T) {
	buf := capture(t)
	applog.Event(applog.LevelWarn, "auth.password.reset.fail", errors.New("boom"), map[string]any{
		"email": "bob@bikeshop.test", "reset_token": "abc", "new_password": "x",
	})

	m := decode(t, buf)
	assert.Equal(t, "warn", m["level"])
	assert.Equal(t, "auth.password.reset.fail", m["action"])
	assert.Equal(t, "boom", m["err"])
	fields := m["fields"].(map[string]any)
	assert.Equal(t, "bob@bikeshop.test", fields["email"])
	assert.Equal(t, "[redacted]", fields["reset_token"])
	assert.Equal(t, "[redacted]", fields["new_password"])
	assert.NotContains(t, m, "path")
}

func TestRequestContextIsRecorded(t *testing.T) {
	buf := capture(t)
	app := fiber.New()
	app.Get("/api/orders", func(c *fiber.Ctx) error {
		c.Locals(applog.UserIDKey, int64(7))
		c.Status(fiber.StatusAccepted)
		applog.Audit(c, "order.list", nil)
		return nil
	})

	_, err := app.Test(httptest.NewRequest("GET", "/api/orders", nil))
	require.NoError(t, err)

	m := decode(t, buf)
	assert.Equal(t, "audit", m["level"])
	assert.Equal(t, "GET", m["method"])
	assert.Equal(t, "/api/orders", m["path"])
	assert.EqualValues(t, 7, m["user_id"])
	assert.EqualValues(t, fiber.StatusAccepted, m["status"])
	assert.NotContains(t, m, "fields")
}
