package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/trek-booking-system/internal/auth"
	"github.com/fairyhunter13/trek-booking-system/internal/model"
)

// withTestSession injects a fixed session, standing in for the token middleware.
func withTestSession(sess *model.Session) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if sess != nil {
			auth.WithSession(c, sess)
		}
		return c.Next()
	}
}

func customerSession() *model.Session {
	return &model.Session{UserID: "user-1", Email: "user-1@example.com", Activated: true}
}

func adminSession() *model.Session {
	return &model.Session{UserID: "ops-1", Role: model.RoleAdmin, Activated: true}
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, respBody
}

func errorMessage(t *testing.T, body []byte) string {
	t.Helper()
	var result map[string]any
	require.NoError(t, json.Unmarshal(body, &result))
	msg, _ := result["error"].(string)
	return msg
}
