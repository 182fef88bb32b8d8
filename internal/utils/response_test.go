package utils_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/evalhub/review-api/internal/utils"
)

func performRequest(t *testing.T, handler fiber.Handler) (*http.Response, map[string]interface{}) {
	t.Helper()
	app := fiber.New()
	app.Get("/", handler)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	return resp, body
}

func TestSendSuccessEnvelope(t *testing.T) {
	resp, body := performRequest(t, func(c *fiber.Ctx) error {
		return utils.SendSuccess(c, "submission retrieved", map[string]string{"title": "A"})
	})

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["success"])
	require.Equal(t, "submission retrieved", body["message"])
	require.NotContains(t, body, "error")
}

func TestSendSuccessDefaultsMessage(t *testing.T) {
	_, body := performRequest(t, func(c *fiber.Ctx) error {
		return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "", nil)
	})
	require.Equal(t, "success", body["message"])
}

func TestSendErrorEnvelope(t *testing.T) {
	resp, body := performRequest(t, func(c *fiber.Ctx) error {
		return utils.SendError(c, fiber.StatusConflict, "submission window for call 1 is closed")
	})

	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	require.Equal(t, false, body["success"])
	require.Equal(t, "submission window for call 1 is closed", body["error"])
	require.NotContains(t, body, "data")
	require.NotContains(t, body, "message")
}
