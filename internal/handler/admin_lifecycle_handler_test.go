package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/evalhub/review-api/internal/apperr"
	"github.com/evalhub/review-api/internal/dto"
	"github.com/evalhub/review-api/internal/handler"
	"github.com/evalhub/review-api/internal/service"
)

type mockLifecycleService struct {
	lastOutcome string
	response    dto.SubmissionResponse
	err         error
}

func (m *mockLifecycleService) ChangeStatus(_ context.Context, _ service.Actor, _ uint, payload dto.StatusChangeRequest) (dto.SubmissionResponse, error) {
	m.lastOutcome = payload.Outcome
	return m.response, m.err
}

func (m *mockLifecycleService) Finalize(context.Context, service.Actor, uint) (dto.SubmissionResponse, error) {
	return m.response, m.err
}

type mockVisibilityService struct {
	lastVisible *bool
	response    dto.SubmissionResponse
	err         error
}

func (m *mockVisibilityService) SetVisible(_ context.Context, _ service.Actor, _ uint, payload dto.VisibilityRequest) (dto.SubmissionResponse, error) {
	m.lastVisible = payload.Visible
	return m.response, m.err
}

func newLifecycleApp(lifecycle service.LifecycleService, visibility service.VisibilityService) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/admin", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(99))
		c.Locals("user_role", service.RoleCoordinator)
		return c.Next()
	})
	handler.NewAdminLifecycleHandler(lifecycle, visibility, zerolog.New(io.Discard)).Register(group)
	return app
}

func TestLifecycleHandler_ChangeStatus(t *testing.T) {
	lifecycle := &mockLifecycleService{response: dto.SubmissionResponse{ID: 3, Status: "under_review"}}
	app := newLifecycleApp(lifecycle, &mockVisibilityService{})

	body, err := json.Marshal(dto.StatusChangeRequest{Outcome: dto.OutcomeUnderReview})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/admin/submissions/3/status", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, dto.OutcomeUnderReview, lifecycle.lastOutcome)
}

func TestLifecycleHandler_InvalidTransitionConflict(t *testing.T) {
	lifecycle := &mockLifecycleService{err: apperr.InvalidTransition("draft", "under_review")}
	app := newLifecycleApp(lifecycle, &mockVisibilityService{})

	body, err := json.Marshal(dto.StatusChangeRequest{Outcome: dto.OutcomeUnderReview})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/admin/submissions/3/status", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	var envelope errorEnvelope
	decodeResponse(t, resp, &envelope)
	require.Contains(t, envelope.Error, "draft")
}

func TestLifecycleHandler_Finalize(t *testing.T) {
	lifecycle := &mockLifecycleService{response: dto.SubmissionResponse{ID: 3, Finalized: true}}
	app := newLifecycleApp(lifecycle, &mockVisibilityService{})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/admin/submissions/3/finalize", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Data dto.SubmissionResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.True(t, response.Data.Finalized)
}

func TestLifecycleHandler_VisibilityBlockedBelowQuorum(t *testing.T) {
	visibility := &mockVisibilityService{err: apperr.Precondition("grade may not be disclosed before 2 active reviewers are assigned")}
	app := newLifecycleApp(&mockLifecycleService{}, visibility)

	visible := true
	body, err := json.Marshal(dto.VisibilityRequest{Visible: &visible})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/admin/submissions/3/visibility", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	require.NotNil(t, visibility.lastVisible)
	require.True(t, *visibility.lastVisible)
}
