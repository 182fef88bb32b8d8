package contract_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/evalhub/review-api/internal/apperr"
	"github.com/evalhub/review-api/internal/dto"
	"github.com/evalhub/review-api/internal/handler"
	"github.com/evalhub/review-api/internal/service"
)

type evaluationStub struct {
	grade   dto.GradeResponse
	ranking dto.RankingResponse
	err     error
}

func (s evaluationStub) Record(context.Context, service.Actor, uint, dto.EvaluationRequest) (dto.EvaluationResponse, error) {
	return dto.EvaluationResponse{}, s.err
}

func (s evaluationStub) Grade(context.Context, uint) (dto.GradeResponse, error) {
	return s.grade, s.err
}

func (s evaluationStub) Ranking(context.Context, uint) (dto.RankingResponse, error) {
	return s.ranking, s.err
}

func compileSchema(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	schemaPath, err := filepath.Abs(filepath.Join("..", "contracts", name))
	require.NoError(t, err)

	schema, err := jsonschema.NewCompiler().Compile("file://" + schemaPath)
	require.NoError(t, err)
	return schema
}

func validateResponse(t *testing.T, schema *jsonschema.Schema, resp *http.Response) {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload))
}

func TestGradeContract(t *testing.T) {
	schema := compileSchema(t, "grade.schema.json")

	grade := 9.5
	svc := evaluationStub{grade: dto.GradeResponse{
		SubmissionID:  3,
		Grade:         &grade,
		Defined:       true,
		QuorumReached: true,
		Evaluations:   2,
	}}
	app := fiber.New()
	handler.NewAdminEvaluationHandler(svc, zerolog.Nop()).Register(app.Group("/api/v1/admin"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/admin/submissions/3/grade", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	validateResponse(t, schema, resp)
}

func TestGradeContractUndefined(t *testing.T) {
	schema := compileSchema(t, "grade.schema.json")

	svc := evaluationStub{grade: dto.GradeResponse{SubmissionID: 3, Evaluations: 1}}
	app := fiber.New()
	handler.NewAdminEvaluationHandler(svc, zerolog.Nop()).Register(app.Group("/api/v1/admin"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/admin/submissions/3/grade", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	validateResponse(t, schema, resp)
}

func TestRankingContract(t *testing.T) {
	schema := compileSchema(t, "ranking.schema.json")

	first := 9.5
	svc := evaluationStub{ranking: dto.RankingResponse{
		CallID: 1,
		Entries: []dto.RankingEntry{
			{Position: 1, SubmissionID: 3, Title: "Strong", Grade: &first},
			{Position: 2, SubmissionID: 5, Title: "Pending", Grade: nil},
		},
	}}
	app := fiber.New()
	handler.NewAdminEvaluationHandler(svc, zerolog.Nop()).Register(app.Group("/api/v1/admin"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/admin/calls/1/ranking", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	validateResponse(t, schema, resp)
}

func TestErrorEnvelopeContract(t *testing.T) {
	schema := compileSchema(t, "error.schema.json")

	svc := evaluationStub{err: apperr.NotFound("submission", 3)}
	app := fiber.New()
	handler.NewAdminEvaluationHandler(svc, zerolog.Nop()).Register(app.Group("/api/v1/admin"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/admin/submissions/3/grade", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	validateResponse(t, schema, resp)
}
