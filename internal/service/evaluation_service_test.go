package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/evalhub/review-api/internal/apperr"
	"github.com/evalhub/review-api/internal/dto"
	"github.com/evalhub/review-api/internal/models"
)

func assignPair(t *testing.T, env testEnv, submissionID uint, modality string, reviewers ...models.Reviewer) {
	t.Helper()
	ids := make([]uint, 0, len(reviewers))
	for _, reviewer := range reviewers {
		ids = append(ids, reviewer.ID)
	}
	_, err := env.roster.Assign(context.Background(), coordinator(), submissionID, dto.RosterAssignRequest{
		Modality:    modality,
		ReviewerIDs: ids,
	})
	require.NoError(t, err)
}

func TestRecordRequiresActiveAssignment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	call := seedCall(t, env.db, true)
	submission := seedSubmission(t, env.db, call, 1, models.SubmissionStatusUnderReview)
	alice := seedReviewer(t, env.db, "alice")

	_, err := env.evaluations.Record(ctx, coordinator(), submission.ID, dto.EvaluationRequest{
		ReviewerID: alice.ID,
		Scores:     []float64{4, 5, 3, 4},
	})
	var precondition *apperr.PreconditionError
	require.ErrorAs(t, err, &precondition)
}

func TestRecordValidatesScoreVector(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	call := seedCall(t, env.db, true)
	submission := seedSubmission(t, env.db, call, 1, models.SubmissionStatusUnderReview)
	alice := seedReviewer(t, env.db, "alice")
	bob := seedReviewer(t, env.db, "bob")
	assignPair(t, env, submission.ID, "exposition", alice, bob)

	var validation *apperr.ValidationError

	// wrong arity for a four-criterion call
	_, err := env.evaluations.Record(ctx, coordinator(), submission.ID, dto.EvaluationRequest{
		ReviewerID: alice.ID,
		Scores:     []float64{4, 5, 3},
	})
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "scores", validation.Field)

	// score above the criterion scale
	_, err = env.evaluations.Record(ctx, coordinator(), submission.ID, dto.EvaluationRequest{
		ReviewerID: alice.ID,
		Scores:     []float64{4, 5, 3, 5.5},
	})
	require.ErrorAs(t, err, &validation)

	_, err = env.evaluations.Record(ctx, coordinator(), submission.ID, dto.EvaluationRequest{
		ReviewerID: alice.ID,
		Scores:     []float64{4, 5, 3, -1},
	})
	require.ErrorAs(t, err, &validation)
}

func TestRecordOverwritesPriorScores(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	call := seedCall(t, env.db, true)
	submission := seedSubmission(t, env.db, call, 1, models.SubmissionStatusUnderReview)
	alice := seedReviewer(t, env.db, "alice")
	bob := seedReviewer(t, env.db, "bob")
	assignPair(t, env, submission.ID, "oral", alice, bob)

	first, err := env.evaluations.Record(ctx, coordinator(), submission.ID, dto.EvaluationRequest{
		ReviewerID: alice.ID,
		Scores:     []float64{1, 1, 1, 1},
	})
	require.NoError(t, err)

	second, err := env.evaluations.Record(ctx, coordinator(), submission.ID, dto.EvaluationRequest{
		ReviewerID: alice.ID,
		Scores:     []float64{4, 5, 3, 4},
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID, "re-recording replaces the row, no history")
	require.Equal(t, []float64{4, 5, 3, 4}, second.Scores)

	grade, err := env.evaluations.Grade(ctx, submission.ID)
	require.NoError(t, err)
	require.Equal(t, 1, grade.Evaluations)
}

func TestOfficialGradeReferenceScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	call := seedCall(t, env.db, true)
	submission := seedSubmission(t, env.db, call, 1, models.SubmissionStatusUnderReview)
	alice := seedReviewer(t, env.db, "alice")
	bob := seedReviewer(t, env.db, "bob")
	assignPair(t, env, submission.ID, "exposition", alice, bob)

	_, err := env.evaluations.Record(ctx, coordinator(), submission.ID, dto.EvaluationRequest{
		ReviewerID: alice.ID,
		Scores:     []float64{4, 5, 3, 4},
	})
	require.NoError(t, err)
	_, err = env.evaluations.Record(ctx, coordinator(), submission.ID, dto.EvaluationRequest{
		ReviewerID: bob.ID,
		Scores:     []float64{5, 5, 4, 4},
	})
	require.NoError(t, err)

	grade, err := env.evaluations.Grade(ctx, submission.ID)
	require.NoError(t, err)
	require.True(t, grade.QuorumReached)
	require.True(t, grade.Defined)
	require.NotNil(t, grade.Grade)
	// (4+5+3+4 + 5+5+4+4) / 4 criteria
	require.InDelta(t, 9.5, *grade.Grade, 1e-9)
	require.Equal(t, 2, grade.Evaluations)
}

func TestGradeUndefinedBelowQuorum(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	call := seedCall(t, env.db, true)
	submission := seedSubmission(t, env.db, call, 1, models.SubmissionStatusUnderReview)
	alice := seedReviewer(t, env.db, "alice")
	bob := seedReviewer(t, env.db, "bob")
	assignPair(t, env, submission.ID, "exposition", alice, bob)

	_, err := env.evaluations.Record(ctx, coordinator(), submission.ID, dto.EvaluationRequest{
		ReviewerID: alice.ID,
		Scores:     []float64{5, 5, 5, 5},
	})
	require.NoError(t, err)

	_, err = env.roster.Revoke(ctx, coordinator(), submission.ID, dto.RosterRevokeRequest{ReviewerID: bob.ID, Modality: "exposition"})
	require.NoError(t, err)

	grade, err := env.evaluations.Grade(ctx, submission.ID)
	require.NoError(t, err)
	require.False(t, grade.QuorumReached)
	require.False(t, grade.Defined)
	require.Nil(t, grade.Grade, "below quorum the grade is undefined, never zero")
}

func TestGradeIgnoresRevokedReviewerScores(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	call := seedCall(t, env.db, true)
	submission := seedSubmission(t, env.db, call, 1, models.SubmissionStatusUnderReview)
	alice := seedReviewer(t, env.db, "alice")
	bob := seedReviewer(t, env.db, "bob")
	carol := seedReviewer(t, env.db, "carol")
	assignPair(t, env, submission.ID, "exposition", alice, bob)

	_, err := env.evaluations.Record(ctx, coordinator(), submission.ID, dto.EvaluationRequest{
		ReviewerID: alice.ID,
		Scores:     []float64{4, 5, 3, 4},
	})
	require.NoError(t, err)
	_, err = env.evaluations.Record(ctx, coordinator(), submission.ID, dto.EvaluationRequest{
		ReviewerID: bob.ID,
		Scores:     []float64{5, 5, 4, 4},
	})
	require.NoError(t, err)

	// swap bob out for carol; bob's recorded scores must drop out of the sum
	_, err = env.roster.Revoke(ctx, coordinator(), submission.ID, dto.RosterRevokeRequest{ReviewerID: bob.ID, Modality: "exposition"})
	require.NoError(t, err)
	assignPair(t, env, submission.ID, "exposition", carol)
	_, err = env.evaluations.Record(ctx, coordinator(), submission.ID, dto.EvaluationRequest{
		ReviewerID: carol.ID,
		Scores:     []float64{2, 2, 2, 2},
	})
	require.NoError(t, err)

	grade, err := env.evaluations.Grade(ctx, submission.ID)
	require.NoError(t, err)
	require.True(t, grade.Defined)
	// (4+5+3+4 + 2+2+2+2) / 4
	require.InDelta(t, 6.0, *grade.Grade, 1e-9)
	require.Equal(t, 2, grade.Evaluations)
}

func TestRankingOrderAndTieBreak(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	call := seedCall(t, env.db, true)
	strong := seedSubmission(t, env.db, call, 1, models.SubmissionStatusUnderReview)
	weakA := seedSubmission(t, env.db, call, 2, models.SubmissionStatusUnderReview)
	weakB := seedSubmission(t, env.db, call, 3, models.SubmissionStatusUnderReview)
	ungraded := seedSubmission(t, env.db, call, 4, models.SubmissionStatusSubmitted)
	alice := seedReviewer(t, env.db, "alice")
	bob := seedReviewer(t, env.db, "bob")

	score := func(submissionID uint, scores []float64) {
		for _, reviewer := range []models.Reviewer{alice, bob} {
			_, err := env.evaluations.Record(ctx, coordinator(), submissionID, dto.EvaluationRequest{
				ReviewerID: reviewer.ID,
				Scores:     scores,
			})
			require.NoError(t, err)
		}
	}

	assignPair(t, env, strong.ID, "exposition", alice, bob)
	assignPair(t, env, weakA.ID, "exposition", alice, bob)
	assignPair(t, env, weakB.ID, "exposition", alice, bob)
	score(strong.ID, []float64{5, 5, 5, 5})
	score(weakA.ID, []float64{3, 3, 3, 3})
	score(weakB.ID, []float64{3, 3, 3, 3})

	ranking, err := env.evaluations.Ranking(ctx, call.ID)
	require.NoError(t, err)
	require.Len(t, ranking.Entries, 4)

	require.Equal(t, strong.ID, ranking.Entries[0].SubmissionID)
	require.Equal(t, 1, ranking.Entries[0].Position)
	// equal grades fall back to ascending submission id
	require.Equal(t, weakA.ID, ranking.Entries[1].SubmissionID)
	require.Equal(t, weakB.ID, ranking.Entries[2].SubmissionID)
	// undefined grades sort after every defined one
	require.Equal(t, ungraded.ID, ranking.Entries[3].SubmissionID)
	require.Nil(t, ranking.Entries[3].Grade)
	require.Equal(t, 4, ranking.Entries[3].Position)
}

func TestRankingCacheInvalidatedOnRecord(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	call := seedCall(t, env.db, true)
	submission := seedSubmission(t, env.db, call, 1, models.SubmissionStatusUnderReview)
	alice := seedReviewer(t, env.db, "alice")
	bob := seedReviewer(t, env.db, "bob")
	assignPair(t, env, submission.ID, "exposition", alice, bob)

	_, err := env.evaluations.Record(ctx, coordinator(), submission.ID, dto.EvaluationRequest{
		ReviewerID: alice.ID,
		Scores:     []float64{3, 3, 3, 3},
	})
	require.NoError(t, err)

	// prime the cache
	first, err := env.evaluations.Ranking(ctx, call.ID)
	require.NoError(t, err)
	require.NotNil(t, first.Entries[0].Grade)
	require.InDelta(t, 3.0, *first.Entries[0].Grade, 1e-9)

	_, err = env.evaluations.Record(ctx, coordinator(), submission.ID, dto.EvaluationRequest{
		ReviewerID: bob.ID,
		Scores:     []float64{5, 5, 5, 5},
	})
	require.NoError(t, err)

	second, err := env.evaluations.Ranking(ctx, call.ID)
	require.NoError(t, err)
	require.NotNil(t, second.Entries[0].Grade, "record must evict the cached ranking")
	require.InDelta(t, 8.0, *second.Entries[0].Grade, 1e-9)
}

func TestRankingUnknownCall(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.evaluations.Ranking(context.Background(), 4242)
	var notFound *apperr.NotFoundError
	require.ErrorAs(t, err, &notFound)
}
