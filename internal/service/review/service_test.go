package review_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/mastery/internal/domain"
	"github.com/phrazzld/mastery/internal/domain/mastery"
	"github.com/phrazzld/mastery/internal/platform/clock"
	"github.com/phrazzld/mastery/internal/service/review"
	"github.com/phrazzld/mastery/internal/service/session"
	"github.com/phrazzld/mastery/internal/store"
	"github.com/phrazzld/mastery/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var created = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func newService(t *testing.T) (review.Service, store.Stores) {
	t.Helper()
	stores := testdb.SQLite(t)
	svc, err := review.NewService(stores, nil, nil)
	require.NoError(t, err)
	return svc, stores
}

func addTask(t *testing.T, stores store.Stores, contents ...string) (*domain.Task, []*domain.KnowledgePoint) {
	t.Helper()
	ctx := context.Background()
	task, err := domain.NewTask(domain.SubjectForeignLanguage, "vocab", "", nil, "", created)
	require.NoError(t, err)
	require.NoError(t, stores.Tasks.Create(ctx, task))

	kps := make([]*domain.KnowledgePoint, 0, len(contents))
	for _, c := range contents {
		kp, err := domain.NewKnowledgePoint(task.ID, c, "vocabulary", "", created)
		require.NoError(t, err)
		kps = append(kps, kp)
	}
	require.NoError(t, stores.KnowledgePoints.CreateMultiple(ctx, kps))
	return task, kps
}

func schedule(t *testing.T, stores store.Stores, kp *domain.KnowledgePoint, level domain.MasteryLevel, next string) {
	t.Helper()
	d, err := domain.ParseDate(next)
	require.NoError(t, err)
	tested := created
	kp.MasteryLevel = level
	kp.NextReviewDate = &d
	kp.LastTestedAt = &tested
	kp.CorrectCount = 1
	require.NoError(t, stores.KnowledgePoints.Update(context.Background(), kp))
}

func ids(kps []*domain.KnowledgePoint) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(kps))
	for _, kp := range kps {
		out = append(out, kp.ID)
	}
	return out
}

func TestDueReviews_June10Scenario(t *testing.T) {
	svc, stores := newService(t)
	ctx := context.Background()

	_, kps := addTask(t, stores, "due-10", "due-9", "mastered", "due-11", "untested")
	schedule(t, stores, kps[0], domain.MasteryLearning, "2024-06-10")
	schedule(t, stores, kps[1], domain.MasteryNeedsReinforcement, "2024-06-09")
	schedule(t, stores, kps[2], domain.MasteryMastered, "2024-06-05")
	schedule(t, stores, kps[3], domain.MasteryLearning, "2024-06-11")

	asOf := time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)
	due, err := svc.DueReviews(ctx, asOf)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{kps[1].ID, kps[0].ID}, ids(due))

	again, err := svc.DueReviews(ctx, asOf)
	require.NoError(t, err)
	assert.Equal(t, ids(due), ids(again), "repeated calls on an unchanged store")
}

func TestDueReviews_Empty(t *testing.T) {
	svc, _ := newService(t)
	due, err := svc.DueReviews(context.Background(), created)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestDue_IsLazyAndRestartable(t *testing.T) {
	svc, stores := newService(t)
	ctx := context.Background()
	asOf := time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)

	_, kps := addTask(t, stores, "a", "b", "c")
	seq := svc.Due(ctx, asOf)

	// Scheduled after the sequence was built; the read happens on iteration.
	schedule(t, stores, kps[0], domain.MasteryLearning, "2024-06-08")
	schedule(t, stores, kps[1], domain.MasteryLearning, "2024-06-09")
	schedule(t, stores, kps[2], domain.MasteryLearning, "2024-06-10")

	var first []uuid.UUID
	for kp, err := range seq {
		require.NoError(t, err)
		first = append(first, kp.ID)
	}
	assert.Equal(t, ids(kps), first)

	var second []uuid.UUID
	for kp, err := range seq {
		require.NoError(t, err)
		second = append(second, kp.ID)
	}
	assert.Equal(t, first, second)

	var taken int
	for _, err := range seq {
		require.NoError(t, err)
		taken++
		if taken == 2 {
			break
		}
	}
	assert.Equal(t, 2, taken)
}

func TestDue_YieldsStoreError(t *testing.T) {
	svc, stores := newService(t)
	require.NoError(t, stores.DB.Close())

	var errs int
	for kp, err := range svc.Due(context.Background(), created) {
		assert.Nil(t, kp)
		assert.Error(t, err)
		errs++
	}
	assert.Equal(t, 1, errs)
}

func TestReviewsForTask(t *testing.T) {
	svc, stores := newService(t)
	ctx := context.Background()

	task, kps := addTask(t, stores, "eins", "zwei", "drei")
	got, err := svc.ReviewsForTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, ids(kps), ids(got))

	_, err = svc.ReviewsForTask(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestWeeklyReport(t *testing.T) {
	svc, stores := newService(t)
	ctx := context.Background()

	_, kps := addTask(t, stores, "a", "b", "c")
	schedule(t, stores, kps[0], domain.MasteryMastered, "2024-06-20")
	schedule(t, stores, kps[1], domain.MasteryNeedsReinforcement, "2024-06-09")

	at := func(s string) time.Time {
		ts, err := time.Parse(time.RFC3339, s)
		require.NoError(t, err)
		return ts
	}
	entries := []struct {
		kp     *domain.KnowledgePoint
		result domain.Result
		when   time.Time
	}{
		{kps[0], domain.ResultCorrect, at("2024-06-03T23:59:00Z")},   // before the window
		{kps[0], domain.ResultCorrect, at("2024-06-04T00:00:00Z")},   // first day
		{kps[0], domain.ResultCorrect, at("2024-06-07T10:00:00Z")},   //
		{kps[1], domain.ResultIncorrect, at("2024-06-08T10:00:00Z")}, //
		{kps[1], domain.ResultIncorrect, at("2024-06-10T21:00:00Z")}, // last day
		{kps[1], domain.ResultCorrect, at("2024-06-11T00:00:00Z")},   // after the window
	}
	for _, e := range entries {
		h, err := domain.NewLearningHistory(e.kp.ID, e.result, "", "", e.when)
		require.NoError(t, err)
		require.NoError(t, stores.History.Create(ctx, h))
	}

	r, err := svc.WeeklyReport(ctx, time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2024-06-04", r.From.Format(domain.DateLayout))
	assert.Equal(t, "2024-06-11", r.To.Format(domain.DateLayout))
	assert.Equal(t, 4, r.Attempts)
	assert.Equal(t, 2, r.Correct)
	assert.Equal(t, 2, r.Incorrect)
	assert.InDelta(t, 0.5, r.Accuracy, 1e-9)
	assert.Equal(t, 2, r.PointsPracticed)
	assert.Equal(t, 1, r.Mastered)
	assert.Equal(t, 1, r.NeedsReinforcement)
	assert.Equal(t, 1, r.Untested)
	assert.Zero(t, r.Learning)
}

func TestWeeklyReport_NoAttempts(t *testing.T) {
	svc, _ := newService(t)
	r, err := svc.WeeklyReport(context.Background(), created)
	require.NoError(t, err)
	assert.Zero(t, r.Attempts)
	assert.Zero(t, r.Accuracy)
}

// Attempts recorded through the session service show up in the due list on
// the day they are scheduled for and not before.
func TestDueReviews_FollowsRecordedAttempts(t *testing.T) {
	svc, stores := newService(t)
	ctx := context.Background()
	_, kps := addTask(t, stores, "7×8=56")

	clk := clock.NewFixed(created)
	sessions, err := session.NewService(stores, mastery.NewDefaultEvaluator(), clk, nil, nil)
	require.NoError(t, err)

	_, err = sessions.RecordAttempt(ctx, session.AttemptInput{KnowledgePointID: kps[0].ID, Result: domain.ResultCorrect})
	require.NoError(t, err)

	due, err := svc.DueReviews(ctx, domain.AddDays(created, 2))
	require.NoError(t, err)
	assert.Empty(t, due)

	due, err = svc.DueReviews(ctx, domain.AddDays(created, 3))
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{kps[0].ID}, ids(due))
}
