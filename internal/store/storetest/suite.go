// Package storetest holds a contract test suite every store.Stores
// implementation must pass. Backends call Run from their own tests.
package storetest

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/mastery/internal/domain"
	"github.com/phrazzld/mastery/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty, migrated set of stores.
type Factory func(t *testing.T) store.Stores

// Base is the reference time used by fixtures. Millisecond precision keeps
// round-trips exact on every backend.
var Base = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

// Run executes the full contract suite.
func Run(t *testing.T, newStores Factory) {
	t.Run("TaskRoundTrip", func(t *testing.T) { testTaskRoundTrip(t, newStores(t)) })
	t.Run("TaskList", func(t *testing.T) { testTaskList(t, newStores(t)) })
	t.Run("KnowledgePointsByTask", func(t *testing.T) { testKnowledgePointsByTask(t, newStores(t)) })
	t.Run("KnowledgePointUnknownTask", func(t *testing.T) { testKnowledgePointUnknownTask(t, newStores(t)) })
	t.Run("KnowledgePointUpdate", func(t *testing.T) { testKnowledgePointUpdate(t, newStores(t)) })
	t.Run("ListDue", func(t *testing.T) { testListDue(t, newStores(t)) })
	t.Run("History", func(t *testing.T) { testHistory(t, newStores(t)) })
	t.Run("Strategies", func(t *testing.T) { testStrategies(t, newStores(t)) })
	t.Run("TransactionRollback", func(t *testing.T) { testTransactionRollback(t, newStores(t)) })
}

// NewTask persists a fixture task.
func NewTask(t *testing.T, s store.Stores, subject domain.Subject, title string) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(subject, title, "", nil, "", Base)
	require.NoError(t, err)
	require.NoError(t, s.Tasks.Create(context.Background(), task))
	return task
}

// NewKnowledgePoints persists fixture points under task in the given order.
func NewKnowledgePoints(t *testing.T, s store.Stores, task *domain.Task, contents ...string) []*domain.KnowledgePoint {
	t.Helper()
	kps := make([]*domain.KnowledgePoint, 0, len(contents))
	for _, c := range contents {
		kp, err := domain.NewKnowledgePoint(task.ID, c, "fact", "", Base)
		require.NoError(t, err)
		kps = append(kps, kp)
	}
	require.NoError(t, s.KnowledgePoints.CreateMultiple(context.Background(), kps))
	return kps
}

// Schedule sets level and next review date on a stored point.
func Schedule(t *testing.T, s store.Stores, kp *domain.KnowledgePoint, level domain.MasteryLevel, next string) {
	t.Helper()
	d, err := domain.ParseDate(next)
	require.NoError(t, err)
	kp.MasteryLevel = level
	kp.NextReviewDate = &d
	kp.CorrectCount++
	tested := Base
	kp.LastTestedAt = &tested
	require.NoError(t, s.KnowledgePoints.Update(context.Background(), kp))
}

func testTaskRoundTrip(t *testing.T, s store.Stores) {
	ctx := context.Background()
	target := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	task, err := domain.NewTask(domain.SubjectForeignLanguage, "German animals", "der Hund, die Katze", &target, "week 3", Base)
	require.NoError(t, err)
	require.NoError(t, s.Tasks.Create(ctx, task))

	got, err := s.Tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)
	assert.Equal(t, task.Subject, got.Subject)
	assert.Equal(t, task.Title, got.Title)
	assert.Equal(t, task.Notes, got.Notes)
	assert.True(t, task.CreatedAt.Equal(got.CreatedAt))
	require.NotNil(t, got.TargetDate)
	assert.True(t, target.Equal(*got.TargetDate))
	assert.Equal(t, domain.TaskStatusInProgress, got.Status)

	require.NoError(t, s.Tasks.UpdateStatus(ctx, task.ID, domain.TaskStatusCompleted))
	got, err = s.Tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, got.Status)

	_, err = s.Tasks.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
	assert.ErrorIs(t, s.Tasks.UpdateStatus(ctx, uuid.New(), domain.TaskStatusCompleted), store.ErrTaskNotFound)
}

func testTaskList(t *testing.T, s store.Stores) {
	ctx := context.Background()
	a := NewTask(t, s, domain.SubjectMathematics, "fractions")
	b := NewTask(t, s, domain.SubjectLanguageArts, "poem")
	c := NewTask(t, s, domain.SubjectMathematics, "times tables")
	require.NoError(t, s.Tasks.UpdateStatus(ctx, c.ID, domain.TaskStatusCompleted))

	all, err := s.Tasks.List(ctx, store.TaskFilter{})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a.ID, b.ID, c.ID}, taskIDs(all))

	math := domain.SubjectMathematics
	got, err := s.Tasks.List(ctx, store.TaskFilter{Subject: &math})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a.ID, c.ID}, taskIDs(got))

	open := domain.TaskStatusInProgress
	got, err = s.Tasks.List(ctx, store.TaskFilter{Subject: &math, Status: &open})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a.ID}, taskIDs(got))
}

func testKnowledgePointsByTask(t *testing.T, s store.Stores) {
	ctx := context.Background()
	task := NewTask(t, s, domain.SubjectMathematics, "times tables")
	other := NewTask(t, s, domain.SubjectMathematics, "other")
	kps := NewKnowledgePoints(t, s, task, "7×8=56", "6×7=42", "9×9=81")
	NewKnowledgePoints(t, s, other, "2+2=4")

	got, err := s.KnowledgePoints.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, kpIDs(kps), kpIDs(got))

	first := got[0]
	assert.Equal(t, "7×8=56", first.Content)
	assert.Equal(t, domain.MasteryUntested, first.MasteryLevel)
	assert.Nil(t, first.NextReviewDate)
	assert.Nil(t, first.LastTestedAt)
	assert.Zero(t, first.ErrorCount)

	_, err = s.KnowledgePoints.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrKnowledgePointNotFound)
}

func testKnowledgePointUnknownTask(t *testing.T, s store.Stores) {
	kp, err := domain.NewKnowledgePoint(uuid.New(), "orphan", "", "", Base)
	require.NoError(t, err)

	err = store.RunInTransaction(context.Background(), s.DB, func(ctx context.Context, tx *sql.Tx) error {
		return s.KnowledgePoints.WithTx(tx).CreateMultiple(ctx, []*domain.KnowledgePoint{kp})
	})
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}

func testKnowledgePointUpdate(t *testing.T, s store.Stores) {
	ctx := context.Background()
	task := NewTask(t, s, domain.SubjectMathematics, "times tables")
	kp := NewKnowledgePoints(t, s, task, "7×8=56")[0]

	next := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	tested := Base.Add(90 * time.Minute)
	kp.ErrorCount = 1
	kp.MasteryLevel = domain.MasteryLearning
	kp.NextReviewDate = &next
	kp.LastTestedAt = &tested
	require.NoError(t, s.KnowledgePoints.Update(ctx, kp))

	got, err := s.KnowledgePoints.GetForUpdate(ctx, kp.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ErrorCount)
	assert.Equal(t, domain.MasteryLearning, got.MasteryLevel)
	require.NotNil(t, got.NextReviewDate)
	assert.True(t, next.Equal(*got.NextReviewDate))
	require.NotNil(t, got.LastTestedAt)
	assert.True(t, tested.Equal(*got.LastTestedAt))

	counts, err := s.KnowledgePoints.CountByLevel(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[domain.MasteryLearning])

	missing := *kp
	missing.ID = uuid.New()
	assert.ErrorIs(t, s.KnowledgePoints.Update(ctx, &missing), store.ErrKnowledgePointNotFound)
}

func testListDue(t *testing.T, s store.Stores) {
	ctx := context.Background()
	task := NewTask(t, s, domain.SubjectForeignLanguage, "vocab")
	kps := NewKnowledgePoints(t, s, task, "a", "b", "c", "d", "e")
	Schedule(t, s, kps[0], domain.MasteryLearning, "2024-06-10")
	Schedule(t, s, kps[1], domain.MasteryNeedsReinforcement, "2024-06-09")
	Schedule(t, s, kps[2], domain.MasteryMastered, "2024-06-05")
	Schedule(t, s, kps[3], domain.MasteryLearning, "2024-06-11")
	Schedule(t, s, kps[4], domain.MasteryLearning, "2024-06-10")

	asOf := time.Date(2024, 6, 10, 23, 59, 0, 0, time.UTC)
	due, err := s.KnowledgePoints.ListDue(ctx, asOf)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{kps[1].ID, kps[0].ID, kps[4].ID}, kpIDs(due))

	again, err := s.KnowledgePoints.ListDue(ctx, asOf)
	require.NoError(t, err)
	assert.Equal(t, kpIDs(due), kpIDs(again))
}

func testHistory(t *testing.T, s store.Stores) {
	ctx := context.Background()
	task := NewTask(t, s, domain.SubjectMathematics, "times tables")
	kp := NewKnowledgePoints(t, s, task, "7×8=56")[0]

	var created []*domain.LearningHistory
	results := []domain.Result{domain.ResultIncorrect, domain.ResultCorrect, domain.ResultCorrect}
	for i, r := range results {
		h, err := domain.NewLearningHistory(kp.ID, r, "", "", Base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
		require.NoError(t, s.History.Create(ctx, h))
		created = append(created, h)
	}

	all, err := s.History.ListByKnowledgePoint(ctx, kp.ID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, created[2].ID, all[0].ID)
	assert.Equal(t, created[0].ID, all[2].ID)

	recent, err := s.History.ListRecent(ctx, kp.ID, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, created[2].ID, recent[0].ID)
	assert.Equal(t, created[1].ID, recent[1].ID)

	window, err := s.History.ListBetween(ctx, Base.Add(30*time.Minute), Base.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, created[1].ID, window[0].ID)

	orphan, err := domain.NewLearningHistory(uuid.New(), domain.ResultCorrect, "", "", Base)
	require.NoError(t, err)
	assert.ErrorIs(t, s.History.Create(ctx, orphan), store.ErrKnowledgePointNotFound)
}

func testStrategies(t *testing.T, s store.Stores) {
	ctx := context.Background()
	task := NewTask(t, s, domain.SubjectMathematics, "times tables")
	kp := NewKnowledgePoints(t, s, task, "7×8=56")[0]

	first, err := domain.NewTeachingStrategy(kp.ID, "mnemonic", "5, 6, 7, 8", Base)
	require.NoError(t, err)
	second, err := domain.NewTeachingStrategy(kp.ID, "association", "8 weeks of 7 days", Base.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, s.Strategies.Create(ctx, first))
	require.NoError(t, s.Strategies.Create(ctx, second))

	list, err := s.Strategies.ListByKnowledgePoint(ctx, kp.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, domain.EffectivenessUnknown, list[1].Effectiveness)

	require.NoError(t, s.Strategies.UpdateEffectiveness(ctx, first.ID, domain.EffectivenessEffective))
	got, err := s.Strategies.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EffectivenessEffective, got.Effectiveness)
	assert.Equal(t, first.Content, got.Content)

	assert.ErrorIs(t, s.Strategies.UpdateEffectiveness(ctx, uuid.New(), domain.EffectivenessIneffective),
		store.ErrTeachingStrategyNotFound)
	_, err = s.Strategies.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrTeachingStrategyNotFound)
}

func testTransactionRollback(t *testing.T, s store.Stores) {
	ctx := context.Background()
	task := NewTask(t, s, domain.SubjectMathematics, "times tables")
	kp := NewKnowledgePoints(t, s, task, "7×8=56")[0]

	err := store.RunInTransaction(ctx, s.DB, func(ctx context.Context, tx *sql.Tx) error {
		txs := s.WithTx(tx)
		h, err := domain.NewLearningHistory(kp.ID, domain.ResultCorrect, "", "", Base)
		if err != nil {
			return err
		}
		if err := txs.History.Create(ctx, h); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	entries, err := s.History.ListByKnowledgePoint(ctx, kp.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func taskIDs(tasks []*domain.Task) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	return ids
}

func kpIDs(kps []*domain.KnowledgePoint) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(kps))
	for _, kp := range kps {
		ids = append(ids, kp.ID)
	}
	return ids
}
