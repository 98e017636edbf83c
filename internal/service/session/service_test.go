package session_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/mastery/internal/domain"
	"github.com/phrazzld/mastery/internal/domain/mastery"
	"github.com/phrazzld/mastery/internal/platform/clock"
	"github.com/phrazzld/mastery/internal/service"
	"github.com/phrazzld/mastery/internal/service/session"
	"github.com/phrazzld/mastery/internal/store"
	"github.com/phrazzld/mastery/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc    session.Service
	stores store.Stores
	clock  *clock.Fixed
	task   *domain.Task
	kp     *domain.KnowledgePoint
}

func newFixture(t *testing.T, opts ...session.Option) *fixture {
	t.Helper()
	stores := testdb.SQLite(t)
	return newFixtureWithStores(t, stores, opts...)
}

func newFixtureWithStores(t *testing.T, stores store.Stores, opts ...session.Option) *fixture {
	t.Helper()
	ctx := context.Background()

	task, err := domain.NewTask(domain.SubjectMathematics, "times tables", "", nil, "", start)
	require.NoError(t, err)
	require.NoError(t, stores.Tasks.Create(ctx, task))
	kp, err := domain.NewKnowledgePoint(task.ID, "7×8=56", "fact", "", start)
	require.NoError(t, err)
	require.NoError(t, stores.KnowledgePoints.CreateMultiple(ctx, []*domain.KnowledgePoint{kp}))

	clk := clock.NewFixed(start)
	svc, err := session.NewService(stores, mastery.NewDefaultEvaluator(), clk, nil, nil, opts...)
	require.NoError(t, err)
	return &fixture{svc: svc, stores: stores, clock: clk, task: task, kp: kp}
}

func (f *fixture) record(t *testing.T, result domain.Result) *session.RecordedAttempt {
	t.Helper()
	out, err := f.svc.RecordAttempt(context.Background(), session.AttemptInput{
		KnowledgePointID: f.kp.ID,
		Result:           result,
	})
	require.NoError(t, err)
	return out
}

func nextDate(kp *domain.KnowledgePoint) string {
	if kp.NextReviewDate == nil {
		return ""
	}
	return kp.NextReviewDate.Format(domain.DateLayout)
}

func TestNewService_Validation(t *testing.T) {
	stores := testdb.SQLite(t)
	clk := clock.NewFixed(start)
	eval := mastery.NewDefaultEvaluator()

	_, err := session.NewService(store.Stores{}, eval, clk, nil, nil)
	assert.Error(t, err)
	_, err = session.NewService(stores, nil, clk, nil, nil)
	assert.Error(t, err)
	_, err = session.NewService(stores, eval, nil, nil, nil)
	assert.Error(t, err)
}

// One incorrect answer, then three correct ones a day apart.
func TestRecordAttempt_TimesTablesScenario(t *testing.T) {
	f := newFixture(t)

	out := f.record(t, domain.ResultIncorrect)
	assert.Equal(t, domain.MasteryUntested, out.PreviousLevel)
	assert.Equal(t, domain.MasteryLearning, out.KnowledgePoint.MasteryLevel)
	assert.Equal(t, 1, out.KnowledgePoint.ErrorCount)
	assert.Equal(t, "2024-06-02", nextDate(out.KnowledgePoint))

	f.clock.Set(time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC))
	out = f.record(t, domain.ResultCorrect)
	assert.Equal(t, domain.MasteryLearning, out.KnowledgePoint.MasteryLevel)
	assert.Equal(t, 1, out.Streak)
	assert.Equal(t, "2024-06-05", nextDate(out.KnowledgePoint))

	f.clock.Set(time.Date(2024, 6, 5, 9, 0, 0, 0, time.UTC))
	out = f.record(t, domain.ResultCorrect)
	assert.Equal(t, domain.MasteryLearning, out.KnowledgePoint.MasteryLevel)
	assert.Equal(t, "2024-06-12", nextDate(out.KnowledgePoint))

	f.clock.Set(time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC))
	out = f.record(t, domain.ResultCorrect)
	assert.Equal(t, domain.MasteryMastered, out.KnowledgePoint.MasteryLevel)
	assert.Equal(t, 3, out.KnowledgePoint.CorrectCount)
	assert.Equal(t, 1, out.KnowledgePoint.ErrorCount)
	assert.Equal(t, 3, out.Streak)

	stored, err := f.stores.KnowledgePoints.GetByID(context.Background(), f.kp.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MasteryMastered, stored.MasteryLevel)
	assert.Equal(t, 3, stored.CorrectCount)
	require.NotNil(t, stored.LastTestedAt)
	assert.True(t, f.clock.Now().Equal(*stored.LastTestedAt))
}

func TestRecordAttempt_ThreeCorrectFromStartIsMastered(t *testing.T) {
	f := newFixture(t)
	f.record(t, domain.ResultCorrect)
	f.record(t, domain.ResultCorrect)
	out := f.record(t, domain.ResultCorrect)
	assert.Equal(t, domain.MasteryMastered, out.KnowledgePoint.MasteryLevel)
	assert.Zero(t, out.KnowledgePoint.ErrorCount)
}

func TestRecordAttempt_IncorrectAfterMasteredResets(t *testing.T) {
	f := newFixture(t)
	for range 3 {
		f.record(t, domain.ResultCorrect)
	}

	f.clock.Set(time.Date(2024, 6, 20, 18, 30, 0, 0, time.UTC))
	out := f.record(t, domain.ResultIncorrect)
	assert.Equal(t, domain.MasteryMastered, out.PreviousLevel)
	assert.Equal(t, domain.MasteryLearning, out.KnowledgePoint.MasteryLevel)
	assert.Zero(t, out.Streak)
	assert.Equal(t, "2024-06-21", nextDate(out.KnowledgePoint))
}

func TestRecordAttempt_TwoIncorrectNeedsReinforcement(t *testing.T) {
	f := newFixture(t)
	f.record(t, domain.ResultCorrect)
	f.record(t, domain.ResultIncorrect)
	out := f.record(t, domain.ResultIncorrect)
	assert.Equal(t, domain.MasteryNeedsReinforcement, out.KnowledgePoint.MasteryLevel)
	assert.Equal(t, "2024-06-02", nextDate(out.KnowledgePoint))
}

func TestRecordAttempt_UsesClockLocationForToday(t *testing.T) {
	stores := testdb.SQLite(t)
	f := newFixtureWithStores(t, stores)

	// 23:30 on June 1st in UTC is already June 2nd in Shanghai.
	shanghai := time.FixedZone("CST", 8*60*60)
	f.clock.Set(time.Date(2024, 6, 1, 23, 30, 0, 0, time.UTC).In(shanghai))

	out := f.record(t, domain.ResultIncorrect)
	assert.Equal(t, "2024-06-03", nextDate(out.KnowledgePoint))

	p, err := f.svc.VerifyProjection(context.Background(), f.kp.ID)
	require.NoError(t, err)
	assert.True(t, p.Consistent())
}

func TestRecordAttempt_WithStrategy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.svc.RecordAttempt(ctx, session.AttemptInput{
		KnowledgePointID: f.kp.ID,
		Result:           domain.ResultIncorrect,
		ParentFeedback:   "guessed 54",
		AgentResponse:    "Try counting 5, 6, 7, 8: 56 = 7×8.",
		Strategy:         &session.StrategyInput{StrategyType: "mnemonic", Content: "5, 6, 7, 8"},
	})
	require.NoError(t, err)
	require.NotNil(t, out.Strategy)
	assert.Equal(t, domain.EffectivenessUnknown, out.Strategy.Effectiveness)

	history, err := f.svc.History(ctx, f.kp.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "guessed 54", history[0].ParentFeedback)
	assert.Equal(t, "Try counting 5, 6, 7, 8: 56 = 7×8.", history[0].AgentResponse)

	strategies, err := f.svc.Strategies(ctx, f.kp.ID)
	require.NoError(t, err)
	require.Len(t, strategies, 1)
	assert.Equal(t, out.Strategy.ID, strategies[0].ID)

	require.NoError(t, f.svc.UpdateStrategyEffectiveness(ctx, out.Strategy.ID, domain.EffectivenessEffective))
	strategies, err = f.svc.Strategies(ctx, f.kp.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EffectivenessEffective, strategies[0].Effectiveness)

	err = f.svc.UpdateStrategyEffectiveness(ctx, out.Strategy.ID, "brilliant")
	assert.ErrorIs(t, err, domain.ErrValidation)
	err = f.svc.UpdateStrategyEffectiveness(ctx, uuid.New(), domain.EffectivenessIneffective)
	assert.ErrorIs(t, err, domain.ErrTeachingStrategyNotFound)
}

func TestRecordAttempt_RejectsBadInputWithoutWriting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.RecordAttempt(ctx, session.AttemptInput{KnowledgePointID: f.kp.ID, Result: "maybe"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.RecordAttempt(ctx, session.AttemptInput{
		KnowledgePointID: f.kp.ID,
		Result:           domain.ResultCorrect,
		Strategy:         &session.StrategyInput{StrategyType: "mnemonic"},
	})
	assert.ErrorIs(t, err, domain.ErrEmptyContent)

	history, err := f.svc.History(ctx, f.kp.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestRecordAttempt_UnknownKnowledgePoint(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.RecordAttempt(context.Background(), session.AttemptInput{
		KnowledgePointID: uuid.New(),
		Result:           domain.ResultCorrect,
	})
	assert.ErrorIs(t, err, domain.ErrKnowledgePointNotFound)

	_, err = f.svc.History(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.svc.Strategies(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

var errInjected = errors.New("injected update failure")

// failingUpdates fails every Update after the history entry has been written.
type failingUpdates struct {
	store.KnowledgePointStore
}

func (f failingUpdates) Update(context.Context, *domain.KnowledgePoint) error {
	return errInjected
}

func (f failingUpdates) WithTx(tx *sql.Tx) store.KnowledgePointStore {
	return failingUpdates{f.KnowledgePointStore.WithTx(tx)}
}

func TestRecordAttempt_AtomicOnFailure(t *testing.T) {
	stores := testdb.SQLite(t)
	f := newFixtureWithStores(t, stores)
	ctx := context.Background()

	broken := stores
	broken.KnowledgePoints = failingUpdates{stores.KnowledgePoints}
	svc, err := session.NewService(broken, mastery.NewDefaultEvaluator(), f.clock, nil, nil)
	require.NoError(t, err)

	_, err = svc.RecordAttempt(ctx, session.AttemptInput{
		KnowledgePointID: f.kp.ID,
		Result:           domain.ResultIncorrect,
		Strategy:         &session.StrategyInput{StrategyType: "mnemonic", Content: "5, 6, 7, 8"},
	})
	require.ErrorIs(t, err, errInjected)
	var se *service.ServiceError
	assert.ErrorAs(t, err, &se)

	history, err := stores.History.ListByKnowledgePoint(ctx, f.kp.ID)
	require.NoError(t, err)
	assert.Empty(t, history)

	strategies, err := stores.Strategies.ListByKnowledgePoint(ctx, f.kp.ID)
	require.NoError(t, err)
	assert.Empty(t, strategies)

	kp, err := stores.KnowledgePoints.GetByID(ctx, f.kp.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MasteryUntested, kp.MasteryLevel)
	assert.Zero(t, kp.ErrorCount)
	assert.Nil(t, kp.NextReviewDate)
	assert.Nil(t, kp.LastTestedAt)
}

func TestRecordAttempt_ConcurrentAttemptsSerialize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.RecordAttempt(ctx, session.AttemptInput{
				KnowledgePointID: f.kp.ID,
				Result:           domain.ResultCorrect,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	kp, err := f.stores.KnowledgePoints.GetByID(ctx, f.kp.ID)
	require.NoError(t, err)
	assert.Equal(t, n, kp.CorrectCount)

	p, err := f.svc.VerifyProjection(ctx, f.kp.ID)
	require.NoError(t, err)
	assert.True(t, p.Consistent())
	assert.Equal(t, n, p.HistoryCorrect)
}

func TestVerifyProjection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.VerifyProjection(ctx, f.kp.ID)
	require.NoError(t, err)
	assert.True(t, p.Consistent(), "untested point with no history")

	sequence := []domain.Result{
		domain.ResultCorrect, domain.ResultIncorrect, domain.ResultIncorrect,
		domain.ResultCorrect, domain.ResultCorrect, domain.ResultCorrect, domain.ResultIncorrect,
	}
	for _, r := range sequence {
		f.clock.Advance(26 * time.Hour)
		f.record(t, r)

		p, err := f.svc.VerifyProjection(ctx, f.kp.ID)
		require.NoError(t, err)
		assert.True(t, p.Consistent(), "after %s", r)
	}

	// Break the stored projection and check it is caught.
	kp, err := f.stores.KnowledgePoints.GetByID(ctx, f.kp.ID)
	require.NoError(t, err)
	wrong := domain.AddDays(*kp.NextReviewDate, 5)
	kp.NextReviewDate = &wrong
	require.NoError(t, f.stores.KnowledgePoints.Update(ctx, kp))

	p, err = f.svc.VerifyProjection(ctx, f.kp.ID)
	require.NoError(t, err)
	assert.False(t, p.Consistent())

	_, err = f.svc.VerifyProjection(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

type mockStrategyWriter struct {
	mock.Mock
}

func (m *mockStrategyWriter) WriteStrategy(
	ctx context.Context,
	strategyType string,
	task *domain.Task,
	kp *domain.KnowledgePoint,
	recent []*domain.LearningHistory,
) (string, error) {
	args := m.Called(ctx, strategyType, task, kp, recent)
	return args.String(0), args.Error(1)
}

func TestSuggestStrategy(t *testing.T) {
	writer := &mockStrategyWriter{}
	f := newFixture(t, session.WithStrategyWriter(writer))
	ctx := context.Background()
	f.record(t, domain.ResultIncorrect)

	writer.On("WriteStrategy",
		mock.Anything,
		"mnemonic",
		mock.MatchedBy(func(task *domain.Task) bool { return task.ID == f.task.ID }),
		mock.MatchedBy(func(kp *domain.KnowledgePoint) bool { return kp.ID == f.kp.ID }),
		mock.MatchedBy(func(recent []*domain.LearningHistory) bool {
			return len(recent) == 1 && recent[0].Result == domain.ResultIncorrect
		}),
	).Return("5, 6, 7, 8: fifty-six is seven times eight", nil).Once()

	draft, err := f.svc.SuggestStrategy(ctx, f.kp.ID, "mnemonic")
	require.NoError(t, err)
	assert.Equal(t, "mnemonic", draft.StrategyType)
	assert.Equal(t, "5, 6, 7, 8: fifty-six is seven times eight", draft.Content)
	writer.AssertExpectations(t)

	// Nothing is stored until the strategy comes back with an attempt.
	strategies, err := f.svc.Strategies(ctx, f.kp.ID)
	require.NoError(t, err)
	assert.Empty(t, strategies)
}

func TestSuggestStrategy_WriterFailure(t *testing.T) {
	writer := &mockStrategyWriter{}
	f := newFixture(t, session.WithStrategyWriter(writer))
	writer.On("WriteStrategy", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("quota exceeded"))

	_, err := f.svc.SuggestStrategy(context.Background(), f.kp.ID, "association")
	var se *service.ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "suggest_strategy", se.Operation)
	assert.ErrorIs(t, err, session.ErrStrategyFailed)
}

func TestSuggestStrategy_NotConfigured(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SuggestStrategy(context.Background(), f.kp.ID, "mnemonic")
	assert.ErrorIs(t, err, session.ErrNoStrategyWriter)
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)
}
