package session

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/mastery/internal/domain"
	"github.com/phrazzld/mastery/internal/service"
)

// Projection compares a knowledge point's stored schedule with the one
// recomputed from its full history.
type Projection struct {
	KnowledgePointID uuid.UUID

	StoredLevel        domain.MasteryLevel
	StoredNextReview   *time.Time
	StoredCorrectCount int
	StoredErrorCount   int

	ReplayedLevel      domain.MasteryLevel
	ReplayedNextReview *time.Time
	HistoryCorrect     int
	HistoryIncorrect   int
}

// Consistent reports whether every stored field matches the replay.
func (p *Projection) Consistent() bool {
	return p.StoredLevel == p.ReplayedLevel &&
		sameDate(p.StoredNextReview, p.ReplayedNextReview) &&
		p.StoredCorrectCount == p.HistoryCorrect &&
		p.StoredErrorCount == p.HistoryIncorrect
}

// VerifyProjection implements Service.VerifyProjection.
//
// The replay runs as of the point's last test time, read in the clock's
// location, since that is the instant the stored schedule was computed at.
func (s *sessionService) VerifyProjection(ctx context.Context, kpID uuid.UUID) (*Projection, error) {
	kp, err := s.stores.KnowledgePoints.GetByID(ctx, kpID)
	if err != nil {
		return nil, service.Wrap(serviceName, "verify_projection", "failed to get knowledge point", err)
	}
	entries, err := s.stores.History.ListByKnowledgePoint(ctx, kpID)
	if err != nil {
		return nil, service.Wrap(serviceName, "verify_projection", "failed to list history", err)
	}

	oldestFirst := results(entries)
	slices.Reverse(oldestFirst)

	p := &Projection{
		KnowledgePointID:   kp.ID,
		StoredLevel:        kp.MasteryLevel,
		StoredNextReview:   kp.NextReviewDate,
		StoredCorrectCount: kp.CorrectCount,
		StoredErrorCount:   kp.ErrorCount,
	}
	for _, r := range oldestFirst {
		if r == domain.ResultCorrect {
			p.HistoryCorrect++
		} else {
			p.HistoryIncorrect++
		}
	}

	asOf := s.clock.Now()
	if kp.LastTestedAt != nil {
		asOf = kp.LastTestedAt.In(asOf.Location())
	}
	replayed, err := s.evaluator.Replay(oldestFirst, asOf)
	if err != nil {
		return nil, service.Wrap(serviceName, "verify_projection", "failed to replay history", err)
	}
	p.ReplayedLevel = replayed.Level
	p.ReplayedNextReview = replayed.NextReviewDate
	return p, nil
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Format(domain.DateLayout) == b.Format(domain.DateLayout)
}
