package attendance

import (
	"context"
	"errors"

	"buzzatt/internal/apperr"
	"buzzatt/internal/logger"
	"buzzatt/internal/metrics"
)

// Store is the persistence the service needs.
type Store interface {
	SaveSession(ctx context.Context, creatorEmail string, p SessionPayload) (SaveResult, error)
	ListSessions(ctx context.Context, f Filter) (Report, error)
}

// Service validates attendance sessions and reports on them.
type Service struct {
	store   Store
	metrics *metrics.Metrics
}

// NewService creates a service backed by store. m may be nil.
func NewService(store Store, m *metrics.Metrics) *Service {
	return &Service{store: store, metrics: m}
}

// SaveSession persists a completed session on behalf of the lecturer
// identified by creatorEmail.
func (s *Service) SaveSession(ctx context.Context, creatorEmail string, p SessionPayload) (SaveResult, error) {
	if err := p.Validate(); err != nil {
		return SaveResult{}, err
	}

	res, err := s.store.SaveSession(ctx, creatorEmail, p)
	if err != nil {
		if errors.Is(err, ErrDuplicateSession) {
			return SaveResult{}, err
		}
		return SaveResult{}, apperr.Dependency("save session", err)
	}
	s.metrics.SessionSaved(res.SavedCount, res.UnresolvedCount)

	log := logger.FromContext(ctx)
	log.Info("attendance session saved",
		"session_id", p.SessionID,
		"course_name", p.CourseName,
		"saved", res.SavedCount,
		"unresolved", res.UnresolvedCount,
	)
	if res.UnresolvedCount > 0 {
		log.Warn("roster entries matched no user", "session_id", p.SessionID, "count", res.UnresolvedCount)
	}
	return res, nil
}

// ListSessions returns the sessions matching f.
func (s *Service) ListSessions(ctx context.Context, f Filter) (Report, error) {
	report, err := s.store.ListSessions(ctx, f)
	if err != nil {
		return Report{}, apperr.Dependency("list sessions", err)
	}
	return report, nil
}
