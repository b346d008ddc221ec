package audit

import (
	"context"
)

// Service exposes the read side of the trail. Writes go through a Recorder.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListEvents(ctx context.Context, params map[string]string, limit, offset int) ([]*Event, int, error) {
	return s.repo.List(ctx, params, limit, offset)
}
