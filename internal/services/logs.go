package services

import (
	"context"

	"github.com/celerix-dev/celerix-gestao/internal/database"
	"github.com/celerix-dev/celerix-gestao/pkg/schema"
)

// LogService reads the audit log, newest first.
type LogService struct {
	repo *database.Repository
}

func (s *LogService) List(ctx context.Context, p ListParams) (Page[schema.LogEntry], error) {
	logs, err := database.List(ctx, s.repo, database.Logs)
	if err != nil {
		return Page[schema.LogEntry]{}, err
	}
	for i, j := 0, len(logs)-1; i < j; i, j = i+1, j-1 {
		logs[i], logs[j] = logs[j], logs[i]
	}
	logs = Match(logs, p.Filters, func(e schema.LogEntry) map[string]string {
		return map[string]string{"user": e.User, "action": e.Action}
	})
	logs = Filter(logs, p.Query, func(e schema.LogEntry) []string {
		return []string{e.Details, e.Action, e.User}
	})
	return Paginate(logs, p.Page, p.PageSize), nil
}
