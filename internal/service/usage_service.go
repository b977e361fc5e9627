package service

import (
	"context"
	"time"

	"orga/internal/domain"
	"orga/internal/repository"
)

// UsageService calcula consumo mensual y limites de cada tenant.
// Los conteos se recalculan en cada llamada.
type UsageService struct {
	messages repository.MessageRepository
	users    repository.UserRepository
	loc      *time.Location
	now      func() time.Time
}

func NewUsageService(messages repository.MessageRepository, users repository.UserRepository, loc *time.Location) *UsageService {
	if loc == nil {
		loc = time.Local
	}
	return &UsageService{
		messages: messages,
		users:    users,
		loc:      loc,
		now:      time.Now,
	}
}

// MonthBounds devuelve [inicio de mes, inicio del mes siguiente) en loc.
func MonthBounds(ref time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	local := ref.In(loc)
	start := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}

func (s *UsageService) MonthlyMessageCount(ctx context.Context, tenantID string, ref time.Time) (int64, error) {
	from, to := MonthBounds(ref, s.loc)
	return s.messages.CountByTenantBetween(ctx, tenantID, from, to)
}

func (s *UsageService) UserMessageCount(ctx context.Context, userID string, ref time.Time) (int64, error) {
	from, to := MonthBounds(ref, s.loc)
	return s.messages.CountByUserBetween(ctx, userID, from, to)
}

// UserMessageCounts agrupa el consumo del mes por usuario del tenant.
func (s *UsageService) UserMessageCounts(ctx context.Context, tenantID string, ref time.Time) (map[string]int64, error) {
	from, to := MonthBounds(ref, s.loc)
	return s.messages.CountByUserInTenantBetween(ctx, tenantID, from, to)
}

func (s *UsageService) WithinLimits(ctx context.Context, tenant domain.Tenant) (bool, error) {
	n, err := s.MonthlyMessageCount(ctx, tenant.ID, s.now())
	if err != nil {
		return false, err
	}
	return n < tenant.MaxMessagesPerMonth, nil
}

func (s *UsageService) WithinUserLimit(ctx context.Context, tenant domain.Tenant) (bool, error) {
	n, err := s.users.CountByTenant(ctx, tenant.ID)
	if err != nil {
		return false, err
	}
	return n < int64(tenant.MaxUsers), nil
}
