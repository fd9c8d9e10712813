package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/evently-hq/evently-backend/internal/models"
)

// MemoryStore is an in-memory DemeritStore. Append order is preserved by
// keeping demerits and appeals in slices. Safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	demerits []*models.Demerit
	appeals  []*models.Appeal
	settings map[uuid.UUID]models.DemeritSettings
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		settings: make(map[uuid.UUID]models.DemeritSettings),
	}
}

func (s *MemoryStore) InsertDemerit(_ context.Context, d *models.Demerit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *d
	s.demerits = append(s.demerits, &cp)
	return nil
}

func (s *MemoryStore) DemeritByID(_ context.Context, id uuid.UUID) (*models.Demerit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.demerits {
		if d.ID == id {
			cp := *d
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) DemeritsByUser(_ context.Context, userID uuid.UUID) ([]models.Demerit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Demerit{}
	for _, d := range s.demerits {
		if d.UserID == userID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (s *MemoryStore) ActiveDemeritsByUser(_ context.Context, userID uuid.UUID) ([]models.Demerit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Demerit{}
	for _, d := range s.demerits {
		if d.UserID == userID && d.Status == models.DemeritStatusActive {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (s *MemoryStore) ActiveDemeritsBefore(_ context.Context, cutoff time.Time) ([]models.Demerit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Demerit{}
	for _, d := range s.demerits {
		if d.Status == models.DemeritStatusActive && d.CreatedAt.Before(cutoff) {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (s *MemoryStore) UpdateDemerit(_ context.Context, d *models.Demerit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.demerits {
		if existing.ID == d.ID {
			cp := *d
			s.demerits[i] = &cp
			return nil
		}
	}
	return nil
}

func (s *MemoryStore) InsertAppeal(_ context.Context, a *models.Appeal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.appeals = append(s.appeals, &cp)
	return nil
}

func (s *MemoryStore) AppealByID(_ context.Context, id uuid.UUID) (*models.Appeal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.appeals {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) AppealsByUser(_ context.Context, userID uuid.UUID) ([]models.Appeal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Appeal{}
	for _, a := range s.appeals {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *MemoryStore) PendingAppeals(_ context.Context) ([]models.Appeal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Appeal{}
	for _, a := range s.appeals {
		if a.Status == models.AppealStatusPending || a.Status == models.AppealStatusUnderReview {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *MemoryStore) UpdateAppeal(_ context.Context, a *models.Appeal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.appeals {
		if existing.ID == a.ID {
			cp := *a
			s.appeals[i] = &cp
			return nil
		}
	}
	return nil
}

func (s *MemoryStore) UpsertSettings(_ context.Context, set models.DemeritSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[set.CalendarID] = set
	return nil
}

func (s *MemoryStore) SettingsByCalendar(_ context.Context, calendarID uuid.UUID) (*models.DemeritSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.settings[calendarID]
	if !ok {
		return nil, nil
	}
	cp := set
	return &cp, nil
}
