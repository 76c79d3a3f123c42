package notifications

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"growf/platform-backend/internal/apperrors"
	"growf/platform-backend/internal/database"
	"growf/platform-backend/pkg/pagination"
)

// Store persists notifications. Every method is scoped to one user.
type Store interface {
	Create(ctx context.Context, n *Notification) error
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, page pagination.Params) ([]Notification, int64, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID, at time.Time) error
	MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

type gormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Create(ctx context.Context, n *Notification) error {
	return database.TranslateError(s.db.WithContext(ctx).Create(n).Error, "notification")
}

func (s *gormStore) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, page pagination.Params) ([]Notification, int64, error) {
	query := s.db.WithContext(ctx).Model(&Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("read_at IS NULL")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, database.TranslateError(err, "notification")
	}

	var items []Notification
	if err := query.Order("created_at DESC").Limit(page.Limit).Offset(page.Offset()).Find(&items).Error; err != nil {
		return nil, 0, database.TranslateError(err, "notification")
	}
	return items, total, nil
}

func (s *gormStore) MarkRead(ctx context.Context, id, userID uuid.UUID, at time.Time) error {
	result := s.db.WithContext(ctx).Model(&Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read_at", gorm.Expr("COALESCE(read_at, ?)", at))
	if result.Error != nil {
		return database.TranslateError(result.Error, "notification")
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("notification")
	}
	return nil
}

func (s *gormStore) MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Model(&Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", at)
	if result.Error != nil {
		return 0, database.TranslateError(result.Error, "notification")
	}
	return result.RowsAffected, nil
}

func (s *gormStore) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Count(&count).Error
	return count, database.TranslateError(err, "notification")
}

func (s *gormStore) Delete(ctx context.Context, id, userID uuid.UUID) error {
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&Notification{})
	if result.Error != nil {
		return database.TranslateError(result.Error, "notification")
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("notification")
	}
	return nil
}

// MemoryStore keeps notifications in a map. Used by tests and by the
// worker when no database is configured.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[uuid.UUID]Notification
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[uuid.UUID]Notification)}
}

func (s *MemoryStore) Create(_ context.Context, n *Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	s.items[n.ID] = *n
	return nil
}

func (s *MemoryStore) List(_ context.Context, userID uuid.UUID, unreadOnly bool, page pagination.Params) ([]Notification, int64, error) {
	s.mu.RLock()
	var all []Notification
	for _, n := range s.items {
		if n.UserID != userID || (unreadOnly && n.IsRead()) {
			continue
		}
		all = append(all, n)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return pagination.Slice(all, page), int64(len(all)), nil
}

func (s *MemoryStore) MarkRead(_ context.Context, id, userID uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.items[id]
	if !ok || n.UserID != userID {
		return apperrors.NotFound("notification")
	}
	if n.ReadAt == nil {
		n.ReadAt = &at
		s.items[id] = n
	}
	return nil
}

func (s *MemoryStore) MarkAllRead(_ context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var updated int64
	for id, n := range s.items {
		if n.UserID == userID && n.ReadAt == nil {
			n.ReadAt = &at
			s.items[id] = n
			updated++
		}
	}
	return updated, nil
}

func (s *MemoryStore) UnreadCount(_ context.Context, userID uuid.UUID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, n := range s.items {
		if n.UserID == userID && n.ReadAt == nil {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) Delete(_ context.Context, id, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.items[id]
	if !ok || n.UserID != userID {
		return apperrors.NotFound("notification")
	}
	delete(s.items, id)
	return nil
}
