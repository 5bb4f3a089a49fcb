package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/streakholic/models"
)

var (
	// ErrNotFound is returned when a point read matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a unique key is already taken.
	ErrConflict = errors.New("record already exists")
	// ErrConditionFailed is returned when a guarded update matched the row but not its condition.
	ErrConditionFailed = errors.New("update condition not met")
)

// GormStore implements the persistence surface of the service on top of gorm.
type GormStore struct {
	db *gorm.DB
}

// New wraps an initialized gorm DB.
func New(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// DB exposes the underlying handle for tests and maintenance commands.
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	}
	return err
}

// CreateProfile inserts a new profile.
func (s *GormStore) CreateProfile(ctx context.Context, p *models.Profile) error {
	return translate(s.db.WithContext(ctx).Create(p).Error)
}

// CreateProfileWithGrant inserts a profile and credits grant to it in one transaction. A nil grant
// inserts the profile alone. On success p reflects the stored row.
func (s *GormStore) CreateProfileWithGrant(ctx context.Context, p *models.Profile, grant *models.CoinTransaction) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		if grant == nil {
			return nil
		}
		if err := applyLedgerEntry(tx, LedgerEntry{UserID: p.ID, BalanceDelta: grant.Amount, Transaction: *grant}); err != nil {
			return err
		}
		return tx.First(p, p.ID).Error
	})
	return translate(err)
}

// GetProfile loads a profile by id.
func (s *GormStore) GetProfile(ctx context.Context, id uint) (*models.Profile, error) {
	var p models.Profile
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// GetProfileByHandle loads the profile linked to an external handle.
func (s *GormStore) GetProfileByHandle(ctx context.Context, handle string) (*models.Profile, error) {
	var p models.Profile
	if err := s.db.WithContext(ctx).Where("handle = ?", handle).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// UpdateProfile writes the given columns of one profile.
func (s *GormStore) UpdateProfile(ctx context.Context, id uint, fields map[string]any) error {
	// RowsAffected is not checked: MySQL reports 0 for rows whose values did not change.
	return translate(s.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", id).Updates(fields).Error)
}

// SetHandle links a handle to a profile that has none yet.
func (s *GormStore) SetHandle(ctx context.Context, id uint, handle string) error {
	res := s.db.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ? AND (handle IS NULL OR handle = '')", id).
		Update("handle", handle)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetProfile(ctx, id); err != nil {
			return err
		}
		return ErrConditionFailed
	}
	return nil
}

// RecentDailyLogs returns the newest logs of a user, newest first.
func (s *GormStore) RecentDailyLogs(ctx context.Context, userID uint, limit int) ([]models.DailyLog, error) {
	var logs []models.DailyLog
	q := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("date DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// LatestDailyLogWithStatus returns the newest log of a user having the given status.
func (s *GormStore) LatestDailyLogWithStatus(ctx context.Context, userID uint, status string) (*models.DailyLog, error) {
	var log models.DailyLog
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, status).
		Order("date DESC").
		First(&log).Error
	if err != nil {
		return nil, translate(err)
	}
	return &log, nil
}

// CountDailyLogs counts a user's logs having the given status.
func (s *GormStore) CountDailyLogs(ctx context.Context, userID uint, status string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.DailyLog{}).
		Where("user_id = ? AND status = ?", userID, status).
		Count(&n).Error
	return n, err
}

// UpsertDailyLogs inserts or updates logs keyed on (user, date).
// Snapshot counters are always refreshed; a stored success status is never replaced by a lesser one.
func (s *GormStore) UpsertDailyLogs(ctx context.Context, logs []models.DailyLog) error {
	if len(logs) == 0 {
		return nil
	}
	rows := make([]models.DailyLog, len(logs))
	copy(rows, logs)

	type statusKey struct {
		userID uint
		status string
	}
	dates := map[statusKey][]string{}
	for _, l := range rows {
		k := statusKey{userID: l.UserID, status: l.Status}
		dates[k] = append(dates[k], l.Date)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"problems_solved", "accepted_submissions", "updated_at"}),
		}).CreateInBatches(&rows, 200).Error
		if err != nil {
			return err
		}
		for k, ds := range dates {
			q := tx.Model(&models.DailyLog{}).Where("user_id = ? AND date IN ?", k.userID, ds)
			if k.status != models.LogStatusSuccess {
				q = q.Where("status <> ?", models.LogStatusSuccess)
			}
			if err := q.Update("status", k.status).Error; err != nil {
				return fmt.Errorf("update log status: %w", err)
			}
		}
		return nil
	})
}
