package store

import (
	"context"
	"time"

	"github.com/cppla/streakholic/models"
)

// CreateGroup inserts a group. A taken invite code yields ErrConflict.
func (s *GormStore) CreateGroup(ctx context.Context, g *models.Group) error {
	return translate(s.db.WithContext(ctx).Create(g).Error)
}

// GetGroup loads a group by id.
func (s *GormStore) GetGroup(ctx context.Context, id uint) (*models.Group, error) {
	var g models.Group
	if err := s.db.WithContext(ctx).First(&g, id).Error; err != nil {
		return nil, translate(err)
	}
	return &g, nil
}

// GetGroupByCode loads a group by its invite code.
func (s *GormStore) GetGroupByCode(ctx context.Context, code string) (*models.Group, error) {
	var g models.Group
	if err := s.db.WithContext(ctx).Where("invite_code = ?", code).First(&g).Error; err != nil {
		return nil, translate(err)
	}
	return &g, nil
}

// GetMembership loads the (group, user) membership.
func (s *GormStore) GetMembership(ctx context.Context, groupID, userID uint) (*models.GroupMember, error) {
	var m models.GroupMember
	err := s.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&m).Error
	if err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

// CreateMembership inserts a membership. A duplicate (group, user) yields ErrConflict.
func (s *GormStore) CreateMembership(ctx context.Context, m *models.GroupMember) error {
	return translate(s.db.WithContext(ctx).Omit("Group").Create(m).Error)
}

// ListMemberships returns every membership of a user with its group loaded.
func (s *GormStore) ListMemberships(ctx context.Context, userID uint) ([]models.GroupMember, error) {
	var ms []models.GroupMember
	err := s.db.WithContext(ctx).
		Preload("Group").
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	return ms, nil
}

// MemberStanding is a group member row joined with its profile's streak fields.
type MemberStanding struct {
	UserID           uint      `json:"user_id"`
	Username         string    `json:"username"`
	Handle           *string   `json:"handle"`
	Role             string    `json:"role"`
	LockedBalance    int64     `json:"locked_balance"`
	JoinedAt         time.Time `json:"joined_at"`
	CurrentStreak    int       `json:"current_streak"`
	LongestStreak    int       `json:"longest_streak"`
	LastActivityDate *string   `json:"last_activity_date"`
}

// ListGroupMembers returns a group's members ordered by current streak, longest first.
func (s *GormStore) ListGroupMembers(ctx context.Context, groupID uint) ([]MemberStanding, error) {
	var rows []MemberStanding
	err := s.db.WithContext(ctx).
		Table("group_members AS gm").
		Select("gm.user_id, p.username, p.handle, gm.role, gm.locked_balance, gm.joined_at, " +
			"p.current_streak, p.longest_streak, p.last_activity_date").
		Joins("LEFT JOIN profiles AS p ON p.id = gm.user_id").
		Where("gm.group_id = ?", groupID).
		Order("p.current_streak DESC, gm.joined_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
