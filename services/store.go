package services

import (
	"context"

	"github.com/cppla/streakholic/models"
	"github.com/cppla/streakholic/store"
)

// Store is the persistence surface the services depend on. *store.GormStore implements it.
type Store interface {
	CreateProfile(ctx context.Context, p *models.Profile) error
	CreateProfileWithGrant(ctx context.Context, p *models.Profile, grant *models.CoinTransaction) error
	GetProfile(ctx context.Context, id uint) (*models.Profile, error)
	GetProfileByHandle(ctx context.Context, handle string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, id uint, fields map[string]any) error
	SetHandle(ctx context.Context, id uint, handle string) error

	RecentDailyLogs(ctx context.Context, userID uint, limit int) ([]models.DailyLog, error)
	LatestDailyLogWithStatus(ctx context.Context, userID uint, status string) (*models.DailyLog, error)
	CountDailyLogs(ctx context.Context, userID uint, status string) (int64, error)
	UpsertDailyLogs(ctx context.Context, logs []models.DailyLog) error

	ApplyLedgerEntry(ctx context.Context, entry store.LedgerEntry) (*models.Profile, error)
	ListTransactions(ctx context.Context, userID uint, limit int) ([]models.CoinTransaction, error)
	ApplyPenalty(ctx context.Context, member models.GroupMember, debit int64, record models.CoinTransaction) error
	RecordPenaltyRun(ctx context.Context, userID uint, breakDate string) (bool, error)

	CreateGroup(ctx context.Context, g *models.Group) error
	GetGroup(ctx context.Context, id uint) (*models.Group, error)
	GetGroupByCode(ctx context.Context, code string) (*models.Group, error)
	GetMembership(ctx context.Context, groupID, userID uint) (*models.GroupMember, error)
	CreateMembership(ctx context.Context, m *models.GroupMember) error
	ListMemberships(ctx context.Context, userID uint) ([]models.GroupMember, error)
	ListGroupMembers(ctx context.Context, groupID uint) ([]store.MemberStanding, error)
}

var _ Store = (*store.GormStore)(nil)
