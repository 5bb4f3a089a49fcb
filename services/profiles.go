package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cppla/streakholic/models"
	"github.com/cppla/streakholic/store"
)

// Profiles onboards users and links their external handle.
type Profiles struct {
	store        Store
	gateway      Gateway
	initialGrant int64
	logger       *zap.Logger
}

// NewProfiles wires the profile service. initialGrant coins are credited on onboarding when positive.
func NewProfiles(st Store, gw Gateway, initialGrant int64, logger *zap.Logger) *Profiles {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Profiles{store: st, gateway: gw, initialGrant: initialGrant, logger: logger}
}

// Onboard creates the profile for an authenticated identity and credits the initial grant.
// The profile and its grant are written together, so a failed onboarding can simply be retried.
func (p *Profiles) Onboard(ctx context.Context, userID uint, username string) (*models.Profile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		username = fmt.Sprintf("user%d", userID)
	}
	profile := &models.Profile{ID: userID, Username: username}
	var grant *models.CoinTransaction
	if p.initialGrant > 0 {
		grant = &models.CoinTransaction{
			Amount:      p.initialGrant,
			Type:        models.TxInitialGrant,
			Description: "Welcome bonus",
			Reference:   uuid.NewString(),
		}
	}
	if err := p.store.CreateProfileWithGrant(ctx, profile, grant); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrProfileExists
		}
		return nil, storeErr("create profile", err)
	}
	p.logger.Info("profile onboarded", zap.Uint("user_id", userID), zap.Int64("grant", p.initialGrant))
	return profile, nil
}

// Get loads a profile.
func (p *Profiles) Get(ctx context.Context, userID uint) (*models.Profile, error) {
	profile, err := p.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, storeErr("load profile", err)
	}
	return profile, nil
}

// LinkHandle verifies handle with the gateway and links it. A handle is set once and is unique across profiles.
func (p *Profiles) LinkHandle(ctx context.Context, userID uint, handle string) (*models.Profile, Stats, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, Stats{}, fmt.Errorf("%w: empty handle", ErrGatewayUnavailable)
	}
	profile, err := p.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, Stats{}, storeErr("load profile", err)
	}
	if profile.HasHandle() {
		if *profile.Handle == handle {
			return profile, Stats{}, nil
		}
		return nil, Stats{}, ErrHandleAlreadyLinked
	}

	owner, err := p.store.GetProfileByHandle(ctx, handle)
	switch {
	case err == nil && owner.ID != userID:
		return nil, Stats{}, ErrHandleTaken
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return nil, Stats{}, storeErr("look up handle", err)
	}

	stats := p.gateway.FetchStats(ctx, handle)
	if !stats.Valid {
		return nil, stats, fmt.Errorf("%w: %s", ErrGatewayUnavailable, stats.Message)
	}

	switch err := p.store.SetHandle(ctx, userID, handle); {
	case errors.Is(err, store.ErrConflict):
		return nil, stats, ErrHandleTaken
	case errors.Is(err, store.ErrConditionFailed):
		return nil, stats, ErrHandleAlreadyLinked
	case err != nil:
		return nil, stats, storeErr("link handle", err)
	}
	profile.Handle = &handle
	p.logger.Info("handle linked", zap.Uint("user_id", userID), zap.String("handle", handle))
	return profile, stats, nil
}

// DailyLogs returns the user's activity logs, newest first.
func (p *Profiles) DailyLogs(ctx context.Context, userID uint, limit int) ([]models.DailyLog, error) {
	logs, err := p.store.RecentDailyLogs(ctx, userID, limit)
	if err != nil {
		return nil, storeErr("load daily logs", err)
	}
	return logs, nil
}
