package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/evently-hq/evently-backend/internal/database"
	"github.com/evently-hq/evently-backend/internal/models"
	"github.com/evently-hq/evently-backend/internal/store"
)

const (
	// RestrictionKeyPrefix is the Redis key prefix for restriction snapshots
	RestrictionKeyPrefix = "restrictions:"
	// RestrictionSnapshotTTL bounds how long a stale snapshot can outlive its user
	RestrictionSnapshotTTL = 24 * time.Hour

	// Fixed restriction bands. The per-calendar pointsThreshold setting is a
	// dashboard hint and does not move these.
	RegisterBanThreshold = 50
	CreateBanThreshold   = 75
	SuspensionThreshold  = 100
)

// RestrictionService derives and caches UserRestriction snapshots from the
// active-demerit set. All recomputation goes through Recompute so the trigger
// is centralized; mutators in DemeritService call it after every change to a
// user's active-point total.
type RestrictionService struct {
	store store.DemeritStore

	// Per-user locks serialize concurrent recomputation for the same user
	// (addDemerit racing reviewAppeal would otherwise lose an update).
	locksMu sync.Mutex
	locks   map[uuid.UUID]*sync.Mutex

	snapMu    sync.RWMutex
	snapshots map[uuid.UUID]*models.UserRestriction
}

// NewRestrictionService returns a RestrictionService over the given store.
func NewRestrictionService(st store.DemeritStore) *RestrictionService {
	return &RestrictionService{
		store:     st,
		locks:     make(map[uuid.UUID]*sync.Mutex),
		snapshots: make(map[uuid.UUID]*models.UserRestriction),
	}
}

func (s *RestrictionService) userLock(userID uuid.UUID) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	mu, ok := s.locks[userID]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[userID] = mu
	}
	return mu
}

// Recompute rebuilds the restriction snapshot for a user and publishes it.
// Pure arithmetic over already-validated data; the only error source is the
// store read.
func (s *RestrictionService) Recompute(ctx context.Context, userID uuid.UUID) (*models.UserRestriction, error) {
	mu := s.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	active, err := s.store.ActiveDemeritsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, d := range active {
		total += d.Points
	}

	snapshot := &models.UserRestriction{
		UserID:        userID,
		TotalPoints:   total,
		Restrictions:  []models.RestrictionKind{},
		Notifications: []string{},
		ComputedAt:    time.Now().UTC(),
	}

	if total >= RegisterBanThreshold {
		snapshot.Restrictions = append(snapshot.Restrictions, models.RestrictionCannotRegisterEvents)
		snapshot.Notifications = append(snapshot.Notifications,
			fmt.Sprintf("You can no longer register for events (%d+ demerit points).", RegisterBanThreshold))
	}
	if total >= CreateBanThreshold {
		snapshot.Restrictions = append(snapshot.Restrictions, models.RestrictionCannotCreateEvents)
		snapshot.Notifications = append(snapshot.Notifications,
			fmt.Sprintf("You can no longer create events (%d+ demerit points).", CreateBanThreshold))
	}
	if total >= SuspensionThreshold {
		snapshot.Restrictions = append(snapshot.Restrictions, models.RestrictionAccountSuspended)
		snapshot.Notifications = append(snapshot.Notifications,
			fmt.Sprintf("Your account has been suspended (%d+ demerit points).", SuspensionThreshold))
	}

	s.snapMu.Lock()
	s.snapshots[userID] = snapshot
	s.snapMu.Unlock()

	s.publish(ctx, snapshot)

	return snapshot, nil
}

// publish pushes the snapshot to Redis so other instances (and the dashboard
// cache) see it. Best effort; Redis being down never fails a recompute.
func (s *RestrictionService) publish(ctx context.Context, snapshot *models.UserRestriction) {
	if database.RedisClient == nil {
		return
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return
	}
	key := RestrictionKeyPrefix + snapshot.UserID.String()
	_ = database.RedisClient.Set(ctx, key, data, RestrictionSnapshotTTL).Err()
}

// GetUserRestrictions returns the user's restriction snapshot. Misses fall
// through in order: local map, the Redis copy (another instance may have
// computed it), then a recompute from the ledger so restrictions survive
// process restarts and cache expiry. Returns nil only for users with no
// demerit history.
func (s *RestrictionService) GetUserRestrictions(ctx context.Context, userID uuid.UUID) *models.UserRestriction {
	s.snapMu.RLock()
	snapshot, ok := s.snapshots[userID]
	s.snapMu.RUnlock()
	if ok {
		return snapshot
	}

	if cached := s.cachedSnapshot(ctx, userID); cached != nil {
		return cached
	}

	history, err := s.store.DemeritsByUser(ctx, userID)
	if err != nil || len(history) == 0 {
		return nil
	}

	snapshot, err = s.Recompute(ctx, userID)
	if err != nil {
		return nil
	}
	return snapshot
}

// cachedSnapshot pulls the Redis copy of a snapshot into the local map.
func (s *RestrictionService) cachedSnapshot(ctx context.Context, userID uuid.UUID) *models.UserRestriction {
	if database.RedisClient == nil {
		return nil
	}
	val, err := database.RedisClient.Get(ctx, RestrictionKeyPrefix+userID.String()).Result()
	if err != nil {
		return nil
	}
	var cached models.UserRestriction
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		return nil
	}

	s.snapMu.Lock()
	s.snapshots[userID] = &cached
	s.snapMu.Unlock()

	return &cached
}

// HasRestriction reports whether the user's current snapshot carries kind.
func (s *RestrictionService) HasRestriction(ctx context.Context, userID uuid.UUID, kind models.RestrictionKind) bool {
	return s.GetUserRestrictions(ctx, userID).Has(kind)
}
