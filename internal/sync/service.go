// Package sync reconciles the remote fitness service's view of an athlete's
// activities and gear with the local mirror.
package sync

import (
	"context"
	"log/slog"
	stdsync "sync"
	"time"

	"mystrava-sync/internal/database"
	"mystrava-sync/internal/geocode"
	"mystrava-sync/internal/strava"
)

// RemoteClient is the slice of the remote API the reconciler needs
type RemoteClient interface {
	ListActivities(ctx context.Context, accessToken string, after *time.Time) ([]strava.ActivitySummary, error)
	GetActivity(ctx context.Context, accessToken string, activityID int64) (*strava.ActivityDetail, error)
	GetActivityZones(ctx context.Context, accessToken string, activityID int64) ([]strava.ActivityZone, error)
	GetAthlete(ctx context.Context, accessToken string) (*strava.Athlete, error)
	GetGear(ctx context.Context, accessToken, gearID string) (*strava.GearDetail, error)
}

// LocationEnricher resolves coordinates to a display location
type LocationEnricher interface {
	Enrich(ctx context.Context, coords *geocode.LatLng) *string
}

// Config holds the reconciliation toggles
type Config struct {
	// WithPoints enables the per-activity heart-rate-zone fetch that feeds
	// red_points
	WithPoints bool
	// WithDescription enables copying the free-text description from the
	// detail payload
	WithDescription bool
	// TrailThreshold is the elevation in meters above which a Run is
	// classified as a TrailRun by the sport type backfill
	TrailThreshold float64
}

// Service runs sync operations for one local mirror
type Service struct {
	db       *database.DB
	remote   RemoteClient
	enricher LocationEnricher
	cfg      Config
	logger   *slog.Logger

	mu    stdsync.Mutex
	locks map[int64]*stdsync.Mutex
}

// NewService creates a sync service
func NewService(db *database.DB, remote RemoteClient, enricher LocationEnricher, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:       db,
		remote:   remote,
		enricher: enricher,
		cfg:      cfg,
		logger:   logger,
		locks:    make(map[int64]*stdsync.Mutex),
	}
}

// lockAthlete serializes sync operations per athlete. The two-pass ordering
// and the gear retirement sweep are not safe under concurrent interleaving
// for the same athlete.
func (s *Service) lockAthlete(athleteID int64) func() {
	s.mu.Lock()
	l, ok := s.locks[athleteID]
	if !ok {
		l = &stdsync.Mutex{}
		s.locks[athleteID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}
