package core

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"keyvault-backend-go/internal/dashboard"
	"keyvault-backend-go/internal/i18n"
	"keyvault-backend-go/internal/identity"
	"keyvault-backend-go/internal/models"
	"keyvault-backend-go/internal/registry"
)

// ErrSessionNotFound is returned when a dashboard session does not exist, has
// expired, or belongs to another user.
var ErrSessionNotFound = errors.New("dashboard session not found")

// MaxSessionsPerUser bounds how many dashboards one user may keep mounted.
// Mounting beyond it evicts the user's least recently used session.
const MaxSessionsPerUser = 16

// DashboardSession is one mounted dashboard.
type DashboardSession struct {
	ID         string
	OwnerID    string
	Profile    identity.Profile
	MountedAt  time.Time
	Controller *dashboard.Controller

	lastSeen time.Time // guarded by dashboardService.mu
}

// DashboardOption configures the dashboard service.
type DashboardOption func(*dashboardService)

// WithSessionClock overrides the time source used for idle tracking.
func WithSessionClock(now func() time.Time) DashboardOption {
	return func(s *dashboardService) { s.now = now }
}

// WithRegistryOptions passes options to every registry the service creates.
func WithRegistryOptions(opts ...registry.Option) DashboardOption {
	return func(s *dashboardService) { s.registryOpts = opts }
}

// dashboardService implements DashboardService with a mutex-guarded map.
type dashboardService struct {
	mu       sync.Mutex
	sessions map[string]*DashboardSession

	sealer       registry.SecretSealer
	auditService AuditService
	messages     *i18n.Catalog
	logger       *zap.Logger
	idleTimeout  time.Duration
	now          func() time.Time
	registryOpts []registry.Option
}

// NewDashboardService creates a DashboardService. Secrets of every session are sealed with sealer.
func NewDashboardService(
	sealer registry.SecretSealer,
	as AuditService,
	messages *i18n.Catalog,
	logger *zap.Logger,
	idleTimeout time.Duration,
	opts ...DashboardOption,
) DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &dashboardService{
		sessions:     make(map[string]*DashboardSession),
		sealer:       sealer,
		auditService: as,
		messages:     messages,
		logger:       logger,
		idleTimeout:  idleTimeout,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mount creates a session with an empty registry and fresh view state.
func (s *dashboardService) Mount(ctx context.Context, profile identity.Profile, client ClientInfo) (*DashboardSession, error) {
	if profile.UID == "" {
		return nil, errors.New("cannot mount a dashboard without a user id")
	}

	var auditLogger dashboard.AuditLogger
	if s.auditService != nil {
		auditLogger = s.auditService
	}
	now := s.now()
	session := &DashboardSession{
		ID:         uuid.NewString(),
		OwnerID:    profile.UID,
		Profile:    profile,
		MountedAt:  now,
		Controller: dashboard.NewController(registry.New(s.sealer, s.registryOpts...), profile.UID, auditLogger, s.messages, s.logger),
		lastSeen:   now,
	}

	s.mu.Lock()
	evicted := s.trimUserSessionsLocked(profile.UID, MaxSessionsPerUser-1)
	s.sessions[session.ID] = session
	s.mu.Unlock()

	for _, id := range evicted {
		s.logger.Info("Evicted dashboard session over per-user limit", zap.String("session_id", id), zap.String("user_id", profile.UID))
	}
	s.audit(ctx, profile.UID, models.AuditActionSessionMount, session.ID, client, nil)
	return session, nil
}

// Session looks up a session and marks it as used.
func (s *dashboardService) Session(_ context.Context, userID, sessionID string) (*DashboardSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok || session.OwnerID != userID {
		return nil, ErrSessionNotFound
	}
	session.lastSeen = s.now()
	return session, nil
}

// Unmount discards the session and its keys.
func (s *dashboardService) Unmount(ctx context.Context, userID, sessionID string, client ClientInfo) error {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	if !ok || session.OwnerID != userID {
		s.mu.Unlock()
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	s.audit(ctx, userID, models.AuditActionSessionUnmount, sessionID, client, map[string]interface{}{
		"key_count": session.Controller.Registry().Len(),
	})
	return nil
}

// Run evicts idle sessions every half idle timeout until ctx is cancelled.
func (s *dashboardService) Run(ctx context.Context) {
	interval := s.idleTimeout / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Dashboard session janitor stopped")
			return
		case <-ticker.C:
			if n := s.EvictIdle(); n > 0 {
				s.logger.Info("Evicted idle dashboard sessions", zap.Int("count", n))
			}
		}
	}
}

// EvictIdle drops every session unused for longer than the idle timeout and
// returns how many were dropped.
func (s *dashboardService) EvictIdle() int {
	cutoff := s.now().Add(-s.idleTimeout)

	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, session := range s.sessions {
		if session.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// Count returns the number of mounted sessions.
func (s *dashboardService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// trimUserSessionsLocked evicts the user's least recently used sessions until at
// most keep remain. Callers must hold s.mu.
func (s *dashboardService) trimUserSessionsLocked(userID string, keep int) []string {
	var owned []*DashboardSession
	for _, session := range s.sessions {
		if session.OwnerID == userID {
			owned = append(owned, session)
		}
	}
	if len(owned) <= keep {
		return nil
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].lastSeen.Before(owned[j].lastSeen) })

	var evicted []string
	for _, session := range owned[:len(owned)-keep] {
		delete(s.sessions, session.ID)
		evicted = append(evicted, session.ID)
	}
	return evicted
}

func (s *dashboardService) audit(ctx context.Context, userID, action, sessionID string, client ClientInfo, details map[string]interface{}) {
	if s.auditService == nil {
		return
	}
	entry := models.AuditLog{
		Timestamp:  time.Now().UTC(),
		UserID:     userID,
		Action:     action,
		TargetType: models.AuditTargetSession,
		TargetID:   sessionID,
		IPAddress:  client.IPAddress,
		UserAgent:  client.UserAgent,
		Details:    details,
	}
	if err := s.auditService.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("Failed to create audit log", zap.String("action", action), zap.String("session_id", sessionID), zap.Error(err))
	}
}
