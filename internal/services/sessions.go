package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"smartspend/internal/auth"
	"smartspend/internal/clock"
	"smartspend/internal/common"
	"smartspend/internal/logging"
)

// SessionLimiter enforces a maximum number of concurrent sessions per
// account. The default policy admits the newest session and evicts the
// oldest one, mirroring a login flow that never blocks; the strict policy
// rejects new sessions with common.ErrCapacityExceeded instead.
type SessionLimiter struct {
	mu       sync.Mutex
	sessions map[string][]sessionRec

	max         int
	evictOldest bool

	secret   []byte
	validity time.Duration
	clock    clock.Clock
	log      logging.Logger
}

type sessionRec struct {
	id          string
	established time.Time
}

func NewSessionLimiter(max int, evictOldest bool, secret []byte, validity time.Duration, clk clock.Clock, log logging.Logger) *SessionLimiter {
	l := &SessionLimiter{
		sessions:    make(map[string][]sessionRec),
		max:         max,
		evictOldest: evictOldest,
		secret:      secret,
		validity:    validity,
		clock:       clk,
		log:         log,
	}
	log.Info(context.Background(), "session limiter configured",
		"max_sessions", max, "policy", l.policyName())
	return l
}

func (l *SessionLimiter) policyName() string {
	if l.evictOldest {
		return "evict-oldest"
	}
	return "reject-new"
}

// NewSessionID generates an opaque session identifier.
func NewSessionID() string { return uuid.NewString() }

// Register admits a session for the account. When the account is at capacity
// it either evicts the oldest session (returned as evicted) or fails with
// common.ErrCapacityExceeded, depending on the configured policy. The
// check-then-act sequence runs under the registry lock, so concurrent
// registrations can never jointly exceed the cap.
func (l *SessionLimiter) Register(ctx context.Context, accountID, sessionID string) (evicted string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	recs := l.sessions[accountID]
	if len(recs) >= l.max {
		if !l.evictOldest {
			return "", common.ErrCapacityExceeded
		}
		evicted = recs[0].id
		recs = recs[1:]
		l.log.Info(ctx, "session evicted", "account", accountID, "session", evicted)
	}

	recs = append(recs, sessionRec{id: sessionID, established: l.clock.Now()})
	l.sessions[accountID] = recs
	return evicted, nil
}

// Release removes a session on logout or invalidation. Idempotent.
func (l *SessionLimiter) Release(accountID, sessionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	recs := l.sessions[accountID]
	for i, rec := range recs {
		if rec.id == sessionID {
			recs = append(recs[:i], recs[i+1:]...)
			break
		}
	}
	if len(recs) == 0 {
		delete(l.sessions, accountID)
		return
	}
	l.sessions[accountID] = recs
}

// ActiveCount reports the number of live sessions for the account.
func (l *SessionLimiter) ActiveCount(accountID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sessions[accountID])
}

// IsActive reports whether the session is still admitted.
func (l *SessionLimiter) IsActive(accountID, sessionID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, rec := range l.sessions[accountID] {
		if rec.id == sessionID {
			return true
		}
	}
	return false
}

// Credential mints the signed bearer credential the web layer hands to the
// client after a successful login.
func (l *SessionLimiter) Credential(accountID, sessionID string) (string, error) {
	return auth.GenerateToken(accountID, sessionID, l.secret, l.validity)
}

// SessionFromCredential parses a credential and confirms the session is still
// active. Credentials of evicted or released sessions fail with
// common.ErrInvalidSession.
func (l *SessionLimiter) SessionFromCredential(credential string) (accountID, sessionID string, err error) {
	accountID, sessionID, err = auth.ParseToken(credential, l.secret)
	if err != nil {
		return "", "", common.ErrInvalidSession
	}
	if !l.IsActive(accountID, sessionID) {
		return "", "", common.ErrInvalidSession
	}
	return accountID, sessionID, nil
}
