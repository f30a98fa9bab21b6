// Package session owns the client's identity state. It is the only writer of
// the identity rows in the local store; every other component reads identity
// through its accessors.
package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	apperrors "github.com/studybridge/client-go/internal/errors"
	"github.com/studybridge/client-go/internal/model"
	"github.com/studybridge/client-go/internal/store"
	"github.com/studybridge/client-go/internal/token"
)

type Manager struct {
	identities store.IdentityRepository
	cache      store.CacheRepository

	mu      sync.RWMutex
	student *model.Identity
	admin   *model.Identity
	loaded  bool
}

func NewManager(identities store.IdentityRepository, cache store.CacheRepository) *Manager {
	return &Manager{
		identities: identities,
		cache:      cache,
	}
}

// Restore hydrates in-memory state from the durable store. Runs once at
// startup, before anything reads identity: until it completes, Loaded
// reports false and readers must treat identity as "not known yet" rather
// than "logged out". Corrupt or missing rows are treated as absence; Restore
// itself never fails.
func (m *Manager) Restore(ctx context.Context) {
	student := m.loadIdentity(ctx, model.RoleStudent)
	admin := m.loadIdentity(ctx, model.RoleAdmin)

	m.mu.Lock()
	m.student = student
	m.admin = admin
	m.loaded = true
	m.mu.Unlock()

	log.Debug().
		Bool("student", student != nil).
		Bool("admin", admin != nil).
		Msg("session restored")
}

func (m *Manager) loadIdentity(ctx context.Context, role model.Role) *model.Identity {
	id, err := m.identities.Find(ctx, role)
	if err != nil {
		log.Warn().Err(err).Str("role", string(role)).Msg("failed to read stored identity, treating as absent")
		return nil
	}
	if id == nil {
		return nil
	}

	// Durable copies may predate normalization; clean them on the way in.
	id.Token = token.Normalize(id.Token)
	id.AdminToken = token.Normalize(id.AdminToken)
	if id.Token == "" {
		log.Warn().Str("role", string(role)).Msg("stored identity has no usable token, treating as absent")
		return nil
	}
	return id
}

// Loaded reports whether Restore has completed. A false return means the
// session state is not yet known, which is distinct from being logged out.
func (m *Manager) Loaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loaded
}

func (m *Manager) Student() (*model.Identity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.student == nil {
		return nil, false
	}
	id := *m.student
	return &id, true
}

func (m *Manager) Admin() (*model.Identity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.admin == nil {
		return nil, false
	}
	id := *m.admin
	return &id, true
}

// LoginStudent replaces the student identity for this client. The durable
// write happens first; in-memory state only changes once the persisted copy
// is known to match it.
func (m *Manager) LoginStudent(ctx context.Context, id model.Identity) error {
	return m.login(ctx, model.RoleStudent, id)
}

func (m *Manager) LoginAdmin(ctx context.Context, id model.Identity) error {
	return m.login(ctx, model.RoleAdmin, id)
}

func (m *Manager) login(ctx context.Context, role model.Role, id model.Identity) error {
	id.Token = token.Normalize(id.Token)
	id.AdminToken = token.Normalize(id.AdminToken)
	if id.Token == "" {
		return apperrors.MissingRequired("token")
	}

	if err := m.identities.Save(ctx, role, id); err != nil {
		return apperrors.Storage(err)
	}

	m.mu.Lock()
	if role == model.RoleAdmin {
		m.admin = &id
	} else {
		m.student = &id
	}
	m.mu.Unlock()

	log.Info().Str("role", string(role)).Str("name", id.Name).Msg("logged in")
	return nil
}

// Logout clears identity state for both roles, in memory and on disk, along
// with any cached session-scoped values. In-memory state is cleared even if
// the durable delete fails, so a shared device never keeps a usable session.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	m.student = nil
	m.admin = nil
	m.mu.Unlock()

	var firstErr error
	if err := m.identities.DeleteAll(ctx); err != nil {
		firstErr = apperrors.Storage(err)
	}
	if err := m.cache.Clear(ctx); err != nil && firstErr == nil {
		firstErr = apperrors.Storage(err)
	}

	if firstErr != nil {
		log.Error().Err(firstErr).Msg("logout could not fully clear durable state")
		return firstErr
	}
	log.Info().Msg("logged out")
	return nil
}
