package store

import (
	"context"

	"github.com/studybridge/client-go/internal/model"
)

// IdentityRepository persists at most one identity per role. The session
// layer is its only writer; everything else reads through the session layer.
type IdentityRepository interface {
	Save(ctx context.Context, role model.Role, id model.Identity) error
	Find(ctx context.Context, role model.Role) (*model.Identity, error)
	DeleteAll(ctx context.Context) error
}

type identityRepo struct {
	db *DB
}

func NewIdentityRepository(db *DB) IdentityRepository {
	return &identityRepo{db: db}
}

func (r *identityRepo) Save(ctx context.Context, role model.Role, id model.Identity) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO identities (role, name, token, admin_token, saved_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (role) DO UPDATE SET
			name = excluded.name,
			token = excluded.token,
			admin_token = excluded.admin_token,
			saved_at = CURRENT_TIMESTAMP
	`, role, id.Name, id.Token, id.AdminToken)
	return err
}

func (r *identityRepo) Find(ctx context.Context, role model.Role) (*model.Identity, error) {
	var id model.Identity
	err := r.db.GetContext(ctx, &id, `
		SELECT name, token, admin_token FROM identities WHERE role = ?
	`, role)
	return handleNotFound(&id, err)
}

func (r *identityRepo) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM identities`)
	return err
}
