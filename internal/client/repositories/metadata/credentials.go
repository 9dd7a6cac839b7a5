package metadata

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/mealkeeper/internal/client/models"
	"github.com/dmitrijs2005/mealkeeper/internal/dbx"
)

const (
	KeyUsername     = "username"
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
)

// CredentialStore keeps the session credential in the metadata table.
// Writes of the three keys are atomic.
type CredentialStore struct {
	db *sql.DB
}

func NewCredentialStore(db *sql.DB) *CredentialStore {
	return &CredentialStore{db: db}
}

// Load returns the stored username and credential; both are empty when
// nothing was saved.
func (s *CredentialStore) Load(ctx context.Context) (string, models.Credential, error) {
	repo := NewSQLiteRepository(s.db)

	values := make(map[string]string, 3)
	for _, key := range []string{KeyUsername, KeyAccessToken, KeyRefreshToken} {
		v, err := repo.Get(ctx, key)
		if err != nil {
			return "", models.Credential{}, fmt.Errorf("load credential: %w", err)
		}
		values[key] = string(v)
	}

	return values[KeyUsername], models.Credential{
		Access:  values[KeyAccessToken],
		Refresh: values[KeyRefreshToken],
	}, nil
}

func (s *CredentialStore) Save(ctx context.Context, username string, cred models.Credential) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := NewSQLiteRepository(tx)
		if err := repo.Set(ctx, KeyUsername, []byte(username)); err != nil {
			return err
		}
		if err := repo.Set(ctx, KeyAccessToken, []byte(cred.Access)); err != nil {
			return err
		}
		return repo.Set(ctx, KeyRefreshToken, []byte(cred.Refresh))
	})
}

func (s *CredentialStore) Clear(ctx context.Context) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := NewSQLiteRepository(tx)
		for _, key := range []string{KeyUsername, KeyAccessToken, KeyRefreshToken} {
			if err := repo.Delete(ctx, key); err != nil {
				return err
			}
		}
		return nil
	})
}
