package session

import (
	"context"

	"expensync/internal/storage"
)

// SQLiteStore keeps the session as a row in the client state database.
type SQLiteStore struct {
	repo *storage.SQLiteRepository
}

func NewSQLiteStore(repo *storage.SQLiteRepository) *SQLiteStore {
	return &SQLiteStore{repo: repo}
}

func (s *SQLiteStore) Load(ctx context.Context) (*Session, error) {
	raw, ok, err := s.repo.Get(ctx, Key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	sess, valid := decodeSession([]byte(raw))
	if !valid {
		return nil, s.repo.Delete(ctx, Key)
	}
	return &sess, nil
}

func (s *SQLiteStore) Save(ctx context.Context, sess Session) error {
	data, err := encodeSession(sess)
	if err != nil {
		return err
	}
	return s.repo.Put(ctx, Key, string(data))
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	return s.repo.Delete(ctx, Key)
}
