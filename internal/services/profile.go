package services

import (
	"context"
	"fmt"
)

// PostgresProfiles keeps profiles.friends_count in sync, creating the
// profile row on first write.
type PostgresProfiles struct {
	db DB
}

func NewPostgresProfiles(db DB) *PostgresProfiles {
	return &PostgresProfiles{db: db}
}

func (p *PostgresProfiles) SetFriendCount(ctx context.Context, userID int64, n int) error {
	_, err := p.db.Exec(ctx,
		`INSERT INTO profiles (user_id, friends_count, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (user_id) DO UPDATE
		 SET friends_count = EXCLUDED.friends_count, updated_at = NOW()`,
		userID, n,
	)
	if err != nil {
		return fmt.Errorf("updating friend count: %w", err)
	}
	return nil
}
