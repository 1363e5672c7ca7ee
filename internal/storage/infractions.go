package storage

import (
	"context"
	"time"
)

type Infraction struct {
	ID              int64
	GuildID         string
	UserID          string
	Rule            string
	Reason          string
	DurationSeconds int
	CreatedAt       time.Time
}

func (s *Store) AddInfraction(ctx context.Context, inf Infraction) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO infractions (guild_id, user_id, rule, reason, duration_seconds, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, inf.GuildID, inf.UserID, inf.Rule, inf.Reason, inf.DurationSeconds, inf.CreatedAt.Unix())
	return err
}

func (s *Store) ListInfractions(ctx context.Context, guildID string, since time.Time) ([]Infraction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, guild_id, user_id, rule, reason, duration_seconds, created_at
		FROM infractions
		WHERE guild_id = ? AND created_at >= ?
		ORDER BY created_at DESC
	`, guildID, since.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infractions []Infraction
	for rows.Next() {
		var inf Infraction
		var created int64
		if err := rows.Scan(&inf.ID, &inf.GuildID, &inf.UserID, &inf.Rule, &inf.Reason, &inf.DurationSeconds, &created); err != nil {
			return nil, err
		}
		inf.CreatedAt = time.Unix(created, 0)
		infractions = append(infractions, inf)
	}
	return infractions, rows.Err()
}

func (s *Store) CountInfractions(ctx context.Context, guildID, userID string, since time.Time) (int, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM infractions
		WHERE guild_id = ? AND user_id = ? AND created_at >= ?
	`, guildID, userID, since.Unix())
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) CleanupInfractions(ctx context.Context, retentionDays int) error {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	_, err := s.db.ExecContext(ctx, `DELETE FROM infractions WHERE created_at < ?`, cutoff.Unix())
	return err
}
