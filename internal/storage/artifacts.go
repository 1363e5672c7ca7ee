package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Artifact is a rendered batch of offending messages, uploaded so mod-log
// alerts can link to it instead of inlining oversized content.
type Artifact struct {
	ID        string
	GuildID   string
	ChannelID string
	Body      string
	CreatedAt time.Time
}

var ErrArtifactNotFound = errors.New("artifact not found")

func (s *Store) AddArtifact(ctx context.Context, artifact Artifact) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO artifacts (id, guild_id, channel_id, body, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, artifact.ID, artifact.GuildID, artifact.ChannelID, artifact.Body, artifact.CreatedAt.Unix())
	return err
}

func (s *Store) GetArtifact(ctx context.Context, id string) (Artifact, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, guild_id, channel_id, body, created_at
		FROM artifacts WHERE id = ?
	`, id)

	var artifact Artifact
	var created int64
	err := row.Scan(&artifact.ID, &artifact.GuildID, &artifact.ChannelID, &artifact.Body, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Artifact{}, ErrArtifactNotFound
		}
		return Artifact{}, err
	}
	artifact.CreatedAt = time.Unix(created, 0)
	return artifact, nil
}

func (s *Store) CleanupArtifacts(ctx context.Context, retentionDays int) error {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	_, err := s.db.ExecContext(ctx, `DELETE FROM artifacts WHERE created_at < ?`, cutoff.Unix())
	return err
}
