package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ ChannelRepository = (*SQLChannelRepository)(nil)

// SQLChannelRepository handles database operations for channels.
type SQLChannelRepository struct {
	db *DB
}

func NewChannelRepository(db *DB) *SQLChannelRepository {
	return &SQLChannelRepository{db: db}
}

func (r *SQLChannelRepository) UpsertChannel(channel Channel) error {
	createdAt := channel.CreatedAt
	if createdAt == "" {
		createdAt = time.Now().UTC().Format(time.RFC3339)
	}

	_, err := r.db.Exec(`
		INSERT INTO channels (channel_id, title, description, completed, created_at)
		VALUES (?, ?, ?, 0, ?)
		ON CONFLICT (channel_id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description
	`, channel.ChannelID, channel.Title, channel.Description, createdAt)

	if err != nil {
		return wrapStorageErr(fmt.Sprintf("failed to upsert channel %s", channel.ChannelID), err)
	}

	return nil
}

func (r *SQLChannelRepository) GetChannel(channelID string) (*Channel, error) {
	var ch Channel
	err := r.db.QueryRow(`
		SELECT channel_id, title, description, completed, created_at
		FROM channels
		WHERE channel_id = ?
	`, channelID).Scan(&ch.ChannelID, &ch.Title, &ch.Description, &ch.Completed, &ch.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wrapStorageErr(fmt.Sprintf("failed to get channel %s", channelID), err)
	}

	return &ch, nil
}

func (r *SQLChannelRepository) GetChannelCount() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM channels`).Scan(&count); err != nil {
		return 0, wrapStorageErr("failed to count channels", err)
	}
	return count, nil
}

func (r *SQLChannelRepository) ListIncompleteChannels() ([]Channel, error) {
	return r.listByCompleted(0)
}

func (r *SQLChannelRepository) ListCompletedChannels() ([]Channel, error) {
	return r.listByCompleted(1)
}

func (r *SQLChannelRepository) listByCompleted(completed int) ([]Channel, error) {
	rows, err := r.db.Query(`
		SELECT channel_id, title, description, completed, created_at
		FROM channels
		WHERE completed = ?
		ORDER BY channel_id
	`, completed)
	if err != nil {
		return nil, wrapStorageErr("failed to list channels", err)
	}
	defer rows.Close()

	var channels []Channel
	for rows.Next() {
		var ch Channel
		if err := rows.Scan(&ch.ChannelID, &ch.Title, &ch.Description, &ch.Completed, &ch.CreatedAt); err != nil {
			return nil, wrapStorageErr("failed to scan channel", err)
		}
		channels = append(channels, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStorageErr("failed to list channels", err)
	}

	return channels, nil
}

func (r *SQLChannelRepository) MarkChannelCompleted(channelID string) error {
	_, err := r.db.Exec(`UPDATE channels SET completed = 1 WHERE channel_id = ?`, channelID)
	if err != nil {
		return wrapStorageErr(fmt.Sprintf("failed to mark channel %s completed", channelID), err)
	}
	return nil
}
