package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"time"

	"photoview/internal/sequence"
)

// GetMetadata retrieves a metadata value by key. It returns sql.ErrNoRows
// if the key doesn't exist.
func (d *Database) GetMetadata(ctx context.Context, key string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var value string
	err := d.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetMetadata sets a metadata key-value pair.
func (d *Database) SetMetadata(ctx context.Context, key, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// GetLastViewed returns the item last shown from folder, or "" if none was
// recorded.
func (d *Database) GetLastViewed(ctx context.Context, folder string) (sequence.ItemID, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_last_viewed", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var path string
	err = d.db.QueryRowContext(ctx, "SELECT path FROM last_viewed WHERE folder = ?", filepath.Clean(folder)).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return sequence.ItemID(path), nil
}

// SetLastViewed records id as the item last shown from folder.
func (d *Database) SetLastViewed(ctx context.Context, folder string, id sequence.ItemID) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("set_last_viewed", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO last_viewed (folder, path, updated_at) VALUES (?, ?, strftime('%s', 'now'))
		ON CONFLICT(folder) DO UPDATE SET path = excluded.path, updated_at = excluded.updated_at
	`, filepath.Clean(folder), string(id))
	return err
}
