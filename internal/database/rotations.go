package database

import (
	"context"
	"time"

	"photoview/internal/logging"
	"photoview/internal/sequence"
)

func (d *Database) loadRotations(ctx context.Context) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_rotation", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, "SELECT path, angle FROM rotations")
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			logging.Warn("failed to close rotation rows: %v", closeErr)
		}
	}()

	d.rotMu.Lock()
	defer d.rotMu.Unlock()
	for rows.Next() {
		var path string
		var angle int
		if err = rows.Scan(&path, &angle); err != nil {
			return err
		}
		d.rotations[path] = normalize(angle)
	}
	err = rows.Err()
	logging.Debug("Loaded %d stored rotations", len(d.rotations))
	return err
}

// Rotation returns the stored clockwise rotation for id, 0 if none.
func (d *Database) Rotation(id sequence.ItemID) int {
	d.rotMu.RLock()
	defer d.rotMu.RUnlock()
	return d.rotations[string(id)]
}

// SetRotation stores the clockwise rotation for id. A zero angle removes the
// record.
func (d *Database) SetRotation(id sequence.ItemID, angle int) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("set_rotation", start, err) }()

	angle = normalize(angle)

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if angle == 0 {
		_, err = d.db.ExecContext(ctx, "DELETE FROM rotations WHERE path = ?", string(id))
	} else {
		_, err = d.db.ExecContext(ctx, `
			INSERT INTO rotations (path, angle, updated_at) VALUES (?, ?, strftime('%s', 'now'))
			ON CONFLICT(path) DO UPDATE SET angle = excluded.angle, updated_at = excluded.updated_at
		`, string(id), angle)
	}
	if err != nil {
		return err
	}

	d.rotMu.Lock()
	if angle == 0 {
		delete(d.rotations, string(id))
	} else {
		d.rotations[string(id)] = angle
	}
	d.rotMu.Unlock()
	return nil
}

func normalize(angle int) int {
	angle %= 360
	if angle < 0 {
		angle += 360
	}
	return angle
}
