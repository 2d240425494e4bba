// Package database provides SQLite persistence for the viewer.
//
// It stores:
//   - the rotation the user applied to each item
//   - the last item viewed in each folder, so a session can resume
//   - small key/value metadata such as the schema version
//
// The database uses WAL mode and every operation runs under a timeout.
// Rotations are also kept in memory, since the display asks for the angle
// of every neighbour it preloads.
package database
