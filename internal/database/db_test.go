package database

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewInMemory_IsolatedInstances(t *testing.T) {
	a, err := NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	b, err := NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })

	_, err = a.Exec(`CREATE TABLE marker (id INTEGER PRIMARY KEY)`)
	require.NoError(t, err)

	// The table must not leak into the second database.
	_, err = b.Query(`SELECT id FROM marker`)
	require.Error(t, err)
}

func TestDB_TransactionRoundTrip(t *testing.T) {
	db, err := NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE entries (id TEXT PRIMARY KEY, note TEXT)`)
	require.NoError(t, err)

	tx, err := db.Begin()
	require.NoError(t, err)
	_, err = tx.Exec(`INSERT INTO entries (id, note) VALUES (?, ?)`, "a1", "first")
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	rows, err := db.Query(`SELECT note FROM entries WHERE id = ?`, "a1")
	require.NoError(t, err)
	defer rows.Close()

	require.True(t, rows.Next())
	var note string
	require.NoError(t, rows.Scan(&note))
	require.Equal(t, "first", note)
	require.False(t, rows.Next())
}
