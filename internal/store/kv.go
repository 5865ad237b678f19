package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Get returns the values stored under keys. A nil keys slice returns every
// stored entry. Keys with no stored value are absent from the result.
func (s *Store) Get(keys []string) (map[string][]byte, error) {
	query := `SELECT key, value FROM kv`
	var args []any
	if keys != nil {
		if len(keys) == 0 {
			return map[string][]byte{}, nil
		}
		query += ` WHERE key IN (` + placeholders(len(keys)) + `)`
		for _, k := range keys {
			args = append(args, k)
		}
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("get keys: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]byte)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan kv: %w", err)
		}
		out[k] = []byte(v)
	}
	return out, rows.Err()
}

// Set upserts every entry of values in one transaction.
func (s *Store) Set(values map[string][]byte) error {
	if len(values) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin set: %w", err)
	}
	if err := upsert(tx, values); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit set: %w", err)
	}
	return nil
}

// Remove deletes the given keys. Missing keys are ignored.
func (s *Store) Remove(keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	_, err := s.db.Exec(`DELETE FROM kv WHERE key IN (`+placeholders(len(keys))+`)`, args...)
	if err != nil {
		return fmt.Errorf("remove keys: %w", err)
	}
	return nil
}

// Clear deletes every stored entry.
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM kv`); err != nil {
		return fmt.Errorf("clear kv: %w", err)
	}
	return nil
}

// Replace swaps the whole key space for values atomically: either every
// previous entry is gone and values are stored, or nothing changes.
func (s *Store) Replace(values map[string][]byte) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM kv`); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear kv: %w", err)
	}
	if err := upsert(tx, values); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

func upsert(tx *sql.Tx, values map[string][]byte) error {
	now := time.Now().UTC().Format(time.RFC3339)
	stmt, err := tx.Prepare(
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
	)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()
	for k, v := range values {
		if _, err := stmt.Exec(k, string(v), now); err != nil {
			return fmt.Errorf("set %q: %w", k, err)
		}
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
