// Package cache persists the last confirmed message snapshot to a local
// SQLite file so the chat view renders instantly on startup, before the
// first poll lands. Provisional entries are never written; the cache only
// ever holds server-confirmed rows.
package cache

import (
	"database/sql"
	"encoding/json"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/adamavenir/parley/internal/types"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS parley_messages (
  id TEXT PRIMARY KEY,
  content TEXT NOT NULL,
  author_id TEXT NOT NULL,
  author_label TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL,        -- unix millis
  is_edited INTEGER NOT NULL DEFAULT 0,
  attachment_url TEXT NOT NULL DEFAULT '',
  reply_to_id TEXT,
  reply_preview TEXT                  -- JSON, denormalized reply snapshot
);

CREATE TABLE IF NOT EXISTS parley_reactions (
  id TEXT PRIMARY KEY,
  message_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  emoji TEXT NOT NULL,
  created_at INTEGER NOT NULL,
  FOREIGN KEY (message_id) REFERENCES parley_messages(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_parley_messages_created
  ON parley_messages(created_at);
CREATE INDEX IF NOT EXISTS idx_parley_reactions_message
  ON parley_reactions(message_id);
`

// Open opens (and if needed creates) the snapshot cache at path.
func Open(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if _, err := conn.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if _, err := conn.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

// Save replaces the cached snapshot wholesale. Provisional entries in the
// input are skipped.
func Save(db *sql.DB, messages []types.Message) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM parley_reactions"); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM parley_messages"); err != nil {
		return err
	}

	for _, msg := range messages {
		if msg.Provisional() {
			continue
		}
		var preview any
		if msg.ReplyPreview != nil {
			data, err := json.Marshal(msg.ReplyPreview)
			if err != nil {
				return err
			}
			preview = string(data)
		}
		_, err := tx.Exec(`
			INSERT INTO parley_messages
				(id, content, author_id, author_label, created_at, is_edited, attachment_url, reply_to_id, reply_preview)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, msg.ID, msg.Content, msg.AuthorID, msg.AuthorLabel, msg.CreatedAt,
			boolToInt(msg.Edited), msg.AttachmentURL, msg.ReplyToID, preview)
		if err != nil {
			return err
		}
		for _, reaction := range msg.Reactions {
			if strings.HasPrefix(reaction.ID, types.TempIDPrefix) {
				continue
			}
			_, err := tx.Exec(`
				INSERT INTO parley_reactions (id, message_id, user_id, emoji, created_at)
				VALUES (?, ?, ?, ?, ?)
			`, reaction.ID, reaction.MessageID, reaction.UserID, reaction.Emoji, reaction.CreatedAt)
			if err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// Load returns the cached snapshot in ascending timestamp order.
func Load(db *sql.DB) ([]types.Message, error) {
	rows, err := db.Query(`
		SELECT id, content, author_id, author_label, created_at, is_edited, attachment_url, reply_to_id, reply_preview
		FROM parley_messages
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []types.Message
	index := make(map[string]int)
	for rows.Next() {
		var msg types.Message
		var edited int
		var replyTo sql.NullString
		var preview sql.NullString
		if err := rows.Scan(&msg.ID, &msg.Content, &msg.AuthorID, &msg.AuthorLabel,
			&msg.CreatedAt, &edited, &msg.AttachmentURL, &replyTo, &preview); err != nil {
			return nil, err
		}
		msg.Edited = edited != 0
		if replyTo.Valid {
			value := replyTo.String
			msg.ReplyToID = &value
		}
		if preview.Valid && preview.String != "" {
			var p types.ReplyPreview
			if err := json.Unmarshal([]byte(preview.String), &p); err == nil {
				msg.ReplyPreview = &p
			}
		}
		index[msg.ID] = len(messages)
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	reactionRows, err := db.Query(`
		SELECT id, message_id, user_id, emoji, created_at
		FROM parley_reactions
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer reactionRows.Close()

	for reactionRows.Next() {
		var r types.Reaction
		if err := reactionRows.Scan(&r.ID, &r.MessageID, &r.UserID, &r.Emoji, &r.CreatedAt); err != nil {
			return nil, err
		}
		if i, ok := index[r.MessageID]; ok {
			messages[i].Reactions = append(messages[i].Reactions, r)
		}
	}
	return messages, reactionRows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
