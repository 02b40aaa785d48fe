// Package sqlite persists chat documents in a SQLite database. Each
// document kind is a table keyed by (chat_id, handle); a put replaces
// the chat's rows wholesale to keep full-document overwrite semantics.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"

	_ "modernc.org/sqlite"

	"github.com/mvpbot/mvpbot/internal/mvp"
)

//go:embed schema.sql
var schema string

type DB struct {
	db *sql.DB
}

func New(db *sql.DB) *DB {
	return &DB{db: db}
}

func Open(path string) (*DB, func(), error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	return &DB{db: db}, func() { _ = db.Close() }, nil
}

const (
	queryUsers  = `SELECT handle, display_name FROM users WHERE chat_id = $1`
	queryScores = `SELECT handle, score FROM scores WHERE chat_id = $1`
	queryVotes  = `SELECT voter, voted_at FROM votes WHERE chat_id = $1`

	deleteUsers  = `DELETE FROM users WHERE chat_id = $1`
	deleteScores = `DELETE FROM scores WHERE chat_id = $1`
	deleteVotes  = `DELETE FROM votes WHERE chat_id = $1`

	insertUser  = `INSERT INTO users (chat_id, handle, display_name) VALUES ($1, $2, $3)`
	insertScore = `INSERT INTO scores (chat_id, handle, score) VALUES ($1, $2, $3)`
	insertVote  = `INSERT INTO votes (chat_id, voter, voted_at) VALUES ($1, $2, $3)`
)

func (d *DB) Users(ctx context.Context, chatID int64) (mvp.Users, error) {
	doc, err := queryDoc[string](ctx, d.db, queryUsers, chatID)
	return mvp.Users(doc), err
}

func (d *DB) PutUsers(ctx context.Context, chatID int64, users mvp.Users) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := replaceDoc(ctx, tx, chatID, deleteUsers, insertUser, map[string]string(users)); err != nil {
		return err
	}
	return tx.Commit()
}

func (d *DB) Scores(ctx context.Context, chatID int64) (mvp.Scores, error) {
	doc, err := queryDoc[int64](ctx, d.db, queryScores, chatID)
	return mvp.Scores(doc), err
}

func (d *DB) Votes(ctx context.Context, chatID int64) (mvp.Votes, error) {
	doc, err := queryDoc[int64](ctx, d.db, queryVotes, chatID)
	return mvp.Votes(doc), err
}

// PutBallot replaces the chat's score and vote documents in one
// transaction, so both sides of an accepted vote land together.
func (d *DB) PutBallot(ctx context.Context, chatID int64, scores mvp.Scores, votes mvp.Votes) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := replaceDoc(ctx, tx, chatID, deleteScores, insertScore, map[string]int64(scores)); err != nil {
		return err
	}
	if err := replaceDoc(ctx, tx, chatID, deleteVotes, insertVote, map[string]int64(votes)); err != nil {
		return err
	}
	return tx.Commit()
}

func queryDoc[T any](ctx context.Context, db *sql.DB, query string, chatID int64) (map[string]T, error) {
	rows, err := db.QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	doc := make(map[string]T)
	for rows.Next() {
		var key string
		var val T
		if err := rows.Scan(&key, &val); err != nil {
			return nil, err
		}
		doc[key] = val
	}
	return doc, rows.Err()
}

func replaceDoc[T any](ctx context.Context, tx *sql.Tx, chatID int64, del, ins string, doc map[string]T) error {
	if _, err := tx.ExecContext(ctx, del, chatID); err != nil {
		return err
	}
	for key, val := range doc {
		if _, err := tx.ExecContext(ctx, ins, chatID, key, val); err != nil {
			return err
		}
	}
	return nil
}
