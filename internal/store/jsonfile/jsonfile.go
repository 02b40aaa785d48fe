// Package jsonfile persists each chat's documents as a directory of
// {kind}{chatID}.json files, one JSON object per file.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/mvpbot/mvpbot/internal/mvp"
)

const (
	kindUsers  = "users"
	kindScores = "scores"
	kindVotes  = "votes"
)

type Store struct {
	dir string
	mu  sync.Mutex
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Users(_ context.Context, chatID int64) (mvp.Users, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := load[string](s, kindUsers, chatID)
	return mvp.Users(doc), err
}

func (s *Store) PutUsers(_ context.Context, chatID int64, users mvp.Users) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return save(s, kindUsers, chatID, map[string]string(users))
}

func (s *Store) Scores(_ context.Context, chatID int64) (mvp.Scores, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := load[int64](s, kindScores, chatID)
	return mvp.Scores(doc), err
}

func (s *Store) Votes(_ context.Context, chatID int64) (mvp.Votes, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := load[int64](s, kindVotes, chatID)
	return mvp.Votes(doc), err
}

// PutBallot writes the score and vote documents of one accepted vote.
// Callers serialize votes per chat, so no reader can observe one file
// updated without the other.
func (s *Store) PutBallot(_ context.Context, chatID int64, scores mvp.Scores, votes mvp.Votes) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := save(s, kindScores, chatID, map[string]int64(scores)); err != nil {
		return err
	}
	return save(s, kindVotes, chatID, map[string]int64(votes))
}

func (s *Store) path(kind string, chatID int64) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s%d.json", kind, chatID))
}

// load reads a document, durably creating an empty one the first time a
// chat/kind is seen.
func load[T any](s *Store, kind string, chatID int64) (map[string]T, error) {
	path := s.path(kind, chatID)

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := writeAtomic(path, []byte("{}")); err != nil {
			return nil, fmt.Errorf("create %s: %w", filepath.Base(path), err)
		}
		return make(map[string]T), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}

	doc := make(map[string]T)
	if len(raw) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return doc, nil
}

func save[T any](s *Store, kind string, chatID int64, doc map[string]T) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s%d: %w", kind, chatID, err)
	}
	if err := writeAtomic(s.path(kind, chatID), raw); err != nil {
		return fmt.Errorf("write %s%d: %w", kind, chatID, err)
	}
	return nil
}

// writeAtomic replaces path via a temp file and rename so readers never
// see a torn write.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}

	_, err = tmp.Write(data)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return nil
}
