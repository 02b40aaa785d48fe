package mvp

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Cooldown is the minimum interval between two accepted votes from the
// same voter in the same chat. The window is half-open: a vote exactly
// Cooldown after the last one is accepted.
const Cooldown = 24 * time.Hour

// DB is the persistence contract the service operates over. Reads on a
// chat that has never been seen return an empty mapping. PutBallot
// persists the score and vote documents of one accepted vote as one
// logical unit.
type DB interface {
	Users(ctx context.Context, chatID int64) (Users, error)
	PutUsers(ctx context.Context, chatID int64, users Users) error
	Scores(ctx context.Context, chatID int64) (Scores, error)
	Votes(ctx context.Context, chatID int64) (Votes, error)
	PutBallot(ctx context.Context, chatID int64, scores Scores, votes Votes) error
}

// Service applies registrations and votes to a chat's persisted state
// and answers leaderboard queries. It is constructed once at process
// start; all state lives in the DB.
type Service struct {
	db    DB
	now   func() time.Time
	chats *chatLocks
}

func NewService(db DB) *Service {
	return &Service{
		db:    db,
		now:   time.Now,
		chats: newChatLocks(),
	}
}

// Register upserts handle -> displayName in the chat's user records.
// Registering again simply overwrites the stored name.
func (s *Service) Register(ctx context.Context, chatID int64, handle, displayName string) (Registration, error) {
	if handle == "" {
		return Registration{}, ErrInvalidHandle
	}

	lock := s.chats.get(chatID)
	lock.Lock()
	defer lock.Unlock()

	users, err := s.db.Users(ctx, chatID)
	if err != nil {
		return Registration{}, fmt.Errorf("load users: %w", err)
	}

	users[handle] = displayName
	if err := s.db.PutUsers(ctx, chatID, users); err != nil {
		return Registration{}, fmt.Errorf("store users: %w", err)
	}

	return Registration{Handle: handle, DisplayName: displayName}, nil
}

// Vote validates and applies one vote. text is the raw command the voter
// typed, e.g. "/vote @alice". Validation failures come back as the
// sentinel errors in this package, in this order: malformed target,
// missing voter identity, ineligible target, active cooldown.
func (s *Service) Vote(ctx context.Context, chatID int64, voter, text string) (VoteReceipt, error) {
	target, err := parseVoteTarget(text)
	if err != nil {
		return VoteReceipt{}, err
	}
	if voter == "" {
		return VoteReceipt{}, ErrNoVoterIdentity
	}

	lock := s.chats.get(chatID)
	lock.Lock()
	defer lock.Unlock()

	users, err := s.db.Users(ctx, chatID)
	if err != nil {
		return VoteReceipt{}, fmt.Errorf("load users: %w", err)
	}

	name, registered := users[target]
	if target == voter || !registered {
		return VoteReceipt{}, IneligibleTargetError{Target: target}
	}

	votes, err := s.db.Votes(ctx, chatID)
	if err != nil {
		return VoteReceipt{}, fmt.Errorf("load votes: %w", err)
	}

	now := s.now().UTC()
	if last, ok := votes[voter]; ok && now.Sub(time.Unix(last, 0)) < Cooldown {
		return VoteReceipt{}, ErrCooldownActive
	}

	scores, err := s.db.Scores(ctx, chatID)
	if err != nil {
		return VoteReceipt{}, fmt.Errorf("load scores: %w", err)
	}

	scores[target]++
	votes[voter] = now.Unix()
	if err := s.db.PutBallot(ctx, chatID, scores, votes); err != nil {
		return VoteReceipt{}, fmt.Errorf("store ballot: %w", err)
	}

	return VoteReceipt{
		Voter:      voter,
		Target:     target,
		TargetName: name,
		Score:      scores[target],
	}, nil
}

// Leaderboard returns the chat's scores ordered by score descending and
// handle ascending, with handles resolved to display names. A chat with
// no scores yields ErrNoScores. A scored handle with no registration
// fails the whole query with UnknownUserError.
func (s *Service) Leaderboard(ctx context.Context, chatID int64) (Board, error) {
	lock := s.chats.get(chatID)
	lock.RLock()
	defer lock.RUnlock()

	scores, err := s.db.Scores(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("load scores: %w", err)
	}
	if len(scores) == 0 {
		return nil, ErrNoScores
	}

	users, err := s.db.Users(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}

	handles := make([]string, 0, len(scores))
	for handle := range scores {
		handles = append(handles, handle)
	}
	sort.Slice(handles, func(i, j int) bool {
		if scores[handles[i]] != scores[handles[j]] {
			return scores[handles[i]] > scores[handles[j]]
		}
		return handles[i] < handles[j]
	})

	board := make(Board, 0, len(handles))
	for _, handle := range handles {
		name, ok := users[handle]
		if !ok {
			return nil, UnknownUserError{Handle: handle}
		}
		board = append(board, BoardEntry{Name: name, Score: scores[handle]})
	}

	return board, nil
}

// RealMVP returns the single highest-scoring entry, under the same
// ordering as Leaderboard.
func (s *Service) RealMVP(ctx context.Context, chatID int64) (BoardEntry, error) {
	board, err := s.Leaderboard(ctx, chatID)
	if err != nil {
		return BoardEntry{}, err
	}
	return board[0], nil
}

func parseVoteTarget(text string) (string, error) {
	fields := strings.Fields(text)
	if len(fields) < 2 || !strings.Contains(fields[1], "@") {
		return "", ErrMalformedVote
	}
	return strings.TrimPrefix(fields[1], "@"), nil
}
