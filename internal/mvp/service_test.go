package mvp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memDB is an in-memory DB for exercising the service without touching
// disk. It is only safe under the service's own per-chat locking.
type memDB struct {
	users  map[int64]Users
	scores map[int64]Scores
	votes  map[int64]Votes
	err    error
}

func newMemDB() *memDB {
	return &memDB{
		users:  make(map[int64]Users),
		scores: make(map[int64]Scores),
		votes:  make(map[int64]Votes),
	}
}

func (m *memDB) Users(_ context.Context, chatID int64) (Users, error) {
	if m.err != nil {
		return nil, m.err
	}
	users := Users{}
	for k, v := range m.users[chatID] {
		users[k] = v
	}
	return users, nil
}

func (m *memDB) PutUsers(_ context.Context, chatID int64, users Users) error {
	if m.err != nil {
		return m.err
	}
	m.users[chatID] = users
	return nil
}

func (m *memDB) Scores(_ context.Context, chatID int64) (Scores, error) {
	if m.err != nil {
		return nil, m.err
	}
	scores := Scores{}
	for k, v := range m.scores[chatID] {
		scores[k] = v
	}
	return scores, nil
}

func (m *memDB) Votes(_ context.Context, chatID int64) (Votes, error) {
	if m.err != nil {
		return nil, m.err
	}
	votes := Votes{}
	for k, v := range m.votes[chatID] {
		votes[k] = v
	}
	return votes, nil
}

func (m *memDB) PutBallot(_ context.Context, chatID int64, scores Scores, votes Votes) error {
	if m.err != nil {
		return m.err
	}
	m.scores[chatID] = scores
	m.votes[chatID] = votes
	return nil
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("empty handle is rejected", func(t *testing.T) {
		svc := NewService(newMemDB())

		_, err := svc.Register(ctx, 1, "", "Ann A.")
		assert.ErrorIs(t, err, ErrInvalidHandle)
	})

	t.Run("registration upserts the display name", func(t *testing.T) {
		db := newMemDB()
		svc := NewService(db)

		reg, err := svc.Register(ctx, 1, "ann", "Ann A.")
		require.NoError(t, err)
		assert.Equal(t, Registration{Handle: "ann", DisplayName: "Ann A."}, reg)

		_, err = svc.Register(ctx, 1, "ann", "Ann B.")
		require.NoError(t, err)

		assert.Equal(t, Users{"ann": "Ann B."}, db.users[1])
	})

	t.Run("store failure is propagated", func(t *testing.T) {
		db := newMemDB()
		db.err = errors.New("disk on fire")
		svc := NewService(db)

		_, err := svc.Register(ctx, 1, "ann", "Ann A.")
		assert.ErrorIs(t, err, db.err)
	})
}

func TestVoteValidation(t *testing.T) {
	ctx := context.Background()

	db := newMemDB()
	db.users[1] = Users{"ann": "Ann A.", "bob": "Bob B."}
	svc := NewService(db)

	tests := []struct {
		name  string
		voter string
		text  string
		want  error
	}{
		{name: "missing target", voter: "bob", text: "/vote", want: ErrMalformedVote},
		{name: "target without sigil", voter: "bob", text: "/vote ann", want: ErrMalformedVote},
		{name: "empty voter", voter: "", text: "/vote @ann", want: ErrNoVoterIdentity},
		{name: "self vote", voter: "ann", text: "/vote @ann", want: IneligibleTargetError{Target: "ann"}},
		{name: "unregistered target", voter: "bob", text: "/vote @zed", want: IneligibleTargetError{Target: "zed"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Vote(ctx, 1, tt.voter, tt.text)
			assert.Equal(t, tt.want, err)
		})
	}

	// None of the rejected votes may have touched persisted state.
	assert.Empty(t, db.scores[1])
	assert.Empty(t, db.votes[1])
}

func TestVoteAccepted(t *testing.T) {
	ctx := context.Background()

	db := newMemDB()
	db.users[1] = Users{"ann": "Ann A.", "bob": "Bob B."}
	svc := NewService(db)

	now := time.Date(2016, 3, 14, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	receipt, err := svc.Vote(ctx, 1, "bob", "/vote @ann")
	require.NoError(t, err)

	assert.Equal(t, VoteReceipt{Voter: "bob", Target: "ann", TargetName: "Ann A.", Score: 1}, receipt)
	assert.Equal(t, Scores{"ann": 1}, db.scores[1])
	assert.Equal(t, Votes{"bob": now.Unix()}, db.votes[1])
}

func TestVoteCooldown(t *testing.T) {
	ctx := context.Background()

	voted := time.Date(2016, 3, 14, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		now      time.Time
		accepted bool
	}{
		{name: "immediately after", now: voted.Add(time.Second), accepted: false},
		{name: "one second short", now: voted.Add(Cooldown - time.Second), accepted: false},
		{name: "exactly 24h", now: voted.Add(Cooldown), accepted: true},
		{name: "well past", now: voted.Add(2 * Cooldown), accepted: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newMemDB()
			db.users[1] = Users{"ann": "Ann A.", "bob": "Bob B."}
			db.scores[1] = Scores{"ann": 3}
			db.votes[1] = Votes{"bob": voted.Unix()}

			svc := NewService(db)
			svc.now = func() time.Time { return tt.now }

			receipt, err := svc.Vote(ctx, 1, "bob", "/vote @ann")
			if !tt.accepted {
				assert.ErrorIs(t, err, ErrCooldownActive)
				assert.Equal(t, Scores{"ann": 3}, db.scores[1])
				return
			}

			require.NoError(t, err)
			assert.Equal(t, int64(4), receipt.Score)
			assert.Equal(t, Votes{"bob": tt.now.Unix()}, db.votes[1])
		})
	}
}

func TestVoteDoesNotDisturbOtherScores(t *testing.T) {
	ctx := context.Background()

	db := newMemDB()
	db.users[1] = Users{"ann": "Ann A.", "bob": "Bob B.", "cam": "Cam C."}
	db.scores[1] = Scores{"ann": 2, "cam": 5}
	svc := NewService(db)

	_, err := svc.Vote(ctx, 1, "bob", "/vote @ann")
	require.NoError(t, err)

	assert.Equal(t, Scores{"ann": 3, "cam": 5}, db.scores[1])
}

func TestVoteConcurrentNoLostUpdates(t *testing.T) {
	ctx := context.Background()

	const voters = 16

	db := newMemDB()
	users := Users{"target": "The Target"}
	for i := 0; i < voters; i++ {
		users[fmt.Sprintf("voter%d", i)] = fmt.Sprintf("Voter %d", i)
	}
	db.users[1] = users
	svc := NewService(db)

	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Vote(ctx, 1, fmt.Sprintf("voter%d", i), "/vote @target")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(voters), db.scores[1]["target"])
	assert.Len(t, db.votes[1], voters)
}

func TestLeaderboard(t *testing.T) {
	ctx := context.Background()

	t.Run("no scores yields ErrNoScores", func(t *testing.T) {
		svc := NewService(newMemDB())

		_, err := svc.Leaderboard(ctx, 1)
		assert.ErrorIs(t, err, ErrNoScores)
	})

	t.Run("orders by score descending then handle ascending", func(t *testing.T) {
		db := newMemDB()
		db.users[1] = Users{"ann": "Ann A.", "bob": "Bob B.", "cam": "Cam C."}
		db.scores[1] = Scores{"cam": 2, "ann": 2, "bob": 7}
		svc := NewService(db)

		board, err := svc.Leaderboard(ctx, 1)
		require.NoError(t, err)

		want := Board{
			{Name: "Bob B.", Score: 7},
			{Name: "Ann A.", Score: 2},
			{Name: "Cam C.", Score: 2},
		}
		assert.Equal(t, want, board)
	})

	t.Run("scored handle without registration fails loudly", func(t *testing.T) {
		db := newMemDB()
		db.scores[1] = Scores{"ghost": 1}
		svc := NewService(db)

		_, err := svc.Leaderboard(ctx, 1)

		var unknown UnknownUserError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "ghost", unknown.Handle)
	})

	t.Run("chats do not share state", func(t *testing.T) {
		db := newMemDB()
		db.users[1] = Users{"ann": "Ann A."}
		db.scores[1] = Scores{"ann": 1}
		svc := NewService(db)

		_, err := svc.Leaderboard(ctx, 2)
		assert.ErrorIs(t, err, ErrNoScores)
	})
}

func TestRealMVP(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the top entry", func(t *testing.T) {
		db := newMemDB()
		db.users[1] = Users{"ann": "Ann A.", "bob": "Bob B."}
		db.scores[1] = Scores{"ann": 1, "bob": 4}
		svc := NewService(db)

		entry, err := svc.RealMVP(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, BoardEntry{Name: "Bob B.", Score: 4}, entry)
	})

	t.Run("no scores yields ErrNoScores", func(t *testing.T) {
		svc := NewService(newMemDB())

		_, err := svc.RealMVP(ctx, 1)
		assert.ErrorIs(t, err, ErrNoScores)
	})
}

func TestFullName(t *testing.T) {
	assert.Equal(t, "Ann A.", FullName("Ann", "A."))
	assert.Equal(t, "Ann", FullName("Ann", ""))
	assert.Equal(t, "A.", FullName("", "A."))
	assert.Equal(t, "", FullName("", ""))
}
