// Package mvp holds the per-chat voting and scoring state machine.
package mvp

import "strings"

// Users maps a handle to the display name it registered with.
type Users map[string]string

// Scores maps a handle to its cumulative vote count.
type Scores map[string]int64

// Votes maps a voter handle to the unix timestamp (UTC seconds) of that
// voter's most recently accepted vote.
type Votes map[string]int64

type BoardEntry struct {
	Name  string
	Score int64
}

// Board is a chat's leaderboard, ordered by score descending and then
// by handle ascending.
type Board []BoardEntry

type Registration struct {
	Handle      string
	DisplayName string
}

type VoteReceipt struct {
	Voter      string
	Target     string
	TargetName string
	Score      int64
}

// FullName joins a given and family name, collapsing empty components.
func FullName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}
