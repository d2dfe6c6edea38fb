package game

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// PointsPerSet is awarded for each accepted set claim.
	PointsPerSet = 3

	// RatingStake is the per-player constant K the settlement formula
	// redistributes between winners and losers.
	RatingStake = 10

	// ForfeitPenalty is subtracted from the rating of a player who
	// disconnects or walks out of a game in progress.
	ForfeitPenalty = 10
)

var (
	ErrRoomFull       = errors.New("room is full")
	ErrRoomInProgress = errors.New("room is in progress")
	ErrNotActive      = errors.New("no game in progress")
	ErrNotOnBoard     = errors.New("claimed card is not on the board")
)

// Status is the room lifecycle state.
type Status int

const (
	StatusInactive Status = iota
	StatusActive
	StatusCompleted
)

func (s Status) String() string {
	switch s {
	case StatusInactive:
		return "Inactive"
	case StatusActive:
		return "Active"
	case StatusCompleted:
		return "Completed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Player is one seat in a room, identified by the owning connection.
type Player struct {
	ConnID   int64
	Username string
}

// RatingChange is one player's settlement delta.
type RatingChange struct {
	ConnID   int64
	Username string
	Delta    int
}

// liveGame is the Active-state payload. It exists from the moment the game
// starts until the room resets, so a room that has never started carries no
// board or scoring at all.
type liveGame struct {
	board     *Board
	scoring   *Scoring
	startedAt time.Time
}

// Room is one isolated game instance: membership, readiness, the running
// game and one-time settlement. All methods assume a single caller; the
// dispatcher is the only goroutine that touches rooms.
type Room struct {
	ID         int64
	Name       string
	MaxPlayers int

	status  Status
	players []Player // join order
	ready   map[int64]bool
	live    *liveGame
	settled bool
}

func NewRoom(id int64, name string, maxPlayers int) *Room {
	return &Room{ID: id, Name: name, MaxPlayers: maxPlayers, ready: make(map[int64]bool)}
}

func (r *Room) Status() Status  { return r.status }
func (r *Room) Playing() bool   { return r.status == StatusActive }
func (r *Room) Completed() bool { return r.status == StatusCompleted }
func (r *Room) Empty() bool     { return len(r.players) == 0 }
func (r *Room) Full() bool      { return len(r.players) >= r.MaxPlayers }
func (r *Room) NumPlayers() int { return len(r.players) }

// Players returns the seats in join order.
func (r *Room) Players() []Player {
	out := make([]Player, len(r.players))
	copy(out, r.players)
	return out
}

func (r *Room) HasPlayer(connID int64) bool {
	for _, p := range r.players {
		if p.ConnID == connID {
			return true
		}
	}
	return false
}

// AddPlayer seats a player. Only Inactive rooms with a free seat accept.
func (r *Room) AddPlayer(connID int64, username string) error {
	if r.status != StatusInactive {
		return ErrRoomInProgress
	}
	if r.Full() {
		return ErrRoomFull
	}
	r.players = append(r.players, Player{ConnID: connID, Username: username})
	return nil
}

// RemovePlayer unseats a player and drops them from the running score
// ledger, if any. Returns false if the player was not seated.
func (r *Room) RemovePlayer(connID int64) bool {
	for i, p := range r.players {
		if p.ConnID != connID {
			continue
		}
		r.players = append(r.players[:i], r.players[i+1:]...)
		delete(r.ready, connID)
		if r.live != nil {
			r.live.scoring.Remove(connID)
		}
		return true
	}
	return false
}

// Ready records one player's ready signal; repeats from the same player
// count once. When every seated player has signaled, the game starts: a
// fresh shuffled deck is dealt and the room goes Active.
func (r *Room) Ready(connID int64) (started bool) {
	if r.status != StatusInactive || !r.HasPlayer(connID) {
		return false
	}
	r.ready[connID] = true
	if len(r.ready) < len(r.players) {
		return false
	}
	board := NewBoard(NewDeck())
	board.DealUntilSetOrTwelve()
	ids := make([]int64, len(r.players))
	for i, p := range r.players {
		ids[i] = p.ConnID
	}
	r.live = &liveGame{
		board:     board,
		scoring:   NewScoring(ids),
		startedAt: time.Now(),
	}
	r.status = StatusActive
	return true
}

// ResetReady clears the ready signals so remaining players re-ready after
// someone leaves an Inactive room.
func (r *Room) ResetReady() {
	r.ready = make(map[int64]bool)
}

// ReadyCount returns how many players have signaled ready.
func (r *Room) ReadyCount() int {
	return len(r.ready)
}

// SubmitSet classifies a claimed triple for the submitting player. On
// acceptance points are awarded, the triple is removed and the board
// replenished; over reports that the deck ran dry with no set left, which
// completes the room.
func (r *Room) SubmitSet(connID int64, c1, c2, c3 Card) (outcome SetOutcome, over bool, err error) {
	if r.status != StatusActive {
		return 0, false, ErrNotActive
	}
	outcome = r.live.board.TestAndRemove(c1, c2, c3)
	switch outcome {
	case SetNotOnBoard:
		return outcome, false, ErrNotOnBoard
	case SetRejected:
		return outcome, false, nil
	}
	r.live.scoring.Add(connID, PointsPerSet)
	if !r.live.board.DealUntilSetOrTwelve() {
		r.status = StatusCompleted
		return outcome, true, nil
	}
	return outcome, false, nil
}

// ForceComplete ends an Active game early (attrition down to one player).
func (r *Room) ForceComplete() {
	if r.status == StatusActive {
		r.status = StatusCompleted
	}
}

// Score returns a seated player's current points.
func (r *Room) Score(connID int64) int64 {
	if r.live == nil {
		return 0
	}
	return r.live.scoring.Score(connID)
}

// BoardCards returns the face-up cards, or nil when no game has started.
func (r *Room) BoardCards() []Card {
	if r.live == nil {
		return nil
	}
	return r.live.board.Cards()
}

// StartedAt returns when the current game was dealt.
func (r *Room) StartedAt() time.Time {
	if r.live == nil {
		return time.Time{}
	}
	return r.live.startedAt
}

// Winners partitions the seated players by top score.
func (r *Room) Winners() (winners, losers []Player) {
	if r.live == nil {
		return nil, nil
	}
	var best int64
	for _, p := range r.players {
		if s := r.live.scoring.Score(p.ConnID); s > best {
			best = s
		}
	}
	for _, p := range r.players {
		if r.live.scoring.Score(p.ConnID) == best {
			winners = append(winners, p)
		} else {
			losers = append(losers, p)
		}
	}
	return winners, losers
}

// Settle computes the one-time rating redistribution for a Completed room:
// each winner gains ((n-w)*K)/w and each loser loses ((n-l)*K)/l with
// integer truncation. When everyone ties there are no losers and no
// ratings change. Settle returns nil on any call after the first.
func (r *Room) Settle() []RatingChange {
	if r.status != StatusCompleted || r.settled {
		return nil
	}
	r.settled = true
	winners, losers := r.Winners()
	if len(winners) == 0 || len(losers) == 0 {
		return nil
	}
	n := len(r.players)
	gain := ((n - len(winners)) * RatingStake) / len(winners)
	loss := ((n - len(losers)) * RatingStake) / len(losers)
	changes := make([]RatingChange, 0, n)
	for _, p := range winners {
		changes = append(changes, RatingChange{ConnID: p.ConnID, Username: p.Username, Delta: gain})
	}
	for _, p := range losers {
		changes = append(changes, RatingChange{ConnID: p.ConnID, Username: p.Username, Delta: -loss})
	}
	return changes
}

// Reset returns a Completed room to Inactive with board, scores and
// readiness cleared, keeping the seated players.
func (r *Room) Reset() {
	r.status = StatusInactive
	r.live = nil
	r.ready = make(map[int64]bool)
	r.settled = false
}

// Snapshot renders the board-and-scores wire encoding tagged with a phase
// flag: S game started, Y set accepted, N set rejected, F game over.
func (r *Room) Snapshot(flag string) string {
	board := ""
	if r.live != nil {
		board = r.live.board.Encode()
	}
	return "G~" + flag + "~" + board + "~" + r.encodeScores()
}

// Roster renders the seat list with current scores.
func (r *Room) Roster() string {
	return "M~" + r.encodeScores()
}

func (r *Room) encodeScores() string {
	parts := make([]string, len(r.players))
	for i, p := range r.players {
		parts[i] = fmt.Sprintf("%s:%d", p.Username, r.Score(p.ConnID))
	}
	return strings.Join(parts, ",")
}
