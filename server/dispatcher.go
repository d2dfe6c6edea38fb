package server

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/setarena/setarena-backend/game"
	"github.com/setarena/setarena-backend/models"
	"github.com/setarena/setarena-backend/repository"
)

// AccountStore is the narrow persistence contract the dispatcher queries.
// Calls run synchronously on the dispatcher goroutine; failures are
// answered with a generic error reply and never crash the server.
type AccountStore interface {
	FindAccount(username string) (*models.User, error)
	CreateAccount(username, passwordHash string) error
	UpdateRating(username string, rating int) error
	RecordMatch(rec models.MatchRecord) error
}

// Dispatcher drains the inbound queue and is the only goroutine that
// mutates users, rooms, boards and scores. Everything concurrent is pushed
// to the queue boundary, so none of that state needs locking here.
type Dispatcher struct {
	reg      *Registry
	store    AccountStore
	conns    *sync.Map
	inbound  <-chan Message
	outbound chan<- Message
	log      *zap.SugaredLogger
}

func NewDispatcher(reg *Registry, store AccountStore, conns *sync.Map, inbound <-chan Message, outbound chan<- Message, log *zap.SugaredLogger) *Dispatcher {
	return &Dispatcher{
		reg:      reg,
		store:    store,
		conns:    conns,
		inbound:  inbound,
		outbound: outbound,
		log:      log,
	}
}

// Run processes messages until the inbound channel is closed.
func (d *Dispatcher) Run() {
	for msg := range d.inbound {
		d.Handle(msg)
	}
}

// Handle processes one inbound message. Protocol errors are logged and the
// message dropped; the connection stays open. The registry's write lock is
// held for the whole message so room and user state never changes under a
// concurrent lobby snapshot.
func (d *Dispatcher) Handle(msg Message) {
	req, err := ParseRequest(msg.Payload)
	if err != nil {
		d.log.Warnf("connection %d: dropping message: %v", msg.ConnID, err)
		return
	}
	d.reg.mu.Lock()
	defer d.reg.mu.Unlock()
	switch req.Kind {
	case KindLogin:
		d.handleLogin(msg.ConnID, req.Fields)
	case KindRegister:
		d.handleRegister(msg.ConnID, req.Fields)
	case KindDisconnect:
		d.handleDisconnect(msg.ConnID)
	case KindCreateRoom:
		d.handleCreateRoom(msg.ConnID, req.Fields)
	case KindJoinRoom:
		d.handleJoinRoom(msg.ConnID, req.Fields)
	case KindReady:
		d.handleReady(msg.ConnID)
	case KindSubmitSet:
		d.handleSubmitSet(msg.ConnID, req.Fields)
	case KindExitRoom:
		d.handleExitRoom(msg.ConnID)
	case KindLobbyChat:
		d.handleLobbyChat(msg.ConnID, req.Fields)
	case KindRoomChat:
		d.handleRoomChat(msg.ConnID, req.Fields)
	}
}

func (d *Dispatcher) send(connID int64, payload string) {
	d.outbound <- Message{ConnID: connID, Payload: payload}
}

func (d *Dispatcher) broadcast(payload string) {
	d.outbound <- Message{ConnID: BroadcastTarget, Payload: payload}
}

func (d *Dispatcher) sendRoom(room *game.Room, payload string) {
	for _, p := range room.Players() {
		d.send(p.ConnID, payload)
	}
}

// roomEntry renders one row of the lobby's room table.
func roomEntry(room *game.Room) string {
	return fmt.Sprintf("U~A~%d~%s~%d~%d~%s",
		room.ID, room.Name, room.NumPlayers(), room.MaxPlayers, room.Status())
}

func (d *Dispatcher) handleLogin(connID int64, fields []string) {
	username, password := fields[1], fields[2]
	if d.reg.UserByConn(connID) != nil {
		d.send(connID, "X~Already logged in")
		return
	}
	if d.reg.UserByName(username) != nil {
		d.send(connID, "X~Username is already online")
		return
	}
	acct, err := d.store.FindAccount(username)
	if errors.Is(err, repository.ErrNoAccount) {
		d.send(connID, "X~Username does not exist")
		return
	}
	if err != nil {
		d.log.Errorf("account lookup for %q failed: %v", username, err)
		d.send(connID, "X~Could not complete request")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(acct.Password), []byte(password)) != nil {
		d.send(connID, "X~Invalid password")
		return
	}
	d.reg.AddUser(connID, username, acct.Rating)
	d.log.Infof("user %q logged in on connection %d", username, connID)
	d.sendLobbyState(connID)
	d.broadcast("P~A~" + username)
}

func (d *Dispatcher) handleRegister(connID int64, fields []string) {
	username, password := fields[1], fields[2]
	if d.reg.UserByConn(connID) != nil {
		d.send(connID, "X~Already logged in")
		return
	}
	if len(username) < 3 || len(username) > 50 {
		d.send(connID, "X~Username must be between 3 and 50 characters")
		return
	}
	if len(password) < 3 || len(password) > 50 {
		d.send(connID, "X~Password must be between 3 and 50 characters")
		return
	}
	if _, err := d.store.FindAccount(username); err == nil {
		d.send(connID, "X~Username already exists")
		return
	} else if !errors.Is(err, repository.ErrNoAccount) {
		d.log.Errorf("account lookup for %q failed: %v", username, err)
		d.send(connID, "X~Could not complete request")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		d.log.Errorf("hashing password for %q failed: %v", username, err)
		d.send(connID, "X~Could not complete request")
		return
	}
	if err := d.store.CreateAccount(username, string(hash)); err != nil {
		d.log.Errorf("creating account %q failed: %v", username, err)
		d.send(connID, "X~Could not complete request")
		return
	}
	d.reg.AddUser(connID, username, models.DefaultRating)
	d.log.Infof("created new user %q on connection %d", username, connID)
	d.sendLobbyState(connID)
	d.broadcast("P~A~" + username)
}

// sendLobbyState gives a fresh login the current presence list and room
// table so its lobby view starts consistent.
func (d *Dispatcher) sendLobbyState(connID int64) {
	for _, u := range d.reg.Users() {
		if u.ConnID != connID {
			d.send(connID, "P~A~"+u.Username)
		}
	}
	for _, room := range d.reg.Rooms() {
		d.send(connID, roomEntry(room))
	}
}

// handleDisconnect is the shared cleanup path for remote closes, read
// failures and client-initiated disconnects.
func (d *Dispatcher) handleDisconnect(connID int64) {
	if t, ok := d.conns.LoadAndDelete(connID); ok {
		t.(transport).Close()
	}
	u := d.reg.UserByConn(connID)
	if u == nil {
		return
	}
	d.log.Infof("user %q on connection %d disconnected", u.Username, connID)
	d.broadcast("P~R~" + u.Username)
	if u.RoomID != NoRoom {
		d.leaveRoom(u, true)
	}
	d.reg.RemoveUser(connID)
}

func (d *Dispatcher) handleCreateRoom(connID int64, fields []string) {
	u := d.reg.UserByConn(connID)
	if u == nil {
		d.log.Warnf("create room from connection %d with no user", connID)
		return
	}
	if u.RoomID != NoRoom {
		d.send(connID, "A")
		return
	}
	name := fields[1]
	maxPlayers, err := strconv.Atoi(fields[2])
	if err != nil || maxPlayers < 1 || maxPlayers > 8 {
		d.send(connID, "X~Invalid max player count")
		return
	}
	room := d.reg.CreateRoom(name, maxPlayers)
	if err := room.AddPlayer(connID, u.Username); err != nil {
		d.log.Errorf("seating %q in fresh room %d failed: %v, possible bug", u.Username, room.ID, err)
		d.reg.RemoveRoom(room.ID)
		return
	}
	u.RoomID = room.ID
	d.send(connID, room.Roster())
	d.broadcast(roomEntry(room))
	d.broadcast(fmt.Sprintf("C~%s created a game: %s", u.Username, room.Name))
	d.log.Infof("user %q created room %d (%s, max %d)", u.Username, room.ID, room.Name, maxPlayers)
}

func (d *Dispatcher) handleJoinRoom(connID int64, fields []string) {
	u := d.reg.UserByConn(connID)
	if u == nil {
		d.log.Warnf("join room from connection %d with no user", connID)
		return
	}
	if u.RoomID != NoRoom {
		d.send(connID, "A")
		return
	}
	roomID, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		d.send(connID, "X~Invalid room number")
		return
	}
	room, ok := d.reg.Room(roomID)
	if !ok {
		d.log.Errorf("user %q tried to join room %d which does not exist, possible bug", u.Username, roomID)
		return
	}
	switch err := room.AddPlayer(connID, u.Username); {
	case errors.Is(err, game.ErrRoomFull):
		d.send(connID, "J~F")
		return
	case errors.Is(err, game.ErrRoomInProgress):
		d.send(connID, "J~I")
		return
	}
	u.RoomID = room.ID
	d.sendRoom(room, room.Roster())
	d.sendRoom(room, fmt.Sprintf("T~%s joined the room", u.Username))
	d.broadcast(roomEntry(room))
	d.broadcast(fmt.Sprintf("C~%s joined game room %d: %s", u.Username, room.ID, room.Name))
}

func (d *Dispatcher) handleReady(connID int64) {
	u, room := d.userAndRoom(connID, "ready")
	if room == nil {
		return
	}
	if room.Playing() {
		d.send(connID, "X~Game already in progress")
		return
	}
	before := room.ReadyCount()
	started := room.Ready(connID)
	if !started && room.ReadyCount() == before {
		// Repeated ready from the same player.
		return
	}
	d.sendRoom(room, fmt.Sprintf("T~%s is ready!", u.Username))
	if started {
		d.sendRoom(room, "T~All users are ready. Game start!")
		d.sendRoom(room, room.Snapshot("S"))
		d.broadcast(roomEntry(room))
		d.log.Infof("room %d started with %d players", room.ID, room.NumPlayers())
	}
}

func (d *Dispatcher) handleSubmitSet(connID int64, fields []string) {
	u, room := d.userAndRoom(connID, "set request")
	if room == nil {
		return
	}
	cards, err := parseCards(fields[1:])
	if err != nil {
		d.send(connID, "X~Invalid set request")
		return
	}
	outcome, over, err := room.SubmitSet(connID, cards[0], cards[1], cards[2])
	switch {
	case errors.Is(err, game.ErrNotActive):
		d.send(connID, "X~Game is not in progress")
		return
	case errors.Is(err, game.ErrNotOnBoard):
		// State divergence between client and server. Discard; a
		// correct client can never produce this.
		d.log.Errorf("user %q claimed a set with cards not on the board in room %d, possible bug", u.Username, room.ID)
		return
	}
	switch outcome {
	case game.SetRejected:
		d.sendRoom(room, room.Snapshot("N"))
	case game.SetAccepted:
		if over {
			d.sendRoom(room, room.Snapshot("F"))
			d.settle(room)
		} else {
			d.sendRoom(room, room.Snapshot("Y"))
		}
	}
}

func (d *Dispatcher) handleExitRoom(connID int64) {
	u := d.reg.UserByConn(connID)
	if u == nil {
		d.log.Warnf("exit room from connection %d with no user", connID)
		return
	}
	if u.RoomID == NoRoom {
		d.log.Errorf("user %q exited a room while not in one, possible bug", u.Username)
		return
	}
	d.send(connID, "E")
	d.leaveRoom(u, false)
}

// leaveRoom removes the user from their current room and runs the shared
// forfeit logic: notify the remainder, penalize mid-game leavers, force
// completion when one player is left, or reset readiness pre-game.
func (d *Dispatcher) leaveRoom(u *User, disconnecting bool) {
	room, ok := d.reg.Room(u.RoomID)
	if !ok {
		d.log.Errorf("user %q references room %d which does not exist, possible bug", u.Username, u.RoomID)
		u.RoomID = NoRoom
		return
	}
	wasPlaying := room.Playing()
	room.RemovePlayer(u.ConnID)
	u.RoomID = NoRoom

	if room.Empty() {
		d.reg.RemoveRoom(room.ID)
		d.broadcast(fmt.Sprintf("U~R~%d", room.ID))
		return
	}

	verb := "left the game"
	if disconnecting {
		verb = "disconnected"
	}
	d.sendRoom(room, fmt.Sprintf("T~%s %s", u.Username, verb))
	d.sendRoom(room, room.Roster())
	d.broadcast(roomEntry(room))

	if wasPlaying {
		d.applyRating(u, u.Rating-game.ForfeitPenalty)
		if room.NumPlayers() == 1 {
			room.ForceComplete()
			d.sendRoom(room, room.Snapshot("F"))
			d.settle(room)
		}
	} else {
		room.ResetReady()
		d.sendRoom(room, fmt.Sprintf("T~%s %s! Ready players have been reset, press ready again!", u.Username, verb))
		d.sendRoom(room, "G~R")
	}
}

func (d *Dispatcher) handleLobbyChat(connID int64, fields []string) {
	u := d.reg.UserByConn(connID)
	if u == nil {
		d.log.Warnf("lobby chat from connection %d with no user", connID)
		return
	}
	d.broadcast("C~" + u.Username + Delimiter + fields[1])
}

func (d *Dispatcher) handleRoomChat(connID int64, fields []string) {
	u, room := d.userAndRoom(connID, "room chat")
	if room == nil {
		return
	}
	d.sendRoom(room, "T~"+u.Username+Delimiter+fields[1])
}

// settle runs the one-time rating redistribution for a completed room,
// persists the results and the match record, then resets the room.
func (d *Dispatcher) settle(room *game.Room) {
	if !room.Completed() {
		d.log.Errorf("settling room %d which is not completed, possible bug", room.ID)
		return
	}
	d.sendRoom(room, "T~The game is over. Ratings updating...")
	rec := d.matchRecord(room)
	for _, change := range room.Settle() {
		u := d.reg.UserByConn(change.ConnID)
		if u == nil {
			d.log.Errorf("settlement for room %d references connection %d with no user, possible bug", room.ID, change.ConnID)
			continue
		}
		updated := u.Rating + change.Delta
		d.sendRoom(room, fmt.Sprintf("T~%s's rating: %d -> %d", u.Username, u.Rating, updated))
		d.applyRating(u, updated)
	}
	if err := d.store.RecordMatch(rec); err != nil {
		d.log.Errorf("recording match for room %d failed: %v", room.ID, err)
	}
	room.Reset()
	d.sendRoom(room, "G~R")
	d.broadcast(roomEntry(room))
	d.log.Infof("room %d settled and reset", room.ID)
}

// matchRecord snapshots the final scores before the room resets.
func (d *Dispatcher) matchRecord(room *game.Room) models.MatchRecord {
	players := room.Players()
	rec := models.MatchRecord{
		ID:         uuid.New().String(),
		StartedAt:  room.StartedAt(),
		FinishedAt: time.Now(),
	}
	for _, p := range players {
		rec.Players = append(rec.Players, p.Username)
		rec.Scores = append(rec.Scores, room.Score(p.ConnID))
	}
	return rec
}

// applyRating updates the in-memory rating and persists it. A store
// failure is logged and the in-memory value kept; the next successful
// settlement writes the corrected value.
func (d *Dispatcher) applyRating(u *User, rating int) {
	u.Rating = rating
	if err := d.store.UpdateRating(u.Username, rating); err != nil {
		d.log.Errorf("updating rating for %q failed: %v", u.Username, err)
	}
}

// userAndRoom resolves the requesting user and their current room,
// logging the invariant-violation paths.
func (d *Dispatcher) userAndRoom(connID int64, op string) (*User, *game.Room) {
	u := d.reg.UserByConn(connID)
	if u == nil {
		d.log.Warnf("%s from connection %d with no user", op, connID)
		return nil, nil
	}
	if u.RoomID == NoRoom {
		d.send(connID, "X~Not in a room")
		return u, nil
	}
	room, ok := d.reg.Room(u.RoomID)
	if !ok {
		d.log.Errorf("user %q references room %d which does not exist, possible bug", u.Username, u.RoomID)
		u.RoomID = NoRoom
		return u, nil
	}
	return u, room
}

func parseCards(fields []string) ([]game.Card, error) {
	cards := make([]game.Card, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("card %q: %w", f, err)
		}
		c := game.Card(v)
		if !c.Valid() {
			return nil, fmt.Errorf("card %d out of range", v)
		}
		cards[i] = c
	}
	return cards, nil
}
