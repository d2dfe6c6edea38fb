package server

import (
	"sync"

	"github.com/setarena/setarena-backend/game"
)

// NoRoom marks a user as being in the lobby.
const NoRoom int64 = -1

// User is one online account: created on successful login or registration,
// removed on disconnection. Exactly one User exists per connection id.
type User struct {
	Username string
	ConnID   int64
	RoomID   int64 // NoRoom while in the lobby
	Rating   int
}

// RoomSnapshot is an immutable copy of one room's lobby-visible state,
// safe to hand across goroutines.
type RoomSnapshot struct {
	ID         int64
	Name       string
	NumPlayers int
	MaxPlayers int
	Status     string
}

// Registry holds the online users and live rooms. The dispatcher goroutine
// is the only writer and holds mu across each message it handles, which
// also covers every mutation of the rooms reachable from here. The lookup
// and mutation methods therefore do no locking of their own; the HTTP
// lobby endpoints read through RoomSnapshots, which takes the read side
// and copies out plain values.
type Registry struct {
	mu         sync.RWMutex
	users      map[int64]*User
	rooms      map[int64]*game.Room
	nextRoomID int64
}

func NewRegistry() *Registry {
	return &Registry{
		users: make(map[int64]*User),
		rooms: make(map[int64]*game.Room),
	}
}

func (r *Registry) UserByConn(connID int64) *User {
	return r.users[connID]
}

// UserByName finds an online user, for duplicate-login checks.
func (r *Registry) UserByName(username string) *User {
	for _, u := range r.users {
		if u.Username == username {
			return u
		}
	}
	return nil
}

func (r *Registry) AddUser(connID int64, username string, rating int) *User {
	u := &User{Username: username, ConnID: connID, RoomID: NoRoom, Rating: rating}
	r.users[connID] = u
	return u
}

func (r *Registry) RemoveUser(connID int64) {
	delete(r.users, connID)
}

// Users returns everyone online.
func (r *Registry) Users() []*User {
	out := make([]*User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out
}

// CreateRoom allocates the next monotonic room id.
func (r *Registry) CreateRoom(name string, maxPlayers int) *game.Room {
	room := game.NewRoom(r.nextRoomID, name, maxPlayers)
	r.rooms[room.ID] = room
	r.nextRoomID++
	return room
}

// Room looks up a live room; the second result mirrors map access so every
// caller checks existence explicitly.
func (r *Registry) Room(id int64) (*game.Room, bool) {
	room, ok := r.rooms[id]
	return room, ok
}

func (r *Registry) RemoveRoom(id int64) {
	delete(r.rooms, id)
}

// Rooms returns the live rooms, for use on the dispatcher goroutine only.
func (r *Registry) Rooms() []*game.Room {
	out := make([]*game.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		out = append(out, room)
	}
	return out
}

// RoomSnapshots copies the lobby-visible room state under the read lock.
// This is the only registry method other goroutines may call.
func (r *Registry) RoomSnapshots() []RoomSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RoomSnapshot, 0, len(r.rooms))
	for _, room := range r.rooms {
		out = append(out, RoomSnapshot{
			ID:         room.ID,
			Name:       room.Name,
			NumPlayers: room.NumPlayers(),
			MaxPlayers: room.MaxPlayers,
			Status:     room.Status().String(),
		})
	}
	return out
}
