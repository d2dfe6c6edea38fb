// Package server is the session core: it accepts game connections over TCP
// and websocket, turns their line-delimited frames into a single inbound
// stream, runs every game-state mutation on one dispatcher goroutine and
// fans outbound messages back to the transports.
//
// Wire format: fields separated by '~', the first field's leading character
// is the opcode.
//
//	L~username~password   login
//	R~username~password   register
//	D                     disconnection (synthesized by readers)
//	N~name~maxPlayers     create room
//	J~roomID              join room
//	G                     ready up
//	S~c1~c2~c3            submit a set (card indices 0..80)
//	E                     exit current room
//	C~text                lobby chat
//	T~text                room chat
package server

import (
	"fmt"
	"strings"
)

// Delimiter separates wire message fields.
const Delimiter = "~"

// BroadcastTarget addresses an outbound message to every online connection.
const BroadcastTarget int64 = -1

// Message is one wire frame tagged with the connection it belongs to.
type Message struct {
	ConnID  int64
	Payload string
}

// Kind is the closed enumeration of inbound message types.
type Kind int

const (
	KindLogin Kind = iota
	KindRegister
	KindDisconnect
	KindCreateRoom
	KindJoinRoom
	KindReady
	KindSubmitSet
	KindExitRoom
	KindLobbyChat
	KindRoomChat
)

// Request is a parsed inbound message. Fields holds the raw split pieces
// including the opcode field, so indices line up with the wire format.
type Request struct {
	Kind   Kind
	Fields []string
}

// opcodeSpec pins each opcode to its kind and exact field count.
var opcodeSpec = map[byte]struct {
	kind  Kind
	arity int
}{
	'L': {KindLogin, 3},
	'R': {KindRegister, 3},
	'D': {KindDisconnect, 1},
	'N': {KindCreateRoom, 3},
	'J': {KindJoinRoom, 2},
	'G': {KindReady, 1},
	'S': {KindSubmitSet, 4},
	'E': {KindExitRoom, 1},
	'C': {KindLobbyChat, 2},
	'T': {KindRoomChat, 2},
}

// ParseRequest validates the opcode and field arity of a raw payload,
// returning a typed failure instead of letting handlers guess.
func ParseRequest(payload string) (Request, error) {
	if payload == "" {
		return Request{}, fmt.Errorf("empty message")
	}
	fields := strings.Split(payload, Delimiter)
	spec, ok := opcodeSpec[payload[0]]
	if !ok {
		return Request{}, fmt.Errorf("unknown opcode %q", payload[0])
	}
	if len(fields) != spec.arity {
		return Request{}, fmt.Errorf("opcode %q: got %d fields, want %d",
			payload[0], len(fields), spec.arity)
	}
	return Request{Kind: spec.kind, Fields: fields}, nil
}
