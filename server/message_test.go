package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequestKinds(t *testing.T) {
	tests := []struct {
		payload string
		kind    Kind
	}{
		{"L~alice~hunter2", KindLogin},
		{"R~alice~hunter2", KindRegister},
		{"D", KindDisconnect},
		{"N~my room~4", KindCreateRoom},
		{"J~3", KindJoinRoom},
		{"G", KindReady},
		{"S~0~1~2", KindSubmitSet},
		{"E", KindExitRoom},
		{"C~hello lobby", KindLobbyChat},
		{"T~hello room", KindRoomChat},
	}
	for _, tt := range tests {
		req, err := ParseRequest(tt.payload)
		require.NoError(t, err, tt.payload)
		assert.Equal(t, tt.kind, req.Kind, tt.payload)
	}
}

func TestParseRequestFieldsPreserved(t *testing.T) {
	req, err := ParseRequest("N~cozy corner~4")
	require.NoError(t, err)
	assert.Equal(t, []string{"N", "cozy corner", "4"}, req.Fields)
}

func TestParseRequestRejections(t *testing.T) {
	bad := []string{
		"",            // empty frame
		"Z~whatever",  // unknown opcode
		"L~alice",     // too few fields
		"L~a~b~c",     // too many fields
		"D~extra",     // disconnect takes no fields
		"S~0~1",       // set claim needs three cards
		"C",           // chat needs a body
		"J~1~2",       // join takes one field
		"T~one~two",   // room chat body must not contain the delimiter
		"G~S~anything", // server-side tags are not client opcodes
	}
	for _, payload := range bad {
		_, err := ParseRequest(payload)
		assert.Error(t, err, "payload %q", payload)
	}
}
