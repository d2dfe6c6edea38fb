package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/setarena/setarena-backend/models"
	"github.com/setarena/setarena-backend/repository"
	"github.com/setarena/setarena-backend/server"
)

const testSecret = "test-secret"

type fakeStore struct {
	accounts map[string]*models.User
	matches  map[string][]models.MatchRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		accounts: make(map[string]*models.User),
		matches:  make(map[string][]models.MatchRecord),
	}
}

func (s *fakeStore) seed(username, password string, rating int) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	s.accounts[username] = &models.User{
		ID:       int64(len(s.accounts) + 1),
		Username: username,
		Password: string(hash),
		Rating:   rating,
	}
}

func (s *fakeStore) FindAccount(username string) (*models.User, error) {
	acct, ok := s.accounts[username]
	if !ok {
		return nil, repository.ErrNoAccount
	}
	return acct, nil
}

func (s *fakeStore) CreateAccount(username, passwordHash string) error {
	if _, ok := s.accounts[username]; ok {
		return repository.ErrAccountExists
	}
	s.accounts[username] = &models.User{
		ID:       int64(len(s.accounts) + 1),
		Username: username,
		Password: passwordHash,
		Rating:   models.DefaultRating,
	}
	return nil
}

func (s *fakeStore) ListTop(limit int) ([]models.User, error) {
	var out []models.User
	for _, u := range s.accounts {
		out = append(out, *u)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *fakeStore) MatchesFor(username string) ([]models.MatchRecord, error) {
	return s.matches[username], nil
}

type fakeRooms struct {
	rooms []server.RoomSnapshot
}

func (f *fakeRooms) RoomSnapshots() []server.RoomSnapshot { return f.rooms }

func newTestRouter(store *fakeStore, rooms *fakeRooms) http.Handler {
	h := New(store, rooms, testSecret, zap.NewNop().Sugar())
	ws := func(w http.ResponseWriter, r *http.Request) {}
	return NewRouter(h, ws)
}

func doJSON(t *testing.T, router http.Handler, method, path, body, token string) (*httptest.ResponseRecorder, models.ApiResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	var resp models.ApiResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return rr, resp
}

func TestRegister(t *testing.T) {
	store := newFakeStore()
	router := newTestRouter(store, &fakeRooms{})

	rr, resp := doJSON(t, router, "POST", "/api/register", `{"username":"alice","password":"secret"}`, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, resp.Success)
	require.NotNil(t, store.accounts["alice"])
	assert.Equal(t, models.DefaultRating, store.accounts["alice"].Rating)
	assert.NotEqual(t, "secret", store.accounts["alice"].Password, "password must be stored hashed")

	rr, resp = doJSON(t, router, "POST", "/api/register", `{"username":"alice","password":"secret"}`, "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.False(t, resp.Success)
}

func TestRegisterValidation(t *testing.T) {
	router := newTestRouter(newFakeStore(), &fakeRooms{})

	cases := []struct {
		name string
		body string
	}{
		{"short username", `{"username":"ab","password":"secret"}`},
		{"short password", `{"username":"alice","password":"ab"}`},
		{"long username", `{"username":"` + strings.Repeat("a", 51) + `","password":"secret"}`},
		{"not json", `not json`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr, resp := doJSON(t, router, "POST", "/api/register", tc.body, "")
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.False(t, resp.Success)
		})
	}
}

func loginToken(t *testing.T, router http.Handler) string {
	t.Helper()
	rr, resp := doJSON(t, router, "POST", "/api/login", `{"username":"alice","password":"secret"}`, "")
	require.Equal(t, http.StatusOK, rr.Code)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	token, ok := data["access_token"].(string)
	require.True(t, ok)
	require.NotEmpty(t, token)
	return token
}

func TestLogin(t *testing.T) {
	store := newFakeStore()
	store.seed("alice", "secret", 130)
	router := newTestRouter(store, &fakeRooms{})

	loginToken(t, router)

	rr, resp := doJSON(t, router, "POST", "/api/login", `{"username":"alice","password":"wrong"}`, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.False(t, resp.Success)

	rr, _ = doJSON(t, router, "POST", "/api/login", `{"username":"nobody","password":"secret"}`, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMe(t *testing.T) {
	store := newFakeStore()
	store.seed("alice", "secret", 130)
	router := newTestRouter(store, &fakeRooms{})
	token := loginToken(t, router)

	rr, resp := doJSON(t, router, "GET", "/api/me", "", token)
	assert.Equal(t, http.StatusOK, rr.Code)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "alice", data["username"])
	assert.EqualValues(t, 130, data["rating"])
	assert.NotContains(t, data, "password")
}

func TestMeRequiresToken(t *testing.T) {
	store := newFakeStore()
	store.seed("alice", "secret", 130)
	router := newTestRouter(store, &fakeRooms{})

	rr, _ := doJSON(t, router, "GET", "/api/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr, _ = doJSON(t, router, "GET", "/api/me", "", "garbage.token.here")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMatches(t *testing.T) {
	store := newFakeStore()
	store.seed("alice", "secret", 130)
	store.matches["alice"] = []models.MatchRecord{{
		ID:         "m1",
		StartedAt:  time.Now().Add(-10 * time.Minute),
		FinishedAt: time.Now(),
		Players:    []string{"alice", "bob"},
		Scores:     []int64{9, 6},
	}}
	router := newTestRouter(store, &fakeRooms{})
	token := loginToken(t, router)

	rr, resp := doJSON(t, router, "GET", "/api/matches", "", token)
	assert.Equal(t, http.StatusOK, rr.Code)
	data, ok := resp.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, data, 1)
}

func TestMatchesEmptyIsList(t *testing.T) {
	store := newFakeStore()
	store.seed("alice", "secret", 100)
	router := newTestRouter(store, &fakeRooms{})
	token := loginToken(t, router)

	rr, resp := doJSON(t, router, "GET", "/api/matches", "", token)
	assert.Equal(t, http.StatusOK, rr.Code)
	data, ok := resp.Data.([]interface{})
	require.True(t, ok, "empty history encodes as [], not null")
	assert.Empty(t, data)
}

func TestRooms(t *testing.T) {
	snap := server.RoomSnapshot{ID: 0, Name: "duel", NumPlayers: 1, MaxPlayers: 2, Status: "Inactive"}
	router := newTestRouter(newFakeStore(), &fakeRooms{rooms: []server.RoomSnapshot{snap}})

	rr, resp := doJSON(t, router, "GET", "/api/rooms", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	data, ok := resp.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, data, 1)
	info := data[0].(map[string]interface{})
	assert.Equal(t, "duel", info["name"])
	assert.EqualValues(t, 1, info["num_players"])
	assert.EqualValues(t, 2, info["max_players"])
	assert.Equal(t, "Inactive", info["status"])
}

func TestLeaderboard(t *testing.T) {
	store := newFakeStore()
	store.seed("alice", "secret", 130)
	store.seed("bob", "secret", 90)
	router := newTestRouter(store, &fakeRooms{})

	rr, resp := doJSON(t, router, "GET", "/api/leaderboard", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	data, ok := resp.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, data, 2)
}
