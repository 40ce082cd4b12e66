package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"classpoll-backend/internal/services"
	"classpoll-backend/internal/store/memory"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiFixture struct {
	router   *gin.Engine
	stores   *memory.Stores
	sessions *services.SessionService
	polls    *services.PollService
	votes    *services.VoteService
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	stores := memory.NewStores()
	timers := services.NewTimerService()
	t.Cleanup(timers.Stop)

	sessions := services.NewSessionService(stores.Sessions)
	polls := services.NewPollService(stores.Polls, timers)
	votes := services.NewVoteService(stores.Votes, stores.Polls)

	pollHandler := NewPollHandler(polls, votes)
	sessionHandler := NewSessionHandler(sessions)

	r := gin.New()
	api := r.Group("/api/v1")
	{
		api.GET("/polls/active", pollHandler.GetActivePoll)
		api.GET("/polls/history", pollHandler.GetPollHistory)
		api.GET("/polls/:id/my-vote", pollHandler.GetMyVote)
		api.POST("/sessions/validate-name", sessionHandler.ValidateName)
	}

	return &apiFixture{router: r, stores: stores, sessions: sessions, polls: polls, votes: votes}
}

func (f *apiFixture) request(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	return w, parsed
}

func TestGetActivePollEmpty(t *testing.T) {
	f := newAPIFixture(t)

	w, body := f.request(t, http.MethodGet, "/api/v1/polls/active", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, body["poll"])
}

func TestGetActivePoll(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()

	created, err := f.polls.Create(ctx, "Capital of France?", []string{"Paris", "London"}, 60, "T1")
	require.NoError(t, err)

	w, body := f.request(t, http.MethodGet, "/api/v1/polls/active", "")
	assert.Equal(t, http.StatusOK, w.Code)

	poll := body["poll"].(map[string]interface{})
	assert.Equal(t, created.ID, poll["id"])
	assert.Equal(t, "Capital of France?", poll["question"])
	assert.Equal(t, float64(0), poll["totalVotes"])

	remaining := poll["remainingMs"].(float64)
	assert.Greater(t, remaining, float64(0))
	assert.LessOrEqual(t, remaining, float64(60_000))
}

func TestGetPollHistory(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()

	first, err := f.polls.Create(ctx, "q1", []string{"a", "b"}, 30, "T1")
	require.NoError(t, err)
	_, err = f.polls.Complete(ctx, first.ID)
	require.NoError(t, err)

	second, err := f.polls.Create(ctx, "q2", []string{"a", "b"}, 30, "T1")
	require.NoError(t, err)
	_, err = f.polls.Complete(ctx, second.ID)
	require.NoError(t, err)

	w, body := f.request(t, http.MethodGet, "/api/v1/polls/history", "")
	assert.Equal(t, http.StatusOK, w.Code)

	polls := body["polls"].([]interface{})
	require.Len(t, polls, 2)
	assert.Equal(t, second.ID, polls[0].(map[string]interface{})["id"])
	assert.Equal(t, first.ID, polls[1].(map[string]interface{})["id"])
}

func TestGetMyVote(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()

	poll, err := f.polls.Create(ctx, "q", []string{"a", "b"}, 30, "T1")
	require.NoError(t, err)
	require.NoError(t, f.votes.RecordVote(ctx, poll.ID, 1, "s1", "Alice"))

	w, body := f.request(t, http.MethodGet, "/api/v1/polls/"+poll.ID+"/my-vote?sessionId=s1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["hasVoted"])
	vote := body["vote"].(map[string]interface{})
	assert.Equal(t, float64(1), vote["optionIndex"])

	// Unvoted session.
	w, body = f.request(t, http.MethodGet, "/api/v1/polls/"+poll.ID+"/my-vote?sessionId=s2", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["hasVoted"])
	assert.Nil(t, body["vote"])

	// Missing query parameter.
	w, _ = f.request(t, http.MethodGet, "/api/v1/polls/"+poll.ID+"/my-vote", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateName(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()

	_, err := f.sessions.RegisterOrUpdate(ctx, "s1", "conn1", "Alice", "student")
	require.NoError(t, err)

	w, body := f.request(t, http.MethodPost, "/api/v1/sessions/validate-name", `{"name":"alice","role":"student"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["isTaken"])
	assert.Equal(t, false, body["available"])

	w, body = f.request(t, http.MethodPost, "/api/v1/sessions/validate-name", `{"name":"Bob","role":"student"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["isTaken"])
	assert.Equal(t, true, body["available"])

	// Same name under the other role does not collide.
	w, body = f.request(t, http.MethodPost, "/api/v1/sessions/validate-name", `{"name":"Alice","role":"teacher"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["isTaken"])
}

func TestValidateNameBadRequest(t *testing.T) {
	f := newAPIFixture(t)

	w, _ := f.request(t, http.MethodPost, "/api/v1/sessions/validate-name", `{"name":"Alice"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = f.request(t, http.MethodPost, "/api/v1/sessions/validate-name", `{"name":"Alice","role":"admin"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
