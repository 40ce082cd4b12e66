package handlers

import (
	"net/http"

	"classpoll-backend/internal/services"

	"github.com/gin-gonic/gin"
)

// PollHandler serves the read-side projections: active poll with remaining
// time, completed history, and per-session vote lookup.
type PollHandler struct {
	polls *services.PollService
	votes *services.VoteService
}

func NewPollHandler(polls *services.PollService, votes *services.VoteService) *PollHandler {
	return &PollHandler{polls: polls, votes: votes}
}

// GetActivePoll godoc
// @Summary      Current active poll
// @Description  Returns the active poll with remaining time, or null
// @Tags         polls
// @Produce      json
// @Router       /api/v1/polls/active [get]
func (h *PollHandler) GetActivePoll(c *gin.Context) {
	poll, err := h.polls.GetActive(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if poll == nil {
		c.JSON(http.StatusOK, gin.H{"poll": nil})
		return
	}

	payload := pollPayload(poll, true)
	payload["remainingMs"] = h.polls.RemainingMS(poll.EndsAt)
	c.JSON(http.StatusOK, gin.H{"poll": payload})
}

// GetPollHistory godoc
// @Summary      Completed poll history
// @Tags         polls
// @Produce      json
// @Router       /api/v1/polls/history [get]
func (h *PollHandler) GetPollHistory(c *gin.Context) {
	polls, err := h.polls.History(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]gin.H, 0, len(polls))
	for i := range polls {
		out = append(out, pollPayload(&polls[i], true))
	}
	c.JSON(http.StatusOK, gin.H{"polls": out})
}

// GetMyVote godoc
// @Summary      Vote lookup for a session
// @Tags         polls
// @Produce      json
// @Param        id path string true "Poll ID"
// @Param        sessionId query string true "Session ID"
// @Router       /api/v1/polls/{id}/my-vote [get]
func (h *PollHandler) GetMyVote(c *gin.Context) {
	pollID := c.Param("id")
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "sessionId query parameter is required"})
		return
	}

	hasVoted, err := h.votes.HasVoted(c.Request.Context(), pollID, sessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	if !hasVoted {
		c.JSON(http.StatusOK, gin.H{"hasVoted": false, "vote": nil})
		return
	}

	vote, err := h.votes.GetVote(c.Request.Context(), pollID, sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hasVoted": true, "vote": vote})
}
