package handlers

import (
	"net/http"
	"time"

	"classpoll-backend/internal/apperr"
	"classpoll-backend/internal/models"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

type MessageResponse struct {
	Message string `json:"message" example:"operation successful"`
}

// respondError maps the error taxonomy to HTTP statuses. Store failures stay
// generic; everything else carries its service message.
func respondError(c *gin.Context, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case apperr.KindAuthorization:
		c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
	case apperr.KindNotFound:
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case apperr.KindConflict:
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case apperr.KindExpired:
		c.JSON(http.StatusGone, ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

// pollPayload shapes a poll for the wire. Students see a fresh poll without
// counts; every other surface carries them.
func pollPayload(p *models.Poll, withCounts bool) gin.H {
	options := make([]gin.H, 0, len(p.Options))
	for _, opt := range p.Options {
		if withCounts {
			options = append(options, gin.H{"text": opt.Text, "voteCount": opt.VoteCount})
		} else {
			options = append(options, gin.H{"text": opt.Text})
		}
	}

	payload := gin.H{
		"id":            p.ID,
		"question":      p.Question,
		"options":       options,
		"timerDuration": p.TimerDuration,
		"endsAt":        p.EndsAt.UTC().Format(time.RFC3339),
	}
	if withCounts {
		payload["totalVotes"] = p.TotalVotes
		payload["status"] = p.Status
		payload["createdBy"] = p.CreatedBy
	}
	return payload
}
