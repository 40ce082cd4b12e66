package handlers

import (
	"net/http"

	"classpoll-backend/internal/models"
	"classpoll-backend/internal/services"

	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	sessions *services.SessionService
}

func NewSessionHandler(sessions *services.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type ValidateNameRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
	Role string `json:"role" binding:"required"`
}

// ValidateName godoc
// @Summary      Name availability check
// @Description  Checks the name against currently-connected sessions of the same role
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Router       /api/v1/sessions/validate-name [post]
func (h *SessionHandler) ValidateName(c *gin.Context) {
	var req ValidateNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if !models.ValidRole(req.Role) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "role must be teacher or student"})
		return
	}

	taken, err := h.sessions.NameTaken(c.Request.Context(), req.Name, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"isTaken": taken, "available": !taken})
}
