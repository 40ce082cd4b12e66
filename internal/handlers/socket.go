package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"classpoll-backend/internal/models"
	"classpoll-backend/internal/services"
	"classpoll-backend/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// SocketHandler is the per-connection event dispatcher: it authenticates via
// the session registry, gates by role, mutates poll/vote state, and drives
// the hub's role-scoped fan-out.
type SocketHandler struct {
	hub      *ws.Hub
	sessions *services.SessionService
	polls    *services.PollService
	votes    *services.VoteService
	timeout  time.Duration
}

func NewSocketHandler(hub *ws.Hub, sessions *services.SessionService, polls *services.PollService, votes *services.VoteService, storeTimeout time.Duration) *SocketHandler {
	return &SocketHandler{
		hub:      hub,
		sessions: sessions,
		polls:    polls,
		votes:    votes,
		timeout:  storeTimeout,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type joinPayload struct {
	SessionID string `json:"sessionId"`
	Name      string `json:"name"`
	Role      string `json:"role"`
}

type createPollPayload struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	TimerDuration int      `json:"timerDuration"`
}

type votePayload struct {
	PollID      string `json:"pollId"`
	OptionIndex *int   `json:"optionIndex"`
}

type recoverPayload struct {
	SessionID string `json:"sessionId"`
}

type kickPayload struct {
	SessionID string `json:"sessionId"`
}

type chatPayload struct {
	Message string `json:"message"`
}

// HandleWebSocket upgrades the connection and runs its read loop until the
// transport drops.
func (h *SocketHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}

	client := ws.NewClient(uuid.NewString(), conn)
	h.hub.Register(client)
	defer h.handleDisconnect(client)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var env ws.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			client.Send(ws.Message{Type: "session:error", Data: gin.H{"error": "malformed message"}})
			continue
		}
		h.dispatch(client, env)
	}
}

func (h *SocketHandler) dispatch(client *ws.Client, env ws.Envelope) {
	switch env.Type {
	case "session:join":
		h.handleJoin(client, env.Data)
	case "poll:create":
		h.handleCreatePoll(client, env.Data)
	case "poll:vote":
		h.handleVote(client, env.Data)
	case "state:recover":
		h.handleRecover(client, env.Data)
	case "student:kick":
		h.handleKick(client, env.Data)
	case "chat:message":
		h.handleChat(client, env.Data)
	default:
		log.Printf("ws: unknown event type %q from %s", env.Type, client.ID)
	}
}

func (h *SocketHandler) opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), h.timeout)
}

// callerSession resolves the session bound to this connection, or nil.
func (h *SocketHandler) callerSession(ctx context.Context, client *ws.Client) *models.Session {
	session, err := h.sessions.GetByConnection(ctx, client.ID)
	if err != nil {
		return nil
	}
	return session
}

func (h *SocketHandler) handleJoin(client *ws.Client, data json.RawMessage) {
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		client.Send(ws.Message{Type: "session:error", Data: gin.H{"error": "malformed join payload"}})
		return
	}

	ctx, cancel := h.opCtx()
	defer cancel()

	if !models.ValidRole(p.Role) {
		client.Send(ws.Message{Type: "session:error", Data: gin.H{"error": "role must be teacher or student"}})
		return
	}

	// Name uniqueness applies to fresh joins only; a known session keeping
	// its own name must not collide with itself.
	if _, err := h.sessions.GetByID(ctx, p.SessionID); err != nil {
		taken, err := h.sessions.NameTaken(ctx, p.Name, p.Role)
		if err != nil {
			client.Send(ws.Message{Type: "session:error", Data: gin.H{"error": err.Error()}})
			return
		}
		if taken {
			client.Send(ws.Message{Type: "session:error", Data: gin.H{"error": "this name is already taken"}})
			return
		}
	}

	session, err := h.sessions.RegisterOrUpdate(ctx, p.SessionID, client.ID, p.Name, p.Role)
	if err != nil {
		client.Send(ws.Message{Type: "session:error", Data: gin.H{"error": err.Error()}})
		return
	}

	h.hub.Join(client, session.Role)
	h.hub.Join(client, ws.SessionRoom(session.SessionID))

	if session.Role == models.RoleStudent {
		h.broadcastRoster(ctx, "student:joined")
	}

	client.Send(ws.Message{Type: "session:joined", Data: gin.H{"success": true, "sessionId": session.SessionID}})
}

func (h *SocketHandler) handleCreatePoll(client *ws.Client, data json.RawMessage) {
	var p createPollPayload
	if err := json.Unmarshal(data, &p); err != nil {
		client.Send(ws.Message{Type: "poll:error", Data: gin.H{"error": "malformed poll payload"}})
		return
	}

	ctx, cancel := h.opCtx()
	defer cancel()

	session := h.callerSession(ctx, client)
	if session == nil || session.Role != models.RoleTeacher {
		client.Send(ws.Message{Type: "poll:error", Data: gin.H{"error": "only teachers can create polls"}})
		return
	}

	poll, err := h.polls.Create(ctx, p.Question, p.Options, p.TimerDuration, session.Name)
	if err != nil {
		client.Send(ws.Message{Type: "poll:error", Data: gin.H{"error": err.Error()}})
		return
	}

	// Ack the creator first so a failed student broadcast can't swallow it.
	// The poll is persisted and its timer armed by this point.
	client.Send(ws.Message{Type: "poll:created", Data: gin.H{"poll": pollPayload(poll, true)}})
	h.hub.Broadcast(ws.RoomStudents, ws.Message{Type: "poll:new", Data: gin.H{"poll": pollPayload(poll, false)}})
}

func (h *SocketHandler) handleVote(client *ws.Client, data json.RawMessage) {
	var p votePayload
	if err := json.Unmarshal(data, &p); err != nil || p.OptionIndex == nil {
		client.Send(ws.Message{Type: "poll:vote-ack", Data: gin.H{"success": false, "error": "malformed vote payload"}})
		return
	}

	ctx, cancel := h.opCtx()
	defer cancel()

	session := h.callerSession(ctx, client)
	if session == nil || session.Role != models.RoleStudent {
		client.Send(ws.Message{Type: "poll:vote-ack", Data: gin.H{"success": false, "error": "only students can vote"}})
		return
	}

	if err := h.votes.RecordVote(ctx, p.PollID, *p.OptionIndex, session.SessionID, session.Name); err != nil {
		client.Send(ws.Message{Type: "poll:vote-ack", Data: gin.H{"success": false, "error": err.Error()}})
		return
	}

	client.Send(ws.Message{Type: "poll:vote-ack", Data: gin.H{"success": true}})

	results, err := h.votes.Results(ctx, p.PollID)
	if err != nil {
		log.Printf("ws: results after vote on %s failed: %v", p.PollID, err)
		return
	}
	h.hub.BroadcastAll(ws.Message{Type: "poll:results-update", Data: gin.H{"results": results}})
}

func (h *SocketHandler) handleRecover(client *ws.Client, data json.RawMessage) {
	var p recoverPayload
	if err := json.Unmarshal(data, &p); err != nil {
		client.Send(ws.Message{Type: "state:recovered", Data: gin.H{"error": "malformed recover payload"}})
		return
	}

	ctx, cancel := h.opCtx()
	defer cancel()

	session, err := h.sessions.GetByID(ctx, p.SessionID)
	if err != nil {
		client.Send(ws.Message{Type: "state:recovered", Data: gin.H{"error": "session not found"}})
		return
	}

	if _, err := h.sessions.Reconnect(ctx, p.SessionID, client.ID); err != nil {
		client.Send(ws.Message{Type: "state:recovered", Data: gin.H{"error": err.Error()}})
		return
	}

	h.hub.Join(client, session.Role)
	h.hub.Join(client, ws.SessionRoom(session.SessionID))

	activePoll, err := h.polls.GetActive(ctx)
	if err != nil {
		client.Send(ws.Message{Type: "state:recovered", Data: gin.H{"error": err.Error()}})
		return
	}

	hasVoted := false
	votedOptionIndex := -1
	var results *services.PollResults

	if activePoll != nil {
		hasVoted, err = h.votes.HasVoted(ctx, activePoll.ID, session.SessionID)
		if err != nil {
			client.Send(ws.Message{Type: "state:recovered", Data: gin.H{"error": err.Error()}})
			return
		}
		if hasVoted {
			if vote, err := h.votes.GetVote(ctx, activePoll.ID, session.SessionID); err == nil {
				votedOptionIndex = vote.OptionIndex
			}
		}
		results, err = h.votes.Results(ctx, activePoll.ID)
		if err != nil {
			client.Send(ws.Message{Type: "state:recovered", Data: gin.H{"error": err.Error()}})
			return
		}
	}

	// A recovering student reappears on the teacher roster.
	if session.Role == models.RoleStudent {
		h.broadcastRoster(ctx, "student:joined")
	}

	payload := gin.H{
		"session":          gin.H{"name": session.Name, "role": session.Role},
		"hasVoted":         hasVoted,
		"votedOptionIndex": votedOptionIndex,
		"results":          results,
	}
	if activePoll != nil {
		payload["activePoll"] = pollPayload(activePoll, true)
	} else {
		payload["activePoll"] = nil
	}
	client.Send(ws.Message{Type: "state:recovered", Data: payload})
}

func (h *SocketHandler) handleKick(client *ws.Client, data json.RawMessage) {
	var p kickPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}

	ctx, cancel := h.opCtx()
	defer cancel()

	session := h.callerSession(ctx, client)
	if session == nil || session.Role != models.RoleTeacher {
		return
	}

	target, err := h.sessions.GetByID(ctx, p.SessionID)
	if err != nil {
		return
	}

	// Notify before removal so the session room still resolves.
	h.hub.Broadcast(ws.SessionRoom(target.SessionID), ws.Message{
		Type: "session:kicked",
		Data: gin.H{"message": "You have been removed by the teacher."},
	})

	if err := h.sessions.Remove(ctx, target.SessionID); err != nil {
		log.Printf("ws: kick of %s failed: %v", target.SessionID, err)
		return
	}

	h.broadcastRoster(ctx, "student:left")
}

func (h *SocketHandler) handleChat(client *ws.Client, data json.RawMessage) {
	var p chatPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}

	ctx, cancel := h.opCtx()
	defer cancel()

	session := h.callerSession(ctx, client)
	if session == nil {
		return
	}

	h.hub.BroadcastAll(ws.Message{Type: "chat:message", Data: gin.H{
		"sender":    session.Name,
		"role":      session.Role,
		"message":   p.Message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}})
}

func (h *SocketHandler) handleDisconnect(client *ws.Client) {
	ctx, cancel := h.opCtx()
	defer cancel()

	session, err := h.sessions.MarkDisconnected(ctx, client.ID)
	if err != nil {
		log.Printf("ws: disconnect of %s failed: %v", client.ID, err)
	}
	if session != nil && session.Role == models.RoleStudent {
		h.broadcastRoster(ctx, "student:left")
	}

	h.hub.Unregister(client)
}

// PollCompleted is the lifecycle manager's completion hook: final results go
// to everyone exactly once, then the poll's dedup cache is dropped.
func (h *SocketHandler) PollCompleted(poll *models.Poll) {
	ctx, cancel := h.opCtx()
	defer cancel()

	results, err := h.votes.Results(ctx, poll.ID)
	if err != nil {
		log.Printf("ws: results for completed poll %s failed: %v", poll.ID, err)
	}

	h.hub.BroadcastAll(ws.Message{Type: "poll:completed", Data: gin.H{
		"poll":    pollPayload(poll, true),
		"results": results,
	}})

	h.votes.ClearPollCache(poll.ID)
}

// broadcastRoster recomputes the connected-student list from the registry and
// pushes it to teachers; never patched incrementally.
func (h *SocketHandler) broadcastRoster(ctx context.Context, event string) {
	students, err := h.sessions.ListConnectedByRole(ctx, models.RoleStudent)
	if err != nil {
		log.Printf("ws: roster refresh failed: %v", err)
		return
	}

	roster := make([]gin.H, 0, len(students))
	for _, s := range students {
		roster = append(roster, gin.H{"name": s.Name, "sessionId": s.SessionID})
	}

	h.hub.Broadcast(ws.RoomTeachers, ws.Message{Type: event, Data: gin.H{
		"students": roster,
		"count":    len(roster),
	}})
}
