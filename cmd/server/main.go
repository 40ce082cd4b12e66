package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"classpoll-backend/internal/config"
	"classpoll-backend/internal/database"
	"classpoll-backend/internal/handlers"
	"classpoll-backend/internal/services"
	"classpoll-backend/internal/store"
	"classpoll-backend/internal/store/memory"
	"classpoll-backend/internal/store/postgres"
	"classpoll-backend/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	var (
		sessionStore store.SessionStore
		pollStore    store.PollStore
		voteStore    store.VoteStore
	)
	switch cfg.StoreDriver {
	case "memory":
		stores := memory.NewStores()
		sessionStore = stores.Sessions
		pollStore = stores.Polls
		voteStore = stores.Votes
		log.Println("using in-memory store; state will not survive a restart")
	default:
		db := database.Connect(cfg)
		database.AutoMigrate(db)
		sessionStore = postgres.NewSessionStore(db)
		pollStore = postgres.NewPollStore(db)
		voteStore = postgres.NewVoteStore(db)
	}

	hub := ws.NewHub()
	timerService := services.NewTimerService()
	defer timerService.Stop()

	sessionService := services.NewSessionService(sessionStore)
	pollService := services.NewPollService(pollStore, timerService)
	voteService := services.NewVoteService(voteStore, pollStore)

	socketHandler := handlers.NewSocketHandler(hub, sessionService, pollService, voteService, cfg.StoreTimeout)
	pollService.SetCompletionHook(socketHandler.PollCompleted)

	pollHandler := handlers.NewPollHandler(pollService, voteService)
	sessionHandler := handlers.NewSessionHandler(sessionService)

	// A poll left active by a previous run gets its timer re-armed (or is
	// completed outright if the deadline already passed).
	ctx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
	if err := pollService.ResumeActive(ctx); err != nil {
		log.Printf("resume of active poll failed: %v", err)
	}
	cancel()

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.ClientURL},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
	}))

	r.GET("/ws", socketHandler.HandleWebSocket)

	api := r.Group("/api/v1")
	{
		polls := api.Group("/polls")
		{
			polls.GET("/active", pollHandler.GetActivePoll)
			polls.GET("/history", pollHandler.GetPollHistory)
			polls.GET("/:id/my-vote", pollHandler.GetMyVote)
		}

		sessions := api.Group("/sessions")
		{
			sessions.POST("/validate-name", sessionHandler.ValidateName)
		}

		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)})
		})
	}

	log.Printf("server starting on :%s", cfg.ServerPort)
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
