package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chatsync/internal/chat"
	"chatsync/internal/config"
	"chatsync/internal/database"
	"chatsync/internal/http/handlers"
	"chatsync/internal/http/middleware"
	"chatsync/internal/ws"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if cfg.DBDSN == "" || cfg.JWTSecret == "" {
		slog.Error("DB_DSN and JWT_SECRET are required")
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.LogLevel == "debug" {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	db, err := database.ConnectMySQL(cfg.DBDSN)
	if err != nil {
		log.Error("failed to connect database", "err", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		log.Error("failed to migrate", "err", err)
		os.Exit(1)
	}

	hub := ws.NewHub(cfg.ClientBufferSize)
	broadcaster := ws.NewBroadcaster(hub, cfg.EventQueueSize, log)
	go broadcaster.Run(context.Background())

	svc := chat.NewService(db, hub, broadcaster, log)

	r := gin.Default()

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Auth
	authH := &handlers.AuthHandler{DB: db, JWTSecret: cfg.JWTSecret}
	r.POST("/api/v1/auth/register", authH.Register)
	r.POST("/api/v1/auth/login", authH.Login)

	// WebSocket endpoint
	wsH := &handlers.WSHandler{
		Hub:                  hub,
		Broadcaster:          broadcaster,
		Service:              svc,
		JWTSecret:            cfg.JWTSecret,
		WSInsecureSkipVerify: cfg.WSInsecureSkipVerify,
	}
	r.GET("/ws", wsH.Handle)

	// Protected routes
	authed := r.Group("/api/v1")
	authed.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	chatH := &handlers.ChatHandler{Service: svc}
	authed.POST("/conversations/direct", chatH.CreateDirectConversation)
	authed.POST("/conversations/group", chatH.CreateGroupConversation)
	authed.GET("/conversations", chatH.ListConversations)
	authed.DELETE("/conversations/:id", chatH.HideConversation)
	authed.PUT("/conversations/:id/mute", chatH.SetMuted)
	authed.GET("/conversations/:id/messages", chatH.ListMessages)
	authed.POST("/conversations/:id/messages", chatH.SendMessage)
	authed.POST("/conversations/:id/read", chatH.MarkRead)
	authed.POST("/messages/delivered", chatH.MarkDelivered)
	authed.POST("/conversations/:id/members", chatH.AddGroupMember)
	authed.DELETE("/conversations/:id/members/:userId", chatH.RemoveGroupMember)

	blockH := &handlers.BlockHandler{Service: svc}
	authed.POST("/blocks/:userId", blockH.Block)
	authed.DELETE("/blocks/:userId", blockH.Unblock)
	authed.GET("/blocks/:userId", blockH.BlockStatus)

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Info("listening", "addr", addr)
	if err := r.Run(addr); err != nil {
		log.Error("server exited", "err", err)
		os.Exit(1)
	}
}
