package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"regbot/bot"
	"regbot/config"
	"regbot/controller"
	"regbot/database"
	"regbot/services"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("FATAL: Invalid configuration: %v", err)
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("FATAL: Failed to open chat history database: %v", err)
	}
	sessions := database.NewSessionStore(db)

	embedder, err := services.NewEmbedder(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to create embedder: %v", err)
	}

	// A missing index is not fatal for the process: the service starts and
	// every query degrades to the no-grounding policy.
	var store services.VectorStore
	switch cfg.VectorStore {
	case "chroma":
		chromaStore, err := services.NewChromaStore(context.Background(), cfg.ChromaURL, cfg.ChromaCollection)
		if err != nil {
			log.Printf("ERROR: Failed to connect to chroma: %v. Retrieval disabled.", err)
		} else {
			store = chromaStore
		}
	default:
		index, err := services.LoadFileIndex(cfg.VectorDBPath, cfg.EmbeddingModel)
		if err != nil {
			log.Printf("ERROR: %v. Run build-index first. Retrieval disabled.", err)
		} else {
			store = index
			count, _ := index.Count(context.Background())
			log.Printf("Loaded vector index from %s (%d chunks).", cfg.VectorDBPath, count)
		}
	}

	ragService := services.NewRAGService(embedder, store, cfg.RAGK, cfg.ScoreThreshold)
	if !ragService.Ready() {
		log.Println("WARN: Serving without retrieval; responses will not be grounded.")
	}

	llm, err := services.NewChatModel(context.Background(), cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to create chat model: %v", err)
	}

	chatService := services.NewChatService(
		ragService,
		llm,
		sessions,
		cfg.HistoryWindow,
		cfg.LLMTemperature,
		time.Duration(cfg.LLMTimeoutSecs)*time.Second,
	)

	if cfg.TelegramBotToken != "" {
		tgBot, err := bot.New(cfg.TelegramBotToken, chatService)
		if err != nil {
			log.Printf("ERROR: Failed to start telegram bot: %v", err)
		} else {
			go tgBot.Run(context.Background())
		}
	} else {
		log.Println("TELEGRAM_BOT_TOKEN not set. Bot will not run.")
	}

	chatController := controller.NewChatController(chatService, sessions)

	router := gin.Default()
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})
	chatController.Register(router)

	log.Printf("Server starting on http://localhost:%s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("FATAL: Failed to start server: %v", err)
	}
}
