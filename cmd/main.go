// cmd/main.go - Program entry
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"codechat/internal/config"
	"codechat/internal/database"
	"codechat/internal/extractor"
	"codechat/internal/handler"
	"codechat/internal/llm"
	"codechat/internal/repository"
	"codechat/internal/server"
	"codechat/internal/service"
	"codechat/pkg/logger"
)

var (
	// set by the linker during build
	osName   string
	archName string
	version  string
)

func main() {
	// Parse command line arguments
	appName := flag.String("appname", "codechat", "app name")
	httpAddr := flag.String("http", config.DefaultConfigServer.Addr, "HTTP server address")
	logLevel := flag.String("loglevel", "info", "log level (debug, info, warn, error)")
	configPath := flag.String("config", "", "path to TOML config file")
	dataDir := flag.String("datadir", "", "data directory (default ~/.codechat)")
	flag.Parse()

	config.SetAppInfo(config.AppInfo{
		AppName:  *appName,
		Version:  version,
		OSName:   osName,
		ArchName: archName,
	})

	// Initialize directories
	rootDir, err := initDir(*dataDir, *appName)
	if err != nil {
		fmt.Printf("failed to initialize directory: %v\n", err)
		return
	}

	// Initialize configuration
	if err := config.LoadAppConfig(*configPath); err != nil {
		fmt.Printf("failed to initialize configuration: %v\n", err)
		return
	}
	cfg := config.GetAppConfig()
	if *httpAddr != "" {
		cfg.Server.Addr = *httpAddr
		config.SetAppConfig(cfg)
	}

	// Initialize logging system
	appLogger, err := logger.NewLogger(filepath.Join(rootDir, "logs"), *logLevel, *appName)
	if err != nil {
		fmt.Printf("failed to initialize logging system: %v\n", err)
		return
	}
	appLogger.Info("OS: %s, Arch: %s, App: %s, Version: %s, Starting...", osName, archName, *appName, version)

	// Initialize database manager
	dbConfig := config.DefaultDatabaseConfig(filepath.Join(rootDir, "data"))
	dbManager := database.NewSQLiteManager(dbConfig, appLogger)
	if err := dbManager.Initialize(); err != nil {
		appLogger.Fatal("failed to initialize database manager: %v", err)
		return
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			appLogger.Error("failed to close database: %v", err)
		}
	}()

	hashCache, err := repository.NewFileHashCache(filepath.Join(rootDir, "cache"), appLogger)
	if err != nil {
		appLogger.Fatal("failed to initialize file hash cache: %v", err)
		return
	}
	defer func() {
		if err := hashCache.Close(); err != nil {
			appLogger.Error("failed to close file hash cache: %v", err)
		}
	}()

	// Initialize repositories
	conversationRepo := repository.NewConversationRepository(dbManager, appLogger)
	messageRepo := repository.NewMessageRepository(dbManager, appLogger)
	patternRepo := repository.NewPatternRepository(dbManager, appLogger)
	suggestionRepo := repository.NewSuggestionRepository(dbManager, appLogger)
	snippetRepo := repository.NewSnippetRepository(dbManager, appLogger)
	topicRepo := repository.NewTopicRepository(dbManager, appLogger)

	completionClient, err := llm.NewCompletionClient(&cfg.LLM, appLogger)
	if err != nil {
		appLogger.Fatal("failed to initialize completion client: %v", err)
		return
	}
	defer completionClient.Close()

	// Initialize service layer
	patternExtractor := extractor.NewPatternExtractor(appLogger)
	patternService := service.NewPatternService(patternRepo, suggestionRepo, patternExtractor, &cfg.Scoring, appLogger)
	contextService := service.NewContextService(conversationRepo, messageRepo, snippetRepo, topicRepo, &cfg.Context, appLogger)
	chatService := service.NewChatService(conversationRepo, messageRepo, contextService, appLogger)
	assistantService := service.NewAssistantService(messageRepo, contextService, completionClient, appLogger)
	indexerService := service.NewIndexerService(snippetRepo, patternService, hashCache, &cfg.Scan, appLogger)

	// Initialize handler layer
	conversationHandler := handler.NewConversationHandler(chatService, contextService, assistantService, appLogger)
	patternHandler := handler.NewPatternHandler(patternService, appLogger)
	indexHandler := handler.NewIndexHandler(indexerService, appLogger)

	// Initialize HTTP server
	httpServerInstance := server.NewServer(conversationHandler, patternHandler, indexHandler, &cfg.Server, appLogger)

	// Start HTTP server
	httpErrChan := make(chan error, 1)
	go func() {
		if err := httpServerInstance.Start(cfg.Server.Addr); err != nil && err != http.ErrServerClosed {
			httpErrChan <- err
		}
		close(httpErrChan)
	}()

	select {
	case err := <-httpErrChan:
		if err != nil {
			appLogger.Error("HTTP server failed to start: %v", err)
			return
		}
	case <-time.After(2 * time.Second):
		appLogger.Info("HTTP server started successfully on %s", cfg.Server.Addr)
	}

	appLogger.Info("application started successfully")

	// Handle system signals for graceful shutdown
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals

	appLogger.Info("received shutdown signal, shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServerInstance.Shutdown(ctx); err != nil {
		appLogger.Error("HTTP server shutdown error: %v", err)
	}

	appLogger.Info("server has been successfully closed")
}

// initDir resolves the application root directory and creates the
// subdirectories the process writes to.
func initDir(dataDir, appName string) (string, error) {
	rootDir := dataDir
	if rootDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		rootDir = filepath.Join(homeDir, "."+appName)
	}

	for _, sub := range []string{"logs", "data", "cache"} {
		if err := os.MkdirAll(filepath.Join(rootDir, sub), 0755); err != nil {
			return "", fmt.Errorf("failed to create directory %s: %w", sub, err)
		}
	}
	return rootDir, nil
}
