package ws

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"typedhash/internal/manager"

	_ "github.com/joho/godotenv/autoload"
)

type WSServer struct {
	port    int
	manager *manager.Manager
	logger  *log.Logger
}

func NewWSServer(manager *manager.Manager, logger *log.Logger) *http.Server {
	port, _ := strconv.Atoi(os.Getenv("WS_PORT"))
	wsServer := &WSServer{
		port:    port,
		manager: manager,
		logger:  logger,
	}

	// Declare Server config
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", wsServer.port),
		Handler:      wsServer.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server
}
