package api

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

type APIServer struct {
	port    int
	manager *manager.Manager
	logger  *log.Logger
}

func NewAPIServer(manager *manager.Manager, logger *log.Logger) *http.Server {
	port, _ := strconv.Atoi(os.Getenv("API_PORT"))

	apiServer := &APIServer{
		port:    port,
		manager: manager,
		logger:  logger,
	}

	// Declare Server config
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", apiServer.port),
		Handler:      apiServer.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server
}
