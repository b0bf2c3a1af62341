package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"arena-server/internal/config"
	"arena-server/internal/game"
	"arena-server/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}
	cfg := config.Load()

	db, err := server.OpenDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	auth := server.NewAuth(db)

	room := game.NewRoom(game.RoomConfig{
		Bounds: game.Bounds{X: cfg.ArenaX, Z: cfg.ArenaZ},
		Scores: db,
		Stats:  server.PromStats{},
	})
	go room.Run()
	defer room.Stop()

	hub := server.NewHub(room, db, auth)
	router := server.NewRouter(hub, server.RouterConfig{
		ClientDir: cfg.ClientDir,
		PublicURL: cfg.PublicURL,
	})

	server.StartMetricsServer(cfg.MetricsAddr)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{Addr: cfg.Addr, Handler: router}

	go func() {
		log.Printf("Server starting on %s", cfg.Addr)
		if cfg.ClientDir != "" {
			log.Printf("Serving client files from %s", cfg.ClientDir)
		}
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down...")
	srv.Close()
}
