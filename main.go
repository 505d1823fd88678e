package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	dbPath := flag.String("db", "maze.db", "SQLite database path (empty disables persistence)")
	clientDir := flag.String("client", "", "Path to client directory (default: ../client)")
	debugAddr := flag.String("debug", "127.0.0.1:6060", "debug/metrics listen address (empty disables)")
	flag.Parse()

	if *clientDir == "" {
		exe, _ := os.Executable()
		*clientDir = filepath.Join(filepath.Dir(exe), "..", "client")
		// Fallback for development
		if _, err := os.Stat(*clientDir); os.IsNotExist(err) {
			*clientDir = "../client"
		}
	}

	tuning := TuningFromEnv()

	var db *DB
	if *dbPath != "" {
		var err error
		db, err = OpenDB(*dbPath)
		if err != nil {
			log.Fatalf("open database: %v", err)
		}
		defer db.Close()
	} else {
		log.Println("persistence disabled, running guest-only")
	}

	analytics := NewAnalytics(db)

	hub := NewHub(db, analytics, tuning)
	go hub.Run()

	janitorStop := make(chan struct{})
	hub.sessions.StartJanitor(janitorStop)

	StartDebugServer(*debugAddr)

	router := SetupRoutes(hub, *clientDir)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{Addr: *addr, Handler: router}

	go func() {
		log.Printf("Server starting on %s", *addr)
		log.Printf("Serving client files from %s", *clientDir)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down...")
	close(janitorStop)
	server.Close()
	analytics.Stop()
}
