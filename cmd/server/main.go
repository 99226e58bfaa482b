package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"clubpoker/internal/auth"
	"clubpoker/internal/config"
	"clubpoker/internal/gateway"
	"clubpoker/internal/history"
	"clubpoker/internal/lobby"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Server] invalid configuration: %v", err)
	}

	authService, err := auth.NewService(cfg)
	if err != nil {
		log.Fatalf("[Server] failed to init auth service: %v", err)
	}
	defer authService.Close()

	historyService, err := history.NewService(cfg)
	if err != nil {
		log.Fatalf("[Server] failed to init history service: %v", err)
	}
	defer historyService.Close()

	gw := gateway.New(authService)
	lby := lobby.New(cfg, historyService, gw.SendToPlayer)
	gw.AttachLobby(lby)
	defer lby.Shutdown()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gw.HandleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/rooms", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"rooms": lby.ListRooms()})
	})
	auth.NewHTTPHandler(authService).RegisterRoutes(mux)
	history.NewHTTPHandler(authService, historyService).RegisterRoutes(mux)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Sweep empty rooms in the background.
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				lby.CloseEmptyRooms()
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		log.Printf("[Server] auth mode: %s, history mode: %s", cfg.AuthMode, cfg.HistoryMode)
		log.Printf("[Server] listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[Server] failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("[Server] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[Server] shutdown: %v", err)
	}
}
