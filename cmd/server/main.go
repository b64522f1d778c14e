package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	persistlog "savingsmonopoly.app/internal/persistence/log"
	"savingsmonopoly.app/internal/persistence/resultsdb"
	"savingsmonopoly.app/internal/sim/deck"
	"savingsmonopoly.app/internal/sim/session"
	"savingsmonopoly.app/internal/sim/tuning"
	"savingsmonopoly.app/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		cardsPath  = flag.String("cards", "", "path to cards.json (default: <configs>/cards.json)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite results store")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", tp)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	cp := strings.TrimSpace(*cardsPath)
	if cp == "" {
		cp = filepath.Join(*configDir, "cards.json")
	}
	d, err := deck.Load(cp)
	if err != nil {
		// No playable deck means no playable game; refuse to start.
		logger.Fatalf("load deck: %v", err)
	}
	logger.Printf("deck loaded cards=%d digest=%s", len(d.Cards), d.Digest)

	_ = os.MkdirAll(*dataDir, 0o755)

	var store *resultsdb.Store
	if !*disableDB {
		store, err = resultsdb.Open(filepath.Join(*dataDir, "results.db"))
		if err != nil {
			logger.Fatalf("open results db: %v", err)
		}
		defer store.Close()
	}

	roundLog := persistlog.NewRoundLogger(*dataDir)
	defer roundLog.Close()

	hubCfg := session.HubConfig{
		Engine: tune.EngineConfig(),
		Deck:   d,
		Logger: logger,
		Rounds: roundLog,
	}
	if store != nil {
		hubCfg.Results = store
	}
	hub, err := session.NewHub(hubCfg)
	if err != nil {
		logger.Fatalf("hub: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		c := hub.Counters()

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP savingsmonopoly_sessions Current number of sessions.\n")
		fmt.Fprintf(rw, "# TYPE savingsmonopoly_sessions gauge\n")
		fmt.Fprintf(rw, "savingsmonopoly_sessions %d\n", c.Sessions)

		fmt.Fprintf(rw, "# HELP savingsmonopoly_rounds_settled_total Total settled rounds.\n")
		fmt.Fprintf(rw, "# TYPE savingsmonopoly_rounds_settled_total counter\n")
		fmt.Fprintf(rw, "savingsmonopoly_rounds_settled_total %d\n", c.RoundsSettled)

		fmt.Fprintf(rw, "# HELP savingsmonopoly_games_finished_total Finished games by outcome.\n")
		fmt.Fprintf(rw, "# TYPE savingsmonopoly_games_finished_total counter\n")
		fmt.Fprintf(rw, "savingsmonopoly_games_finished_total{status=%q} %d\n", "WON_GOAL", c.Won)
		fmt.Fprintf(rw, "savingsmonopoly_games_finished_total{status=%q} %d\n", "LOST_BURNOUT", c.LostBurnout)
		fmt.Fprintf(rw, "savingsmonopoly_games_finished_total{status=%q} %d\n", "LOST_ROUNDS", c.LostRounds)
	})
	mux.HandleFunc("/v1/leaderboard", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		if store == nil {
			rw.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(rw).Encode(map[string]any{"error": "results store disabled"})
			return
		}
		ctx2, cancel2 := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel2()
		rows, err := store.Leaderboard(ctx2, 20)
		if err != nil {
			rw.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(rw).Encode(map[string]any{"error": err.Error()})
			return
		}
		type entry struct {
			Team         string `json:"team"`
			Player       string `json:"player"`
			Savings      int    `json:"savings"`
			RoundsPlayed int    `json:"rounds_played"`
			Wellbeing    int    `json:"wellbeing"`
			Status       string `json:"status"`
		}
		out := make([]entry, 0, len(rows))
		for _, row := range rows {
			out = append(out, entry{
				Team:         row.Team,
				Player:       row.Player,
				Savings:      row.Savings,
				RoundsPlayed: row.RoundsPlayed,
				Wellbeing:    row.Wellbeing,
				Status:       row.Status,
			})
		}
		_ = json.NewEncoder(rw).Encode(map[string]any{"leaderboard": out})
	})
	mux.HandleFunc("/v1/ws", ws.NewServer(hub, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
