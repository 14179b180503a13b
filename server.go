package main

import (
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

const (
	recentEventsLimit  = 50
	recentBattlesLimit = 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// BattleSummary describes one recorded battle
type BattleSummary struct {
	ID        string     `json:"id"`
	Seed      int64      `json:"seed"`
	WorldSize float64    `json:"worldSize"`
	StartedAt time.Time  `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
	FinalTick int64      `json:"finalTick"`
}

func summarize(b BattleRow) BattleSummary {
	s := BattleSummary{ID: b.ID, Seed: b.Seed, WorldSize: b.WorldSize, StartedAt: b.StartedAt, FinalTick: b.FinalTick}
	if b.EndedAt.Valid {
		t := b.EndedAt.Time
		s.EndedAt = &t
	}
	return s
}

// BattleLogResponse is served by /api/log
type BattleLogResponse struct {
	Battle string         `json:"battle"`
	Tick   uint64         `json:"tick"`
	Info   *BattleSummary `json:"info,omitempty"`
	Counts map[string]int `json:"counts"`
	Recent []LoggedEvent  `json:"recent"`
}

// SetupRoutes configures HTTP routes
func SetupRoutes(hub *Hub, cfg *Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Serve static files with no-cache so browsers always revalidate
	fs := http.FileServer(http.Dir(cfg.Server.ClientDir))
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		fs.ServeHTTP(w, r)
	}))

	mux.HandleFunc("/pair", pairingHandler(cfg.Server.PublicURL))

	mux.HandleFunc("/api/state", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, hub.game.Snapshot())
	})

	mux.HandleFunc("/api/log", func(w http.ResponseWriter, r *http.Request) {
		resp := BattleLogResponse{Battle: hub.game.ID, Tick: hub.game.Tick(), Counts: map[string]int{}}
		if hub.db != nil {
			row, err := hub.db.GetBattle(hub.game.ID)
			if err != nil {
				Logger.Error().Err(err).Msg("get battle")
				http.Error(w, "battle log unavailable", http.StatusInternalServerError)
				return
			}
			if row != nil {
				info := summarize(*row)
				resp.Info = &info
			}
			counts, err := hub.db.EventCounts(hub.game.ID)
			if err != nil {
				Logger.Error().Err(err).Msg("event counts")
				http.Error(w, "battle log unavailable", http.StatusInternalServerError)
				return
			}
			resp.Counts = counts
			recent, err := hub.db.RecentEvents(hub.game.ID, recentEventsLimit)
			if err != nil {
				Logger.Error().Err(err).Msg("recent events")
				http.Error(w, "battle log unavailable", http.StatusInternalServerError)
				return
			}
			resp.Recent = recent
		}
		writeJSON(w, resp)
	})

	mux.HandleFunc("/api/battles", func(w http.ResponseWriter, r *http.Request) {
		battles := []BattleSummary{}
		if hub.db != nil {
			rows, err := hub.db.RecentBattles(recentBattlesLimit)
			if err != nil {
				Logger.Error().Err(err).Msg("recent battles")
				http.Error(w, "battle list unavailable", http.StatusInternalServerError)
				return
			}
			for _, row := range rows {
				battles = append(battles, summarize(row))
			}
		}
		writeJSON(w, battles)
	})

	// WebSocket endpoint
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			Logger.Warn().Err(err).Str("remote", ip).Msg("upgrade error")
			return
		}

		hub.TrackConnect(ip)

		client := NewClient(hub, conn, ip)
		hub.register <- client

		go client.WritePump()
		go client.ReadPump()
	})

	return mux
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		Logger.Error().Err(err).Msg("encode response")
	}
}
