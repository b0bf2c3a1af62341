package server

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	qrcode "github.com/skip2/go-qrcode"
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

// generatePlayerID returns a short random hex id for one connection.
func generatePlayerID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// RouterConfig holds what the HTTP surface needs beyond the hub.
type RouterConfig struct {
	ClientDir string
	PublicURL string
}

// NewRouter builds the HTTP surface: the WebSocket endpoint, the JSON
// API, the QR join-link image and static client files.
func NewRouter(hub *Hub, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
		serveWS(hub, w, req)
	})

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(api chi.Router) {
		api.Post("/register", handleRegister(hub.auth))
		api.Post("/login", handleLogin(hub.auth))
		api.Get("/me", handleMe(hub.auth))
		api.Get("/scores", handleScores(hub.db))
	})

	r.Get("/qr", func(w http.ResponseWriter, req *http.Request) {
		target := cfg.PublicURL
		if target == "" {
			scheme := "http"
			if req.TLS != nil {
				scheme = "https"
			}
			target = scheme + "://" + req.Host + "/"
		}
		png, err := qrcode.Encode(target, qrcode.Medium, 256)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
	})

	if cfg.ClientDir != "" {
		fs := http.FileServer(http.Dir(cfg.ClientDir))
		r.Get("/*", func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Cache-Control", "no-cache")
			fs.ServeHTTP(w, req)
		})
	}

	return r
}

// serveWS upgrades the connection and starts the pumps. An optional
// ?token= attaches a persisted identity; an invalid token still joins,
// anonymously. ?binary=1 additionally sends a msgpack roster snapshot.
func serveWS(hub *Hub, w http.ResponseWriter, r *http.Request) {
	ip := extractIP(r)
	if !hub.CanAccept(ip) {
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("upgrade error: %v", err)
		return
	}

	hub.TrackConnect(ip)

	client := NewClient(hub, conn, generatePlayerID(), ip)
	if token := r.URL.Query().Get("token"); token != "" && hub.auth != nil {
		if uid, username, err := hub.auth.ValidateToken(token); err == nil {
			client.userID = uid
			client.displayName = username
		}
	}

	hub.Register(client)
	go client.WritePump()
	go client.ReadPump()

	if r.URL.Query().Get("binary") == "1" {
		if snap, err := hub.BinarySnapshot(); err == nil {
			client.SendBinary(snap)
		}
	}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func handleRegister(auth *Auth) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		_, token, err := auth.Register(creds.Username, creds.Password)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"token": token})
	}
}

func handleLogin(auth *Auth) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		_, token, err := auth.Login(creds.Username, creds.Password, extractIP(r))
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"token": token})
	}
}

func handleMe(auth *Auth) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeJSON(w, http.StatusOK, map[string]interface{}{"loggedIn": false})
			return
		}
		_, username, err := auth.ValidateToken(token)
		if err != nil {
			writeJSON(w, http.StatusOK, map[string]interface{}{"loggedIn": false})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"loggedIn": true,
			"username": username,
		})
	}
}

func handleScores(db *DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scores, err := db.TopScores(10)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "database error")
			return
		}
		if scores == nil {
			scores = []ScoreRow{}
		}
		writeJSON(w, http.StatusOK, scores)
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
