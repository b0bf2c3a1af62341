package server

import (
	"bytes"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"arena-server/internal/game"
	"arena-server/internal/protocol"
)

// ---------- helpers ----------

// startTestServer spins up an httptest.Server over a fresh room and a
// temp database.
func startTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()

	db, err := OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	auth := NewAuth(db)
	room := game.NewRoom(game.RoomConfig{Seed: 1, Scores: db})
	hub := NewHub(room, db, auth)

	srv := httptest.NewServer(NewRouter(hub, RouterConfig{}))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	return srv, wsURL
}

func dialWS(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial WS: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) protocol.InEnvelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read WS: %v", err)
	}
	var env protocol.InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return env
}

// waitFor reads frames until one of the wanted type arrives.
func waitFor(t *testing.T, conn *websocket.Conn, typ string) protocol.InEnvelope {
	t.Helper()
	for i := 0; i < 50; i++ {
		env := readEnvelope(t, conn)
		if env.T == typ {
			return env
		}
	}
	t.Fatalf("never received %s", typ)
	return protocol.InEnvelope{}
}

func sendEvent(t *testing.T, conn *websocket.Conn, typ string, data interface{}) {
	t.Helper()
	raw, _ := json.Marshal(protocol.Envelope{T: typ, Data: data})
	if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		t.Fatalf("write WS: %v", err)
	}
}

// ---------- WebSocket flow ----------

func TestRoleAssignmentOverWire(t *testing.T) {
	_, wsURL := startTestServer(t)

	conn1 := dialWS(t, wsURL)
	env := waitFor(t, conn1, protocol.EvRoleAssigned)
	var ra protocol.RoleAssigned
	if err := json.Unmarshal(env.D, &ra); err != nil {
		t.Fatal(err)
	}
	if ra.Role != protocol.RoleEvader {
		t.Errorf("first connection should be evader, got %s", ra.Role)
	}

	conn2 := dialWS(t, wsURL)
	env = waitFor(t, conn2, protocol.EvRoleAssigned)
	if err := json.Unmarshal(env.D, &ra); err != nil {
		t.Fatal(err)
	}
	if ra.Role != protocol.RolePursuer {
		t.Errorf("second connection should be pursuer, got %s", ra.Role)
	}

	// The evader learns about the newcomer
	env = waitFor(t, conn1, protocol.EvPlayerJoined)
	var info protocol.PlayerInfo
	if err := json.Unmarshal(env.D, &info); err != nil {
		t.Fatal(err)
	}
	if info.Role != protocol.RolePursuer {
		t.Errorf("join relay should carry the pursuer, got %s", info.Role)
	}
}

func TestCollectionRoundOverWire(t *testing.T) {
	_, wsURL := startTestServer(t)

	evader := dialWS(t, wsURL)
	waitFor(t, evader, protocol.EvRoleAssigned)
	pursuer := dialWS(t, wsURL)
	waitFor(t, pursuer, protocol.EvRoleAssigned)

	// Drain the evader's connect-time frames; starting the round
	// re-seeds, so only the post-start snapshot has valid ids
	waitFor(t, evader, protocol.EvPlayerJoined)

	sendEvent(t, evader, protocol.EvSetMode, "collection")
	waitFor(t, evader, protocol.EvModeChanged)
	env := waitFor(t, evader, protocol.EvCollectiblesSnapshot)
	var snap map[string]protocol.Entity
	if err := json.Unmarshal(env.D, &snap); err != nil {
		t.Fatal(err)
	}
	if len(snap) == 0 {
		t.Fatal("round start should seed collectibles")
	}

	var anyID string
	for id := range snap {
		anyID = id
		break
	}
	sendEvent(t, evader, protocol.EvCollectClaim, anyID)

	env = waitFor(t, pursuer, protocol.EvEntityRemoved)
	var removed string
	json.Unmarshal(env.D, &removed)
	if removed != anyID {
		t.Errorf("expected %s removed, got %s", anyID, removed)
	}

	env = waitFor(t, pursuer, protocol.EvScoreChanged)
	var sc protocol.ScoreChanged
	if err := json.Unmarshal(env.D, &sc); err != nil {
		t.Fatal(err)
	}
	if sc.Score != 1 {
		t.Errorf("expected score 1, got %d", sc.Score)
	}
}

func TestMoveRelayOverWire(t *testing.T) {
	_, wsURL := startTestServer(t)

	evader := dialWS(t, wsURL)
	waitFor(t, evader, protocol.EvRoleAssigned)
	pursuer := dialWS(t, wsURL)
	waitFor(t, pursuer, protocol.EvRoleAssigned)

	sendEvent(t, evader, protocol.EvSetMode, "collection")
	waitFor(t, pursuer, protocol.EvModeChanged)

	sendEvent(t, evader, protocol.EvMoveIntent, protocol.MoveIntent{
		Position: protocol.Vec3{X: 7, Y: 2, Z: -3},
	})

	env := waitFor(t, pursuer, protocol.EvPlayerMoved)
	var mv protocol.PlayerMoved
	if err := json.Unmarshal(env.D, &mv); err != nil {
		t.Fatal(err)
	}
	if mv.Position.X != 7 || mv.Position.Z != -3 {
		t.Errorf("relay should carry the reported transform, got %+v", mv.Position)
	}
}

func TestMalformedFrameIsDropped(t *testing.T) {
	_, wsURL := startTestServer(t)

	conn := dialWS(t, wsURL)
	waitFor(t, conn, protocol.EvRoleAssigned)

	conn.WriteMessage(websocket.TextMessage, []byte("not json at all"))

	// The connection survives; a second client still registers normally
	conn2 := dialWS(t, wsURL)
	env := waitFor(t, conn2, protocol.EvRoleAssigned)
	var ra protocol.RoleAssigned
	json.Unmarshal(env.D, &ra)
	if ra.Role != protocol.RolePursuer {
		t.Errorf("room should still be intact, got role %s", ra.Role)
	}
}

func TestMessageFloodDisconnects(t *testing.T) {
	_, wsURL := startTestServer(t)

	conn := dialWS(t, wsURL)
	waitFor(t, conn, protocol.EvRoleAssigned)

	// Well past the limiter's burst in a single instant
	raw, _ := json.Marshal(protocol.Envelope{T: protocol.EvSwatIntent})
	for i := 0; i < msgBurst*3; i++ {
		if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
			return // server already hung up
		}
	}

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		_, _, err := conn.ReadMessage()
		if err == nil {
			continue
		}
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			t.Fatal("server should disconnect a flooding client")
		}
		return // closed, as expected
	}
}

// ---------- HTTP API ----------

func TestHealthz(t *testing.T) {
	srv, _ := startTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestQRServesPNG(t *testing.T) {
	srv, _ := startTestServer(t)

	resp, err := http.Get(srv.URL + "/qr")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %s", ct)
	}
}

func TestRegisterLoginMe(t *testing.T) {
	srv, _ := startTestServer(t)

	body, _ := json.Marshal(map[string]string{"username": "alice", "password": "s3cret"})
	resp, err := http.Post(srv.URL+"/api/register", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register failed: %d", resp.StatusCode)
	}
	var reg map[string]string
	json.NewDecoder(resp.Body).Decode(&reg)
	if reg["token"] == "" {
		t.Fatal("register should return a token")
	}

	req, _ := http.NewRequest("GET", srv.URL+"/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+reg["token"])
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	var me map[string]interface{}
	json.NewDecoder(resp2.Body).Decode(&me)
	if me["loggedIn"] != true || me["username"] != "alice" {
		t.Errorf("unexpected /api/me response: %v", me)
	}
}

func TestScoresEndpointEmpty(t *testing.T) {
	srv, _ := startTestServer(t)

	resp, err := http.Get(srv.URL + "/api/scores")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var scores []ScoreRow
	if err := json.NewDecoder(resp.Body).Decode(&scores); err != nil {
		t.Fatalf("scores should decode as an array: %v", err)
	}
	if len(scores) != 0 {
		t.Errorf("fresh database should have no scores, got %d", len(scores))
	}
}
