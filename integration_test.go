package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

// ---------- helpers ----------

var uuidRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

const testPassphrase = "all-hands"

// testServer bundles a running server with the pieces tests poke at
type testServer struct {
	srv   *httptest.Server
	wsURL string
	game  *Game
	db    *DB
}

// startTestServer spins up an httptest.Server with a running battle and
// stops everything on cleanup.
func startTestServer(t *testing.T) *testServer {
	t.Helper()

	// Create a temp client dir with a minimal index.html
	tmpDir := t.TempDir()
	os.WriteFile(filepath.Join(tmpDir, "index.html"), []byte("<html>test</html>"), 0o644)

	cfg := testConfig()
	cfg.Server.ClientDir = tmpDir

	db := openTestDB(t)
	battleID := GenerateUUID()
	if err := db.CreateBattle(battleID, cfg.Sim.Seed, cfg.Sim.WorldSize); err != nil {
		t.Fatalf("create battle: %v", err)
	}
	recorder := NewRecorder(db, battleID)

	game, err := NewGame(battleID, cfg, recorder)
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	auth, _, err := NewAuth(db, cheapHash(t, testPassphrase), time.Hour)
	if err != nil {
		t.Fatalf("new auth: %v", err)
	}

	hub := NewHub(game, auth, db)
	go hub.Run()
	go game.Run()

	srv := httptest.NewServer(SetupRoutes(hub, cfg))
	t.Cleanup(func() {
		srv.Close()
		game.Stop()
		recorder.Stop()
	})

	return &testServer{
		srv:   srv,
		wsURL: "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws",
		game:  game,
		db:    db,
	}
}

// dialWS opens a WebSocket connection to the test server.
func dialWS(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial WS: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readEnvelope reads one message from the WebSocket. Binary frames are
// msgpack battle state.
func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msgType, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read WS: %v", err)
	}
	if msgType == websocket.BinaryMessage {
		var bs BattleState
		if err := msgpack.Unmarshal(raw, &bs); err != nil {
			t.Fatalf("msgpack unmarshal: %v", err)
		}
		return Envelope{T: MsgState, Data: bs}
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return env
}

// readUntil skips messages until one of type want arrives
func readUntil(t *testing.T, conn *websocket.Conn, want string) Envelope {
	t.Helper()
	for i := 0; i < 200; i++ {
		env := readEnvelope(t, conn)
		if env.T == want {
			return env
		}
	}
	t.Fatalf("no %s message received", want)
	return Envelope{}
}

// sendMsg sends a typed message over the WebSocket.
func sendMsg(t *testing.T, conn *websocket.Conn, msgType string, data interface{}) {
	t.Helper()
	env := Envelope{T: msgType, Data: data}
	raw, _ := json.Marshal(env)
	if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		t.Fatalf("write WS: %v", err)
	}
}

// dataMap extracts the Data field as map[string]interface{}.
func dataMap(t *testing.T, env Envelope) map[string]interface{} {
	t.Helper()
	raw, _ := json.Marshal(env.Data)
	var m map[string]interface{}
	json.Unmarshal(raw, &m)
	return m
}

// login authenticates conn as commander and returns the token
func login(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	sendMsg(t, conn, MsgLogin, LoginMsg{Password: testPassphrase})
	ok := readUntil(t, conn, MsgAuthOK)
	token, _ := dataMap(t, ok)["token"].(string)
	if token == "" {
		t.Fatal("auth_ok without token")
	}
	return token
}

// ---------- UUID generation tests ----------

func TestGenerateUUIDFormat(t *testing.T) {
	for i := 0; i < 20; i++ {
		id := GenerateUUID()
		if !uuidRegex.MatchString(id) {
			t.Errorf("GenerateUUID() = %q, does not match UUID v4 format", id)
		}
	}
}

func TestGenerateUUIDUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateUUID()
		if seen[id] {
			t.Fatalf("duplicate UUID generated: %s", id)
		}
		seen[id] = true
	}
}

// ---------- HTTP routes ----------

func TestStaticRoot(t *testing.T) {
	ts := startTestServer(t)

	resp, err := http.Get(ts.srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 200 || !strings.Contains(string(body), "test") {
		t.Errorf("expected index.html, got %d %q", resp.StatusCode, body)
	}
	if resp.Header.Get("Cache-Control") != "no-cache" {
		t.Error("static files should be served with no-cache")
	}
}

func TestAPIState(t *testing.T) {
	ts := startTestServer(t)

	resp, err := http.Get(ts.srv.URL + "/api/state")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var state BattleState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(state.Entities) != len(DefaultScenario()) {
		t.Errorf("expected %d entities, got %d", len(DefaultScenario()), len(state.Entities))
	}
	if _, ok := state.Pool["crystal"]; !ok {
		t.Error("pool should list every resource")
	}
}

func TestAPILog(t *testing.T) {
	ts := startTestServer(t)

	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get(ts.srv.URL + "/api/log")
		if err != nil {
			t.Fatal(err)
		}
		var log BattleLogResponse
		err = json.NewDecoder(resp.Body).Decode(&log)
		resp.Body.Close()
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if log.Battle != ts.game.ID {
			t.Fatalf("expected battle %s, got %s", ts.game.ID, log.Battle)
		}
		// spawn events reach the database on the recorder's flush ticker
		if log.Info == nil || log.Info.Seed != 1 || log.Info.EndedAt != nil {
			t.Fatalf("expected running battle info with seed 1, got %+v", log.Info)
		}
		if log.Counts[EventEntitySpawned] == len(DefaultScenario()) {
			if len(log.Recent) == 0 {
				t.Error("expected recent events")
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("spawn events never recorded, counts %v", log.Counts)
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func TestAPIBattles(t *testing.T) {
	ts := startTestServer(t)
	earlier := GenerateUUID()
	if err := ts.db.CreateBattle(earlier, 9, 1000); err != nil {
		t.Fatal(err)
	}
	if err := ts.db.EndBattle(earlier, 500); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Get(ts.srv.URL + "/api/battles")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var battles []BattleSummary
	if err := json.NewDecoder(resp.Body).Decode(&battles); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(battles) != 2 {
		t.Fatalf("expected 2 battles, got %d", len(battles))
	}
	byID := map[string]BattleSummary{}
	for _, b := range battles {
		byID[b.ID] = b
	}
	if b, ok := byID[ts.game.ID]; !ok || b.EndedAt != nil {
		t.Errorf("expected the running battle without an end time, got %+v", b)
	}
	if b := byID[earlier]; b.EndedAt == nil || b.FinalTick != 500 || b.Seed != 9 {
		t.Errorf("unexpected finished battle %+v", b)
	}
}

func TestPairingQRCode(t *testing.T) {
	ts := startTestServer(t)

	resp, err := http.Get(ts.srv.URL + "/pair")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %s", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if !bytes.HasPrefix(body, []byte("\x89PNG")) {
		t.Error("body is not a PNG")
	}
}

func TestViewerURL(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://10.0.0.7:8080/pair", nil)
	if got := viewerURL("", r); got != "http://10.0.0.7:8080/" {
		t.Errorf("unexpected url %s", got)
	}
	if got := viewerURL("https://battle.example.org/", r); got != "https://battle.example.org/" {
		t.Errorf("unexpected url %s", got)
	}
}

// ---------- WebSocket flow ----------

func TestWelcomeOnConnect(t *testing.T) {
	ts := startTestServer(t)
	conn := dialWS(t, ts.wsURL)

	env := readEnvelope(t, conn)
	if env.T != MsgWelcome {
		t.Fatalf("expected welcome first, got %s", env.T)
	}
	if battle := dataMap(t, env)["battle"]; battle != ts.game.ID {
		t.Errorf("expected battle %s, got %v", ts.game.ID, battle)
	}
}

func TestViewerReceivesState(t *testing.T) {
	ts := startTestServer(t)
	conn := dialWS(t, ts.wsURL)

	env := readUntil(t, conn, MsgState)
	state := env.Data.(BattleState)
	if state.Tick == 0 {
		t.Error("expected a running battle")
	}
	if len(state.Entities) == 0 {
		t.Error("expected entities in state")
	}
}

func TestViewerCannotCommand(t *testing.T) {
	ts := startTestServer(t)
	conn := dialWS(t, ts.wsURL)

	sendMsg(t, conn, MsgPause, PauseMsg{On: true})
	env := readUntil(t, conn, MsgError)
	if msg := dataMap(t, env)["msg"]; msg != "not authorized" {
		t.Errorf("expected not authorized, got %v", msg)
	}
	if ts.game.Snapshot().Paused {
		t.Error("viewer should not be able to pause")
	}
}

func TestBadPassphrase(t *testing.T) {
	ts := startTestServer(t)
	conn := dialWS(t, ts.wsURL)

	sendMsg(t, conn, MsgLogin, LoginMsg{Password: "guess"})
	env := readUntil(t, conn, MsgError)
	if msg := dataMap(t, env)["msg"]; msg != ErrBadPassphrase.Error() {
		t.Errorf("expected %q, got %v", ErrBadPassphrase, msg)
	}
}

func TestCommanderOrdersShip(t *testing.T) {
	ts := startTestServer(t)
	conn := dialWS(t, ts.wsURL)
	login(t, conn)

	state := readUntil(t, conn, MsgState).Data.(BattleState)
	var ship Handle
	for _, e := range state.Entities {
		if e.Faction == "player" && e.Kind == "battleship" {
			ship = e.ID
			break
		}
	}
	if ship.IsZero() {
		t.Fatal("no player battleship in state")
	}

	sendMsg(t, conn, MsgDest, DestMsg{IDs: []Handle{ship}, X: 1000, Y: 500})

	deadline := time.Now().Add(2 * time.Second)
	for {
		ts.game.mu.Lock()
		dest := ts.game.field.Entity(ship).Ship.Destination
		ts.game.mu.Unlock()
		if dest != nil && dest.X == 1000 && dest.Y == 500 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("destination order never applied")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestCommanderPause(t *testing.T) {
	ts := startTestServer(t)
	conn := dialWS(t, ts.wsURL)
	login(t, conn)

	sendMsg(t, conn, MsgPause, PauseMsg{On: true})
	env := readUntil(t, conn, MsgPaused)
	if on := dataMap(t, env)["on"]; on != true {
		t.Errorf("expected paused on, got %v", on)
	}
	if !ts.game.Snapshot().Paused {
		t.Error("game should be paused")
	}
}

func TestResumeWithToken(t *testing.T) {
	ts := startTestServer(t)
	first := dialWS(t, ts.wsURL)
	token := login(t, first)

	second := dialWS(t, ts.wsURL)
	sendMsg(t, second, MsgAuth, AuthMsg{Token: token})
	readUntil(t, second, MsgAuthOK)

	third := dialWS(t, ts.wsURL)
	sendMsg(t, third, MsgAuth, AuthMsg{Token: token + "x"})
	env := readUntil(t, third, MsgError)
	if msg := dataMap(t, env)["msg"]; msg != "invalid token" {
		t.Errorf("expected invalid token, got %v", msg)
	}
}

func TestOrderForUnknownShip(t *testing.T) {
	ts := startTestServer(t)
	conn := dialWS(t, ts.wsURL)
	login(t, conn)

	sendMsg(t, conn, MsgStop, StopMsg{IDs: []Handle{{Index: 999, Gen: 1}}})
	env := readUntil(t, conn, MsgError)
	msg, _ := dataMap(t, env)["msg"].(string)
	if !strings.Contains(msg, ErrStaleHandle.Error()) {
		t.Errorf("expected stale handle error, got %q", msg)
	}
}
