package handlers

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"go.uber.org/zap/zaptest"
	_ "modernc.org/sqlite"

	"github.com/padraicbc/racetiming/app"
	"github.com/padraicbc/racetiming/db"
	"github.com/padraicbc/racetiming/models"
	"github.com/padraicbc/racetiming/repository"
	"github.com/padraicbc/racetiming/timing"
)

var testKey = []byte("test-secret")

type testServer struct {
	e     *echo.Echo
	app   *app.App
	token string
}

func sequentialIDs() func() timing.ResultID {
	n := 0
	return func() timing.ResultID {
		n++
		return timing.ResultID(fmt.Sprintf("r%d", n))
	}
}

func openOperators(t *testing.T, accounts map[string]string) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open("sqlite", "file::memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqldb.SetMaxOpenConns(1)
	bdb := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = bdb.Close() })

	ctx := context.Background()
	if err := db.CreateTables(ctx, bdb); err != nil {
		t.Fatalf("create tables: %v", err)
	}
	for username, password := range accounts {
		hash, err := HashPasswordForUser(username, password)
		if err != nil {
			t.Fatalf("hash: %v", err)
		}
		op := &models.Operator{Username: username, Password: hash}
		if _, err := bdb.NewInsert().Model(op).Exec(ctx); err != nil {
			t.Fatalf("insert operator: %v", err)
		}
	}
	return bdb
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zaptest.NewLogger(t)
	repo := repository.NewMemory(timing.CompetitionConfiguration{
		ID: "cup",
		Tracks: map[timing.TrackID]timing.TrackConfiguration{
			"0": {OverlapLimit: 2},
		},
	})
	a := app.New(repo, app.WithLogger(log), app.WithResultIDs(sequentialIDs()))
	t.Cleanup(a.Close)

	bdb := openOperators(t, map[string]string{"desk": "secret", "admin": "root"})
	h := New(a, bdb, testKey, log, 4)
	h.Admins = []string{"admin"}

	e := echo.New()
	h.Register(e)
	s := &testServer{e: e, app: a}
	s.token = s.signin(t, "desk", "secret")
	return s
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if s.token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+s.token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) signin(t *testing.T, username, password string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/signin", credentials{Username: username, Password: password})
	if rec.Code != http.StatusOK {
		t.Fatalf("signin status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode signin: %v", err)
	}
	return resp["token"]
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}

func TestSigninRejectsBadPassword(t *testing.T) {
	s := newTestServer(t)
	s.token = ""
	rec := s.do(t, http.MethodPost, "/signin", credentials{Username: "desk", Password: "wrong"})
	expectStatus(t, rec, http.StatusUnauthorized)

	rec = s.do(t, http.MethodPost, "/signin", credentials{Username: "nobody", Password: "secret"})
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestAPIRequiresToken(t *testing.T) {
	s := newTestServer(t)
	s.token = ""
	expectStatus(t, s.do(t, http.MethodGet, "/api/tracks", nil), http.StatusBadRequest)

	s.token = "garbage"
	expectStatus(t, s.do(t, http.MethodGet, "/api/tracks", nil), http.StatusBadRequest)
}

func TestCompetitionFlow(t *testing.T) {
	s := newTestServer(t)

	expectStatus(t, s.do(t, http.MethodPost, "/api/create-competition",
		map[string]string{"competitionConfigurationID": "cup"}), http.StatusAccepted)
	expectStatus(t, s.do(t, http.MethodPost, "/api/register-next-car",
		map[string]any{"timestamp": 0, "trackID": "0", "carID": "A"}), http.StatusAccepted)

	rec := s.do(t, http.MethodGet, "/api/registered-next-car?trackID=0", nil)
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `"carID":"A"`) {
		t.Fatalf("registered next car = %s", rec.Body.String())
	}

	expectStatus(t, s.do(t, http.MethodPost, "/api/start",
		map[string]any{"timestamp": 10, "trackID": "0"}), http.StatusAccepted)

	rec = s.do(t, http.MethodGet, "/api/running-cars?trackID=0", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := strings.TrimSpace(rec.Body.String()); got != `{"carIDs":["A"]}` {
		t.Fatalf("running cars = %s", got)
	}

	expectStatus(t, s.do(t, http.MethodPost, "/api/mark-pylon-touch",
		map[string]any{"timestamp": 12, "trackID": "0", "carID": "A"}), http.StatusAccepted)

	rec = s.do(t, http.MethodPost, "/api/stop", map[string]any{"timestamp": 40, "trackID": "0"})
	expectStatus(t, rec, http.StatusAccepted)
	var created recordCreated
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode stop: %v", err)
	}
	if created.RecordID != "r1" {
		t.Fatalf("record id = %q, want r1", created.RecordID)
	}

	expectStatus(t, s.do(t, http.MethodPost, "/api/change-record-pylon-touch-count",
		map[string]any{"timestamp": 50, "recordID": "r1", "count": 0}), http.StatusAccepted)
	expectStatus(t, s.do(t, http.MethodPost, "/api/change-record-type",
		map[string]any{"timestamp": 51, "recordID": "r1", "recordType": "final"}), http.StatusAccepted)

	state, _ := s.app.State()
	if len(state.Records) != 1 {
		t.Fatalf("records = %+v", state.Records)
	}
	got := state.Records[0]
	if got.EntryID != "A" || got.Duration != 30*time.Millisecond || got.PylonTouchCount != 0 || got.RecordType != "final" {
		t.Fatalf("record = %+v", got)
	}

	rec = s.do(t, http.MethodGet, "/api/state-tree", nil)
	expectStatus(t, rec, http.StatusOK)
	var tree stateTreeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &tree); err != nil {
		t.Fatalf("decode state tree: %v", err)
	}
	if !strings.Contains(tree.State, "record_type: final") {
		t.Fatalf("state tree:\n%s", tree.State)
	}

	rec = s.do(t, http.MethodGet, "/api/tracks", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := strings.TrimSpace(rec.Body.String()); got != `{"trackIDs":["0"]}` {
		t.Fatalf("tracks = %s", got)
	}
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t)
	expectStatus(t, s.do(t, http.MethodPost, "/api/start",
		map[string]any{"timestamp": 0, "trackID": "0"}), http.StatusPreconditionFailed)
	expectStatus(t, s.do(t, http.MethodPost, "/api/create-competition",
		map[string]string{"competitionConfigurationID": "nope"}), http.StatusNotFound)
	expectStatus(t, s.do(t, http.MethodPost, "/api/create-competition",
		map[string]string{"competitionConfigurationID": "cup"}), http.StatusAccepted)

	tests := []struct {
		name string
		path string
		body any
		want int
	}{
		{"unknown track", "/api/start", map[string]any{"timestamp": 0, "trackID": "9"}, http.StatusNotFound},
		{"nobody registered", "/api/start", map[string]any{"timestamp": 0, "trackID": "0"}, http.StatusPreconditionFailed},
		{"nobody running", "/api/stop", map[string]any{"timestamp": 0, "trackID": "0"}, http.StatusPreconditionFailed},
		{"unknown car", "/api/mark-dnf", map[string]any{"timestamp": 0, "trackID": "0", "carID": "X"}, http.StatusPreconditionFailed},
		{"unknown record", "/api/remove-record", map[string]any{"timestamp": 0, "recordID": "r9"}, http.StatusNotFound},
		{"missing timestamp", "/api/start", map[string]any{"trackID": "0"}, http.StatusBadRequest},
		{"missing track", "/api/red-flag", map[string]any{"timestamp": 0}, http.StatusBadRequest},
		{"empty car id", "/api/stop", map[string]any{"timestamp": 0, "trackID": "0", "carID": ""}, http.StatusBadRequest},
		{"negative count", "/api/change-record-derailment-count", map[string]any{"timestamp": 0, "recordID": "r1", "count": -1}, http.StatusBadRequest},
		{"malformed body", "/api/start", "not an object", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, s.do(t, http.MethodPost, tt.path, tt.body), tt.want)
		})
	}
}

func TestRegisterNextCarDefaultsTimestamp(t *testing.T) {
	s := newTestServer(t)
	expectStatus(t, s.do(t, http.MethodPost, "/api/create-competition",
		map[string]string{"competitionConfigurationID": "cup"}), http.StatusAccepted)
	expectStatus(t, s.do(t, http.MethodPost, "/api/register-next-car",
		map[string]any{"trackID": "0", "carID": "A"}), http.StatusAccepted)

	// A start stamped now must land after the registration.
	expectStatus(t, s.do(t, http.MethodPost, "/api/start",
		map[string]any{"timestamp": time.Now().Add(time.Second).UnixMilli(), "trackID": "0"}), http.StatusAccepted)
}

func TestPasswordHashRequiresAdmin(t *testing.T) {
	s := newTestServer(t)
	body := credentials{Username: "timer2", Password: "pw"}
	expectStatus(t, s.do(t, http.MethodPost, "/api/password-hash", body), http.StatusForbidden)

	s.token = s.signin(t, "admin", "root")
	rec := s.do(t, http.MethodPost, "/api/password-hash", body)
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `"password_hash":"$2a$`) {
		t.Fatalf("password hash = %s", rec.Body.String())
	}
}

func TestSubscribeStateChangeStreamsEvents(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.e)
	t.Cleanup(srv.Close)

	expectStatus(t, s.do(t, http.MethodPost, "/api/create-competition",
		map[string]string{"competitionConfigurationID": "cup"}), http.StatusAccepted)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/subscribe-state-change?token="+s.token, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get(echo.HeaderContentType); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	r := bufio.NewReader(resp.Body)
	first := readEvent(t, r)
	if !strings.Contains(first, "data: tracks:") {
		t.Fatalf("first event:\n%s", first)
	}

	expectStatus(t, s.do(t, http.MethodPost, "/api/register-next-car",
		map[string]any{"timestamp": 0, "trackID": "0", "carID": "A"}), http.StatusAccepted)
	for {
		ev := readEvent(t, r)
		if strings.Contains(ev, "pending_car: A") {
			return
		}
	}
}

func readEvent(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	var b strings.Builder
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read event: %v", err)
		}
		if line == "\n" {
			return b.String()
		}
		b.WriteString(line)
	}
}

func TestWriteEvent(t *testing.T) {
	var b strings.Builder
	if err := writeEvent(&b, "state", "a: 1\nb: 2\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "event: state\ndata: a: 1\ndata: b: 2\n\n"
	if b.String() != want {
		t.Fatalf("event = %q, want %q", b.String(), want)
	}
}
