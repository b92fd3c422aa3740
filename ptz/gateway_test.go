package ptz

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sedecam/database"
	"sedecam/response"
)

func newTestGateway(t *testing.T) (*Gateway, *database.SQLiteDB) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "sedecam-ptz-test")
	if err != nil {
		t.Fatalf("Failed to create temp directory: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	db, err := database.NewSQLiteDB(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create SQLite database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewGateway(db, 3*time.Second), db
}

// seedPTZCamera wires room, camera, auth and one movement pointing at the
// given control host ("ip:port").
func seedPTZCamera(t *testing.T, db *database.SQLiteDB, controlHost string) {
	t.Helper()

	ip, port, ok := strings.Cut(controlHost, ":")
	if !ok {
		t.Fatalf("Unexpected control host %q", controlHost)
	}

	if err := db.CreateHeadquarter(database.Headquarter{ID: "hq-1", Name: "Sede", Active: true}); err != nil {
		t.Fatalf("Failed to create headquarter: %v", err)
	}
	if err := db.CreateRoom(database.Room{ID: "room-1", Name: "Sala", Active: true, HeadquarterID: "hq-1"}); err != nil {
		t.Fatalf("Failed to create room: %v", err)
	}

	camera := database.Camera{ID: "cam-1", Name: "Entrada", Active: true, HasPTZ: true, RoomID: "room-1"}
	auth := database.AuthCamera{
		ID:        "auth-1",
		UserName:  "admin",
		Password:  "secret",
		IPAddress: ip,
		HTTPPort:  port,
	}
	movements := []database.MovementPTZ{
		{ID: "mov-1", Name: "Izquierda", SortOrder: 1, EndPoint: "/ptz/left"},
		{ID: "mov-2", Name: "Derecha", SortOrder: 2, EndPoint: "/ptz/right"},
	}
	if err := db.CreateCamera(camera, auth, movements); err != nil {
		t.Fatalf("Failed to create camera: %v", err)
	}
}

func seedService(t *testing.T, db *database.SQLiteDB, current bool) {
	t.Helper()

	now := time.Now()
	if err := db.CreateService(database.Service{
		ID:           "svc-1",
		RoomID:       "room-1",
		HasStreaming: true,
		StartAt:      now.Add(-time.Hour),
		EndAt:        now.Add(time.Hour),
		Current:      current,
	}); err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}
}

// digestCamera fakes a camera control API behind digest authentication.
func digestCamera(t *testing.T, statusCode, statusString string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.Header.Get("Authorization") == "" {
			w.Header().Set("WWW-Authenticate", `Digest realm="camera", nonce="abc123", qop="auth"`)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Digest ") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<ResponseStatus>
  <statusCode>%s</statusCode>
  <statusString>%s</statusString>
</ResponseStatus>`, statusCode, statusString)
	}))
}

func controlHost(t *testing.T, server *httptest.Server) string {
	t.Helper()

	u, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("Failed to parse test server URL: %v", err)
	}
	return u.Host
}

// TestListMovements verifies the movement listing for a current service.
func TestListMovements(t *testing.T) {
	gw, db := newTestGateway(t)
	seedPTZCamera(t, db, "192.168.1.10:80")
	seedService(t, db, true)

	movements, err := gw.ListMovements("svc-1")
	if err != nil {
		t.Fatalf("Failed to list movements: %v", err)
	}
	if len(movements) != 2 {
		t.Fatalf("Expected 2 movements, got %d", len(movements))
	}
	if movements[0].Name != "Izquierda" || movements[1].Name != "Derecha" {
		t.Errorf("Expected movements sorted by order, got %v", movements)
	}
}

// TestListMovementsFailClosed verifies inactive and unknown services expose
// nothing.
func TestListMovementsFailClosed(t *testing.T) {
	gw, db := newTestGateway(t)
	seedPTZCamera(t, db, "192.168.1.10:80")
	seedService(t, db, false)

	_, err := gw.ListMovements("svc-1")
	apiErr, ok := err.(*response.Error)
	if !ok || apiErr.Status != http.StatusNotFound {
		t.Errorf("Expected 404 for inactive service, got %v", err)
	}

	_, err = gw.ListMovements("ghost")
	apiErr, ok = err.(*response.Error)
	if !ok || apiErr.Status != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown service, got %v", err)
	}
}

// TestExecuteSuccess verifies the digest handshake and the strict success
// acknowledgement.
func TestExecuteSuccess(t *testing.T) {
	gw, db := newTestGateway(t)

	camera := digestCamera(t, "1", "OK")
	defer camera.Close()
	seedPTZCamera(t, db, controlHost(t, camera))

	if err := gw.Execute("mov-1"); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
}

// TestExecuteCameraRejection verifies a non-OK acknowledgement surfaces the
// camera's status string as a 400.
func TestExecuteCameraRejection(t *testing.T) {
	gw, db := newTestGateway(t)

	camera := digestCamera(t, "4", "Invalid Operation")
	defer camera.Close()
	seedPTZCamera(t, db, controlHost(t, camera))

	err := gw.Execute("mov-1")
	apiErr, ok := err.(*response.Error)
	if !ok || apiErr.Status != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %v", err)
	}
	if !strings.Contains(apiErr.Message, "Invalid Operation") {
		t.Errorf("Expected the camera's status string in the message, got %q", apiErr.Message)
	}
}

// TestExecuteUnauthorized verifies rejected credentials map to 401.
func TestExecuteUnauthorized(t *testing.T) {
	gw, db := newTestGateway(t)

	camera := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("WWW-Authenticate", `Digest realm="camera", nonce="abc123"`)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer camera.Close()
	seedPTZCamera(t, db, controlHost(t, camera))

	err := gw.Execute("mov-1")
	apiErr, ok := err.(*response.Error)
	if !ok || apiErr.Status != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %v", err)
	}
}

// TestExecuteTimeout verifies an unresponsive camera maps to 408.
func TestExecuteTimeout(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "sedecam-ptz-test")
	if err != nil {
		t.Fatalf("Failed to create temp directory: %v", err)
	}
	defer os.RemoveAll(tempDir)

	db, err := database.NewSQLiteDB(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create SQLite database: %v", err)
	}
	defer db.Close()

	gw := NewGateway(db, 100*time.Millisecond)

	camera := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer camera.Close()
	seedPTZCamera(t, db, controlHost(t, camera))

	execErr := gw.Execute("mov-1")
	apiErr, ok := execErr.(*response.Error)
	if !ok || apiErr.Status != http.StatusRequestTimeout {
		t.Errorf("Expected 408, got %v", execErr)
	}
}

// TestExecuteUnknownMovement verifies the 404 path.
func TestExecuteUnknownMovement(t *testing.T) {
	gw, _ := newTestGateway(t)

	err := gw.Execute("ghost")
	apiErr, ok := err.(*response.Error)
	if !ok || apiErr.Status != http.StatusNotFound {
		t.Errorf("Expected 404, got %v", err)
	}
}

// TestBuildDigestAuthorization verifies the challenge answer carries the
// expected fields.
func TestBuildDigestAuthorization(t *testing.T) {
	header, err := buildDigestAuthorization(
		`Digest realm="camera", nonce="abc123", qop="auth"`,
		http.MethodPut, "/ptz/left", "admin", "secret")
	if err != nil {
		t.Fatalf("Failed to build authorization: %v", err)
	}
	for _, want := range []string{`username="admin"`, `realm="camera"`, `nonce="abc123"`, `uri="/ptz/left"`, "qop=auth", "response="} {
		if !strings.Contains(header, want) {
			t.Errorf("Authorization missing %s: %s", want, header)
		}
	}

	if _, err := buildDigestAuthorization(`Basic realm="camera"`, http.MethodPut, "/", "a", "b"); err == nil {
		t.Errorf("Expected an error for a non-digest challenge")
	}
}
