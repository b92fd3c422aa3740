package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"sedecam/clock"
	"sedecam/config"
	"sedecam/database"
	"sedecam/ptz"
	"sedecam/response"
	"sedecam/service"
	"sedecam/streamproc"

	"github.com/gin-gonic/gin"
)

type nullRunner struct{}

func (nullRunner) Run(name string, args ...string) (string, error) {
	return "", nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *database.SQLiteDB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tempDir, err := os.MkdirTemp("", "sedecam-api-test")
	if err != nil {
		t.Fatalf("Failed to create temp directory: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	db, err := database.NewSQLiteDB(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create SQLite database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	clk, err := clock.New("UTC")
	if err != nil {
		t.Fatalf("Failed to load timezone: %v", err)
	}

	generator := streamproc.NewGenerator(
		filepath.Join(tempDir, "cams_sh"),
		filepath.Join(tempDir, "live"),
		filepath.Join(tempDir, "units"),
		"http://localhost:3000",
		nullRunner{},
	)

	cfg := config.Config{ServerPort: "3000", LivePath: filepath.Join(tempDir, "live")}
	services := service.NewServiceManager(db, clk)
	cameras := service.NewCameraManager(db, generator, nil, "")
	gateway := ptz.NewGateway(db, time.Second)

	s := NewServer(cfg, db, services, cameras, gateway)
	r := gin.New()
	s.setupRoutes(r)
	return r, db
}

func seedRoom(t *testing.T, db *database.SQLiteDB, roomID string) {
	t.Helper()

	if err := db.CreateHeadquarter(database.Headquarter{ID: "hq-" + roomID, Name: "Sede", Active: true}); err != nil {
		t.Fatalf("Failed to create headquarter: %v", err)
	}
	if err := db.CreateRoom(database.Room{ID: roomID, Name: "Sala", Active: true, HeadquarterID: "hq-" + roomID}); err != nil {
		t.Fatalf("Failed to create room: %v", err)
	}
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, response.Envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env response.Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("Failed to decode envelope from %s: %v", w.Body.String(), err)
	}
	return w, env
}

// TestServiceEndpoints drives booking creation and the overlap conflict
// through the HTTP surface.
func TestServiceEndpoints(t *testing.T) {
	r, db := newTestRouter(t)
	seedRoom(t, db, "room-1")

	base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	payload := map[string]interface{}{
		"roomId":  "room-1",
		"startAt": base.Format(time.RFC3339),
		"endAt":   base.Add(time.Hour).Format(time.RFC3339),
	}

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/services", payload)
	if w.Code != http.StatusCreated || !env.Ok {
		t.Fatalf("Expected 201 ok envelope, got %d: %s", w.Code, w.Body.String())
	}

	w, env = doJSON(t, r, http.MethodPost, "/api/v1/services", payload)
	if w.Code != http.StatusConflict || env.Ok {
		t.Errorf("Expected 409 envelope for overlap, got %d: %s", w.Code, w.Body.String())
	}
	if env.Message == "" {
		t.Errorf("Conflict envelope should carry a message")
	}

	// Missing fields are a 400 with issues
	w, env = doJSON(t, r, http.MethodPost, "/api/v1/services", map[string]interface{}{"roomId": "room-1"})
	if w.Code != http.StatusBadRequest || len(env.Issues) == 0 {
		t.Errorf("Expected 400 envelope with issues, got %d: %s", w.Code, w.Body.String())
	}
}

// TestCameraFailEndpoint drives the script callback: 404 without a current
// online record, 200 with one.
func TestCameraFailEndpoint(t *testing.T) {
	r, db := newTestRouter(t)
	seedRoom(t, db, "room-1")

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/cameras", map[string]interface{}{
		"name":   "Entrada",
		"roomId": "room-1",
		"authCamera": map[string]interface{}{
			"userName":     "admin",
			"password":     "secret",
			"ipAddress":    "192.168.1.20",
			"rtspPort":     "554",
			"endPointRtsp": "/stream1",
		},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	created := env.Data[0].(map[string]interface{})
	cameraID := created["id"].(string)

	w, _ = doJSON(t, r, http.MethodPatch, "/api/v1/cameras/cameraFail/"+cameraID,
		map[string]interface{}{"message": "boom"})
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 without a current online record, got %d", w.Code)
	}

	if err := db.CreateCameraOnline(database.CameraOnline{
		ID:       "online-1",
		CameraID: cameraID,
		Status:   database.StatusOnline,
		Current:  true,
	}); err != nil {
		t.Fatalf("Failed to create online record: %v", err)
	}

	w, env = doJSON(t, r, http.MethodPatch, "/api/v1/cameras/cameraFail/"+cameraID,
		map[string]interface{}{"message": "boom"})
	if w.Code != http.StatusOK || !env.Ok {
		t.Errorf("Expected 200 ok envelope, got %d: %s", w.Code, w.Body.String())
	}
}

// TestPTZListEndpoint drives the movement listing for an active service.
func TestPTZListEndpoint(t *testing.T) {
	r, db := newTestRouter(t)
	seedRoom(t, db, "room-1")

	camera := database.Camera{ID: "cam-1", Name: "Entrada", Active: true, HasPTZ: true, RoomID: "room-1"}
	auth := database.AuthCamera{ID: "auth-1", UserName: "admin", Password: "secret", IPAddress: "192.168.1.20", HTTPPort: "80"}
	movements := []database.MovementPTZ{
		{ID: "mov-1", Name: "Izquierda", SortOrder: 1, EndPoint: "/ptz/left"},
	}
	if err := db.CreateCamera(camera, auth, movements); err != nil {
		t.Fatalf("Failed to create camera: %v", err)
	}

	now := time.Now()
	if err := db.CreateService(database.Service{
		ID:           "svc-1",
		RoomID:       "room-1",
		HasStreaming: true,
		StartAt:      now.Add(-time.Hour),
		EndAt:        now.Add(time.Hour),
		Current:      true,
	}); err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}

	w, env := doJSON(t, r, http.MethodGet, "/api/v1/streamings/ptz/svc-1", nil)
	if w.Code != http.StatusOK || len(env.Data) != 1 {
		t.Fatalf("Expected one movement, got %d: %s", w.Code, w.Body.String())
	}

	w, _ = doJSON(t, r, http.MethodGet, "/api/v1/streamings/ptz/ghost", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown service, got %d", w.Code)
	}
}
