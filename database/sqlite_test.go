package database

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *SQLiteDB {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "sedecam-test")
	if err != nil {
		t.Fatalf("Failed to create temp directory: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	db, err := NewSQLiteDB(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create SQLite database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedRoom(t *testing.T, db *SQLiteDB, roomID string) {
	t.Helper()

	if err := db.CreateHeadquarter(Headquarter{ID: "hq-" + roomID, Name: "Sede Norte", Active: true}); err != nil {
		t.Fatalf("Failed to create headquarter: %v", err)
	}
	if err := db.CreateRoom(Room{ID: roomID, Name: "Sala 1", Active: true, HeadquarterID: "hq-" + roomID}); err != nil {
		t.Fatalf("Failed to create room: %v", err)
	}
}

func seedCamera(t *testing.T, db *SQLiteDB, cameraID, roomID string) {
	t.Helper()

	camera := Camera{ID: cameraID, Name: "cam-" + cameraID, Active: true, RoomID: roomID}
	auth := AuthCamera{
		ID:        "auth-" + cameraID,
		UserName:  "admin",
		Password:  "secret",
		IPAddress: "192.168.1.10",
		RTSPPort:  "554",
	}
	if err := db.CreateCamera(camera, auth, nil); err != nil {
		t.Fatalf("Failed to create camera: %v", err)
	}
}

// TestFindOverlappingService verifies the window overlap rule: two services
// in the same room overlap when startAt < endAt' and endAt > startAt'.
func TestFindOverlappingService(t *testing.T) {
	db := newTestDB(t)
	seedRoom(t, db, "room-1")

	base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	existing := Service{
		ID:      "svc-1",
		RoomID:  "room-1",
		StartAt: base,
		EndAt:   base.Add(time.Hour),
	}
	if err := db.CreateService(existing); err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}

	// Overlapping window in the same room
	overlap, err := db.FindOverlappingService("room-1", base.Add(30*time.Minute), base.Add(90*time.Minute), "")
	if err != nil {
		t.Fatalf("Failed to find overlapping service: %v", err)
	}
	if overlap == nil || overlap.ID != "svc-1" {
		t.Errorf("Expected overlap with svc-1, got %v", overlap)
	}

	// Back-to-back window does not overlap
	adjacent, err := db.FindOverlappingService("room-1", base.Add(time.Hour), base.Add(2*time.Hour), "")
	if err != nil {
		t.Fatalf("Failed to check adjacent window: %v", err)
	}
	if adjacent != nil {
		t.Errorf("Adjacent window should not overlap, got %v", adjacent)
	}

	// Same window in another room does not overlap
	seedRoom(t, db, "room-2")
	otherRoom, err := db.FindOverlappingService("room-2", base, base.Add(time.Hour), "")
	if err != nil {
		t.Fatalf("Failed to check other room: %v", err)
	}
	if otherRoom != nil {
		t.Errorf("Other room should not overlap, got %v", otherRoom)
	}

	// A service never conflicts with itself on update
	self, err := db.FindOverlappingService("room-1", base, base.Add(time.Hour), "svc-1")
	if err != nil {
		t.Fatalf("Failed to check excluded service: %v", err)
	}
	if self != nil {
		t.Errorf("Excluded service should not be reported, got %v", self)
	}
}

// TestSchedulerWindows verifies the transition queries: inclusive boundaries,
// the streaming filter, and the activate/deactivate flips.
func TestSchedulerWindows(t *testing.T) {
	db := newTestDB(t)
	seedRoom(t, db, "room-1")
	seedCamera(t, db, "cam-1", "room-1")

	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	// startAt == now is already inside the window
	streaming := Service{
		ID:           "svc-streaming",
		RoomID:       "room-1",
		HasStreaming: true,
		StartAt:      now,
		EndAt:        now.Add(time.Hour),
	}
	if err := db.CreateService(streaming); err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}

	// Same window without streaming must never reach the scheduler
	seedRoom(t, db, "room-2")
	plain := Service{
		ID:      "svc-plain",
		RoomID:  "room-2",
		StartAt: now,
		EndAt:   now.Add(time.Hour),
	}
	if err := db.CreateService(plain); err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}

	if err := db.CreateCameraOnline(CameraOnline{
		ID:                "online-1",
		CameraID:          "cam-1",
		Status:            StatusOffline,
		EndPointStreaming: "/live/cam-1/stream.m3u8",
	}); err != nil {
		t.Fatalf("Failed to create camera online record: %v", err)
	}

	activatable, err := db.ListActivatableServices(now)
	if err != nil {
		t.Fatalf("Failed to list activatable services: %v", err)
	}
	if len(activatable) != 1 || activatable[0].ID != "svc-streaming" {
		t.Fatalf("Expected exactly svc-streaming activatable, got %v", activatable)
	}
	if len(activatable[0].Cameras) != 1 || activatable[0].Cameras[0].ID != "cam-1" {
		t.Errorf("Expected cam-1 eagerly loaded, got %v", activatable[0].Cameras)
	}

	if err := db.ActivateServices(activatable); err != nil {
		t.Fatalf("Failed to activate services: %v", err)
	}

	// Flip is visible: service current, online record ONLINE and current
	again, err := db.ListActivatableServices(now)
	if err != nil {
		t.Fatalf("Failed to re-list activatable services: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("Activated service should not be activatable again, got %v", again)
	}

	online, err := db.GetCurrentCameraOnline("cam-1")
	if err != nil {
		t.Fatalf("Failed to get current online record: %v", err)
	}
	if online == nil || online.Status != StatusOnline {
		t.Fatalf("Expected current ONLINE record, got %v", online)
	}

	current, err := db.ListCurrentStreamingServices()
	if err != nil {
		t.Fatalf("Failed to list current streaming services: %v", err)
	}
	if len(current) != 1 || current[0].ID != "svc-streaming" {
		t.Errorf("Expected svc-streaming current, got %v", current)
	}

	// endAt == now is already outside the window
	atEnd := now.Add(time.Hour)
	deactivatable, err := db.ListDeactivatableServices(atEnd)
	if err != nil {
		t.Fatalf("Failed to list deactivatable services: %v", err)
	}
	if len(deactivatable) != 1 || deactivatable[0].ID != "svc-streaming" {
		t.Fatalf("Expected exactly svc-streaming deactivatable, got %v", deactivatable)
	}

	if err := db.DeactivateServices(deactivatable); err != nil {
		t.Fatalf("Failed to deactivate services: %v", err)
	}

	offline, err := db.GetCurrentCameraOnline("cam-1")
	if err != nil {
		t.Fatalf("Failed to get online record after deactivation: %v", err)
	}
	if offline != nil {
		t.Errorf("Expected no current online record after deactivation, got %v", offline)
	}

	svc, err := db.GetService("svc-streaming")
	if err != nil {
		t.Fatalf("Failed to get service: %v", err)
	}
	if svc.Current {
		t.Errorf("Service should not be current after deactivation")
	}
}

// TestCameraLifecycle covers camera create/update/delete with the attached
// auth descriptor and PTZ movements.
func TestCameraLifecycle(t *testing.T) {
	db := newTestDB(t)
	seedRoom(t, db, "room-1")

	camera := Camera{ID: "cam-1", Name: "Entrada", Active: true, HasPTZ: true, RoomID: "room-1"}
	auth := AuthCamera{
		ID:           "auth-1",
		UserName:     "admin",
		Password:     "secret",
		IPAddress:    "192.168.1.20",
		RTSPPort:     "554",
		EndPointRTSP: "/stream1",
		HTTPPort:     "80",
	}
	movements := []MovementPTZ{
		{ID: "mov-2", Name: "Derecha", SortOrder: 2, EndPoint: "/ptz/right"},
		{ID: "mov-1", Name: "Izquierda", SortOrder: 1, EndPoint: "/ptz/left"},
	}
	if err := db.CreateCamera(camera, auth, movements); err != nil {
		t.Fatalf("Failed to create camera: %v", err)
	}

	got, err := db.GetCamera("cam-1")
	if err != nil {
		t.Fatalf("Failed to get camera: %v", err)
	}
	if got == nil || got.AuthCameraID != "auth-1" {
		t.Fatalf("Expected camera linked to auth-1, got %v", got)
	}

	byName, err := db.FindCameraByName("room-1", "Entrada")
	if err != nil {
		t.Fatalf("Failed to find camera by name: %v", err)
	}
	if byName == nil || byName.ID != "cam-1" {
		t.Errorf("Expected cam-1 by name, got %v", byName)
	}

	// Movements come back sorted by order, not insertion
	listed, err := db.ListMovementsByCamera("cam-1")
	if err != nil {
		t.Fatalf("Failed to list movements: %v", err)
	}
	if len(listed) != 2 || listed[0].ID != "mov-1" || listed[1].ID != "mov-2" {
		t.Errorf("Expected movements sorted by order, got %v", listed)
	}

	if err := db.ReplaceMovements("cam-1", []MovementPTZ{
		{ID: "mov-3", Name: "Centro", SortOrder: 1, EndPoint: "/ptz/center"},
	}); err != nil {
		t.Fatalf("Failed to replace movements: %v", err)
	}
	replaced, err := db.ListMovementsByCamera("cam-1")
	if err != nil {
		t.Fatalf("Failed to list replaced movements: %v", err)
	}
	if len(replaced) != 1 || replaced[0].ID != "mov-3" {
		t.Errorf("Expected only mov-3 after replacement, got %v", replaced)
	}

	if err := db.DeleteCamera("cam-1"); err != nil {
		t.Fatalf("Failed to delete camera: %v", err)
	}
	if got, _ := db.GetCamera("cam-1"); got != nil {
		t.Errorf("Camera should be gone, got %v", got)
	}
	if gotAuth, _ := db.GetAuthCamera("auth-1"); gotAuth != nil {
		t.Errorf("Auth descriptor should be gone, got %v", gotAuth)
	}
	if remaining, _ := db.ListMovementsByCamera("cam-1"); len(remaining) != 0 {
		t.Errorf("Movements should be gone, got %v", remaining)
	}
}

// TestMarkCameraOnlineFail verifies the failure intake mutation on the
// current online record.
func TestMarkCameraOnlineFail(t *testing.T) {
	db := newTestDB(t)
	seedRoom(t, db, "room-1")
	seedCamera(t, db, "cam-1", "room-1")

	if err := db.CreateCameraOnline(CameraOnline{
		ID:       "online-1",
		CameraID: "cam-1",
		Status:   StatusOnline,
		Current:  true,
	}); err != nil {
		t.Fatalf("Failed to create camera online record: %v", err)
	}

	if err := db.MarkCameraOnlineFail("cam-1", "FFmpeg failed to start streaming."); err != nil {
		t.Fatalf("Failed to mark online record as failed: %v", err)
	}

	online, err := db.GetCurrentCameraOnline("cam-1")
	if err != nil {
		t.Fatalf("Failed to get current online record: %v", err)
	}
	if online == nil || online.Status != StatusFail {
		t.Fatalf("Expected current FAIL record, got %v", online)
	}
	if online.DescriptionStatus != "FFmpeg failed to start streaming." {
		t.Errorf("Expected failure description to be stored, got %q", online.DescriptionStatus)
	}
}
