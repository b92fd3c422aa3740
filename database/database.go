package database

import (
	"time"
)

// Database defines the interface for data store operations. Implementations
// return plain value structs; relation loading is explicit (joined queries or
// keyed lookups), never implicit.
type Database interface {
	// Headquarter operations
	CreateHeadquarter(hq Headquarter) error
	GetHeadquarter(id string) (*Headquarter, error)

	// Room operations
	CreateRoom(room Room) error
	GetRoom(id string) (*Room, error)

	// Camera operations
	CreateCamera(camera Camera, auth AuthCamera, movements []MovementPTZ) error
	GetCamera(id string) (*Camera, error)
	GetCameraByRoom(roomID string) (*Camera, error)
	FindCameraByName(roomID, name string) (*Camera, error)
	ListCameras(limit, offset int) ([]Camera, error)
	CountCameras() (int, error)
	ListCameraIDs() ([]string, error)
	UpdateCamera(camera Camera, auth *AuthCamera) error
	DeleteCamera(id string) error
	GetAuthCamera(id string) (*AuthCamera, error)

	// PTZ movement operations
	ListMovementsByCamera(cameraID string) ([]MovementPTZ, error)
	GetMovement(id string) (*MovementPTZ, error)
	ReplaceMovements(cameraID string, movements []MovementPTZ) error

	// Service operations
	CreateService(svc Service) error
	GetService(id string) (*Service, error)
	UpdateService(svc Service) error
	FindOverlappingService(roomID string, startAt, endAt time.Time, excludeID string) (*Service, error)

	// Scheduler transition queries: services whose window membership and
	// current flag disagree, with their room's cameras eagerly loaded.
	ListActivatableServices(now time.Time) ([]ServiceWithCameras, error)
	ListDeactivatableServices(now time.Time) ([]ServiceWithCameras, error)
	ListCurrentStreamingServices() ([]ServiceWithCameras, error)

	// Scheduler transition writes: one atomic transaction per batch, flipping
	// each service's current flag and every attached camera's online rows.
	ActivateServices(services []ServiceWithCameras) error
	DeactivateServices(services []ServiceWithCameras) error

	// CameraOnline operations
	CreateCameraOnline(online CameraOnline) error
	GetCurrentCameraOnline(cameraID string) (*CameraOnline, error)
	MarkCameraOnlineFail(cameraID, message string) error

	// Helper operations
	Close() error
}
