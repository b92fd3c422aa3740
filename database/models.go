package database

import (
	"time"
)

// CameraOnlineStatus represents the state of one activation instance of a
// camera's stream.
type CameraOnlineStatus string

const (
	StatusOnline  CameraOnlineStatus = "ONLINE"  // Stream is running
	StatusOffline CameraOnlineStatus = "OFFLINE" // Stream is stopped
	StatusFail    CameraOnlineStatus = "FAIL"    // Transcoding pipeline reported a failure
)

// Headquarter is a physical site owning rooms.
type Headquarter struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// Room is a bookable room inside a headquarter. A room holds at most one
// camera.
type Room struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Active        bool   `json:"active"`
	HeadquarterID string `json:"headquarterId"`
}

// AuthCamera is the credential and network descriptor exclusively owned by
// one camera.
type AuthCamera struct {
	ID                   string `json:"id"`
	UserName             string `json:"userName"`
	Password             string `json:"password"`
	IPAddress            string `json:"ipAddress"`
	RTSPPort             string `json:"rtspPort"`
	EndPointRTSP         string `json:"endPointRtsp"`
	HTTPPort             string `json:"httpPort"`
	EndPointImagePreview string `json:"endPointImagePreview"`
}

// Camera is a physical device attached to exactly one room.
type Camera struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Active       bool   `json:"active"`
	HasPTZ       bool   `json:"hasPTZ"`
	RoomID       string `json:"roomId"`
	AuthCameraID string `json:"authCameraId"`
}

// MovementPTZ is an ordered named command scoped to one camera. SortOrder
// values are unique within a camera.
type MovementPTZ struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SortOrder int    `json:"order"`
	EndPoint  string `json:"endPoint"`
	CameraID  string `json:"cameraId"`
}

// Service is a scheduled booking of a room for a time window. Current is
// mutated exclusively by the reconciliation scheduler.
type Service struct {
	ID           string    `json:"id"`
	RoomID       string    `json:"roomId"`
	HasStreaming bool      `json:"hasStreaming"`
	StartAt      time.Time `json:"startAt"`
	EndAt        time.Time `json:"endAt"`
	Current      bool      `json:"current"`
}

// CameraOnline represents one activation instance of a camera's stream.
// Password holds the bcrypt hash of the one-time viewer credential.
type CameraOnline struct {
	ID                string             `json:"id"`
	CameraID          string             `json:"cameraId"`
	Status            CameraOnlineStatus `json:"status"`
	Current           bool               `json:"current"`
	DescriptionStatus string             `json:"descriptionStatus"`
	EndPointStreaming string             `json:"endPointStreaming"`
	Password          string             `json:"-"`
}

// ServiceWithCameras is a service with its room's cameras eagerly loaded,
// as returned by the scheduler transition queries.
type ServiceWithCameras struct {
	Service
	Cameras []Camera `json:"cameras"`
}
