// Package service holds the business rules sitting between the HTTP handlers
// and the data store: bookings, camera lifecycle and stream failure intake.
package service

import (
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"time"

	"sedecam/clock"
	"sedecam/database"
	"sedecam/response"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ServiceInput is the caller-supplied shape of a booking.
type ServiceInput struct {
	RoomID       string    `json:"roomId" binding:"required"`
	HasStreaming bool      `json:"hasStreaming"`
	StartAt      time.Time `json:"startAt" binding:"required"`
	EndAt        time.Time `json:"endAt" binding:"required"`
}

// StreamCredential is a one-time viewer credential. The plain password exists
// only in this struct; the store keeps the bcrypt hash.
type StreamCredential struct {
	CameraID          string `json:"cameraId"`
	EndPointStreaming string `json:"endPointStreaming"`
	Password          string `json:"password"`
}

// CreatedService is a booking together with any credentials minted for it.
type CreatedService struct {
	database.Service
	Credentials []StreamCredential `json:"credentials,omitempty"`
}

// ServiceManager applies booking rules: room existence, window overlap and
// stream credential minting.
type ServiceManager struct {
	db  database.Database
	clk *clock.Clock
}

// NewServiceManager wires the booking manager.
func NewServiceManager(db database.Database, clk *clock.Clock) *ServiceManager {
	return &ServiceManager{db: db, clk: clk}
}

// Create books a room for a time window. A streaming booking also mints a
// one-time viewer credential for the room's camera; the plain password is
// returned here and never again.
func (m *ServiceManager) Create(in ServiceInput) (*CreatedService, error) {
	startAt := m.clk.In(in.StartAt)
	endAt := m.clk.In(in.EndAt)

	if err := m.validateWindow(in.RoomID, startAt, endAt, ""); err != nil {
		return nil, err
	}

	svc := database.Service{
		ID:           uuid.NewString(),
		RoomID:       in.RoomID,
		HasStreaming: in.HasStreaming,
		StartAt:      startAt,
		EndAt:        endAt,
		Current:      false,
	}
	if err := m.db.CreateService(svc); err != nil {
		return nil, err
	}

	created := &CreatedService{Service: svc}
	if in.HasStreaming {
		credential, err := m.mintCredential(in.RoomID)
		if err != nil {
			return nil, err
		}
		if credential != nil {
			created.Credentials = append(created.Credentials, *credential)
		}
	}

	log.Printf("services : created service %s for room %s (%s - %s)",
		svc.ID, svc.RoomID, svc.StartAt.Format(time.RFC3339), svc.EndAt.Format(time.RFC3339))
	return created, nil
}

// Update reshapes an existing booking under the same room and overlap rules.
// Toggling streaming on mints a fresh credential. The current flag is owned
// by the scheduler and never touched here; a shortened window is picked up on
// the next tick.
func (m *ServiceManager) Update(id string, in ServiceInput) (*CreatedService, error) {
	svc, err := m.db.GetService(id)
	if err != nil {
		return nil, err
	}
	if svc == nil {
		return nil, response.NotFound("Servicio no encontrado.")
	}

	startAt := m.clk.In(in.StartAt)
	endAt := m.clk.In(in.EndAt)

	if err := m.validateWindow(in.RoomID, startAt, endAt, id); err != nil {
		return nil, err
	}

	startedStreaming := in.HasStreaming && !svc.HasStreaming

	svc.RoomID = in.RoomID
	svc.HasStreaming = in.HasStreaming
	svc.StartAt = startAt
	svc.EndAt = endAt
	if err := m.db.UpdateService(*svc); err != nil {
		return nil, err
	}

	updated := &CreatedService{Service: *svc}
	if startedStreaming {
		credential, err := m.mintCredential(in.RoomID)
		if err != nil {
			return nil, err
		}
		if credential != nil {
			updated.Credentials = append(updated.Credentials, *credential)
		}
	}

	log.Printf("services : updated service %s", svc.ID)
	return updated, nil
}

// validateWindow checks the window shape, the room and the overlap rule
// (startAt < endAt' && endAt > startAt', same room).
func (m *ServiceManager) validateWindow(roomID string, startAt, endAt time.Time, excludeID string) error {
	if !startAt.Before(endAt) {
		return response.BadRequest("La fecha de inicio debe ser anterior a la fecha de finalización.")
	}

	room, err := m.db.GetRoom(roomID)
	if err != nil {
		return err
	}
	if room == nil || !room.Active {
		return response.NotFound("La sala no existe o no está activa.")
	}

	overlap, err := m.db.FindOverlappingService(roomID, startAt, endAt, excludeID)
	if err != nil {
		return err
	}
	if overlap != nil {
		return response.Conflict("Ya existe un servicio en la sala para el horario seleccionado.")
	}
	return nil
}

// mintCredential creates the camera's online record with a hashed one-time
// password and the playlist endpoint. A room without a camera yields no
// credential; the booking still stands.
func (m *ServiceManager) mintCredential(roomID string) (*StreamCredential, error) {
	camera, err := m.db.GetCameraByRoom(roomID)
	if err != nil {
		return nil, err
	}
	if camera == nil {
		log.Printf("services : room %s has no camera, streaming booking without credential", roomID)
		return nil, nil
	}

	password, err := generatePassword(10)
	if err != nil {
		return nil, fmt.Errorf("error generating one-time password: %v", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing one-time password: %v", err)
	}

	endpoint := fmt.Sprintf("/live/%s/stream.m3u8", camera.ID)
	online := database.CameraOnline{
		ID:                uuid.NewString(),
		CameraID:          camera.ID,
		Status:            database.StatusOffline,
		Current:           false,
		EndPointStreaming: endpoint,
		Password:          string(hash),
	}
	if err := m.db.CreateCameraOnline(online); err != nil {
		return nil, err
	}

	return &StreamCredential{
		CameraID:          camera.ID,
		EndPointStreaming: endpoint,
		Password:          password,
	}, nil
}

const passwordCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func generatePassword(length int) (string, error) {
	out := make([]byte, length)
	max := big.NewInt(int64(len(passwordCharset)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = passwordCharset[n.Int64()]
	}
	return string(out), nil
}
