package service

import (
	"errors"
	"fmt"
	"log"

	"sedecam/database"
	"sedecam/mailer"
	"sedecam/response"
	"sedecam/streamproc"

	"github.com/google/uuid"
)

// AuthInput is the caller-supplied credential and network descriptor of a
// camera.
type AuthInput struct {
	UserName             string `json:"userName" binding:"required"`
	Password             string `json:"password" binding:"required"`
	IPAddress            string `json:"ipAddress" binding:"required"`
	RTSPPort             string `json:"rtspPort" binding:"required"`
	EndPointRTSP         string `json:"endPointRtsp" binding:"required"`
	HTTPPort             string `json:"httpPort"`
	EndPointImagePreview string `json:"endPointImagePreview"`
}

// MovementInput is one PTZ preset in a camera payload.
type MovementInput struct {
	Name     string `json:"name" binding:"required"`
	Order    int    `json:"order"`
	EndPoint string `json:"endPoint" binding:"required"`
}

// CreateCameraInput is the payload for registering a camera.
type CreateCameraInput struct {
	Name      string          `json:"name" binding:"required"`
	HasPTZ    bool            `json:"hasPTZ"`
	RoomID    string          `json:"roomId" binding:"required"`
	Auth      AuthInput       `json:"authCamera" binding:"required"`
	Movements []MovementInput `json:"movementsPTZ"`
}

// UpdateCameraInput is the payload for mutating a camera. Nil sub-payloads
// leave the corresponding records untouched.
type UpdateCameraInput struct {
	Name      string          `json:"name" binding:"required"`
	Active    *bool           `json:"active"`
	HasPTZ    *bool           `json:"hasPTZ"`
	Auth      *AuthInput      `json:"authCamera"`
	Movements []MovementInput `json:"movementsPTZ"`
}

// CameraDetail is a camera with its auth descriptor and PTZ presets loaded.
type CameraDetail struct {
	database.Camera
	Auth      *database.AuthCamera   `json:"authCamera,omitempty"`
	Movements []database.MovementPTZ `json:"movementsPTZ"`
}

// CameraManager owns the camera lifecycle: records in the store and the
// stream process artifacts, kept one-to-one.
type CameraManager struct {
	db           database.Database
	generator    *streamproc.Generator
	mail         mailer.Sender
	supportEmail string
}

// NewCameraManager wires the camera manager.
func NewCameraManager(db database.Database, generator *streamproc.Generator, mail mailer.Sender, supportEmail string) *CameraManager {
	return &CameraManager{
		db:           db,
		generator:    generator,
		mail:         mail,
		supportEmail: supportEmail,
	}
}

// Create registers a camera in its room, persists camera + auth + presets in
// one transaction and generates the stream process definition. A generator
// failure rolls the record back so artifacts and records stay one-to-one.
func (m *CameraManager) Create(in CreateCameraInput) (*CameraDetail, error) {
	room, err := m.db.GetRoom(in.RoomID)
	if err != nil {
		return nil, err
	}
	if room == nil || !room.Active {
		return nil, response.NotFound("La sala no existe o no está activa.")
	}

	existing, err := m.db.GetCameraByRoom(in.RoomID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, response.Conflict("La sala ya tiene una cámara asociada.")
	}

	duplicate, err := m.db.FindCameraByName(in.RoomID, in.Name)
	if err != nil {
		return nil, err
	}
	if duplicate != nil {
		return nil, response.Conflict("Ya existe una cámara con ese nombre en la sala.")
	}

	if err := validateMovements(in.Movements); err != nil {
		return nil, err
	}

	camera := database.Camera{
		ID:     uuid.NewString(),
		Name:   in.Name,
		Active: true,
		HasPTZ: in.HasPTZ,
		RoomID: in.RoomID,
	}
	auth := toAuthCamera(uuid.NewString(), in.Auth)
	camera.AuthCameraID = auth.ID
	movements := toMovements(camera.ID, in.Movements)

	if err := m.db.CreateCamera(camera, auth, movements); err != nil {
		return nil, err
	}

	if err := m.generator.Create(camera.ID, rtspURL(auth)); err != nil {
		log.Printf("cameras : error generating stream process for camera %s, rolling back: %v", camera.ID, err)
		if delErr := m.db.DeleteCamera(camera.ID); delErr != nil {
			log.Printf("cameras : error rolling back camera %s: %v", camera.ID, delErr)
		}
		if errors.Is(err, streamproc.ErrAlreadyExists) {
			return nil, response.Conflict("Ya existe una definición de streaming para esta cámara.")
		}
		return nil, response.Internal("No se pudo crear la definición de streaming de la cámara.")
	}

	log.Printf("cameras : created camera %s in room %s", camera.ID, camera.RoomID)
	return &CameraDetail{Camera: camera, Auth: &auth, Movements: movements}, nil
}

// Get retrieves a camera with its auth descriptor and presets.
func (m *CameraManager) Get(id string) (*CameraDetail, error) {
	camera, err := m.db.GetCamera(id)
	if err != nil {
		return nil, err
	}
	if camera == nil {
		return nil, response.NotFound("Cámara no encontrada.")
	}

	auth, err := m.db.GetAuthCamera(camera.AuthCameraID)
	if err != nil {
		return nil, err
	}
	movements, err := m.db.ListMovementsByCamera(camera.ID)
	if err != nil {
		return nil, err
	}

	return &CameraDetail{Camera: *camera, Auth: auth, Movements: movements}, nil
}

// List returns a camera page with pagination metadata.
func (m *CameraManager) List(page, pageSize int) ([]database.Camera, *response.Meta, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	cameras, err := m.db.ListCameras(pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, nil, err
	}
	total, err := m.db.CountCameras()
	if err != nil {
		return nil, nil, err
	}

	totalPages := (total + pageSize - 1) / pageSize
	meta := &response.Meta{Page: page, PageSize: pageSize, TotalPages: totalPages, Total: total}
	return cameras, meta, nil
}

// Update mutates a camera. A new auth descriptor also rewrites the stream
// process source URL; replacing presets swaps the whole set.
func (m *CameraManager) Update(id string, in UpdateCameraInput) (*CameraDetail, error) {
	camera, err := m.db.GetCamera(id)
	if err != nil {
		return nil, err
	}
	if camera == nil {
		return nil, response.NotFound("Cámara no encontrada.")
	}

	if in.Name != camera.Name {
		duplicate, err := m.db.FindCameraByName(camera.RoomID, in.Name)
		if err != nil {
			return nil, err
		}
		if duplicate != nil && duplicate.ID != camera.ID {
			return nil, response.Conflict("Ya existe una cámara con ese nombre en la sala.")
		}
	}

	camera.Name = in.Name
	if in.Active != nil {
		camera.Active = *in.Active
	}
	if in.HasPTZ != nil {
		camera.HasPTZ = *in.HasPTZ
	}

	var auth *database.AuthCamera
	if in.Auth != nil {
		updated := toAuthCamera(camera.AuthCameraID, *in.Auth)
		auth = &updated
	}

	if err := m.db.UpdateCamera(*camera, auth); err != nil {
		return nil, err
	}

	if in.Movements != nil {
		if err := validateMovements(in.Movements); err != nil {
			return nil, err
		}
		if err := m.db.ReplaceMovements(camera.ID, toMovements(camera.ID, in.Movements)); err != nil {
			return nil, err
		}
	}

	if auth != nil {
		if err := m.generator.Update(camera.ID, rtspURL(*auth)); err != nil {
			log.Printf("cameras : error updating stream process for camera %s: %v", camera.ID, err)
			return nil, response.Internal("No se pudo actualizar la definición de streaming de la cámara.")
		}
	}

	log.Printf("cameras : updated camera %s", camera.ID)
	return m.Get(camera.ID)
}

// Remove deletes a camera and its stream process definition. Deletion is
// refused while the camera serves a current online record; artifact removal
// after the record deletion is best-effort.
func (m *CameraManager) Remove(id string) error {
	camera, err := m.db.GetCamera(id)
	if err != nil {
		return err
	}
	if camera == nil {
		return response.NotFound("Cámara no encontrada.")
	}

	online, err := m.db.GetCurrentCameraOnline(id)
	if err != nil {
		return err
	}
	if online != nil {
		return response.Conflict("No se puede eliminar una cámara con un servicio de streaming activo.")
	}

	if err := m.db.DeleteCamera(id); err != nil {
		return err
	}

	if err := m.generator.Remove(id); err != nil && !errors.Is(err, streamproc.ErrNotFound) {
		log.Printf("cameras : error removing stream process for camera %s: %v", id, err)
	}

	log.Printf("cameras : removed camera %s", id)
	return nil
}

// CameraFail records a transcoding pipeline failure reported by the camera's
// stream script: the current online record goes FAIL with the reported detail
// and support is notified. A camera without a current record is rejected
// without sending mail.
func (m *CameraManager) CameraFail(id, message string) error {
	camera, err := m.db.GetCamera(id)
	if err != nil {
		return err
	}
	if camera == nil {
		return response.NotFound("Cámara no encontrada.")
	}

	online, err := m.db.GetCurrentCameraOnline(id)
	if err != nil {
		return err
	}
	if online == nil {
		return response.NotFound("La cámara no tiene un servicio de streaming activo.")
	}

	if err := m.db.MarkCameraOnlineFail(id, message); err != nil {
		return err
	}

	log.Printf("cameras : camera %s reported stream failure: %s", id, message)
	m.notifyFailure(camera, message)
	return nil
}

// notifyFailure emails support about a camera stream failure. Send errors
// are logged and swallowed; the FAIL record mutation already happened.
func (m *CameraManager) notifyFailure(camera *database.Camera, message string) {
	if m.mail == nil || m.supportEmail == "" {
		return
	}

	html := m.mail.RenderTemplate(mailer.TemplateData{
		Title:       "Fallo en la Cámara",
		Subtitle:    fmt.Sprintf("La cámara %s ha reportado un fallo de streaming", camera.Name),
		Description: fmt.Sprintf("Mensaje: %s", message),
		Footer:      "Por favor, revisa la cámara y su conexión.",
	})

	if err := m.mail.Send(m.supportEmail, "Notificación de Fallo de Streaming", html); err != nil {
		log.Printf("cameras : error sending failure notification for camera %s: %v", camera.ID, err)
	}
}

func validateMovements(movements []MovementInput) error {
	names := make(map[string]bool)
	orders := make(map[int]bool)
	for _, m := range movements {
		if names[m.Name] || orders[m.Order] {
			return response.BadRequest("Los movimientos PTZ contienen nombres u órdenes duplicados.")
		}
		names[m.Name] = true
		orders[m.Order] = true
	}
	return nil
}

func toAuthCamera(id string, in AuthInput) database.AuthCamera {
	return database.AuthCamera{
		ID:                   id,
		UserName:             in.UserName,
		Password:             in.Password,
		IPAddress:            in.IPAddress,
		RTSPPort:             in.RTSPPort,
		EndPointRTSP:         in.EndPointRTSP,
		HTTPPort:             in.HTTPPort,
		EndPointImagePreview: in.EndPointImagePreview,
	}
}

func toMovements(cameraID string, inputs []MovementInput) []database.MovementPTZ {
	movements := make([]database.MovementPTZ, 0, len(inputs))
	for _, in := range inputs {
		movements = append(movements, database.MovementPTZ{
			ID:        uuid.NewString(),
			Name:      in.Name,
			SortOrder: in.Order,
			EndPoint:  in.EndPoint,
			CameraID:  cameraID,
		})
	}
	return movements
}

// rtspURL assembles the camera's RTSP source URL from its auth descriptor.
func rtspURL(auth database.AuthCamera) string {
	return fmt.Sprintf("rtsp://%s:%s@%s:%s%s",
		auth.UserName, auth.Password, auth.IPAddress, auth.RTSPPort, auth.EndPointRTSP)
}
