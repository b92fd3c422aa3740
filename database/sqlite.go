package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteDB implements the Database interface using SQLite
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB creates a new SQLite database instance
func NewSQLiteDB(dbPath string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %v", err)
	}

	if err := initTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize tables: %v", err)
	}

	return &SQLiteDB{db: db}, nil
}

// initTables creates the necessary tables if they don't exist. Schedule
// fields are stored as unix seconds so window comparisons are zone-safe.
func initTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS headquarters (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			active INTEGER NOT NULL DEFAULT 1
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS rooms (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			active INTEGER NOT NULL DEFAULT 1,
			headquarter_id TEXT NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS auth_cameras (
			id TEXT PRIMARY KEY,
			user_name TEXT NOT NULL,
			password TEXT NOT NULL,
			ip_address TEXT NOT NULL,
			rtsp_port TEXT,
			end_point_rtsp TEXT,
			http_port TEXT,
			end_point_image_preview TEXT
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS cameras (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			active INTEGER NOT NULL DEFAULT 1,
			has_ptz INTEGER NOT NULL DEFAULT 0,
			room_id TEXT NOT NULL,
			auth_camera_id TEXT
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS movements_ptz (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			sort_order INTEGER NOT NULL,
			end_point TEXT NOT NULL,
			camera_id TEXT NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS services (
			id TEXT PRIMARY KEY,
			room_id TEXT NOT NULL,
			has_streaming INTEGER NOT NULL DEFAULT 0,
			start_at INTEGER NOT NULL,
			end_at INTEGER NOT NULL,
			is_current INTEGER NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS camera_onlines (
			id TEXT PRIMARY KEY,
			camera_id TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'OFFLINE',
			is_current INTEGER NOT NULL DEFAULT 0,
			description_status TEXT,
			end_point_streaming TEXT,
			password TEXT
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_services_window ON services (start_at, end_at, is_current)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_camera_onlines_camera ON camera_onlines (camera_id)
	`)
	return err
}

// CreateHeadquarter inserts a new headquarter record
func (s *SQLiteDB) CreateHeadquarter(hq Headquarter) error {
	_, err := s.db.Exec(`
		INSERT INTO headquarters (id, name, active) VALUES (?, ?, ?)
	`, hq.ID, hq.Name, hq.Active)
	if err != nil {
		return fmt.Errorf("failed to create headquarter: %v", err)
	}
	return nil
}

// GetHeadquarter retrieves a headquarter by its ID
func (s *SQLiteDB) GetHeadquarter(id string) (*Headquarter, error) {
	var hq Headquarter
	err := s.db.QueryRow(`
		SELECT id, name, active FROM headquarters WHERE id = ?
	`, id).Scan(&hq.ID, &hq.Name, &hq.Active)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get headquarter: %v", err)
	}
	return &hq, nil
}

// CreateRoom inserts a new room record
func (s *SQLiteDB) CreateRoom(room Room) error {
	_, err := s.db.Exec(`
		INSERT INTO rooms (id, name, active, headquarter_id) VALUES (?, ?, ?, ?)
	`, room.ID, room.Name, room.Active, room.HeadquarterID)
	if err != nil {
		return fmt.Errorf("failed to create room: %v", err)
	}
	return nil
}

// GetRoom retrieves a room by its ID
func (s *SQLiteDB) GetRoom(id string) (*Room, error) {
	var room Room
	err := s.db.QueryRow(`
		SELECT id, name, active, headquarter_id FROM rooms WHERE id = ?
	`, id).Scan(&room.ID, &room.Name, &room.Active, &room.HeadquarterID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %v", err)
	}
	return &room, nil
}

// CreateCamera inserts a camera with its auth descriptor and PTZ movements
// in a single transaction
func (s *SQLiteDB) CreateCamera(camera Camera, auth AuthCamera, movements []MovementPTZ) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO auth_cameras (
			id, user_name, password, ip_address, rtsp_port,
			end_point_rtsp, http_port, end_point_image_preview
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, auth.ID, auth.UserName, auth.Password, auth.IPAddress, auth.RTSPPort,
		auth.EndPointRTSP, auth.HTTPPort, auth.EndPointImagePreview)
	if err != nil {
		return fmt.Errorf("failed to create auth camera: %v", err)
	}

	_, err = tx.Exec(`
		INSERT INTO cameras (id, name, active, has_ptz, room_id, auth_camera_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`, camera.ID, camera.Name, camera.Active, camera.HasPTZ, camera.RoomID, auth.ID)
	if err != nil {
		return fmt.Errorf("failed to create camera: %v", err)
	}

	for _, m := range movements {
		_, err = tx.Exec(`
			INSERT INTO movements_ptz (id, name, sort_order, end_point, camera_id)
			VALUES (?, ?, ?, ?, ?)
		`, m.ID, m.Name, m.SortOrder, m.EndPoint, camera.ID)
		if err != nil {
			return fmt.Errorf("failed to create PTZ movement: %v", err)
		}
	}

	return tx.Commit()
}

func scanCamera(row interface{ Scan(...interface{}) error }) (*Camera, error) {
	var camera Camera
	var authCameraID sql.NullString
	err := row.Scan(&camera.ID, &camera.Name, &camera.Active, &camera.HasPTZ,
		&camera.RoomID, &authCameraID)
	if err != nil {
		return nil, err
	}
	if authCameraID.Valid {
		camera.AuthCameraID = authCameraID.String
	}
	return &camera, nil
}

// GetCamera retrieves a camera by its ID
func (s *SQLiteDB) GetCamera(id string) (*Camera, error) {
	camera, err := scanCamera(s.db.QueryRow(`
		SELECT id, name, active, has_ptz, room_id, auth_camera_id
		FROM cameras WHERE id = ?
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get camera: %v", err)
	}
	return camera, nil
}

// GetCameraByRoom retrieves the camera attached to a room, if any
func (s *SQLiteDB) GetCameraByRoom(roomID string) (*Camera, error) {
	camera, err := scanCamera(s.db.QueryRow(`
		SELECT id, name, active, has_ptz, room_id, auth_camera_id
		FROM cameras WHERE room_id = ? LIMIT 1
	`, roomID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get camera by room: %v", err)
	}
	return camera, nil
}

// FindCameraByName retrieves a camera by name within a room
func (s *SQLiteDB) FindCameraByName(roomID, name string) (*Camera, error) {
	camera, err := scanCamera(s.db.QueryRow(`
		SELECT id, name, active, has_ptz, room_id, auth_camera_id
		FROM cameras WHERE room_id = ? AND name = ? LIMIT 1
	`, roomID, name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find camera by name: %v", err)
	}
	return camera, nil
}

// ListCameras retrieves cameras with pagination, ordered by name
func (s *SQLiteDB) ListCameras(limit, offset int) ([]Camera, error) {
	rows, err := s.db.Query(`
		SELECT id, name, active, has_ptz, room_id, auth_camera_id
		FROM cameras ORDER BY name ASC LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list cameras: %v", err)
	}
	defer rows.Close()

	var cameras []Camera
	for rows.Next() {
		camera, err := scanCamera(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan camera row: %v", err)
		}
		cameras = append(cameras, *camera)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after scanning rows: %v", err)
	}
	return cameras, nil
}

// CountCameras returns the total number of cameras
func (s *SQLiteDB) CountCameras() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM cameras`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count cameras: %v", err)
	}
	return count, nil
}

// ListCameraIDs returns the ids of every camera
func (s *SQLiteDB) ListCameraIDs() ([]string, error) {
	rows, err := s.db.Query(`SELECT id FROM cameras`)
	if err != nil {
		return nil, fmt.Errorf("failed to list camera ids: %v", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan camera id: %v", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after scanning rows: %v", err)
	}
	return ids, nil
}

// UpdateCamera updates a camera and optionally its auth descriptor in a
// single transaction
func (s *SQLiteDB) UpdateCamera(camera Camera, auth *AuthCamera) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		UPDATE cameras SET name = ?, active = ?, has_ptz = ?, room_id = ?
		WHERE id = ?
	`, camera.Name, camera.Active, camera.HasPTZ, camera.RoomID, camera.ID)
	if err != nil {
		return fmt.Errorf("failed to update camera: %v", err)
	}

	if auth != nil {
		_, err = tx.Exec(`
			UPDATE auth_cameras SET
				user_name = ?, password = ?, ip_address = ?, rtsp_port = ?,
				end_point_rtsp = ?, http_port = ?, end_point_image_preview = ?
			WHERE id = ?
		`, auth.UserName, auth.Password, auth.IPAddress, auth.RTSPPort,
			auth.EndPointRTSP, auth.HTTPPort, auth.EndPointImagePreview, auth.ID)
		if err != nil {
			return fmt.Errorf("failed to update auth camera: %v", err)
		}
	}

	return tx.Commit()
}

// DeleteCamera removes a camera with its movements, online records and auth
// descriptor in a single transaction
func (s *SQLiteDB) DeleteCamera(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	var authCameraID sql.NullString
	err = tx.QueryRow(`SELECT auth_camera_id FROM cameras WHERE id = ?`, id).Scan(&authCameraID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("camera %s not found", id)
	}
	if err != nil {
		return fmt.Errorf("failed to get camera: %v", err)
	}

	if _, err = tx.Exec(`DELETE FROM movements_ptz WHERE camera_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete PTZ movements: %v", err)
	}
	if _, err = tx.Exec(`DELETE FROM camera_onlines WHERE camera_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete camera online records: %v", err)
	}
	if _, err = tx.Exec(`DELETE FROM cameras WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete camera: %v", err)
	}
	if authCameraID.Valid {
		if _, err = tx.Exec(`DELETE FROM auth_cameras WHERE id = ?`, authCameraID.String); err != nil {
			return fmt.Errorf("failed to delete auth camera: %v", err)
		}
	}

	return tx.Commit()
}

// GetAuthCamera retrieves an auth descriptor by its ID
func (s *SQLiteDB) GetAuthCamera(id string) (*AuthCamera, error) {
	var auth AuthCamera
	var rtspPort, endPointRTSP, httpPort, endPointImagePreview sql.NullString
	err := s.db.QueryRow(`
		SELECT id, user_name, password, ip_address, rtsp_port,
			end_point_rtsp, http_port, end_point_image_preview
		FROM auth_cameras WHERE id = ?
	`, id).Scan(&auth.ID, &auth.UserName, &auth.Password, &auth.IPAddress,
		&rtspPort, &endPointRTSP, &httpPort, &endPointImagePreview)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get auth camera: %v", err)
	}
	if rtspPort.Valid {
		auth.RTSPPort = rtspPort.String
	}
	if endPointRTSP.Valid {
		auth.EndPointRTSP = endPointRTSP.String
	}
	if httpPort.Valid {
		auth.HTTPPort = httpPort.String
	}
	if endPointImagePreview.Valid {
		auth.EndPointImagePreview = endPointImagePreview.String
	}
	return &auth, nil
}

// ListMovementsByCamera retrieves the PTZ movements of a camera ordered by
// sort order
func (s *SQLiteDB) ListMovementsByCamera(cameraID string) ([]MovementPTZ, error) {
	rows, err := s.db.Query(`
		SELECT id, name, sort_order, end_point, camera_id
		FROM movements_ptz WHERE camera_id = ? ORDER BY sort_order ASC
	`, cameraID)
	if err != nil {
		return nil, fmt.Errorf("failed to list PTZ movements: %v", err)
	}
	defer rows.Close()

	var movements []MovementPTZ
	for rows.Next() {
		var m MovementPTZ
		if err := rows.Scan(&m.ID, &m.Name, &m.SortOrder, &m.EndPoint, &m.CameraID); err != nil {
			return nil, fmt.Errorf("failed to scan PTZ movement row: %v", err)
		}
		movements = append(movements, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after scanning rows: %v", err)
	}
	return movements, nil
}

// GetMovement retrieves a PTZ movement by its ID
func (s *SQLiteDB) GetMovement(id string) (*MovementPTZ, error) {
	var m MovementPTZ
	err := s.db.QueryRow(`
		SELECT id, name, sort_order, end_point, camera_id
		FROM movements_ptz WHERE id = ?
	`, id).Scan(&m.ID, &m.Name, &m.SortOrder, &m.EndPoint, &m.CameraID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get PTZ movement: %v", err)
	}
	return &m, nil
}

// ReplaceMovements deletes a camera's PTZ movements and inserts the new set
// in a single transaction
func (s *SQLiteDB) ReplaceMovements(cameraID string, movements []MovementPTZ) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	if _, err = tx.Exec(`DELETE FROM movements_ptz WHERE camera_id = ?`, cameraID); err != nil {
		return fmt.Errorf("failed to delete PTZ movements: %v", err)
	}
	for _, m := range movements {
		_, err = tx.Exec(`
			INSERT INTO movements_ptz (id, name, sort_order, end_point, camera_id)
			VALUES (?, ?, ?, ?, ?)
		`, m.ID, m.Name, m.SortOrder, m.EndPoint, cameraID)
		if err != nil {
			return fmt.Errorf("failed to create PTZ movement: %v", err)
		}
	}

	return tx.Commit()
}

// CreateService inserts a new service record
func (s *SQLiteDB) CreateService(svc Service) error {
	_, err := s.db.Exec(`
		INSERT INTO services (id, room_id, has_streaming, start_at, end_at, is_current)
		VALUES (?, ?, ?, ?, ?, ?)
	`, svc.ID, svc.RoomID, svc.HasStreaming, svc.StartAt.Unix(), svc.EndAt.Unix(), svc.Current)
	if err != nil {
		return fmt.Errorf("failed to create service: %v", err)
	}
	return nil
}

func scanService(row interface{ Scan(...interface{}) error }) (*Service, error) {
	var svc Service
	var startAt, endAt int64
	err := row.Scan(&svc.ID, &svc.RoomID, &svc.HasStreaming, &startAt, &endAt, &svc.Current)
	if err != nil {
		return nil, err
	}
	svc.StartAt = time.Unix(startAt, 0)
	svc.EndAt = time.Unix(endAt, 0)
	return &svc, nil
}

// GetService retrieves a service by its ID
func (s *SQLiteDB) GetService(id string) (*Service, error) {
	svc, err := scanService(s.db.QueryRow(`
		SELECT id, room_id, has_streaming, start_at, end_at, is_current
		FROM services WHERE id = ?
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get service: %v", err)
	}
	return svc, nil
}

// UpdateService updates an existing service record
func (s *SQLiteDB) UpdateService(svc Service) error {
	_, err := s.db.Exec(`
		UPDATE services SET room_id = ?, has_streaming = ?, start_at = ?, end_at = ?, is_current = ?
		WHERE id = ?
	`, svc.RoomID, svc.HasStreaming, svc.StartAt.Unix(), svc.EndAt.Unix(), svc.Current, svc.ID)
	if err != nil {
		return fmt.Errorf("failed to update service: %v", err)
	}
	return nil
}

// FindOverlappingService returns a service in the same room whose
// [startAt, endAt) window overlaps the given one, excluding excludeID
func (s *SQLiteDB) FindOverlappingService(roomID string, startAt, endAt time.Time, excludeID string) (*Service, error) {
	svc, err := scanService(s.db.QueryRow(`
		SELECT id, room_id, has_streaming, start_at, end_at, is_current
		FROM services
		WHERE room_id = ? AND start_at < ? AND end_at > ? AND id != ?
		LIMIT 1
	`, roomID, endAt.Unix(), startAt.Unix(), excludeID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping service: %v", err)
	}
	return svc, nil
}

// listServicesWithCameras runs a service query and eagerly loads each
// service's room cameras through explicit keyed lookups
func (s *SQLiteDB) listServicesWithCameras(query string, args ...interface{}) ([]ServiceWithCameras, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query services: %v", err)
	}
	defer rows.Close()

	var services []ServiceWithCameras
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service row: %v", err)
		}
		services = append(services, ServiceWithCameras{Service: *svc})
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after scanning rows: %v", err)
	}

	for i := range services {
		cameras, err := s.listCamerasByRoom(services[i].RoomID)
		if err != nil {
			return nil, err
		}
		services[i].Cameras = cameras
	}
	return services, nil
}

func (s *SQLiteDB) listCamerasByRoom(roomID string) ([]Camera, error) {
	rows, err := s.db.Query(`
		SELECT id, name, active, has_ptz, room_id, auth_camera_id
		FROM cameras WHERE room_id = ?
	`, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cameras by room: %v", err)
	}
	defer rows.Close()

	var cameras []Camera
	for rows.Next() {
		camera, err := scanCamera(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan camera row: %v", err)
		}
		cameras = append(cameras, *camera)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after scanning rows: %v", err)
	}
	return cameras, nil
}

// ListActivatableServices returns streaming services whose window has been
// reached but are not yet current. The lower bound is inclusive: a service
// whose startAt equals now activates on this tick.
func (s *SQLiteDB) ListActivatableServices(now time.Time) ([]ServiceWithCameras, error) {
	return s.listServicesWithCameras(`
		SELECT id, room_id, has_streaming, start_at, end_at, is_current
		FROM services
		WHERE start_at <= ? AND end_at > ? AND has_streaming = 1 AND is_current = 0
	`, now.Unix(), now.Unix())
}

// ListDeactivatableServices returns streaming services whose window has
// passed but are still current. The bound is inclusive: a service whose
// endAt equals now deactivates on this tick.
func (s *SQLiteDB) ListDeactivatableServices(now time.Time) ([]ServiceWithCameras, error) {
	return s.listServicesWithCameras(`
		SELECT id, room_id, has_streaming, start_at, end_at, is_current
		FROM services
		WHERE end_at <= ? AND has_streaming = 1 AND is_current = 1
	`, now.Unix())
}

// ListCurrentStreamingServices returns every streaming service currently
// marked active, used by the desired-state reconcile pass
func (s *SQLiteDB) ListCurrentStreamingServices() ([]ServiceWithCameras, error) {
	return s.listServicesWithCameras(`
		SELECT id, room_id, has_streaming, start_at, end_at, is_current
		FROM services
		WHERE has_streaming = 1 AND is_current = 1
	`)
}

// ActivateServices marks the given services current and all their cameras'
// online records ONLINE in one transaction
func (s *SQLiteDB) ActivateServices(services []ServiceWithCameras) error {
	return s.flipServices(services, true, StatusOnline)
}

// DeactivateServices retires the given services and all their cameras'
// online records in one transaction
func (s *SQLiteDB) DeactivateServices(services []ServiceWithCameras) error {
	return s.flipServices(services, false, StatusOffline)
}

func (s *SQLiteDB) flipServices(services []ServiceWithCameras, current bool, status CameraOnlineStatus) error {
	if len(services) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	for _, svc := range services {
		if _, err = tx.Exec(`UPDATE services SET is_current = ? WHERE id = ?`, current, svc.ID); err != nil {
			return fmt.Errorf("failed to update service %s: %v", svc.ID, err)
		}
		for _, camera := range svc.Cameras {
			_, err = tx.Exec(`
				UPDATE camera_onlines SET status = ?, is_current = ? WHERE camera_id = ?
			`, status, current, camera.ID)
			if err != nil {
				return fmt.Errorf("failed to update online records for camera %s: %v", camera.ID, err)
			}
		}
	}

	return tx.Commit()
}

// CreateCameraOnline inserts a new camera online record
func (s *SQLiteDB) CreateCameraOnline(online CameraOnline) error {
	_, err := s.db.Exec(`
		INSERT INTO camera_onlines (
			id, camera_id, status, is_current, description_status,
			end_point_streaming, password
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`, online.ID, online.CameraID, online.Status, online.Current,
		online.DescriptionStatus, online.EndPointStreaming, online.Password)
	if err != nil {
		return fmt.Errorf("failed to create camera online record: %v", err)
	}
	return nil
}

// GetCurrentCameraOnline retrieves the camera's current online record, if any
func (s *SQLiteDB) GetCurrentCameraOnline(cameraID string) (*CameraOnline, error) {
	var online CameraOnline
	var descriptionStatus, endPointStreaming, password sql.NullString
	err := s.db.QueryRow(`
		SELECT id, camera_id, status, is_current, description_status,
			end_point_streaming, password
		FROM camera_onlines WHERE camera_id = ? AND is_current = 1 LIMIT 1
	`, cameraID).Scan(&online.ID, &online.CameraID, &online.Status, &online.Current,
		&descriptionStatus, &endPointStreaming, &password)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current camera online record: %v", err)
	}
	if descriptionStatus.Valid {
		online.DescriptionStatus = descriptionStatus.String
	}
	if endPointStreaming.Valid {
		online.EndPointStreaming = endPointStreaming.String
	}
	if password.Valid {
		online.Password = password.String
	}
	return &online, nil
}

// MarkCameraOnlineFail sets the camera's current online record to FAIL with
// the reported failure detail
func (s *SQLiteDB) MarkCameraOnlineFail(cameraID, message string) error {
	_, err := s.db.Exec(`
		UPDATE camera_onlines SET status = ?, description_status = ?
		WHERE camera_id = ? AND is_current = 1
	`, StatusFail, message, cameraID)
	if err != nil {
		return fmt.Errorf("failed to mark camera online record as failed: %v", err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}
