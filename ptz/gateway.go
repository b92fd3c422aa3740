// Package ptz executes stored PTZ movement presets against a camera's
// embedded HTTP control API.
package ptz

import (
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"sedecam/database"
	"sedecam/response"
)

// Movement is the caller-facing view of a PTZ preset.
type Movement struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Gateway resolves movement descriptors and drives the camera's control API.
type Gateway struct {
	db     database.Database
	client *http.Client
}

// NewGateway builds a gateway with the given per-request timeout.
func NewGateway(db database.Database, timeout time.Duration) *Gateway {
	return &Gateway{
		db:     db,
		client: &http.Client{Timeout: timeout},
	}
}

// ListMovements returns the ordered movement presets of the camera serving
// the given service. Fail-closed: only currently active services expose
// their presets.
func (g *Gateway) ListMovements(serviceID string) ([]Movement, error) {
	svc, err := g.db.GetService(serviceID)
	if err != nil {
		return nil, err
	}
	if svc == nil {
		return nil, response.NotFound("Servicio no encontrado.")
	}
	if !svc.Current {
		return nil, response.NotFound("El servicio no está activo actualmente.")
	}

	camera, err := g.db.GetCameraByRoom(svc.RoomID)
	if err != nil {
		return nil, err
	}
	if camera == nil {
		return nil, response.NotFound("No hay una cámara asociada a esta sala.")
	}

	stored, err := g.db.ListMovementsByCamera(camera.ID)
	if err != nil {
		return nil, err
	}

	movements := make([]Movement, 0, len(stored))
	for _, m := range stored {
		movements = append(movements, Movement{ID: m.ID, Name: m.Name})
	}
	return movements, nil
}

// responseStatus is the camera's XML acknowledgement body.
type responseStatus struct {
	XMLName      xml.Name `xml:"ResponseStatus"`
	StatusCode   string   `xml:"statusCode"`
	StatusString string   `xml:"statusString"`
}

// Execute resolves a movement to its camera endpoint and issues the control
// request. Success is exactly statusCode "1" with statusString "OK"; any
// other acknowledgement surfaces the camera's own status string.
func (g *Gateway) Execute(movementID string) error {
	movement, err := g.db.GetMovement(movementID)
	if err != nil {
		return err
	}
	if movement == nil {
		return response.NotFound("Movimiento PTZ no encontrado.")
	}

	camera, err := g.db.GetCamera(movement.CameraID)
	if err != nil {
		return err
	}
	if camera == nil {
		return response.NotFound("Cámara no encontrada.")
	}

	auth, err := g.db.GetAuthCamera(camera.AuthCameraID)
	if err != nil {
		return err
	}
	if auth == nil {
		return response.NotFound("Credenciales de la cámara no encontradas.")
	}

	endpointURL := fmt.Sprintf("http://%s:%s%s", auth.IPAddress, auth.HTTPPort, movement.EndPoint)

	resp, err := g.putWithDigest(endpointURL, auth.UserName, auth.Password)
	if err != nil {
		if urlErr, ok := err.(*url.Error); ok && urlErr.Timeout() {
			return response.Timeout("Se agotó el tiempo de espera de la solicitud al ejecutar el movimiento PTZ.")
		}
		log.Printf("ptz : error executing movement %s: %v", movementID, err)
		return response.Internal("Se produjo un error al ejecutar el movimiento PTZ.")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return response.Unauthorized("La cámara rechazó las credenciales.")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("ptz : error reading camera response for movement %s: %v", movementID, err)
		return response.Internal("Se produjo un error al ejecutar el movimiento PTZ.")
	}

	var status responseStatus
	if err := xml.Unmarshal(body, &status); err != nil {
		log.Printf("ptz : malformed camera response for movement %s: %v", movementID, err)
		return response.BadRequest("La cámara devolvió una respuesta no válida.")
	}

	if status.StatusCode != "1" || status.StatusString != "OK" {
		return response.BadRequest(fmt.Sprintf("La cámara rechazó el movimiento: %s", status.StatusString))
	}

	return nil
}

// putWithDigest issues a PUT with HTTP digest authentication: an initial
// request to obtain the challenge, then the authenticated retry.
func (g *Gateway) putWithDigest(endpointURL, username, password string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPut, endpointURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}

	challenge := resp.Header.Get("WWW-Authenticate")
	if resp.StatusCode != http.StatusUnauthorized || challenge == "" {
		return resp, nil
	}
	resp.Body.Close()

	authHeader, err := buildDigestAuthorization(challenge, http.MethodPut, req.URL.RequestURI(), username, password)
	if err != nil {
		// Not a digest challenge; return the 401 as-is
		retry, retryErr := http.NewRequest(http.MethodPut, endpointURL, nil)
		if retryErr != nil {
			return nil, retryErr
		}
		return g.client.Do(retry)
	}

	authed, err := http.NewRequest(http.MethodPut, endpointURL, nil)
	if err != nil {
		return nil, err
	}
	authed.Header.Set("Authorization", authHeader)
	return g.client.Do(authed)
}
