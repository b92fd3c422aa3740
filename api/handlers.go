package api

import (
	"net/http"
	"strconv"

	"sedecam/response"
	"sedecam/service"

	"github.com/gin-gonic/gin"
)

// ok writes a success envelope.
func ok(c *gin.Context, status int, message string, data ...interface{}) {
	c.JSON(status, response.Success(status, message, data...))
}

// fail writes the envelope for a business or internal error.
func fail(c *gin.Context, err error) {
	env := response.FromError(err)
	c.JSON(env.Status, env)
}

// badPayload writes a 400 envelope carrying the binding issue.
func badPayload(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response.Envelope{
		Ok:      false,
		Status:  http.StatusBadRequest,
		Message: "Cuerpo de la solicitud no válido.",
		Issues:  []string{err.Error()},
	})
}

func (s *Server) getHealth(c *gin.Context) {
	ok(c, http.StatusOK, "ok")
}

func (s *Server) createService(c *gin.Context) {
	var in service.ServiceInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badPayload(c, err)
		return
	}

	created, err := s.services.Create(in)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, "Servicio creado correctamente.", created)
}

func (s *Server) updateService(c *gin.Context) {
	var in service.ServiceInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badPayload(c, err)
		return
	}

	updated, err := s.services.Update(c.Param("id"), in)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Servicio actualizado correctamente.", updated)
}

func (s *Server) createCamera(c *gin.Context) {
	var in service.CreateCameraInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badPayload(c, err)
		return
	}

	created, err := s.cameras.Create(in)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, "Cámara creada correctamente.", created)
}

func (s *Server) listCameras(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "10"))

	cameras, meta, err := s.cameras.List(page, pageSize)
	if err != nil {
		fail(c, err)
		return
	}

	data := make([]interface{}, 0, len(cameras))
	for _, camera := range cameras {
		data = append(data, camera)
	}
	c.JSON(http.StatusOK, response.Envelope{
		Ok:     true,
		Status: http.StatusOK,
		Data:   data,
		Meta:   meta,
	})
}

func (s *Server) getCamera(c *gin.Context) {
	camera, err := s.cameras.Get(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", camera)
}

func (s *Server) updateCamera(c *gin.Context) {
	var in service.UpdateCameraInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badPayload(c, err)
		return
	}

	updated, err := s.cameras.Update(c.Param("id"), in)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Cámara actualizada correctamente.", updated)
}

func (s *Server) deleteCamera(c *gin.Context) {
	if err := s.cameras.Remove(c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Cámara eliminada correctamente.")
}

// cameraFail is the callback target of the generated stream scripts: the
// transcoding loop PATCHes here before retrying.
func (s *Server) cameraFail(c *gin.Context) {
	var in struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badPayload(c, err)
		return
	}

	if err := s.cameras.CameraFail(c.Param("id"), in.Message); err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Fallo registrado correctamente.")
}

func (s *Server) listPTZMovements(c *gin.Context) {
	movements, err := s.ptz.ListMovements(c.Param("serviceId"))
	if err != nil {
		fail(c, err)
		return
	}

	data := make([]interface{}, 0, len(movements))
	for _, m := range movements {
		data = append(data, m)
	}
	c.JSON(http.StatusOK, response.Envelope{
		Ok:     true,
		Status: http.StatusOK,
		Data:   data,
	})
}

func (s *Server) execPTZMovement(c *gin.Context) {
	if err := s.ptz.Execute(c.Param("movementId")); err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Movimiento PTZ ejecutado correctamente.")
}
