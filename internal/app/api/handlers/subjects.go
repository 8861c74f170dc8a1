package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brainac/backend/internal/app/api/middleware"
	"github.com/brainac/backend/internal/app/service/catalog"
	"github.com/brainac/backend/pkg/response"
)

// @Summary      List subjects
// @Description  Subjects of the caller's class with unit and chapter counts.
// @Tags         Subjects
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  handlers.RespSubjects
// @Router       /api/subjects [get]
func ApiListSubjects(svc *catalog.Service, e *Errors) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.ListSubjects(c.Request.Context(), middleware.CurrentUser(c))
		if err != nil {
			e.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Get subject
// @Description  Subject with its units, chapters and videos in order.
// @Tags         Subjects
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Subject ID"
// @Success      200  {object}  handlers.RespOK
// @Failure      403  {object}  handlers.RespError
// @Failure      404  {object}  handlers.RespError
// @Router       /api/subjects/{id} [get]
func ApiGetSubject(svc *catalog.Service, e *Errors) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.Subject(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
		if err != nil {
			e.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Subject videos
// @Tags         Subjects
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Subject ID"
// @Success      200  {object}  handlers.RespOK
// @Failure      403  {object}  handlers.RespError
// @Router       /api/subjects/{id}/videos [get]
func ApiSubjectVideos(svc *catalog.Service, e *Errors) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.SubjectVideos(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
		if err != nil {
			e.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      All videos of the caller's class
// @Tags         Subjects
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  handlers.RespOK
// @Failure      403  {object}  handlers.RespError
// @Router       /api/subjects/all/videos [get]
func ApiAllVideos(svc *catalog.Service, e *Errors) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.AllVideos(c.Request.Context(), middleware.CurrentUser(c))
		if err != nil {
			e.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Get video
// @Tags         Subjects
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Video ID"
// @Success      200  {object}  handlers.RespOK
// @Failure      403  {object}  handlers.RespError
// @Failure      404  {object}  handlers.RespError
// @Router       /api/subjects/videos/{id} [get]
func ApiGetVideo(svc *catalog.Service, e *Errors) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.Video(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
		if err != nil {
			e.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// RegisterSubjectRoutes expects r to be authenticated already; gate guards
// the video endpoints.
func RegisterSubjectRoutes(r gin.IRouter, svc *catalog.Service, e *Errors, gate gin.HandlerFunc) {
	r.GET("", ApiListSubjects(svc, e))
	r.GET("/:id", ApiGetSubject(svc, e))
	r.GET("/:id/videos", gate, ApiSubjectVideos(svc, e))
	r.GET("/all/videos", gate, ApiAllVideos(svc, e))
	r.GET("/videos/:id", gate, ApiGetVideo(svc, e))
}
