package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brainac/backend/internal/app/service/catalog"
	"github.com/brainac/backend/pkg/response"
)

// @Summary      List subjects (Admin)
// @Tags         Admin Content
// @Produce      json
// @Security     BearerAuth
// @Param        grade  query  int  false  "Class filter"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/admin/subjects [get]
func ApiAdminListSubjects(svc *catalog.Service, e *Errors) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.AdminListSubjects(c.Request.Context(), gradeQuery(c))
		if err != nil {
			e.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Create subject (Admin)
// @Tags         Admin Content
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body  catalog.SubjectInput  true  "Subject"
// @Success      201  {object}  handlers.RespOK
// @Failure      400  {object}  handlers.RespError
// @Router       /api/admin/subjects [post]
func ApiCreateSubject(svc *catalog.Service, e *Errors) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req catalog.SubjectInput
		if !e.bind(c, &req) {
			return
		}
		res, err := svc.CreateSubject(c.Request.Context(), &req)
		if err != nil {
			e.Fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, response.OKMsg(res, "Subject created successfully"))
	}
}

// @Summary      Update subject (Admin)
// @Tags         Admin Content
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        subjectId  path  string                true  "Subject ID"
// @Param        request    body  catalog.SubjectPatch  true  "Changed fields"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/admin/subjects/{subjectId} [put]
func ApiUpdateSubject(svc *catalog.Service, e *Errors) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req catalog.SubjectPatch
		if !e.bind(c, &req) {
			return
		}
		res, err := svc.UpdateSubject(c.Request.Context(), c.Param("subjectId"), &req)
		if err != nil {
			e.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKMsg(res, "Subject updated successfully"))
	}
}

// @Summary      Delete subject (Admin)
// @Description  Refused while the subject still has videos or units.
// @Tags         Admin Content
// @Produce      json
// @Security     BearerAuth
// @Param        subjectId  path  string  true  "Subject ID"
// @Success      200  {object}  handlers.RespOK
// @Failure      400  {object}  handlers.RespError
// @Router       /api/admin/subjects/{subjectId} [delete]
func ApiDeleteSubject(svc *catalog.Service, e *Errors) gin.HandlerFunc {
	return deleted(svc.DeleteSubject, "subjectId", "Subject deleted successfully", e)
}

// @Summary      List units (Admin)
// @Tags         Admin Content
// @Produce      json
// @Security     BearerAuth
// @Param        subjectId  path  string  true  "Subject ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/admin/subjects/{subjectId}/units [get]
func ApiListUnits(svc *catalog.Service, e *Errors) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.ListUnits(c.Request.Context(), c.Param("subjectId"))
		if err != nil {
			e.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Create unit (Admin)
// @Tags         Admin Content
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        subjectId  path  string             true  "Subject ID"
// @Param        request    body  catalog.UnitInput  true  "Unit"
// @Success      201  {object}  handlers.RespOK
// @Router       /api/admin/subjects/{subjectId}/units [post]
func ApiCreateUnit(svc *catalog.Service, e *Errors) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req catalog.UnitInput
		if !e.bind(c, &req) {
			return
		}
		res, err := svc.CreateUnit(c.Request.Context(), c.Param("subjectId"), &req)
		if err != nil {
			e.Fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, response.OKMsg(res, "Unit created successfully"))
	}
}

// @Summary      Update unit (Admin)
// @Tags         Admin Content
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        unitId   path  string             true  "Unit ID"
// @Param        request  body  catalog.NodePatch  true  "Changed fields"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/admin/units/{unitId} [put]
func ApiUpdateUnit(svc *catalog.Service, e *Errors) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req catalog.NodePatch
		if !e.bind(c, &req) {
			return
		}
		res, err := svc.UpdateUnit(c.Request.Context(), c.Param("unitId"), &req)
		if err != nil {
			e.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKMsg(res, "Unit updated successfully"))
	}
}

// @Summary      Delete unit (Admin)
// @Description  Refused while the unit still has chapters.
// @Tags         Admin Content
// @Produce      json
// @Security     BearerAuth
// @Param        unitId  path  string  true  "Unit ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/admin/units/{unitId} [delete]
func ApiDeleteUnit(svc *catalog.Service, e *Errors) gin.HandlerFunc {
	return deleted(svc.DeleteUnit, "unitId", "Unit deleted successfully", e)
}

// @Summary      List chapters (Admin)
// @Tags         Admin Content
// @Produce      json
// @Security     BearerAuth
// @Param        unitId  path  string  true  "Unit ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/admin/units/{unitId}/chapters [get]
func ApiListChapters(svc *catalog.Service, e *Errors) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.ListChapters(c.Request.Context(), c.Param("unitId"))
		if err != nil {
			e.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Create chapter (Admin)
// @Tags         Admin Content
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        unitId   path  string             true  "Unit ID"
// @Param        request  body  catalog.UnitInput  true  "Chapter"
// @Success      201  {object}  handlers.RespOK
// @Router       /api/admin/units/{unitId}/chapters [post]
func ApiCreateChapter(svc *catalog.Service, e *Errors) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req catalog.UnitInput
		if !e.bind(c, &req) {
			return
		}
		res, err := svc.CreateChapter(c.Request.Context(), c.Param("unitId"), &req)
		if err != nil {
			e.Fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, response.OKMsg(res, "Chapter created successfully"))
	}
}

// @Summary      Update chapter (Admin)
// @Tags         Admin Content
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        chapterId  path  string             true  "Chapter ID"
// @Param        request    body  catalog.NodePatch  true  "Changed fields"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/admin/chapters/{chapterId} [put]
func ApiUpdateChapter(svc *catalog.Service, e *Errors) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req catalog.NodePatch
		if !e.bind(c, &req) {
			return
		}
		res, err := svc.UpdateChapter(c.Request.Context(), c.Param("chapterId"), &req)
		if err != nil {
			e.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKMsg(res, "Chapter updated successfully"))
	}
}

// @Summary      Delete chapter (Admin)
// @Description  Refused while the chapter still has videos.
// @Tags         Admin Content
// @Produce      json
// @Security     BearerAuth
// @Param        chapterId  path  string  true  "Chapter ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/admin/chapters/{chapterId} [delete]
func ApiDeleteChapter(svc *catalog.Service, e *Errors) gin.HandlerFunc {
	return deleted(svc.DeleteChapter, "chapterId", "Chapter deleted successfully", e)
}

// @Summary      List videos (Admin)
// @Tags         Admin Content
// @Produce      json
// @Security     BearerAuth
// @Param        page     query  int     false  "Page, from 1"
// @Param        limit    query  int     false  "Page size, default 20"
// @Param        grade    query  int     false  "Class"
// @Param        subject  query  string  false  "Subject name"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/admin/videos [get]
func ApiAdminListVideos(svc *catalog.Service, e *Errors) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req catalog.VideoListRequest
		if !e.bindQuery(c, &req) {
			return
		}
		res, err := svc.AdminListVideos(c.Request.Context(), &req)
		if err != nil {
			e.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Create video in a chapter (Admin)
// @Tags         Admin Content
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        chapterId  path  string              true  "Chapter ID"
// @Param        request    body  catalog.VideoInput  true  "Video"
// @Success      201  {object}  handlers.RespOK
// @Router       /api/admin/chapters/{chapterId}/videos [post]
func ApiCreateVideo(svc *catalog.Service, e *Errors) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req catalog.VideoInput
		if !e.bind(c, &req) {
			return
		}
		res, err := svc.CreateVideo(c.Request.Context(), c.Param("chapterId"), &req)
		if err != nil {
			e.Fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, response.OKMsg(res, "Video created successfully"))
	}
}

// @Summary      Add video (Admin)
// @Description  Creates a video under the chapter named in the body.
// @Tags         Admin Content
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body  catalog.VideoInput  true  "Video with chapterId"
// @Success      201  {object}  handlers.RespOK
// @Router       /api/admin/videos [post]
func ApiAddVideo(svc *catalog.Service, e *Errors) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req catalog.VideoInput
		if !e.bind(c, &req) {
			return
		}
		res, err := svc.AddVideo(c.Request.Context(), &req)
		if err != nil {
			e.Fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, response.OKMsg(res, "Video added successfully"))
	}
}

// @Summary      Update video (Admin)
// @Tags         Admin Content
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        videoId  path  string              true  "Video ID"
// @Param        request  body  catalog.VideoPatch  true  "Changed fields"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/admin/videos/{videoId} [put]
func ApiUpdateVideo(svc *catalog.Service, e *Errors) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req catalog.VideoPatch
		if !e.bind(c, &req) {
			return
		}
		res, err := svc.UpdateVideo(c.Request.Context(), c.Param("videoId"), &req)
		if err != nil {
			e.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKMsg(res, "Video updated successfully"))
	}
}

// @Summary      Delete video (Admin)
// @Tags         Admin Content
// @Produce      json
// @Security     BearerAuth
// @Param        videoId  path  string  true  "Video ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/admin/videos/{videoId} [delete]
func ApiDeleteVideo(svc *catalog.Service, e *Errors) gin.HandlerFunc {
	return deleted(svc.DeleteVideo, "videoId", "Video deleted successfully", e)
}

func deleted(del func(context.Context, string) error, param, msg string, e *Errors) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := del(c.Request.Context(), c.Param(param)); err != nil {
			e.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKMsg[any](nil, msg))
	}
}

func registerAdminContentRoutes(r gin.IRouter, svc *catalog.Service, e *Errors) {
	r.GET("/subjects", ApiAdminListSubjects(svc, e))
	r.POST("/subjects", ApiCreateSubject(svc, e))
	r.PUT("/subjects/:subjectId", ApiUpdateSubject(svc, e))
	r.DELETE("/subjects/:subjectId", ApiDeleteSubject(svc, e))

	r.GET("/subjects/:subjectId/units", ApiListUnits(svc, e))
	r.POST("/subjects/:subjectId/units", ApiCreateUnit(svc, e))
	r.PUT("/units/:unitId", ApiUpdateUnit(svc, e))
	r.DELETE("/units/:unitId", ApiDeleteUnit(svc, e))

	r.GET("/units/:unitId/chapters", ApiListChapters(svc, e))
	r.POST("/units/:unitId/chapters", ApiCreateChapter(svc, e))
	r.PUT("/chapters/:chapterId", ApiUpdateChapter(svc, e))
	r.DELETE("/chapters/:chapterId", ApiDeleteChapter(svc, e))

	r.GET("/videos", ApiAdminListVideos(svc, e))
	r.POST("/videos", ApiAddVideo(svc, e))
	r.POST("/chapters/:chapterId/videos", ApiCreateVideo(svc, e))
	r.PUT("/videos/:videoId", ApiUpdateVideo(svc, e))
	r.DELETE("/videos/:videoId", ApiDeleteVideo(svc, e))
}
