package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/brainac/backend/pkg/apperr"
	"github.com/brainac/backend/pkg/config"
	"github.com/brainac/backend/pkg/response"
)

var errBadBody = apperr.Validation("Invalid request body")

// Errors writes failed responses. Causes are only exposed outside production.
type Errors struct {
	log    *zap.SugaredLogger
	expose bool
}

func NewErrors(cfg *config.Config, log *zap.SugaredLogger) *Errors {
	return &Errors{log: log, expose: !cfg.IsProd()}
}

func (e *Errors) Fail(c *gin.Context, err error) {
	response.Fail(c, e.log, err, e.expose)
}

// bind decodes the JSON body into req, failing the request on error.
func (e *Errors) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		e.Fail(c, apperr.Wrap(apperr.KindValidation, err, errBadBody.Msg))
		return false
	}
	return true
}

// bindQuery decodes the query string into req, failing the request on error.
func (e *Errors) bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		e.Fail(c, apperr.Wrap(apperr.KindValidation, err, "Invalid query parameters"))
		return false
	}
	return true
}
