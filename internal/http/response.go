package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"addressbook/internal/apierr"
)

type APIError struct {
	Message string              `json:"message"`
	Code    string              `json:"code,omitempty"`
	Fields  []apierr.FieldError `json:"fields,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe) || strings.Contains(err.Error(), "request body too large")
}

// respondError aborts with the envelope for err. Errors outside the
// apierr taxonomy are logged and reported as a generic 500.
func (s *Server) respondError(c *gin.Context, err error) {
	if e, ok := apierr.As(err); ok {
		c.AbortWithStatusJSON(e.Status, ErrorEnvelope{Error: APIError{
			Message: err.Error(),
			Code:    e.Code,
			Fields:  e.Fields,
		}})
		return
	}
	if isTooLarge(err) {
		s.respondError(c, apierr.TooLarge(s.cfg.MaxUploadBytes()))
		return
	}
	s.log.Error("request failed", "path", c.Request.URL.Path, "error", err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorEnvelope{Error: APIError{
		Message: "internal server error",
		Code:    "internal_error",
	}})
}

func respondOK(c *gin.Context, status int, message string, payload gin.H) {
	body := gin.H{"message": message}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}
