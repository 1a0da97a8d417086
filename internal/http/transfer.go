package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"addressbook/internal/apierr"
	"addressbook/internal/transcoder"
)

// GET /v1/export
func (s *Server) exportContacts(c *gin.Context) {
	data, err := s.transcoder.Export(requestDB(c), currentUserID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", transcoder.ExportFilename))
	c.Data(http.StatusOK, transcoder.ContentType, data)
}

// POST /v1/import
func (s *Server) importContacts(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		if isTooLarge(err) {
			s.respondError(c, err)
			return
		}
		s.respondError(c, apierr.Validation(apierr.FieldError{Field: "file", Message: "no file uploaded"}))
		return
	}
	if fh.Filename == "" {
		s.respondError(c, apierr.Validation(apierr.FieldError{Field: "file", Message: "no file selected"}))
		return
	}
	if !transcoder.AllowedExtension(fh.Filename) {
		s.respondError(c, apierr.UnsupportedMedia("only .xlsx and .xls files are accepted"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		s.respondError(c, err)
		return
	}
	defer f.Close()

	n, err := s.transcoder.Import(requestDB(c), currentUserID(c), f)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, fmt.Sprintf("%d contacts imported", n), gin.H{"imported": n})
}
