package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"addressbook/internal/apierr"
	"addressbook/internal/blobstore"
	"addressbook/internal/identity"
)

// POST /v1/user/avatar
func (s *Server) uploadAvatar(c *gin.Context) {
	fh, err := c.FormFile("avatar")
	if err != nil {
		if isTooLarge(err) {
			s.respondError(c, err)
			return
		}
		s.respondError(c, apierr.Validation(apierr.FieldError{Field: "avatar", Message: "no file uploaded"}))
		return
	}
	if !identity.AllowedAvatar(fh.Filename) {
		s.respondError(c, apierr.UnsupportedMedia("avatar must be png, jpg, jpeg or gif"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		s.respondError(c, err)
		return
	}
	defer f.Close()

	key, err := s.avatars.Upload(c.Request.Context(), currentUserID(c), fh.Filename, f)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "avatar updated", gin.H{"avatar": key, "url": "/uploads/" + key})
}

// GET /uploads/:key
func (s *Server) serveUpload(c *gin.Context) {
	key := c.Param("key")
	if !blobstore.ValidKey(key) {
		s.respondError(c, apierr.NotFound("file %s", key))
		return
	}
	rc, err := s.avatars.Open(c.Request.Context(), key)
	if err != nil {
		s.respondError(c, err)
		return
	}
	defer rc.Close()
	c.Header("Cache-Control", "private, max-age=300")
	c.DataFromReader(http.StatusOK, -1, blobstore.ContentTypeFor(key), rc, nil)
}
