package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"addressbook/internal/apierr"
	"addressbook/internal/identity"
	"addressbook/internal/models"
	"addressbook/internal/session"
)

type AuthResponse struct {
	Message string       `json:"message,omitempty"`
	Token   string       `json:"token,omitempty"`
	User    *models.User `json:"user"`
}

type registerRequest struct {
	Username        string `json:"username" form:"username" binding:"required,min=4,max=50"`
	Email           string `json:"email" form:"email" binding:"required,email,max=100"`
	Password        string `json:"password" form:"password" binding:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" binding:"required,eqfield=Password"`
}

type loginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}

// bindingError turns validator failures into per-field validation errors.
func bindingError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apierr.Validation(apierr.FieldError{Field: "body", Message: err.Error()})
	}
	fields := make([]apierr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apierr.FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return apierr.Validation(fields...)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "eqfield":
		return "must match password"
	default:
		return "is invalid"
	}
}

// POST /v1/auth/register
func (s *Server) authRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		s.respondError(c, bindingError(err))
		return
	}
	user, err := s.users.Register(c.Request.Context(), identity.RegisterInput{
		Username: strings.TrimSpace(req.Username),
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.log.Info("user registered", "user_id", user.ID)
	c.JSON(http.StatusCreated, AuthResponse{Message: "account created, please log in", User: user})
}

// POST /v1/auth/login
func (s *Server) authLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		s.respondError(c, bindingError(err))
		return
	}
	user, err := s.users.Authenticate(c.Request.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}
	token, _, err := s.sessions.Issue(user.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.setSessionCookie(c, token, int(s.sessions.TTL().Seconds()))
	c.JSON(http.StatusOK, AuthResponse{Message: "logged in", Token: token, User: user})
}

// POST /v1/auth/logout
func (s *Server) authLogout(c *gin.Context) {
	claims := c.MustGet(ctxSession).(session.Claims)
	if err := s.sessions.Revoke(c.Request.Context(), claims); err != nil {
		s.respondError(c, err)
		return
	}
	s.setSessionCookie(c, "", -1)
	respondOK(c, http.StatusOK, "logged out", nil)
}

// GET /v1/me
func (s *Server) me(c *gin.Context) {
	user := currentUser(c)
	n, err := s.contacts.CountByOwner(requestDB(c), user.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "contact_count": n})
}

func (s *Server) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(session.CookieName, value, maxAge, "/", "", s.cfg.CookieSecure, true)
}
