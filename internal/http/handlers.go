package http

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"

	"addressbook/internal/apierr"
	"addressbook/internal/config"
	"addressbook/internal/contacts"
	"addressbook/internal/dbctx"
	"addressbook/internal/identity"
	"addressbook/internal/logger"
	"addressbook/internal/session"
	"addressbook/internal/transcoder"
)

//go:embed schemas/contact_input.schema.json
var contactSchemaJSON []byte

type Deps struct {
	Config     *config.Config
	Log        *logger.Logger
	Users      identity.Store
	Avatars    *identity.AvatarService
	Contacts   contacts.Repository
	Transcoder *transcoder.Transcoder
	Sessions   *session.Manager
}

type Server struct {
	cfg           *config.Config
	log           *logger.Logger
	contactSchema *gojsonschema.Schema
	users         identity.Store
	avatars       *identity.AvatarService
	contacts      contacts.Repository
	transcoder    *transcoder.Transcoder
	sessions      *session.Manager
}

var tagNameOnce sync.Once

// useJSONFieldNames makes validator errors report json names, not Go names.
func useJSONFieldNames() {
	tagNameOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(func(f reflect.StructField) string {
				name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
				if name == "-" {
					return ""
				}
				return name
			})
		}
	})
}

func NewServer(d Deps) (*gin.Engine, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(contactSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("load contact schema: %w", err)
	}
	useJSONFieldNames()

	s := &Server{
		cfg:           d.Config,
		log:           d.Log.With("component", "http"),
		contactSchema: schema,
		users:         d.Users,
		avatars:       d.Avatars,
		contacts:      d.Contacts,
		transcoder:    d.Transcoder,
		sessions:      d.Sessions,
	}

	r := gin.New()
	r.MaxMultipartMemory = d.Config.MaxUploadBytes()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware(d.Config.AllowOrigins))
	r.Use(requestLogger(s.log))
	r.Use(s.bodyLimit(d.Config.MaxUploadBytes()))

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })
	r.GET("/uploads/:key", s.serveUpload)

	r.POST("/v1/auth/register", s.authRegister)
	r.POST("/v1/auth/login", s.authLogin)

	authorized := r.Group("/v1")
	authorized.Use(s.AuthMiddleware())
	{
		authorized.POST("/auth/logout", s.authLogout)
		authorized.GET("/me", s.me)
		authorized.POST("/user/avatar", s.uploadAvatar)

		authorized.GET("/contacts", s.listContacts)
		authorized.POST("/contacts", s.createContact)
		authorized.GET("/contacts/:id", s.getContact)
		authorized.PUT("/contacts/:id", s.editContact)
		authorized.DELETE("/contacts/:id", s.deleteContact)
		authorized.POST("/contacts/:id/bookmark", s.toggleBookmark)

		authorized.GET("/export", s.exportContacts)
		authorized.POST("/import", s.importContacts)
	}
	return r, nil
}

func requestDB(c *gin.Context) dbctx.Context {
	return dbctx.New(c.Request.Context())
}

// contactForm accepts the HTML form shape (parallel method_type[] and
// method_value[] lists) and its JSON equivalent.
type contactForm struct {
	Name         string                 `form:"name" json:"name"`
	MethodTypes  []string               `form:"method_type[]" json:"method_type"`
	MethodValues []string               `form:"method_value[]" json:"method_value"`
	Methods      []contacts.MethodInput `form:"-" json:"methods"`
}

func (f contactForm) input() contacts.Input {
	in := contacts.Input{Name: f.Name, Methods: contacts.Pairs(f.MethodTypes, f.MethodValues)}
	in.Methods = append(in.Methods, f.Methods...)
	return in
}

func (s *Server) bindContact(c *gin.Context) (contacts.Input, error) {
	var form contactForm
	if c.ContentType() != binding.MIMEJSON {
		if err := c.ShouldBind(&form); err != nil {
			return contacts.Input{}, apierr.Validation(apierr.FieldError{Field: "body", Message: err.Error()})
		}
		return form.input(), nil
	}

	raw, err := c.GetRawData()
	if err != nil {
		return contacts.Input{}, err
	}
	res, err := s.contactSchema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return contacts.Input{}, apierr.Validation(apierr.FieldError{Field: "body", Message: "malformed JSON"})
	}
	if !res.Valid() {
		fields := make([]apierr.FieldError, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			fields = append(fields, apierr.FieldError{Field: e.Field(), Message: e.Description()})
		}
		return contacts.Input{}, apierr.Validation(fields...)
	}
	if err := json.Unmarshal(raw, &form); err != nil {
		return contacts.Input{}, apierr.Validation(apierr.FieldError{Field: "body", Message: err.Error()})
	}
	return form.input(), nil
}

func contactID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, apierr.Validation(apierr.FieldError{Field: "id", Message: "must be a positive integer"})
	}
	return uint(id), nil
}

func queryFlag(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}

func (s *Server) listContacts(c *gin.Context) {
	f := contacts.Filter{
		Search:         c.Query("search"),
		BookmarkedOnly: queryFlag(c.Query("bookmarked")),
	}
	list, err := s.contacts.List(requestDB(c), currentUserID(c), f)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contacts": list, "count": len(list)})
}

func (s *Server) createContact(c *gin.Context) {
	in, err := s.bindContact(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	contact, err := s.contacts.Create(requestDB(c), currentUserID(c), in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, "contact added", gin.H{"contact": contact})
}

func (s *Server) getContact(c *gin.Context) {
	id, err := contactID(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	contact, err := s.contacts.Get(requestDB(c), id, currentUserID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contact": contact})
}

func (s *Server) editContact(c *gin.Context) {
	id, err := contactID(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	in, err := s.bindContact(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	contact, err := s.contacts.Edit(requestDB(c), id, currentUserID(c), in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "contact updated", gin.H{"contact": contact})
}

func (s *Server) deleteContact(c *gin.Context) {
	id, err := contactID(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := s.contacts.Delete(requestDB(c), id, currentUserID(c)); err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "contact deleted", nil)
}

func (s *Server) toggleBookmark(c *gin.Context) {
	id, err := contactID(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	contact, err := s.contacts.ToggleBookmark(requestDB(c), id, currentUserID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "bookmark updated", gin.H{"contact": contact})
}
