// Package v1 exposes the versioned JSON API.
package v1

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/seminote/seminote/internal/profile"
	serrors "github.com/seminote/seminote/server/internal/errors"
	"github.com/seminote/seminote/server/middleware"
	"github.com/seminote/seminote/server/service/note"
	"github.com/seminote/seminote/server/service/tag"
)

// Input bounds, enforced at the transport boundary as validation errors.
const (
	noteNameMinLength    = 1
	noteNameMaxLength    = 255
	noteContentMaxLength = 10000
	tagNameMinLength     = 1
	tagNameMaxLength     = 100
)

// ownerHeader carries the opaque owner identifier injected by the upstream
// authentication collaborator. Requests without it never reach the handlers.
const ownerHeader = "X-Owner-ID"

const ownerContextKey = "seminote/owner-id"

// APIV1Service registers the /api/v1 surface.
type APIV1Service struct {
	Profile     *profile.Profile
	NoteService *note.Service
	TagService  *tag.Service

	rateLimiter *middleware.RateLimiter
}

func NewAPIV1Service(profile *profile.Profile, noteService *note.Service, tagService *tag.Service) *APIV1Service {
	return &APIV1Service{
		Profile:     profile,
		NoteService: noteService,
		TagService:  tagService,
		rateLimiter: middleware.NewRateLimiter(profile.RateLimitRPS, profile.RateLimitBurst),
	}
}

// Register mounts the API group on the echo instance.
func (s *APIV1Service) Register(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.Use(s.ownerIdentity)
	g.Use(middleware.RateLimit(s.rateLimiter, func(c echo.Context) string {
		if owner, ok := c.Get(ownerContextKey).(uuid.UUID); ok {
			return owner.String()
		}
		return ""
	}))

	g.GET("/notes", s.listNotes)
	g.POST("/notes", s.createNote)
	g.GET("/notes/:id", s.getNote)
	g.PATCH("/notes/:id", s.updateNote)
	g.DELETE("/notes/:id", s.deleteNote)

	g.GET("/tags", s.listTags)
	g.POST("/tags", s.createTag)
	g.GET("/tags/:id", s.getTag)
	g.PATCH("/tags/:id", s.updateTag)
	g.DELETE("/tags/:id", s.deleteTag)
}

// ownerIdentity resolves the authenticated owner for the request.
func (s *APIV1Service) ownerIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := c.Request().Header.Get(ownerHeader)
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing owner identity")
		}
		owner, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid owner identity")
		}
		c.Set(ownerContextKey, owner)
		return next(c)
	}
}

func ownerID(c echo.Context) uuid.UUID {
	owner, _ := c.Get(ownerContextKey).(uuid.UUID)
	return owner
}

// pathID parses the :id path parameter.
func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnprocessableEntity, "malformed id")
	}
	return id, nil
}

// mapError converts taxonomy errors to transport status codes. NotFound and
// Forbidden propagate their detail message unchanged.
func mapError(err error) error {
	switch serrors.CodeOf(err) {
	case serrors.CodeNotFound:
		return echo.NewHTTPError(http.StatusNotFound, serrors.MessageOf(err))
	case serrors.CodeForbidden:
		return echo.NewHTTPError(http.StatusForbidden, serrors.MessageOf(err))
	case serrors.CodeInvalidArgument:
		return echo.NewHTTPError(http.StatusUnprocessableEntity, serrors.MessageOf(err))
	default:
		return err
	}
}
