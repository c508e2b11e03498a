package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/seminote/seminote/server/service/note"
)

type tagResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type noteResponse struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Content string        `json:"content"`
	Tags    []tagResponse `json:"tags"`
}

type createNoteRequest struct {
	Name    string   `json:"name"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

type updateNoteRequest struct {
	Name    *string   `json:"name"`
	Content *string   `json:"content"`
	Tags    *[]string `json:"tags"`
}

func toNoteResponse(r *note.Result) noteResponse {
	resp := noteResponse{
		ID:      r.ID.String(),
		Name:    r.Name,
		Content: r.Content,
		Tags:    []tagResponse{},
	}
	for _, t := range r.Tags {
		resp.Tags = append(resp.Tags, tagResponse{ID: t.ID.String(), Name: t.Name})
	}
	return resp
}

func (s *APIV1Service) getNote(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	result, err := s.NoteService.Get(c.Request().Context(), ownerID(c), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, toNoteResponse(result))
}

func (s *APIV1Service) listNotes(c echo.Context) error {
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit", s.Profile.PageSize)
	if err != nil {
		return err
	}
	if offset > s.Profile.MaxOffset {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "offset out of range")
	}

	results, err := s.NoteService.Search(c.Request().Context(), ownerID(c), c.QueryParam("q"), offset, limit)
	if err != nil {
		return mapError(err)
	}

	resp := make([]noteResponse, len(results))
	for i, r := range results {
		resp[i] = toNoteResponse(r)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *APIV1Service) createNote(c echo.Context) error {
	var req createNoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "malformed request body")
	}
	if err := validateNoteFields(&req.Name, &req.Content); err != nil {
		return err
	}
	if err := validateTagNames(req.Tags); err != nil {
		return err
	}

	result, err := s.NoteService.Create(c.Request().Context(), ownerID(c), &note.CreateRequest{
		Name:    req.Name,
		Content: req.Content,
		Tags:    req.Tags,
	})
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, toNoteResponse(result))
}

func (s *APIV1Service) updateNote(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req updateNoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "malformed request body")
	}
	if err := validateNoteFields(req.Name, req.Content); err != nil {
		return err
	}
	if req.Tags != nil {
		if err := validateTagNames(*req.Tags); err != nil {
			return err
		}
	}

	if err := s.NoteService.Update(c.Request().Context(), ownerID(c), id, &note.UpdateRequest{
		Name:    req.Name,
		Content: req.Content,
		Tags:    req.Tags,
	}); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *APIV1Service) deleteNote(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := s.NoteService.Delete(c.Request().Context(), ownerID(c), id); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func validateNoteFields(name, content *string) error {
	if name != nil && (len(*name) < noteNameMinLength || len(*name) > noteNameMaxLength) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "name length out of range")
	}
	if content != nil && len(*content) > noteContentMaxLength {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "content too long")
	}
	return nil
}

func validateTagNames(names []string) error {
	for _, name := range names {
		if len(name) < tagNameMinLength || len(name) > tagNameMaxLength {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "tag name length out of range")
		}
	}
	return nil
}

func queryInt(c echo.Context, name string, fallback int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, echo.NewHTTPError(http.StatusUnprocessableEntity, name+" must be a non-negative integer")
	}
	return v, nil
}
