package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/seminote/seminote/store"
)

type createTagRequest struct {
	Name string `json:"name"`
}

type updateTagRequest struct {
	Name *string `json:"name"`
}

func toTagResponse(t *store.Tag) tagResponse {
	return tagResponse{ID: t.ID.String(), Name: t.Name}
}

func (s *APIV1Service) getTag(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	tag, err := s.TagService.GetOwned(c.Request().Context(), ownerID(c), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, toTagResponse(tag))
}

func (s *APIV1Service) listTags(c echo.Context) error {
	tags, err := s.TagService.List(c.Request().Context(), ownerID(c))
	if err != nil {
		return mapError(err)
	}
	resp := make([]tagResponse, len(tags))
	for i, t := range tags {
		resp[i] = toTagResponse(t)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *APIV1Service) createTag(c echo.Context) error {
	var req createTagRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "malformed request body")
	}
	if err := validateTagNames([]string{req.Name}); err != nil {
		return err
	}

	tag, err := s.TagService.Create(c.Request().Context(), ownerID(c), req.Name)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, toTagResponse(tag))
}

func (s *APIV1Service) updateTag(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req updateTagRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "malformed request body")
	}
	if req.Name != nil {
		if err := validateTagNames([]string{*req.Name}); err != nil {
			return err
		}
	}

	if err := s.TagService.Update(c.Request().Context(), ownerID(c), id, req.Name); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *APIV1Service) deleteTag(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := s.TagService.Delete(c.Request().Context(), ownerID(c), id); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
