package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"schoolmedia/internal/common"
	"schoolmedia/internal/logging"
	"schoolmedia/internal/server/gateway"
	"schoolmedia/internal/server/ingest"
	"schoolmedia/internal/server/repositories/media"
)

// MediaHandler serves committed media records: listing per screen, preview
// links, and explicit teardown.
type MediaHandler struct {
	service *ingest.Service
	repo    media.Repository
	gw      gateway.MediaGateway
	logger  logging.Logger
}

func NewMediaHandler(service *ingest.Service, repo media.Repository, gw gateway.MediaGateway, logger logging.Logger) *MediaHandler {
	return &MediaHandler{
		service: service,
		repo:    repo,
		gw:      gw,
		logger:  logger.With("handler", "media"),
	}
}

func (h *MediaHandler) Register(e *echo.Echo) {
	g := e.Group("/api/media")
	g.GET("", h.ListMedia)
	g.GET("/:id/url", h.PreviewURL)
	g.DELETE("/:id", h.DeleteMedia)
}

// ListMedia returns committed records for one screen, newest first.
// Query params: entity (required), year (optional filter).
func (h *MediaHandler) ListMedia(c echo.Context) error {
	entity := c.QueryParam("entity")
	if entity == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "entity is required")
	}
	year := 0
	if v := c.QueryParam("year"); v != "" {
		var err error
		year, err = strconv.Atoi(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "year must be an integer")
		}
	}
	records, err := h.repo.ListByEntity(c.Request().Context(), entity, year)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, records)
}

type previewURLResponse struct {
	URL string `json:"url"`
}

// PreviewURL hands out a short-lived presigned GET link for one record's blob.
func (h *MediaHandler) PreviewURL(c echo.Context) error {
	ctx := c.Request().Context()
	rec, err := h.repo.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "media record not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	url, err := h.gw.PresignGet(ctx, rec.MediaID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, previewURLResponse{URL: url})
}

// DeleteMedia removes one committed record and its blob by admin action.
func (h *MediaHandler) DeleteMedia(c echo.Context) error {
	if err := h.service.Teardown(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "media record not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
