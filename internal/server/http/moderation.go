package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"schoolmedia/internal/common"
	"schoolmedia/internal/logging"
	"schoolmedia/internal/server/moderation"
	"schoolmedia/internal/server/repositories/staged"
)

// ModerationHandler exposes the pending-submission review queue to admins
// and the public submission intake.
type ModerationHandler struct {
	service *moderation.Service
	logger  logging.Logger
}

func NewModerationHandler(service *moderation.Service, logger logging.Logger) *ModerationHandler {
	return &ModerationHandler{
		service: service,
		logger:  logger.With("handler", "moderation"),
	}
}

func (h *ModerationHandler) Register(e *echo.Echo) {
	g := e.Group("/api/pending")
	g.GET("", h.ListPending)
	g.POST("/:id/approve", h.Approve)
	g.POST("/:id/reject", h.Reject)
	g.GET("/:id/blob", h.Blob)

	// Public intake, exempted from auth by the server's skipper.
	e.POST("/api/submissions", h.Submit)
}

func (h *ModerationHandler) ListPending(c echo.Context) error {
	f := staged.Filters{Entity: c.QueryParam("entity")}
	if v := c.QueryParam("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "year must be an integer")
		}
		f.Year = year
	}
	items, err := h.service.ListPending(c.Request().Context(), f)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *ModerationHandler) Approve(c echo.Context) error {
	if err := h.service.Approve(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "submission not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ModerationHandler) Reject(c echo.Context) error {
	if err := h.service.Reject(c.Request().Context(), c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// Blob streams the staged file back for the moderator's preview pane.
func (h *ModerationHandler) Blob(c echo.Context) error {
	blob, contentType, err := h.service.FetchBlob(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "submission not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return c.Blob(http.StatusOK, contentType, blob)
}

// Submit is the public upload path: one file plus declared metadata, parked
// for review. Nothing becomes visible on the site until an admin approves it.
func (h *ModerationHandler) Submit(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	blob, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	year := 0
	if v := c.FormValue("year"); v != "" {
		year, err = strconv.Atoi(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "year must be an integer")
		}
	}

	sub, err := h.service.Submit(c.Request().Context(), fh.Filename, fh.Header.Get("Content-Type"),
		blob, c.FormValue("entity"), year, c.FormValue("description"))
	if err != nil {
		if errors.Is(err, common.ErrorEmptyPayload) || errors.Is(err, common.ErrorIncorrectMetadata) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, sub)
}
