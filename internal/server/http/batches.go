package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"schoolmedia/internal/common"
	"schoolmedia/internal/logging"
	"schoolmedia/internal/server/ingest"
)

// BatchesHandler exposes batch uploads to the admin console: creation,
// progress polling, cancellation, and teardown of committed media.
type BatchesHandler struct {
	service *ingest.Service
	logger  logging.Logger
}

func NewBatchesHandler(service *ingest.Service, logger logging.Logger) *BatchesHandler {
	return &BatchesHandler{
		service: service,
		logger:  logger.With("handler", "batches"),
	}
}

func (h *BatchesHandler) Register(e *echo.Echo) {
	g := e.Group("/api/batches")
	g.POST("", h.CreateBatch)
	g.GET("/:id", h.GetBatch)
	g.POST("/:id/cancel", h.CancelBatch)
	g.DELETE("/:id", h.ForgetBatch)
}

type createBatchResponse struct {
	ID string `json:"id"`
}

// CreateBatch accepts a multipart form with metadata fields plus one "files"
// part per upload, and starts the batch asynchronously. The response carries
// the batch id; progress is polled through GetBatch.
func (h *BatchesHandler) CreateBatch(c echo.Context) error {
	form, err := c.MultipartForm()
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
	meta := ingest.Metadata{
		Entity:      c.FormValue("entity"),
		Album:       c.FormValue("album"),
		Year:        year,
		EventDate:   c.FormValue("event_date"),
		Description: c.FormValue("description"),
		CreatedBy:   currentUserName(c),
	}

	inputs := make([]ingest.ItemInput, 0, len(form.File["files"]))
	for _, fh := range form.File["files"] {
		f, err := fh.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		payload, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		inputs = append(inputs, ingest.ItemInput{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Payload:     payload,
		})
	}

	b, err := h.service.Start(c.Request().Context(), inputs, meta)
	if err != nil {
		if errors.Is(err, common.ErrorIncorrectMetadata) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusAccepted, createBatchResponse{ID: b.ID})
}

func (h *BatchesHandler) GetBatch(c echo.Context) error {
	st, err := h.service.Status(c.Param("id"))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "batch not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, st)
}

func (h *BatchesHandler) CancelBatch(c echo.Context) error {
	if err := h.service.Cancel(c.Param("id")); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "batch not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusAccepted)
}

func (h *BatchesHandler) ForgetBatch(c echo.Context) error {
	if err := h.service.Forget(c.Param("id")); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "batch not found")
		}
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
