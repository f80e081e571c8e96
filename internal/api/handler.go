package api

import (
	"errors"
	"time"

	"forecast-verifier/internal/reader"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Handler struct {
	reader *reader.SeriesReader
	logger *zap.Logger
}

func NewHandler(seriesReader *reader.SeriesReader, logger *zap.Logger) *Handler {
	return &Handler{
		reader: seriesReader,
		logger: logger,
	}
}

// GetRecords handles GET /api/v1/records
func (h *Handler) GetRecords(c *fiber.Ctx) error {
	series, err := h.reader.GetSeries(c.Context())
	if err != nil {
		return h.seriesError(c, err)
	}

	return c.JSON(fiber.Map{
		"count":   len(series),
		"records": series,
	})
}

// GetLatestRecord handles GET /api/v1/records/latest
func (h *Handler) GetLatestRecord(c *fiber.Ctx) error {
	series, err := h.reader.GetSeries(c.Context())
	if err != nil {
		return h.seriesError(c, err)
	}

	if len(series) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No records stored yet",
		})
	}

	// Series is sorted newest first
	return c.JSON(series[0])
}

// GetHealth handles GET /api/v1/health
func (h *Handler) GetHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now(),
		"uptime":    time.Since(startTime).String(),
	})
}

func (h *Handler) seriesError(c *fiber.Ctx, err error) error {
	var validationErr *reader.ValidationError
	if errors.As(err, &validationErr) {
		h.logger.Error("Record series failed validation",
			zap.Int64("record_id", int64(validationErr.RecordID)),
			zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Stored records failed validation",
			"details": err.Error(),
		})
	}

	h.logger.Error("Failed to read record series", zap.Error(err))

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error":   "Record store is unavailable",
		"details": err.Error(),
	})
}

var startTime = time.Now()
