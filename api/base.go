// Package api exposes the file manager over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"unicode"

	"github.com/labstack/echo/v4"
	"github.com/nrtkbb/adbfm/bridge"
	"github.com/nrtkbb/adbfm/device"
	"github.com/nrtkbb/adbfm/logging"
	"github.com/nrtkbb/adbfm/models"
	"github.com/nrtkbb/adbfm/storage"
	"github.com/nrtkbb/adbfm/thumbnail"
	"github.com/nrtkbb/adbfm/transfer"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// TransferLister reads the transfer history.
type TransferLister interface {
	ListTransfers(ctx context.Context, deviceID string, limit int) ([]models.TransferRecord, error)
}

// Services are the collaborators a Handler needs. Ledger may be nil.
type Services struct {
	Devices    *device.Service
	Transfers  *transfer.Service
	Storage    *storage.Storage
	Thumbnails *thumbnail.Generator
	Ledger     TransferLister
}

type Handler struct {
	devices    *device.Service
	transfers  *transfer.Service
	storage    *storage.Storage
	thumbnails *thumbnail.Generator
	ledger     TransferLister
}

func NewHandler(s Services) *Handler {
	return &Handler{
		devices:    s.Devices,
		transfers:  s.Transfers,
		storage:    s.Storage,
		thumbnails: s.Thumbnails,
		ledger:     s.Ledger,
	}
}

// ErrorResponse is the body of failed device and transfer requests.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// getDeviceID reads the device id from the query string or, for POST
// requests, from a JSON or form body.
func (h *Handler) getDeviceID(c echo.Context) (string, error) {
	id := c.QueryParam("id")
	if id == "" && c.Request().Method == http.MethodPost {
		var body struct {
			ID string `json:"id" form:"id"`
		}
		if err := (&echo.DefaultBinder{}).BindBody(c, &body); err == nil {
			id = body.ID
		}
	}
	return validateDeviceID(id)
}

func validateDeviceID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "Missing device ID")
	}
	if strings.HasPrefix(id, "-") || strings.IndexFunc(id, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) >= 0 {
		return "", echo.NewHTTPError(http.StatusBadRequest, "Invalid device ID")
	}
	return id, nil
}

// requireParams returns the named query parameters, or a 400 listing all of
// them when any is empty.
func requireParams(c echo.Context, names ...string) ([]string, error) {
	values := make([]string, len(names))
	for i, name := range names {
		values[i] = c.QueryParam(name)
		if values[i] == "" {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "Missing required parameters: "+strings.Join(names, ", "))
		}
	}
	return values, nil
}

// fail records err on the span and renders it. Bad input becomes a 400;
// bridge and transfer failures carry the process diagnostic.
func (h *Handler) fail(c echo.Context, span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	logging.FromContext(c.Request().Context()).Warn("request failed", zap.String("route", c.Path()), zap.Error(err))

	var (
		httpErr     *echo.HTTPError
		unsupported *device.UnsupportedCategoryError
		failure     *transfer.Failure
		procErr     *bridge.ProcessError
	)
	switch {
	case errors.As(err, &httpErr):
		return httpErr

	case errors.As(err, &unsupported),
		errors.Is(err, device.ErrInvalidPath),
		errors.Is(err, storage.ErrInvalidName):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())

	case errors.As(err, &failure):
		if failure.Missing {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "File not found after transfer attempt", Details: failure.Detail})
		}
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "File transfer failed", Details: failure.Detail})

	case errors.As(err, &procErr):
		span.SetAttributes(attribute.String("bridge.error_kind", string(procErr.Kind)))
		status := http.StatusInternalServerError
		if procErr.Kind == bridge.KindTimeout {
			status = http.StatusGatewayTimeout
		}
		details := procErr.Diagnostic()
		if details == "" {
			details = procErr.Error()
		}
		return c.JSON(status, ErrorResponse{Error: "ADB command failed", Details: details})

	default:
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error", Details: err.Error()})
	}
}
