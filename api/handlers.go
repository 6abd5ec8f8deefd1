package api

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/nrtkbb/adbfm/device"
	"github.com/nrtkbb/adbfm/logging"
	"github.com/nrtkbb/adbfm/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// GetDevice reports whether any device is attached. A failing bridge reads as
// "nothing connected".
func (h *Handler) GetDevice(c echo.Context) error {
	ctx := c.Request().Context()
	tracer := otel.Tracer("api/handlers")
	ctx, span := tracer.Start(ctx, "GetDevice")
	defer span.End()

	c.SetRequest(c.Request().WithContext(ctx))

	list, err := h.devices.ListConnectedDevices(ctx)
	if err != nil {
		span.RecordError(err)
		logging.FromContext(ctx).Warn("device listing failed", zap.Error(err))
		return c.JSON(http.StatusOK, DeviceStatus{Connected: false, Devices: []string{}})
	}
	span.SetAttributes(attribute.Int("device_count", len(list.DeviceIDs)))

	return c.JSON(http.StatusOK, DeviceStatus{Connected: list.Connected, Devices: list.DeviceIDs})
}

// DeviceInfo returns the model name, storage usage and battery level. Parts
// the device does not report come back zeroed.
func (h *Handler) DeviceInfo(c echo.Context) error {
	ctx := c.Request().Context()
	tracer := otel.Tracer("api/handlers")
	ctx, span := tracer.Start(ctx, "DeviceInfo")
	defer span.End()

	c.SetRequest(c.Request().WithContext(ctx))

	id, err := h.getDeviceID(c)
	if err != nil {
		span.RecordError(err)
		return err
	}
	span.SetAttributes(attribute.String("device_id", id))

	snap := h.devices.GetSnapshot(ctx, id)
	return c.JSON(http.StatusOK, DeviceInfo{
		CoverImg:             "/screenshot/" + url.PathEscape(id),
		PhoneName:            snap.DisplayName,
		StorageTotalSize:     snap.StorageTotalGB,
		StorageUseSize:       snap.StorageUsedGB,
		StorageAvailableSize: snap.StorageAvailableGB,
		BatteryUse:           snap.BatteryPercent,
	})
}

// Screenshot streams the device screen as PNG.
func (h *Handler) Screenshot(c echo.Context) error {
	ctx := c.Request().Context()
	tracer := otel.Tracer("api/handlers")
	ctx, span := tracer.Start(ctx, "Screenshot")
	defer span.End()

	c.SetRequest(c.Request().WithContext(ctx))

	id, err := validateDeviceID(c.Param("deviceId"))
	if err != nil {
		span.RecordError(err)
		return err
	}
	span.SetAttributes(attribute.String("device_id", id))

	png, err := h.devices.Screenshot(ctx, id)
	if err != nil {
		return h.fail(c, span, err)
	}
	span.SetAttributes(attribute.Int("bytes", len(png)))

	c.Response().Header().Set("Cache-Control", "no-store")
	return c.Blob(http.StatusOK, "image/png", png)
}

func (h *Handler) GetImages(c echo.Context) error {
	return h.listMedia(c, models.CategoryImage)
}

func (h *Handler) GetVideos(c echo.Context) error {
	return h.listMedia(c, models.CategoryVideo)
}

func (h *Handler) GetAudios(c echo.Context) error {
	return h.listMedia(c, models.CategoryAudio)
}

func (h *Handler) listMedia(c echo.Context, category models.Category) error {
	ctx := c.Request().Context()
	tracer := otel.Tracer("api/handlers")
	ctx, span := tracer.Start(ctx, "ListMedia")
	defer span.End()

	c.SetRequest(c.Request().WithContext(ctx))

	id, err := h.getDeviceID(c)
	if err != nil {
		span.RecordError(err)
		return err
	}
	span.SetAttributes(
		attribute.String("device_id", id),
		attribute.String("category", string(category)),
	)

	entries, err := h.devices.ListMedia(ctx, id, category)
	if err != nil {
		return h.fail(c, span, err)
	}
	span.SetAttributes(attribute.Int("entry_count", len(entries)))

	return c.JSON(http.StatusOK, NewMediaItems(entries))
}

// GetDocuments lists documents, packages or archives depending on
// document_type. An absent type means documents.
func (h *Handler) GetDocuments(c echo.Context) error {
	ctx := c.Request().Context()
	tracer := otel.Tracer("api/handlers")
	ctx, span := tracer.Start(ctx, "GetDocuments")
	defer span.End()

	c.SetRequest(c.Request().WithContext(ctx))

	id, err := h.getDeviceID(c)
	if err != nil {
		span.RecordError(err)
		return err
	}

	kind, err := device.ParseDocumentKind(c.QueryParam("document_type"))
	if err != nil {
		return h.fail(c, span, err)
	}
	span.SetAttributes(
		attribute.String("device_id", id),
		attribute.String("document_type", string(kind)),
	)

	entries, err := h.devices.ListDocuments(ctx, id, kind)
	if err != nil {
		return h.fail(c, span, err)
	}
	span.SetAttributes(attribute.Int("entry_count", len(entries)))

	return c.JSON(http.StatusOK, NewMediaItems(entries))
}

// GetFiles lists one device directory, /sdcard/ by default.
func (h *Handler) GetFiles(c echo.Context) error {
	ctx := c.Request().Context()
	tracer := otel.Tracer("api/handlers")
	ctx, span := tracer.Start(ctx, "GetFiles")
	defer span.End()

	c.SetRequest(c.Request().WithContext(ctx))

	id, err := h.getDeviceID(c)
	if err != nil {
		span.RecordError(err)
		return err
	}

	dir := c.QueryParam("path")
	if dir == "" {
		dir = device.DefaultDirectory
	}
	span.SetAttributes(
		attribute.String("device_id", id),
		attribute.String("path", dir),
	)

	entries, err := h.devices.ListDirectory(ctx, id, dir)
	if err != nil {
		return h.fail(c, span, err)
	}
	span.SetAttributes(attribute.Int("entry_count", len(entries)))

	return c.JSON(http.StatusOK, NewFileItems(entries))
}
