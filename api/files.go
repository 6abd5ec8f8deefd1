package api

import (
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/nrtkbb/adbfm/logging"
	"github.com/nrtkbb/adbfm/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// uploadDirs is where an upload lands on the device when no path is given.
var uploadDirs = map[string]string{
	"image":    "/sdcard/Pictures/",
	"video":    "/sdcard/Movies/",
	"audio":    "/sdcard/Music/",
	"document": "/sdcard/Documents/",
}

const defaultUploadDir = "/sdcard/Download/"

// GetFile pulls a device file into the local cache, once, and sends it as
// an attachment.
func (h *Handler) GetFile(c echo.Context) error {
	ctx := c.Request().Context()
	tracer := otel.Tracer("api/handlers")
	ctx, span := tracer.Start(ctx, "GetFile")
	defer span.End()

	c.SetRequest(c.Request().WithContext(ctx))

	id, remote, local, name, err := h.cachedTarget(c)
	if err != nil {
		return h.fail(c, span, err)
	}
	span.SetAttributes(
		attribute.String("device_id", id),
		attribute.String("file_path", remote),
	)

	outcome, err := h.transfers.EnsureLocalCopy(ctx, id, remote, local)
	if err != nil {
		return h.fail(c, span, err)
	}
	span.SetAttributes(
		attribute.Bool("cached", outcome.Cached),
		attribute.Int64("size", outcome.SizeBytes),
	)

	return c.Attachment(outcome.LocalPath, name)
}

// GetThumbnail pulls the file like GetFile and answers with a scaled JPEG.
func (h *Handler) GetThumbnail(c echo.Context) error {
	ctx := c.Request().Context()
	tracer := otel.Tracer("api/handlers")
	ctx, span := tracer.Start(ctx, "GetThumbnail")
	defer span.End()

	c.SetRequest(c.Request().WithContext(ctx))

	id, remote, local, _, err := h.cachedTarget(c)
	if err != nil {
		return h.fail(c, span, err)
	}
	span.SetAttributes(
		attribute.String("device_id", id),
		attribute.String("file_path", remote),
	)

	outcome, err := h.transfers.EnsureLocalCopy(ctx, id, remote, local)
	if err != nil {
		return h.fail(c, span, err)
	}

	thumb, err := h.thumbnails.Thumbnail(ctx, outcome.LocalPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logging.FromContext(ctx).Warn("thumbnail failed", zap.String("local", outcome.LocalPath), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Thumbnail generation failed", Details: err.Error()})
	}

	c.Response().Header().Set("Cache-Control", "public, max-age=86400")
	return c.File(thumb)
}

// cachedTarget validates the query of a file or thumbnail request and
// resolves the local cache path.
func (h *Handler) cachedTarget(c echo.Context) (id, remote, local, name string, err error) {
	params, err := requireParams(c, "file_path", "category", "file_name")
	if err != nil {
		return "", "", "", "", err
	}
	remote, category, name := params[0], params[1], params[2]

	if id, err = h.getDeviceID(c); err != nil {
		return "", "", "", "", err
	}
	if local, err = h.storage.LocalPath(id, category, remote, name); err != nil {
		return "", "", "", "", err
	}
	return id, remote, local, name, nil
}

// Upload pushes a multipart "file" to the device. The destination is the
// path parameter when given, else a folder chosen by category.
func (h *Handler) Upload(c echo.Context) error {
	ctx := c.Request().Context()
	tracer := otel.Tracer("api/handlers")
	ctx, span := tracer.Start(ctx, "Upload")
	defer span.End()

	c.SetRequest(c.Request().WithContext(ctx))

	id, err := validateDeviceID(c.QueryParam("id"))
	if err != nil {
		span.RecordError(err)
		return err
	}

	remoteDir := c.QueryParam("path")
	if remoteDir == "" {
		remoteDir = defaultUploadDir
		if dir, ok := uploadDirs[c.QueryParam("category")]; ok {
			remoteDir = dir
		}
	}
	if !path.IsAbs(remoteDir) {
		span.RecordError(echo.ErrBadRequest)
		return echo.NewHTTPError(http.StatusBadRequest, "Upload path must be absolute")
	}
	span.SetAttributes(
		attribute.String("device_id", id),
		attribute.String("phone_dir", remoteDir),
	)

	fh, err := c.FormFile("file")
	if err != nil {
		span.RecordError(err)
		return echo.NewHTTPError(http.StatusBadRequest, "No file uploaded")
	}

	staged, err := h.storage.UploadPath(fh.Filename)
	if err != nil {
		return h.fail(c, span, err)
	}
	defer os.RemoveAll(filepath.Dir(staged))

	if err := saveUpload(fh, staged); err != nil {
		return h.fail(c, span, err)
	}

	remote, err := h.transfers.Push(ctx, id, staged, remoteDir)
	if err != nil {
		return h.fail(c, span, err)
	}
	span.SetAttributes(attribute.String("remote", remote))

	return c.JSON(http.StatusOK, UploadResponse{
		Filename: path.Base(remote),
		PhoneDir: path.Dir(remote) + "/",
	})
}

func saveUpload(fh *multipart.FileHeader, dst string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// DeleteFile removes a file from the device and logs the outcome to the
// transfer history.
func (h *Handler) DeleteFile(c echo.Context) error {
	ctx := c.Request().Context()
	tracer := otel.Tracer("api/handlers")
	ctx, span := tracer.Start(ctx, "DeleteFile")
	defer span.End()

	c.SetRequest(c.Request().WithContext(ctx))

	id, err := h.getDeviceID(c)
	if err != nil {
		span.RecordError(err)
		return err
	}
	params, err := requireParams(c, "data")
	if err != nil {
		span.RecordError(err)
		return err
	}
	target := params[0]
	span.SetAttributes(
		attribute.String("device_id", id),
		attribute.String("path", target),
	)

	rec := models.TransferRecord{
		DeviceID:   id,
		Direction:  models.DirectionDelete,
		RemotePath: target,
		Status:     models.StatusOK,
	}
	if err := h.devices.DeleteFile(ctx, id, target); err != nil {
		rec.Status = models.StatusFailed
		rec.Detail = err.Error()
		h.transfers.Record(ctx, rec)
		return h.fail(c, span, err)
	}
	h.transfers.Record(ctx, rec)

	return c.JSON(http.StatusOK, DeleteResponse{Deleted: target})
}

// StorageDir reports where pulled files are cached.
func (h *Handler) StorageDir(c echo.Context) error {
	dir, err := filepath.Abs(h.storage.Root)
	if err != nil {
		dir = h.storage.Root
	}
	return c.JSON(http.StatusOK, StorageDirResponse{StorageDir: dir})
}

// ListCache describes the files already pulled from one device.
func (h *Handler) ListCache(c echo.Context) error {
	ctx := c.Request().Context()
	tracer := otel.Tracer("api/handlers")
	ctx, span := tracer.Start(ctx, "ListCache")
	defer span.End()

	c.SetRequest(c.Request().WithContext(ctx))

	id, err := h.getDeviceID(c)
	if err != nil {
		span.RecordError(err)
		return err
	}
	span.SetAttributes(attribute.String("device_id", id))

	entries, err := h.storage.ListCached(id)
	if err != nil {
		return h.fail(c, span, err)
	}
	span.SetAttributes(attribute.Int("entry_count", len(entries)))

	return c.JSON(http.StatusOK, NewFileItems(entries))
}

// ListTransfers returns recent transfer history, optionally for one device.
func (h *Handler) ListTransfers(c echo.Context) error {
	ctx := c.Request().Context()
	tracer := otel.Tracer("api/handlers")
	ctx, span := tracer.Start(ctx, "ListTransfers")
	defer span.End()

	c.SetRequest(c.Request().WithContext(ctx))

	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			span.RecordError(echo.ErrBadRequest)
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid limit")
		}
		limit = n
	}
	id := c.QueryParam("id")
	span.SetAttributes(
		attribute.String("device_id", id),
		attribute.Int("limit", limit),
	)

	if h.ledger == nil {
		return c.JSON(http.StatusOK, []TransferItem{})
	}
	records, err := h.ledger.ListTransfers(ctx, id, limit)
	if err != nil {
		return h.fail(c, span, err)
	}
	return c.JSON(http.StatusOK, NewTransferItems(records))
}
