package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cactilog/internal/middleware"
	"github.com/iliyamo/cactilog/internal/model"
	"github.com/iliyamo/cactilog/internal/queue"
	"github.com/iliyamo/cactilog/internal/repository"
	"github.com/iliyamo/cactilog/internal/storage"
)

var errNoPhoto = errors.New(`multipart field "photo" is missing`)

// attachPhoto stores the "photo" form file and records it for plantID.
// The caller has checked that uid owns the plant.
func (h *PlantHandler) attachPhoto(c echo.Context, uid string, plantID int64) (*model.PlantPhoto, error) {
	fh, err := c.FormFile("photo")
	if err != nil {
		return nil, errNoPhoto
	}
	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	stored, err := h.Files.Save(src)
	if err != nil {
		return nil, err
	}
	photo := &model.PlantPhoto{
		PlantID:      plantID,
		Filename:     stored.Filename,
		OriginalName: fh.Filename,
		MimeType:     stored.MimeType,
		Size:         stored.Size,
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	if err := h.Photos.Create(ctx, photo); err != nil {
		_ = h.Files.Remove(stored.Filename)
		return nil, fmt.Errorf("record photo: %w", err)
	}
	h.publish(queue.PhotoUploaded, uid, photo.ID, plantID, "")
	return photo, nil
}

// uploadProblem is the client facing reason of a failed upload.
func uploadProblem(err error) string {
	switch {
	case errors.Is(err, storage.ErrTooLarge):
		return "file too large"
	case errors.Is(err, storage.ErrUnsupportedType):
		return "only JPEG, PNG, GIF, WebP and HEIC images are accepted"
	case errors.Is(err, errNoPhoto):
		return errNoPhoto.Error()
	}
	return "storage error"
}

// ListPhotos handles GET /api/plants/:id/photos.
func (h *PlantHandler) ListPhotos(c echo.Context) error {
	uid := middleware.UserID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	if _, err := h.Plants.GetByIDAndOwner(ctx, id, uid); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "plant")
		}
		return serverError(c, h.Log, "failed to fetch photos", err)
	}
	photos, err := h.Photos.ListByPlant(ctx, id, uid)
	if err != nil {
		return serverError(c, h.Log, "failed to fetch photos", err)
	}
	return c.JSON(http.StatusOK, photos)
}

// UploadPhoto handles POST /api/plants/:id/photos with a multipart "photo".
func (h *PlantHandler) UploadPhoto(c echo.Context) error {
	uid := middleware.UserID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := dbContext(c)
	_, err := h.Plants.GetByIDAndOwner(ctx, id, uid)
	cancel()
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(c, "plant")
	}
	if err != nil {
		return serverError(c, h.Log, "failed to upload photo", err)
	}

	photo, err := h.attachPhoto(c, uid, id)
	switch {
	case errors.Is(err, storage.ErrTooLarge):
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": uploadProblem(err)})
	case errors.Is(err, storage.ErrUnsupportedType), errors.Is(err, errNoPhoto):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": uploadProblem(err)})
	case err != nil:
		return serverError(c, h.Log, "failed to upload photo", err)
	}
	return c.JSON(http.StatusCreated, photo)
}

// ServePhoto handles GET /api/photos/:id/file.
func (h *PlantHandler) ServePhoto(c echo.Context) error {
	uid := middleware.UserID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	photo, err := h.Photos.GetByIDAndOwner(ctx, id, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(c, "photo")
	}
	if err != nil {
		return serverError(c, h.Log, "failed to fetch photo", err)
	}
	f, err := h.Files.Open(photo.Filename)
	if err != nil {
		h.Log.WithError(err).WithField("file", photo.Filename).Warn("photo row without file")
		return notFound(c, "photo")
	}
	defer f.Close()

	c.Response().Header().Set(echo.HeaderContentType, photo.MimeType)
	c.Response().Header().Set("Cache-Control", "private, max-age=86400")
	http.ServeContent(c.Response(), c.Request(), photo.OriginalName, photo.UploadedAt, f)
	return nil
}

// DeletePhoto handles DELETE /api/photos/:id.
func (h *PlantHandler) DeletePhoto(c echo.Context) error {
	uid := middleware.UserID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	photo, err := h.Photos.GetByIDAndOwner(ctx, id, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(c, "photo")
	}
	if err != nil {
		return serverError(c, h.Log, "failed to delete photo", err)
	}
	deleted, err := h.Photos.Delete(ctx, id, uid)
	if err != nil {
		return serverError(c, h.Log, "failed to delete photo", err)
	}
	if !deleted {
		return notFound(c, "photo")
	}
	if err := h.Files.Remove(photo.Filename); err != nil {
		h.Log.WithError(err).WithField("file", photo.Filename).Warn("orphaned photo file")
	}
	return c.NoContent(http.StatusNoContent)
}
