package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cactilog/internal/middleware"
	"github.com/iliyamo/cactilog/internal/model"
	"github.com/iliyamo/cactilog/internal/queue"
	"github.com/iliyamo/cactilog/internal/repository"
	"github.com/iliyamo/cactilog/internal/service"
)

// PlantHandler serves plants and everything hanging off a plant: growth
// records and photos.
type PlantHandler struct {
	Plants PlantStore
	Growth GrowthStore
	Photos PhotoStore
	Files  FileStore
	Events service.Publisher
	Log    logrus.FieldLogger
}

// ListPlants handles GET /api/plants?search=&type=&genus=.
func (h *PlantHandler) ListPlants(c echo.Context) error {
	uid := middleware.UserID(c)
	if uid == "" {
		return unauthorized(c)
	}
	f := model.PlantFilter{
		Search: strings.TrimSpace(c.QueryParam("search")),
		Type:   strings.ToLower(strings.TrimSpace(c.QueryParam("type"))),
		Genus:  strings.TrimSpace(c.QueryParam("genus")),
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	plants, err := h.Plants.List(ctx, uid, f)
	if err != nil {
		return serverError(c, h.Log, "failed to fetch plants", err)
	}
	return c.JSON(http.StatusOK, plants)
}

// GetPlant handles GET /api/plants/:id.
func (h *PlantHandler) GetPlant(c echo.Context) error {
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

	p, err := h.Plants.GetByIDAndOwner(ctx, id, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(c, "plant")
	}
	if err != nil {
		return serverError(c, h.Log, "failed to fetch plant", err)
	}
	return c.JSON(http.StatusOK, p)
}

// plantWithPhoto is the multipart create response.  Warning is set when
// the plant was stored but its photo was not.
type plantWithPhoto struct {
	Plant   *model.Plant      `json:"plant"`
	Photo   *model.PlantPhoto `json:"photo"`
	Warning string            `json:"warning,omitempty"`
}

// CreatePlant handles POST /api/plants.  A JSON body creates the plant
// alone.  A multipart form may also carry a "photo" file; the photo is
// attached after the plant is stored and a failed upload never undoes the
// plant.
func (h *PlantHandler) CreatePlant(c echo.Context) error {
	uid := middleware.UserID(c)
	if uid == "" {
		return unauthorized(c)
	}
	multipart := strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)

	var in model.PlantInput
	if multipart {
		if err := plantInputFromForm(c, &in); err != nil {
			return invalid(c, "plant", err)
		}
		in.Normalize()
		if err := c.Validate(&in); err != nil {
			return invalid(c, "plant", err)
		}
	} else if err := bindAndValidate(c, &in); err != nil {
		return invalid(c, "plant", err)
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	p := in.Plant(uid)
	if err := h.Plants.Create(ctx, p); err != nil {
		return serverError(c, h.Log, "failed to create plant", err)
	}
	h.publish(queue.PlantCreated, uid, p.ID, p.ID, p.Genus)

	if !multipart {
		return c.JSON(http.StatusCreated, p)
	}
	resp := plantWithPhoto{Plant: p}
	if _, err := c.FormFile("photo"); err == nil {
		photo, err := h.attachPhoto(c, uid, p.ID)
		if err != nil {
			h.Log.WithError(err).WithField("plant_id", p.ID).Warn("plant created but photo upload failed")
			resp.Warning = "plant saved, but the photo could not be uploaded: " + uploadProblem(err)
		}
		resp.Photo = photo
	}
	return c.JSON(http.StatusCreated, resp)
}

// UpdatePlant handles PATCH and PUT /api/plants/:id.  Only fields present
// in the body change; updatedAt always advances.
func (h *PlantHandler) UpdatePlant(c echo.Context) error {
	uid := middleware.UserID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var patch model.PlantPatch
	if err := bindAndValidate(c, &patch); err != nil {
		return invalid(c, "plant", err)
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	p, err := h.Plants.Update(ctx, id, uid, patch)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(c, "plant")
	}
	if err != nil {
		return serverError(c, h.Log, "failed to update plant", err)
	}
	h.publish(queue.PlantUpdated, uid, p.ID, p.ID, p.Genus)
	return c.JSON(http.StatusOK, p)
}

// DeletePlant handles DELETE /api/plants/:id.  Photo files are removed
// after the rows are gone; a file that cannot be removed is only logged.
func (h *PlantHandler) DeletePlant(c echo.Context) error {
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

	photos, err := h.Photos.ListByPlant(ctx, id, uid)
	if err != nil {
		return serverError(c, h.Log, "failed to delete plant", err)
	}
	deleted, err := h.Plants.Delete(ctx, id, uid)
	if err != nil {
		return serverError(c, h.Log, "failed to delete plant", err)
	}
	if !deleted {
		return notFound(c, "plant")
	}
	for _, ph := range photos {
		if err := h.Files.Remove(ph.Filename); err != nil {
			h.Log.WithError(err).WithField("file", ph.Filename).Warn("orphaned photo file")
		}
	}
	h.publish(queue.PlantDeleted, uid, id, id, "")
	return c.NoContent(http.StatusNoContent)
}

// plantFormFields maps form keys to PlantInput fields.
func plantFormFields(in *model.PlantInput) map[string]**string {
	return map[string]**string{
		"customId":        &in.CustomID,
		"species":         &in.Species,
		"cultivar":        &in.Cultivar,
		"mutation":        &in.Mutation,
		"commonName":      &in.CommonName,
		"supplier":        &in.Supplier,
		"acquisitionDate": &in.AcquisitionDate,
		"initialType":     &in.InitialType,
		"notes":           &in.Notes,
	}
}

func plantInputFromForm(c echo.Context, in *model.PlantInput) error {
	form, err := c.FormParams()
	if err != nil {
		return errBadBody
	}
	in.Type = form.Get("type")
	in.Genus = form.Get("genus")
	in.IsPublic = form.Get("isPublic")
	for key, dst := range plantFormFields(in) {
		if vals, ok := form[key]; ok && len(vals) > 0 {
			v := vals[0]
			*dst = &v
		}
	}
	return nil
}

func (h *PlantHandler) publish(typ, uid string, id, plantID int64, genus string) {
	ev := queue.NewActivityEvent(typ, uid, id)
	ev.PlantID = plantID
	ev.Genus = genus
	service.Async(h.Events, ev)
}
