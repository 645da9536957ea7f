package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cactilog/internal/knowledge"
	"github.com/iliyamo/cactilog/internal/middleware"
	"github.com/iliyamo/cactilog/internal/service"
	"github.com/iliyamo/cactilog/internal/storage"
	"github.com/iliyamo/cactilog/internal/validation"
)

// pngBytes is enough of a PNG for content sniffing.
var pngBytes = append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}, bytes.Repeat([]byte{7}, 64)...)

const (
	alice = "local:alice"
	bob   = "local:bob"
)

type testEnv struct {
	e      *echo.Echo
	db     *memDB
	dir    string
	stats  *fakeStats
	images *fakeImages
}

// asUser trusts the X-Test-User header; the real stack uses Authenticate.
func asUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if uid := c.Request().Header.Get("X-Test-User"); uid != "" {
			middleware.SetUserID(c, uid)
		}
		return next(c)
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newMemDB()
	dir := t.TempDir()
	files, err := storage.NewLocalStore(dir, 1<<20)
	require.NoError(t, err)
	kb, err := knowledge.Load()
	require.NoError(t, err)
	log, _ := test.NewNullLogger()

	env := &testEnv{db: db, dir: dir, stats: &fakeStats{}, images: &fakeImages{}}
	ph := &PlantHandler{
		Plants: fakePlants{db}, Growth: fakeGrowth{db}, Photos: fakePhotos{db},
		Files: files, Events: service.NopPublisher{}, Log: log,
	}
	sh := &SeedHandler{Seeds: fakeSeeds{db}, Events: service.NopPublisher{}, Log: log}
	dh := &DashboardHandler{
		Stats: env.stats, Plants: fakePlants{db}, Growth: fakeGrowth{db}, Log: log,
		Now: func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) },
	}
	kh := &KnowledgeHandler{Base: kb, Images: env.images, Log: log}

	e := echo.New()
	e.Validator = validation.New()
	e.GET("/api/public/plants", dh.PublicPlants)
	e.GET("/api/knowledge/genera", kh.ListGenera)
	e.GET("/api/knowledge/genera/:name", kh.GetGenus)
	e.GET("/api/knowledge/genera/:name/images", kh.GenusImages)

	g := e.Group("/api", asUser)
	g.GET("/plants", ph.ListPlants)
	g.POST("/plants", ph.CreatePlant)
	g.GET("/plants/:id", ph.GetPlant)
	g.PATCH("/plants/:id", ph.UpdatePlant)
	g.PUT("/plants/:id", ph.UpdatePlant)
	g.DELETE("/plants/:id", ph.DeletePlant)
	g.GET("/plants/:id/growth", ph.ListGrowth)
	g.POST("/plants/:id/growth", ph.CreateGrowth)
	g.PATCH("/growth/:id", ph.UpdateGrowth)
	g.DELETE("/growth/:id", ph.DeleteGrowth)
	g.GET("/plants/:id/photos", ph.ListPhotos)
	g.POST("/plants/:id/photos", ph.UploadPhoto)
	g.GET("/photos/:id/file", ph.ServePhoto)
	g.DELETE("/photos/:id", ph.DeletePhoto)
	g.GET("/seeds", sh.ListSeeds)
	g.POST("/seeds", sh.CreateSeed)
	g.GET("/seeds/:id", sh.GetSeed)
	g.PATCH("/seeds/:id", sh.UpdateSeed)
	g.DELETE("/seeds/:id", sh.DeleteSeed)
	g.GET("/dashboard/stats", dh.DashboardStats)
	g.GET("/analytics/growth", dh.GrowthAnalytics)
	g.GET("/plants-with-growth", dh.PlantsWithGrowth)

	env.e = e
	return env
}

func (env *testEnv) do(method, path, user string, body any) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			r = bytes.NewBufferString(b)
		default:
			bs, _ := json.Marshal(b)
			r = bytes.NewReader(bs)
		}
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	return env.send(req, user)
}

func (env *testEnv) send(req *http.Request, user string) *httptest.ResponseRecorder {
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

// multipartRequest builds a form post; photo is skipped when nil.
func multipartRequest(t *testing.T, path string, fields map[string]string, photo []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if photo != nil {
		fw, err := w.CreateFormFile("photo", "specimen.png")
		require.NoError(t, err)
		_, err = fw.Write(photo)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}
