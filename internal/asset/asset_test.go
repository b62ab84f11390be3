package asset

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/geoshape/internal/render"
	"github.com/inamate/geoshape/internal/typeid"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func upload(t *testing.T, h *Handler, contentType string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="tex.png"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/assets/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.Upload(rec, req)
	return rec
}

func TestUploadServeDelete(t *testing.T) {
	h := NewHandler(t.TempDir())

	rec := upload(t, h, "image/png", pngBytes(t, 4, 2))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp UploadResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NoError(t, typeid.Validate(resp.ID, typeid.PrefixAsset))
	assert.Equal(t, 4, resp.Width)
	assert.Equal(t, 2, resp.Height)

	rec = httptest.NewRecorder()
	h.Serve().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, resp.URL, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "immutable")

	r := mux.NewRouter()
	r.HandleFunc("/api/assets/{assetId}", h.HandleDelete).Methods(http.MethodDelete)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/assets/"+resp.ID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/assets/"+resp.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadRejects(t *testing.T) {
	h := NewHandler(t.TempDir())
	assert.Equal(t, http.StatusBadRequest, upload(t, h, "image/gif", pngBytes(t, 1, 1)).Code)
	assert.Equal(t, http.StatusBadRequest, upload(t, h, "image/png", []byte("not a png")).Code)
}

func TestDeleteRejectsPaths(t *testing.T) {
	h := NewHandler(t.TempDir())
	assert.ErrorIs(t, h.Delete("../etc/passwd"), ErrNotFound)
}

func TestLoaderPublishesToRequestingHandoff(t *testing.T) {
	dir := t.TempDir()
	id := typeid.NewAssetID()
	require.NoError(t, os.WriteFile(filepath.Join(dir, id+".png"), pngBytes(t, 8, 4), 0o644))

	loader := NewLoader(dir, 2)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loader.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	a, b := &render.TextureHandoff{}, &render.TextureHandoff{}
	loader.Requester(a).RequestTexture(id)
	loader.Requester(a).RequestTexture(typeid.NewAssetID())
	loader.Requester(a).RequestTexture("../../secret")

	var got []*render.Texture
	require.Eventually(t, func() bool {
		got = append(got, a.Drain()...)
		return len(got) > 0
	}, 2*time.Second, 5*time.Millisecond)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
	assert.Equal(t, 8, got[0].Width)
	assert.Equal(t, 4, got[0].Height)

	// Cached textures are published without a worker round trip.
	loader.Requester(b).RequestTexture(id)
	cached := b.Drain()
	require.Len(t, cached, 1)
	assert.Same(t, got[0], cached[0])
	assert.Empty(t, a.Drain())
}
