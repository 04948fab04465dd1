package api

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/garderoba/internal/imaging"
	"github.com/erazemk/garderoba/internal/model"
	"github.com/erazemk/garderoba/internal/store"
)

// ImagesHandler handles item photo endpoints.
type ImagesHandler struct {
	DB *sqlx.DB
}

// maxImagesPerUpload bounds how many files one request may carry.
const maxImagesPerUpload = 10

type imageURLsRequest struct {
	URLs []string `json:"urls"`
}

// Upload handles POST /api/items/{id}/images. It accepts a multipart form
// with "images" files and optional "urls" values, or a JSON body
// {"urls": [...]} of externally hosted photos.
func (h *ImagesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	id := r.PathValue("id")

	var uploads []store.ImageUpload
	var urls []string

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, maxImagesPerUpload*imaging.MaxUploadBytes)
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			jsonError(w, http.StatusBadRequest, "upload too large or invalid multipart form")
			return
		}
		defer r.MultipartForm.RemoveAll()

		files := r.MultipartForm.File["images"]
		if len(files) > maxImagesPerUpload {
			writeError(w, r, model.NewValidationError("images", "at most %d images per upload", maxImagesPerUpload), "upload images")
			return
		}
		for i, fh := range files {
			f, err := fh.Open()
			if err != nil {
				jsonError(w, http.StatusBadRequest, "failed to read upload")
				return
			}
			photo, err := imaging.Process(f)
			f.Close()
			if err != nil {
				field := "images[" + strconv.Itoa(i) + "]"
				if errors.Is(err, imaging.ErrTooLarge) {
					writeError(w, r, model.NewValidationError(field, "image exceeds %d MB", imaging.MaxUploadBytes>>20), "upload images")
					return
				}
				writeError(w, r, model.NewValidationError(field, "%s", err.Error()), "upload images")
				return
			}
			uploads = append(uploads, store.ImageUpload{Data: photo.Data, MIME: photo.MIME})
		}
		urls = r.MultipartForm.Value["urls"]
	} else {
		var req imageURLsRequest
		if err := decodeJSON(w, r, &req); err != nil {
			jsonError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		urls = req.URLs
	}

	images, err := store.AddItemImages(r.Context(), h.DB, id, claims.UserID, uploads, urls)
	if err != nil {
		writeError(w, r, err, "upload images")
		return
	}

	slog.Info("item images added", "user", claims.Username, "item", id,
		"uploaded", len(uploads), "linked", len(urls))
	jsonResponse(w, http.StatusOK, images)
}

// Get handles GET /api/items/{id}/images/{position}. Externally hosted
// photos redirect to their URL.
func (h *ImagesHandler) Get(w http.ResponseWriter, r *http.Request) {
	pos, err := strconv.Atoi(r.PathValue("position"))
	if err != nil || pos < 0 {
		jsonError(w, http.StatusBadRequest, "invalid image position")
		return
	}

	img, err := store.GetItemImage(r.Context(), h.DB, r.PathValue("id"), pos)
	if err != nil {
		writeError(w, r, err, "get image")
		return
	}
	if img == nil {
		jsonError(w, http.StatusNotFound, "image not found")
		return
	}
	if img.Data == nil {
		http.Redirect(w, r, img.URL, http.StatusFound)
		return
	}

	w.Header().Set("Content-Type", img.MIME)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(img.Data)
}
