package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/nmoram/newsdesk/auth"
	authapi "github.com/nmoram/newsdesk/auth/api"
	"github.com/nmoram/newsdesk/internal/logutil"
	"github.com/nmoram/newsdesk/news"
)

const maxUploadBytes = 32 << 20

type (
	// Handler exposes the news CRUD surface. Reads are public, writes
	// require the admin scope through the realm.
	Handler struct {
		store     *news.Store
		staticDir string
		realm     *authapi.Realm
	}
)

func NewHandler(store *news.Store, staticDir string, realm *authapi.Realm) *Handler {
	return &Handler{store: store, staticDir: staticDir, realm: realm}
}

// Routes mounts the CRUD endpoints under /api/news and the uploaded
// images under /static.
func (h *Handler) Routes(router *httprouter.Router) {
	admin := []string{auth.ScopeAdmin}
	router.GET("/api/news", h.list)
	router.GET("/api/news/:id", h.get)
	router.POST("/api/news", h.realm.Protect(admin, h.create))
	router.PUT("/api/news/:id", h.realm.Protect(admin, h.update))
	router.DELETE("/api/news/:id", h.realm.Protect(admin, h.delete))
	router.ServeFiles("/static/*filepath", http.Dir(h.staticDir))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	articles, err := h.store.List(r.Context(), skip, limit)
	if err != nil {
		logutil.Acquire(r.Context(), "news.api").Error().Err(err).Msg("Unable to list news")
		writeError(w, http.StatusInternalServerError, "unable to process request")
		return
	}
	writeJSON(w, http.StatusOK, articles)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	id, ok := articleID(w, params)
	if !ok {
		return
	}
	article, err := h.store.Get(r.Context(), id)
	var missing news.ArticleNotFound
	if errors.As(err, &missing) {
		writeError(w, http.StatusNotFound, "News not found")
		return
	} else if err != nil {
		logutil.Acquire(r.Context(), "news.api").Error().Err(err).Msg("Unable to load news article")
		writeError(w, http.StatusInternalServerError, "unable to process request")
		return
	}
	writeJSON(w, http.StatusOK, article)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fields, ok := articleForm(w, r)
	if !ok {
		return
	}
	imageURL, err := h.saveImage(r)
	if errors.Is(err, http.ErrMissingFile) {
		writeError(w, http.StatusBadRequest, "image file is required")
		return
	} else if err != nil {
		logutil.Acquire(r.Context(), "news.api").Error().Err(err).Msg("Unable to save uploaded image")
		writeError(w, http.StatusInternalServerError, "unable to process request")
		return
	}
	fields.ImageURL = imageURL
	err = h.store.Create(r.Context(), fields)
	if err != nil {
		logutil.Acquire(r.Context(), "news.api").Error().Err(err).Msg("Unable to store news article")
		writeError(w, http.StatusInternalServerError, "unable to process request")
		return
	}
	writeJSON(w, http.StatusOK, fields)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	id, ok := articleID(w, params)
	if !ok {
		return
	}
	fields, ok := articleForm(w, r)
	if !ok {
		return
	}
	fields.ID = id
	// image is optional on update, keep the stored one when absent
	imageURL, err := h.saveImage(r)
	switch {
	case err == nil:
		fields.ImageURL = imageURL
	case errors.Is(err, http.ErrMissingFile):
		// nothing uploaded, leave fields.ImageURL empty so the
		// store keeps the current image
	default:
		logutil.Acquire(r.Context(), "news.api").Error().Err(err).Msg("Unable to save uploaded image")
		writeError(w, http.StatusInternalServerError, "unable to process request")
		return
	}
	err = h.store.Update(r.Context(), fields)
	var missing news.ArticleNotFound
	if errors.As(err, &missing) {
		writeError(w, http.StatusNotFound, "News not found")
		return
	} else if err != nil {
		logutil.Acquire(r.Context(), "news.api").Error().Err(err).Msg("Unable to update news article")
		writeError(w, http.StatusInternalServerError, "unable to process request")
		return
	}
	article, err := h.store.Get(r.Context(), id)
	if err != nil {
		logutil.Acquire(r.Context(), "news.api").Error().Err(err).Msg("Unable to reload news article")
		writeError(w, http.StatusInternalServerError, "unable to process request")
		return
	}
	writeJSON(w, http.StatusOK, article)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	id, ok := articleID(w, params)
	if !ok {
		return
	}
	err := h.store.Delete(r.Context(), id)
	var missing news.ArticleNotFound
	if errors.As(err, &missing) {
		writeError(w, http.StatusNotFound, "News not found")
		return
	} else if err != nil {
		logutil.Acquire(r.Context(), "news.api").Error().Err(err).Msg("Unable to delete news article")
		writeError(w, http.StatusInternalServerError, "unable to process request")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "News deleted successfully"})
}

func articleID(w http.ResponseWriter, params httprouter.Params) (int64, bool) {
	id, err := strconv.ParseInt(params.ByName("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "News not found")
		return 0, false
	}
	return id, true
}

func articleForm(w http.ResponseWriter, r *http.Request) (*news.Article, bool) {
	err := r.ParseMultipartForm(maxUploadBytes)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return nil, false
	}
	a := &news.Article{
		Title:            r.FormValue("title"),
		Subtitle:         r.FormValue("subtitle"),
		ImageDescription: r.FormValue("image_description"),
		Body:             r.FormValue("body"),
	}
	if a.Title == "" || a.Body == "" {
		writeError(w, http.StatusBadRequest, "title and body are required")
		return nil, false
	}
	return a, true
}

// saveImage copies the uploaded image below the static dir and returns
// the relative URL it will be served under.
func (h *Handler) saveImage(r *http.Request) (string, error) {
	file, header, err := r.FormFile("image")
	if err != nil {
		return "", err
	}
	defer file.Close()
	name := filepath.Base(header.Filename)
	if name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("invalid image filename %q", header.Filename)
	}
	err = os.MkdirAll(h.staticDir, 0755)
	if err != nil {
		return "", fmt.Errorf("unable to create static dir, cause %w", err)
	}
	err = writeUpload(filepath.Join(h.staticDir, name), file)
	if err != nil {
		return "", err
	}
	return path.Join("static", name), nil
}

func writeUpload(dst string, src multipart.File) error {
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("unable to create %v, cause %w", dst, err)
	}
	_, err = io.Copy(out, src)
	if err != nil {
		out.Close()
		return fmt.Errorf("unable to write %v, cause %w", dst, err)
	}
	return out.Close()
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	buf, err := json.Marshal(body)
	if err != nil {
		http.Error(w, "unable to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
