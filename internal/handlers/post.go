package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/quillpress/server/internal/services"
	"github.com/quillpress/server/internal/storage"
	"github.com/quillpress/server/internal/store"
	"github.com/quillpress/server/types"
)

const (
	maxImageMemory = 8 << 20
	maxImageBytes  = 16 << 20
	formFieldImage = "image"
)

// PostHandler provides HTTP handlers for posts and their comments.
type PostHandler struct {
	posts    *services.PostService
	comments *services.CommentService
	images   *storage.Images
	log      *slog.Logger
}

// NewPostHandler constructs a handler with the provided services. images
// may be nil, in which case image upload is unavailable.
func NewPostHandler(
	posts *services.PostService,
	comments *services.CommentService,
	images *storage.Images,
	log *slog.Logger,
) *PostHandler {
	if log == nil {
		log = slog.Default()
	}
	return &PostHandler{
		posts:    posts,
		comments: comments,
		images:   images,
		log:      log,
	}
}

// PostRouter registers post routes on the given router. requireAuth guards
// every mutating route; authorship is checked per-request where required.
func PostRouter(
	r chi.Router,
	posts *services.PostService,
	comments *services.CommentService,
	images *storage.Images,
	requireAuth func(http.Handler) http.Handler,
	log *slog.Logger,
) {
	handler := NewPostHandler(posts, comments, images, log)

	r.Get("/", handler.ListPosts)
	r.With(requireAuth).Post("/", handler.CreatePost)
	r.Route("/{postID}", func(r chi.Router) {
		r.Get("/", handler.GetPost)
		r.With(requireAuth).Put("/", handler.UpdatePost)
		r.With(requireAuth).Delete("/", handler.DeletePost)
		r.With(requireAuth).Put("/image", handler.UploadImage)
		r.With(requireAuth).Post("/comments", handler.CreateComment)
	})
}

func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := h.posts.List(r.Context(), offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list posts")
		return
	}

	writeJSON(w, http.StatusOK, PostListResponse{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := parseURLID(r, "postID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	post, err := h.posts.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "post not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch post")
		return
	}

	comments, err := h.comments.ListByPost(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch comments")
		return
	}

	writeJSON(w, http.StatusOK, PostResponse{Post: post, Comments: comments})
}

func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "login required")
		return
	}

	req, err := parsePostRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.posts.Create(r.Context(), types.Post{
		AuthorID: user.ID,
		Title:    req.Title,
		Subtitle: req.Subtitle,
		Body:     req.Body,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateTitle) {
			writeError(w, http.StatusConflict, "a post with that title already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create post")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	post, ok := h.ownedPost(w, r)
	if !ok {
		return
	}

	req, err := parsePostRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	post.Title = req.Title
	post.Subtitle = req.Subtitle
	post.Body = req.Body

	updated, err := h.posts.Update(r.Context(), post)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "post not found")
		case errors.Is(err, store.ErrDuplicateTitle):
			writeError(w, http.StatusConflict, "a post with that title already exists")
		default:
			writeError(w, http.StatusInternalServerError, "failed to update post")
		}
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	post, ok := h.ownedPost(w, r)
	if !ok {
		return
	}

	if err := h.posts.Delete(r.Context(), post.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "post not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete post")
		return
	}

	if h.images != nil && post.ImageKey != "" {
		if err := h.images.Delete(r.Context(), post.ImageKey); err != nil {
			h.log.WarnContext(r.Context(), "failed to delete post image", "key", post.ImageKey, "error", err)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadImage stores a new header image for the post and records its key.
func (h *PostHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if h.images == nil {
		writeError(w, http.StatusServiceUnavailable, "image storage is not configured")
		return
	}

	post, ok := h.ownedPost(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxImageMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile(formFieldImage)
	if err != nil {
		writeError(w, http.StatusBadRequest, "image file is required")
		return
	}
	data, err := readFileLimited(file, maxImageBytes)
	_ = file.Close()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := fmt.Sprintf("posts/%d/%s%s", post.ID, uuid.NewString(), strings.ToLower(path.Ext(header.Filename)))
	contentType := header.Header.Get("Content-Type")
	if err := h.images.Put(r.Context(), key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store image")
		return
	}

	if err := h.posts.SetImageKey(r.Context(), post.ID, key); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update post")
		return
	}

	if post.ImageKey != "" && post.ImageKey != key {
		if err := h.images.Delete(r.Context(), post.ImageKey); err != nil {
			h.log.WarnContext(r.Context(), "failed to delete replaced image", "key", post.ImageKey, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"image_key": key})
}

// ServeImage streams a stored post image back to the client.
func (h *PostHandler) ServeImage(w http.ResponseWriter, r *http.Request) {
	if h.images == nil {
		writeError(w, http.StatusServiceUnavailable, "image storage is not configured")
		return
	}

	key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if key == "" || strings.Contains(key, "..") {
		writeError(w, http.StatusBadRequest, "invalid image key")
		return
	}

	object, contentType, err := h.images.Get(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusNotFound, "image not found")
		return
	}
	defer object.Close()

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	if _, err := io.Copy(w, object); err != nil {
		h.log.WarnContext(r.Context(), "failed to stream image", "key", key, "error", err)
	}
}

func (h *PostHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "login required")
		return
	}

	postID, err := parseURLID(r, "postID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.posts.Get(r.Context(), postID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "post not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch post")
		return
	}

	var req CommentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	req.Body = strings.TrimSpace(req.Body)
	if req.Body == "" {
		writeError(w, http.StatusBadRequest, "comment body is required")
		return
	}

	created, err := h.comments.Create(r.Context(), types.Comment{
		PostID:   postID,
		AuthorID: user.ID,
		Body:     req.Body,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create comment")
		return
	}

	created.AuthorName = user.Name
	created.AvatarURL = services.AvatarURL(user.Email)
	writeJSON(w, http.StatusCreated, created)
}

// ownedPost loads the post named in the URL and enforces that the
// authenticated user is its author. Editing and deleting are restricted to
// the author; any other authenticated user gets 403.
func (h *PostHandler) ownedPost(w http.ResponseWriter, r *http.Request) (types.Post, bool) {
	user, ok := currentUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "login required")
		return types.Post{}, false
	}

	id, err := parseURLID(r, "postID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return types.Post{}, false
	}

	post, err := h.posts.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "post not found")
			return types.Post{}, false
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch post")
		return types.Post{}, false
	}

	if post.AuthorID != user.ID {
		writeError(w, http.StatusForbidden, "only the author may modify this post")
		return types.Post{}, false
	}

	return post, true
}

// PostUpsertRequest is the JSON payload for creating or updating a post.
type PostUpsertRequest struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Body     string `json:"body"`
}

// CommentRequest is the JSON payload for creating a comment.
type CommentRequest struct {
	Body string `json:"body"`
}

// PostListResponse is the paginated list response payload.
type PostListResponse struct {
	Items []types.Post `json:"items"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
	Total int          `json:"total"`
}

// PostResponse is the single-post payload including its comments.
type PostResponse struct {
	Post     types.Post      `json:"post"`
	Comments []types.Comment `json:"comments"`
}

func parsePostRequest(r *http.Request) (PostUpsertRequest, error) {
	var req PostUpsertRequest
	if err := decodeJSON(r, &req); err != nil {
		return PostUpsertRequest{}, errors.New("invalid request")
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Subtitle = strings.TrimSpace(req.Subtitle)
	req.Body = strings.TrimSpace(req.Body)
	if req.Title == "" {
		return PostUpsertRequest{}, errors.New("title is required")
	}
	if req.Subtitle == "" {
		return PostUpsertRequest{}, errors.New("subtitle is required")
	}
	if req.Body == "" {
		return PostUpsertRequest{}, errors.New("body is required")
	}
	return req, nil
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file too large")
	}
	return data, nil
}
