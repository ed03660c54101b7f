package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bluniversal/comments/internal/discussd/service"
	"github.com/bluniversal/comments/pkg/bsky"
	"github.com/bluniversal/comments/pkg/httpx"
	"github.com/bluniversal/comments/pkg/slogx"
)

// CreateHandler serves POST / and mints the discussion post for a page.
type CreateHandler struct {
	PostService *service.PostService
}

type createRequest struct {
	URL       string            `json:"url"`
	Title     string            `json:"title"`
	Timestamp int64             `json:"timestamp,omitempty"`
	Hash      string            `json:"hash,omitempty"`
	Session   *bsky.SessionData `json:"sessionData,omitempty"`
}

type createResponse struct {
	URI string `json:"uri"`
}

func (h *CreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var body createRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_payload", "malformed request body")
		return
	}

	req := service.CreateRequest{
		URL:       body.URL,
		Title:     body.Title,
		Timestamp: body.Timestamp,
		Hash:      body.Hash,
	}
	if body.Session != nil {
		req.Session = *body.Session
	}

	uri, err := h.PostService.Create(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPayload):
			httpx.WriteError(w, http.StatusBadRequest, "invalid_payload", "missing or invalid request fields")
		case errors.Is(err, service.ErrStaleTimestamp):
			httpx.WriteError(w, http.StatusBadRequest, "stale_timestamp", "request timestamp outside accepted window")
		case errors.Is(err, service.ErrBadSignature):
			httpx.WriteError(w, http.StatusForbidden, "bad_signature", "request signature mismatch")
		case errors.Is(err, service.ErrInvalidSession):
			httpx.WriteError(w, http.StatusForbidden, "invalid_session", "session rejected")
		case errors.Is(err, service.ErrAlreadyExists):
			httpx.WriteError(w, http.StatusBadRequest, "post_already_exists", "a discussion post for this page already exists")
		default:
			log.Error("post creation failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "post creation failed")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, createResponse{URI: uri})
}
