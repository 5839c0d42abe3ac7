package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/quillpress/server/internal/services"
	"github.com/quillpress/server/types"
)

// ContactHandler provides the contact-form endpoint.
type ContactHandler struct {
	contact *services.ContactService
}

func NewContactHandler(contact *services.ContactService) *ContactHandler {
	return &ContactHandler{contact: contact}
}

// ContactRouter registers contact routes on the given router. Submitting
// an inquiry requires no authentication.
func ContactRouter(r chi.Router, contact *services.ContactService) {
	handler := NewContactHandler(contact)

	r.Post("/", handler.CreateInquiry)
}

func (h *ContactHandler) CreateInquiry(w http.ResponseWriter, r *http.Request) {
	var req ContactRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Message = strings.TrimSpace(req.Message)
	if req.Name == "" || req.Email == "" || req.Phone == "" || req.Message == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	created, err := h.contact.Create(r.Context(), types.ContactInquiry{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Message: req.Message,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save inquiry")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// ContactRequest is the JSON payload for a contact-form submission.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}
