package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/avensio/avensio-web/internal/domain"
	"github.com/avensio/avensio-web/internal/service"
)

// ContactHandler handles contact form submissions.
type ContactHandler struct {
	contact *service.ContactService
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(contact *service.ContactService) *ContactHandler {
	return &ContactHandler{contact: contact}
}

// HandleContact processes a JSON contact form submission. The website field
// is a honeypot: browsers leave it empty, bots tend to fill it.
// POST /contact
// Request:  {"name":"...","email":"...","message":"...","website":""}
// Response: 202 {"status":"received"}
func (h *ContactHandler) HandleContact(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Message string `json:"message"`
		Website string `json:"website"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body.")
		return
	}

	if err := h.contact.Submit(r.Context(), req.Name, req.Email, req.Message, req.Website); err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
			return
		}
		slog.Error("submit contact message", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "An unexpected error occurred. Please try again.")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "received"})
}
