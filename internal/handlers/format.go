package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"tixup/internal/middleware"
	"tixup/internal/models"
	"tixup/internal/utils"
)

// fieldMasks are the input masks the forms apply while typing
var fieldMasks = map[string]func(string) string{
	"card_number": utils.FormatCardNumber,
	"expiry_date": utils.FormatExpiryDate,
	"cvv":         utils.FormatCVV,
	"cpf":         utils.FormatCPF,
	"phone":       utils.FormatPhone,
	"birth_date":  utils.FormatBirthDate,
}

// FormatHandler serves the input mask and profile form helpers
type FormatHandler struct {
	now func() time.Time
}

// NewFormatHandler creates a new format handler
func NewFormatHandler() *FormatHandler {
	return &FormatHandler{now: time.Now}
}

type formatRequest struct {
	Value string `json:"value"`
}

type formatResponse struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type profileValidationResponse struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors"`
}

// FormatField applies the mask of the field named in the URL
func (h *FormatHandler) FormatField(w http.ResponseWriter, r *http.Request) {
	field := chi.URLParam(r, "field")
	mask, ok := fieldMasks[field]
	if !ok {
		middleware.WriteError(w, http.StatusNotFound, "Unknown field")
		return
	}

	var req formatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	writeJSON(w, http.StatusOK, formatResponse{Field: field, Value: mask(req.Value)})
}

// ValidateProfile checks the profile edit form
func (h *FormatHandler) ValidateProfile(w http.ResponseWriter, r *http.Request) {
	var form models.ProfileForm
	if err := decodeJSON(w, r, &form); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	errs := utils.ValidateProfile(form, h.now())
	status := http.StatusOK
	if len(errs) > 0 {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, profileValidationResponse{Valid: len(errs) == 0, Errors: errs})
}
