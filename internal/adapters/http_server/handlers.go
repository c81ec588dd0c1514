package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"restaurant_reviews/internal/app"
	"restaurant_reviews/internal/domain"
)

// Notices shown when an update or delete names no existing review.
const (
	msgSelectToUpdate = "select a review before updating"
	msgSelectToDelete = "select a review before deleting"
)

const maxBody = 1 << 20

type Handlers struct {
	M        *app.ReviewManager
	validate *validator.Validate
}

func NewHandlers(m *app.ReviewManager) *Handlers {
	return &Handlers{M: m, validate: validator.New()}
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// ReviewPayload is the request body for create and update.
type ReviewPayload struct {
	CustomerName   string  `json:"customer_name"`
	RestaurantName string  `json:"restaurant_name"`
	Rating         *Rating `json:"rating" validate:"required"`
	Text           string  `json:"review"`
}

// Rating accepts a JSON number or a numeric string ("4.5", "4,5").
type Rating float64

func (r *Rating) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		f, err := domain.ParseRating(s)
		if err != nil {
			return err
		}
		*r = Rating(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return &domain.ValidationError{Field: "rating", Reason: "must be a number"}
	}
	*r = Rating(f)
	return nil
}

type reviewList struct {
	Items []domain.Review `json:"items"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Route("/v1/reviews", func(r chi.Router) {
		r.Get("/", h.listReviews)
		r.Post("/", h.createReview)
		r.Get("/{id}", h.getReview)
		r.Put("/{id}", h.updateReview)
		r.Delete("/{id}", h.deleteReview)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return 0, false
	}
	return id, true
}

// decodePayload reads and validates a review body, writing a 400 on failure.
func (h *Handlers) decodePayload(w http.ResponseWriter, r *http.Request) (domain.ReviewInput, bool) {
	var p ReviewPayload
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeProblem(w, http.StatusBadRequest, "Invalid review", ve.Error())
			return domain.ReviewInput{}, false
		}
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return domain.ReviewInput{}, false
	}
	if err := h.validate.Struct(p); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid review", formatValidationError(err))
		return domain.ReviewInput{}, false
	}
	return domain.ReviewInput{
		CustomerName:   p.CustomerName,
		RestaurantName: p.RestaurantName,
		Rating:         float64(*p.Rating),
		Text:           p.Text,
	}, true
}

func formatValidationError(err error) string {
	var ves validator.ValidationErrors
	if errors.As(err, &ves) {
		parts := make([]string, 0, len(ves))
		for _, fe := range ves {
			parts = append(parts, fmt.Sprintf("%s is %s", strings.ToLower(fe.Field()), fe.Tag()))
		}
		return strings.Join(parts, "; ")
	}
	return "validation failed"
}

func storeFailed(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("review store failed")
	writeProblem(w, http.StatusInternalServerError, "Storage Error", "the review store could not be written")
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	out := reviewList{Items: h.M.GetReviews()}

	etag, body := calcETagAndBody(out)
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write listReviews body")
	}
}

func (h *Handlers) getReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rv, found := h.M.GetReview(id)
	if !found {
		writeProblem(w, http.StatusNotFound, "Not Found", "review not found")
		return
	}
	writeJSON(w, http.StatusOK, rv)
}

func (h *Handlers) createReview(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodePayload(w, r)
	if !ok {
		return
	}
	rv, err := h.M.AddReview(r.Context(), in)
	if err != nil {
		storeFailed(w, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/v1/reviews/%d", rv.ID))
	writeJSON(w, http.StatusCreated, rv)
}

func (h *Handlers) updateReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	in, ok := h.decodePayload(w, r)
	if !ok {
		return
	}
	found, err := h.M.UpdateReview(r.Context(), id, in)
	if err != nil {
		storeFailed(w, err)
		return
	}
	if !found {
		writeProblem(w, http.StatusNotFound, "Not Found", msgSelectToUpdate)
		return
	}
	rv, _ := h.M.GetReview(id)
	writeJSON(w, http.StatusOK, rv)
}

func (h *Handlers) deleteReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	n, err := h.M.DeleteReview(r.Context(), id)
	if err != nil {
		storeFailed(w, err)
		return
	}
	if n == 0 {
		writeProblem(w, http.StatusNotFound, "Not Found", msgSelectToDelete)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
