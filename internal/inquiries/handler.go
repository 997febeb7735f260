package inquiries

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/vendor-inquiry/internal/inquiry"
	"github.com/wolfman30/vendor-inquiry/internal/observability/metrics"
	"github.com/wolfman30/vendor-inquiry/pkg/logging"
)

const (
	// MessageSubmitted is returned with every stored inquiry.
	MessageSubmitted = "Inquiry submitted successfully"

	notifyTimeout = 15 * time.Second

	maxInquiryBodyBytes = 64 << 10
)

// Notifier tells operators about a newly stored inquiry.
type Notifier interface {
	NotifyNewInquiry(ctx context.Context, inq *Inquiry) error
}

// Handler handles HTTP requests for inquiries
type Handler struct {
	repo     Repository
	notifier Notifier
	metrics  *metrics.InquiryMetrics
	logger   *logging.Logger
	now      func() time.Time

	wg sync.WaitGroup
}

// NewHandler creates a new inquiries handler. notifier and m may be nil.
func NewHandler(repo Repository, notifier Notifier, m *metrics.InquiryMetrics, logger *logging.Logger) *Handler {
	if repo == nil {
		panic("inquiries: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:     repo,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateResponse is the body returned for a stored inquiry.
type CreateResponse struct {
	Message string   `json:"message"`
	Inquiry *Inquiry `json:"inquiry"`
}

// CreateInquiry handles POST /api/inquiries requests
func (h *Handler) CreateInquiry(w http.ResponseWriter, r *http.Request) {
	start := h.now()

	r.Body = http.MaxBytesReader(w, r.Body, maxInquiryBodyBytes)
	var draft inquiry.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		h.logger.Warn("failed to decode inquiry", "error", err)
		h.observe("", "invalid", start)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "Request body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	if err := draft.Validate(); err != nil {
		h.observe(draft.Category, "invalid", start)
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  validationMessage(err),
			"fields": validationFields(err),
		})
		return
	}

	inq, err := h.repo.Create(r.Context(), draft)
	if err != nil {
		h.logger.Error("failed to create inquiry", "error", err)
		h.observe(draft.Category, "error", start)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to store inquiry"})
		return
	}

	h.logger.Info("inquiry created", "id", inq.ID, "category", inq.Category)
	h.observe(inq.Category, "created", start)
	h.notifyAsync(r.Context(), inq)

	writeJSON(w, http.StatusCreated, CreateResponse{Message: MessageSubmitted, Inquiry: inq})
}

// Wait blocks until in-flight operator notifications finish.
func (h *Handler) Wait() {
	h.wg.Wait()
}

func (h *Handler) notifyAsync(ctx context.Context, inq *Inquiry) {
	if h.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer cancel()
		if err := h.notifier.NotifyNewInquiry(ctx, inq); err != nil {
			h.logger.Error("operator notification failed", "error", err, "inquiry_id", inq.ID)
			h.metrics.ObserveNotification("error")
			return
		}
		h.metrics.ObserveNotification("sent")
	}()
}

func (h *Handler) observe(category, status string, start time.Time) {
	if !inquiry.IsCategory(category) {
		category = "other"
	}
	h.metrics.ObserveIntake(category, status, h.now().Sub(start).Seconds())
}

// ListCategories handles GET /api/categories requests
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"categories": inquiry.Categories()})
}

// ListInquiriesResponse is the response for listing inquiries
type ListInquiriesResponse struct {
	Inquiries []*Inquiry `json:"inquiries"`
	Count     int        `json:"count"`
	Offset    int        `json:"offset"`
	Limit     int        `json:"limit"`
}

// ListInquiries handles GET /admin/inquiries requests
func (h *Handler) ListInquiries(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Limit:  50,
		Offset: 0,
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit <= 100 {
			filter.Limit = limit
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}

	if category := r.URL.Query().Get("category"); category != "" {
		filter.Category = category
	}

	list, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list inquiries", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list inquiries"})
		return
	}

	writeJSON(w, http.StatusOK, ListInquiriesResponse{
		Inquiries: list,
		Count:     len(list),
		Offset:    filter.Offset,
		Limit:     filter.Limit,
	})
}

// GetInquiry handles GET /admin/inquiries/{inquiryID} requests
func (h *Handler) GetInquiry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "inquiryID")
	inq, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrInquiryNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "inquiry not found"})
			return
		}
		h.logger.Error("failed to get inquiry", "error", err, "inquiry_id", id)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get inquiry"})
		return
	}
	writeJSON(w, http.StatusOK, inq)
}

// CategoryCounter reports stored inquiries per category.
type CategoryCounter interface {
	CountByCategory(ctx context.Context, categories []string) ([]CategoryCount, error)
}

// StatsHandler serves GET /admin/inquiries/stats.
func StatsHandler(counter CategoryCounter, logger *logging.Logger) http.HandlerFunc {
	if logger == nil {
		logger = logging.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var categories []string
		for _, raw := range r.URL.Query()["category"] {
			for _, c := range strings.Split(raw, ",") {
				if c = strings.TrimSpace(c); c != "" {
					categories = append(categories, c)
				}
			}
		}
		counts, err := counter.CountByCategory(r.Context(), categories)
		if err != nil {
			logger.Error("failed to count inquiries", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to count inquiries"})
			return
		}
		total := 0
		for _, c := range counts {
			total += c.Count
		}
		writeJSON(w, http.StatusOK, map[string]any{"categories": counts, "total": total})
	}
}

func validationMessage(err error) string {
	var verr *inquiry.ValidationError
	if errors.As(err, &verr) && len(verr.Missing) == 0 && len(verr.Invalid) > 0 {
		return "Please choose a category from the list."
	}
	return inquiry.MessageMissingFields
}

func validationFields(err error) []inquiry.Field {
	var verr *inquiry.ValidationError
	if !errors.As(err, &verr) {
		return nil
	}
	fields := append([]inquiry.Field{}, verr.Missing...)
	return append(fields, verr.Invalid...)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
