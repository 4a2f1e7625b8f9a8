package pricing

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/precify-erp/precify/internal/platform/httpx"
	"github.com/precify-erp/precify/jobs"
)

// Handler wires the catalog JSON endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	jobs     *jobs.Client
}

// NewHandler constructs handler. jobsClient may be nil, in which case the
// recompute endpoint runs synchronously.
func NewHandler(logger *slog.Logger, service *Service, jobsClient *jobs.Client) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
		jobs:     jobsClient,
	}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Post("/", h.createProduct)
		r.Get("/summary", h.getSummary)
		r.Get("/overview", h.getOverview)
		r.Post("/recompute", h.recompute)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getProduct)
			r.Put("/", h.updateProduct)
			r.Delete("/", h.deleteProduct)
		})
	})
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	if products == nil {
		products = []Product{}
	}
	httpx.JSON(w, http.StatusOK, products)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}
	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	product, err := h.service.CreateProduct(r.Context(), in)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, product)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	product, err := h.service.UpdateProduct(r.Context(), id, in)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type summaryResponse struct {
	Status  string   `json:"status"`
	Summary *Summary `json:"summary,omitempty"`
}

func (h *Handler) getSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GetSummary(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summaryPayload(summary))
}

func summaryPayload(summary Summary) summaryResponse {
	if !summary.HasProducts {
		return summaryResponse{Status: "no products"}
	}
	return summaryResponse{Status: "ok", Summary: &summary}
}

// getOverview returns the product list and the consolidated summary in one
// response, fetched concurrently.
func (h *Handler) getOverview(w http.ResponseWriter, r *http.Request) {
	var (
		products []Product
		summary  Summary
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		products, err = h.service.ListProducts(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		summary, err = h.service.GetSummary(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		h.respondError(w, err)
		return
	}
	if products == nil {
		products = []Product{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"products": products,
		"summary":  summaryPayload(summary),
	})
}

func (h *Handler) recompute(w http.ResponseWriter, r *http.Request) {
	if h.jobs != nil {
		if _, err := h.jobs.EnqueueCatalogRecompute(r.Context(), "api"); err != nil {
			h.logger.Warn("enqueue catalog recompute", slog.Any("error", err))
			httpx.Problem(w, http.StatusServiceUnavailable, "Queue Unavailable", "could not enqueue recompute")
			return
		}
		httpx.JSON(w, http.StatusAccepted, map[string]string{"status": "recompute queued"})
		return
	}
	if err := h.service.RecomputeAll(r.Context()); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "recompute done"})
}

func (h *Handler) productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Product ID", "product id must be a positive integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) decodeInput(w http.ResponseWriter, r *http.Request) (ProductInput, bool) {
	var in ProductInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return ProductInput{}, false
	}
	if err := h.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]any, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
			httpx.ProblemWithFields(w, http.StatusBadRequest, "Validation Failed", "request body failed validation", fields)
			return ProductInput{}, false
		}
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return ProductInput{}, false
	}
	return in, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInvalidPricingInput):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Pricing Input", err.Error())
	case errors.Is(err, ErrAlreadyExists):
		httpx.Problem(w, http.StatusConflict, "Duplicate Product", err.Error())
	case errors.Is(err, ErrArithmeticInconsistency):
		h.logger.Error("catalog arithmetic inconsistency", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Inconsistent Catalog", err.Error())
	default:
		h.logger.Error("pricing request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "an unexpected error occurred")
	}
}
