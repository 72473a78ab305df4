package rest

import (
	"errors"
	"net/http"

	"github.com/abgdnv/wallacore/internal/service"
	"github.com/abgdnv/wallacore/internal/thumbnail"
	"github.com/abgdnv/wallacore/pkg/web"
)

// ListProducts returns the catalog, optionally restricted to one seller.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		list []service.ProductDto
		err  error
	)
	if seller := r.URL.Query().Get("seller"); seller != "" {
		list, err = h.catalog.ListBySeller(ctx, seller)
	} else {
		list, err = h.catalog.List(ctx)
	}
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to fetch products")
		return
	}
	h.logger.DebugContext(ctx, "Successfully retrieved product list", "count", len(list))
	web.RespondJSON(w, h.logger, http.StatusOK, list)
}

// MyProducts returns the products listed by the caller.
func (h *Handler) MyProducts(w http.ResponseWriter, r *http.Request) {
	user, ok := web.GetUser(w, r, h.logger)
	if !ok {
		return
	}
	list, err := h.catalog.ListBySeller(r.Context(), user.Email)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to fetch products")
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, list)
}

// CreateProduct lists a new product on behalf of the caller.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	user, ok := web.GetUser(w, r, h.logger)
	if !ok {
		return
	}
	var dto service.ProductCreateDto
	if !h.decodeValid(w, r, h.logger, &dto) {
		return
	}
	created, err := h.catalog.Create(r.Context(), service.Seller{Name: user.Name, Email: user.Email}, dto)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to create product")
		return
	}
	h.logger.InfoContext(r.Context(), "Product created successfully", "index", created.Index, "name", created.Name)
	web.RespondJSON(w, h.logger, http.StatusCreated, created)
}

// DeleteProduct removes one of the caller's products.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	user, ok := web.GetUser(w, r, h.logger)
	if !ok {
		return
	}
	index, ok := web.ParseIndex(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.catalog.Delete(r.Context(), user.Email, index); err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to delete product")
		return
	}
	h.logger.InfoContext(r.Context(), "Product deleted successfully", "index", index)
	w.WriteHeader(http.StatusNoContent)
}

// Thumbnail serves a small PNG preview of the product photo.
func (h *Handler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	index, ok := web.ParseIndex(w, r, h.logger)
	if !ok {
		return
	}
	product, err := h.catalog.Get(r.Context(), index)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to fetch product")
		return
	}
	data, err := h.thumbnails.Render(r.Context(), product.Photo)
	if err != nil {
		if errors.Is(err, thumbnail.ErrFetch) {
			h.logger.WarnContext(r.Context(), "Photo unavailable", "index", index, "error", err)
			web.RespondError(w, h.logger, http.StatusBadGateway, "Photo unavailable")
			return
		}
		respondServiceError(w, r, h.logger, err, "Failed to render thumbnail")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
