package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/craftedby/marketplace/internal/apperr"
	"github.com/craftedby/marketplace/internal/repository"
	"github.com/craftedby/marketplace/internal/service"
)

type productHandler struct {
	re         responder
	catalogSvc service.CatalogService
}

func newProductHandler(re responder, catalogSvc service.CatalogService) *productHandler {
	return &productHandler{re: re, catalogSvc: catalogSvc}
}

func (h *productHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalogSvc.ListProducts(r.Context())
	if err != nil {
		h.re.Error(w, r, err)
		return
	}

	h.re.JSON(w, r, http.StatusOK, newProductResponses(products))
}

func (h *productHandler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalogSvc.SearchProducts(r.Context(), repository.SearchProductsParams{
		Query:    r.URL.Query().Get("q"),
		Category: r.URL.Query().Get("category"),
	})
	if err != nil {
		h.re.Error(w, r, err)
		return
	}

	h.re.JSON(w, r, http.StatusOK, newProductResponses(products))
}

func (h *productHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.re.Error(w, r, apperr.ProductNotFoundErr)
		return
	}

	product, err := h.catalogSvc.GetProduct(r.Context(), id)
	if err != nil {
		h.re.Error(w, r, err)
		return
	}

	h.re.JSON(w, r, http.StatusOK, newProductResponse(product))
}

func (h *productHandler) ListMyProducts(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromRequest(r)
	if err != nil {
		h.re.Error(w, r, err)
		return
	}

	products, err := h.catalogSvc.ListMyProducts(r.Context(), principal)
	if err != nil {
		h.re.Error(w, r, err)
		return
	}

	h.re.JSON(w, r, http.StatusOK, newProductResponses(products))
}

func (h *productHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromRequest(r)
	if err != nil {
		h.re.Error(w, r, err)
		return
	}

	var req productRequest
	if err := h.re.Decode(r, &req); err != nil {
		h.re.Error(w, r, err)
		return
	}
	if req.Price.IsNegative() {
		h.re.Error(w, r, apperr.ValidationErr)
		return
	}

	product, err := h.catalogSvc.CreateProduct(r.Context(), principal, service.CreateProductParams{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		h.re.Error(w, r, err)
		return
	}

	h.re.JSON(w, r, http.StatusCreated, newProductResponse(product))
}

func (h *productHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromRequest(r)
	if err != nil {
		h.re.Error(w, r, err)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.re.Error(w, r, apperr.ProductNotFoundErr)
		return
	}

	var req productRequest
	if err := h.re.Decode(r, &req); err != nil {
		h.re.Error(w, r, err)
		return
	}
	if req.Price.IsNegative() {
		h.re.Error(w, r, apperr.ValidationErr)
		return
	}

	isAvailable := true
	if req.IsAvailable != nil {
		isAvailable = *req.IsAvailable
	}

	product, err := h.catalogSvc.UpdateProduct(r.Context(), principal, id, service.UpdateProductParams{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		Stock:       req.Stock,
		IsAvailable: isAvailable,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		h.re.Error(w, r, err)
		return
	}

	h.re.JSON(w, r, http.StatusOK, newProductResponse(product))
}
