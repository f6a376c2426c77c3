package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/storefront/internal/server/auth"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/dmitrijs2005/storefront/internal/server/services"
	"github.com/go-chi/chi/v5"
)

type productResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Price         float64   `json:"price"`
	Category      string    `json:"category"`
	IsAvailable   bool      `json:"is_available"`
	ImageURL      *string   `json:"image_url"`
	CreatedAt     time.Time `json:"created_at"`
	OwnerUsername string    `json:"owner_username"`
}

type productMessageResponse struct {
	Message string          `json:"message"`
	Product productResponse `json:"product"`
}

func (h *Handler) productResponse(ctx context.Context, p *models.Product) productResponse {
	out := productResponse{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		Category:      p.Category,
		IsAvailable:   p.IsAvailable,
		CreatedAt:     p.CreatedAt,
		OwnerUsername: p.OwnerUserName,
	}
	if u := h.products.ImageURL(ctx, p); u != "" {
		out.ImageURL = &u
	}
	return out
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	list, err := h.products.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := make([]productResponse, 0, len(list))
	for _, p := range list {
		out = append(out, h.productResponse(r.Context(), p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.productResponse(r.Context(), p))
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	form, err := parseProductForm(w, r, false)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	img, closeImg, err := openImage(form)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer closeImg()

	in := services.ProductInput{
		Name:     *form.Name,
		Price:    *form.Price,
		Category: *form.Category,
	}
	if form.Description != nil {
		in.Description = *form.Description
	}
	if form.IsAvailable != nil {
		in.IsAvailable = *form.IsAvailable
	}

	p, err := h.products.Create(r.Context(), identity, in, img)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, productMessageResponse{
		Message: "Product created successfully",
		Product: h.productResponse(r.Context(), p),
	})
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	form, err := parseProductForm(w, r, true)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	img, closeImg, err := openImage(form)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer closeImg()

	patch := services.ProductPatch{
		Name:        form.Name,
		Description: form.Description,
		Price:       form.Price,
		Category:    form.Category,
		IsAvailable: form.IsAvailable,
	}

	p, err := h.products.Update(r.Context(), identity, chi.URLParam(r, "id"), patch, img)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, productMessageResponse{
		Message: "Product updated successfully",
		Product: h.productResponse(r.Context(), p),
	})
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	if err := h.products.Delete(r.Context(), identity, chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Product deleted successfully")
}

func openImage(form *productPayload) (*services.Image, func(), error) {
	if form.Image == nil {
		return nil, func() {}, nil
	}
	f, err := form.Image.Open()
	if err != nil {
		return nil, nil, badRequest("Failed to read image")
	}
	return &services.Image{Filename: form.Image.Filename, Body: f}, func() { _ = f.Close() }, nil
}
