// Package service implements the catalog and messaging use cases on top of the record stores.
package service

import (
	"context"
	"fmt"

	serrors "github.com/abgdnv/wallacore/internal/errors"
	"github.com/abgdnv/wallacore/internal/store"
	"github.com/shopspring/decimal"
)

// CatalogService defines the catalog operations offered to the transport layer.
type CatalogService interface {
	// List returns every product in catalog order.
	List(ctx context.Context) ([]ProductDto, error)

	// ListBySeller returns the products of one seller. Indices refer to the unfiltered catalog.
	ListBySeller(ctx context.Context, email string) ([]ProductDto, error)

	// Get returns the product at index.
	// Returns ErrIndexOutOfRange if no product exists at that position.
	Get(ctx context.Context, index int) (*ProductDto, error)

	// Create lists a new product for the seller.
	Create(ctx context.Context, seller Seller, product ProductCreateDto) (*ProductDto, error)

	// Delete removes the product at index on behalf of callerEmail.
	// Returns ErrForbidden if the caller did not list the product.
	Delete(ctx context.Context, callerEmail string, index int) error
}

// Seller identifies the caller listing a product.
type Seller struct {
	Name  string
	Email string
}

// ProductDto represents the data transfer object for a product.
// Index is the deletion handle of the product and is only valid until the catalog changes.
type ProductDto struct {
	Index       int             `json:"index"`
	Seller      string          `json:"seller"`
	SellerEmail string          `json:"seller_email"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Photo       string          `json:"photo"`
	Price       decimal.Decimal `json:"price"`
}

// ProductCreateDto represents the data transfer object for listing a new product.
type ProductCreateDto struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=2000"`
	Photo       string          `json:"photo" validate:"required,max=2048"`
	Price       decimal.Decimal `json:"price" validate:"gte=0"`
}

// Catalog implements CatalogService.
type Catalog struct {
	store store.Catalog
}

var _ CatalogService = (*Catalog)(nil)

func NewCatalogService(catalog store.Catalog) *Catalog {
	return &Catalog{store: catalog}
}

func (s *Catalog) List(_ context.Context) ([]ProductDto, error) {
	products, err := s.store.List()
	if err != nil {
		return nil, err
	}
	return toProductDtos(products), nil
}

func (s *Catalog) ListBySeller(_ context.Context, email string) ([]ProductDto, error) {
	products, err := s.store.ListBySeller(email)
	if err != nil {
		return nil, err
	}
	return toProductDtos(products), nil
}

func (s *Catalog) Get(_ context.Context, index int) (*ProductDto, error) {
	products, err := s.store.List()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(products) {
		return nil, fmt.Errorf("product %d of %d: %w", index, len(products), serrors.ErrIndexOutOfRange)
	}
	dto := toProductDto(products[index])
	return &dto, nil
}

func (s *Catalog) Create(_ context.Context, seller Seller, product ProductCreateDto) (*ProductDto, error) {
	added, err := s.store.Add(store.Product{
		Seller:      seller.Name,
		SellerEmail: seller.Email,
		Name:        product.Name,
		Description: product.Description,
		PhotoRef:    product.Photo,
		Price:       product.Price,
	})
	if err != nil {
		return nil, err
	}
	dto := toProductDto(*added)
	return &dto, nil
}

func (s *Catalog) Delete(ctx context.Context, callerEmail string, index int) error {
	product, err := s.Get(ctx, index)
	if err != nil {
		return err
	}
	if product.SellerEmail != callerEmail {
		return fmt.Errorf("product %d is listed by another seller: %w", index, serrors.ErrForbidden)
	}
	return s.store.RemoveAt(index)
}

func toProductDtos(products []store.Product) []ProductDto {
	dtos := make([]ProductDto, 0, len(products))
	for _, p := range products {
		dtos = append(dtos, toProductDto(p))
	}
	return dtos
}

func toProductDto(p store.Product) ProductDto {
	return ProductDto{
		Index:       p.Index,
		Seller:      p.Seller,
		SellerEmail: p.SellerEmail,
		Name:        p.Name,
		Description: p.Description,
		Photo:       p.PhotoRef,
		Price:       p.Price,
	}
}
