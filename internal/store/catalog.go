package store

import (
	"fmt"
	"strings"

	serrors "github.com/abgdnv/wallacore/internal/errors"
	"github.com/shopspring/decimal"
)

// CatalogHeader names the columns of the catalog file.
var CatalogHeader = []string{"Vendedor", "Correo Vendedor", "Producto", "Descripción", "Foto", "Precio"}

// Product represents one listing of the catalog.
type Product struct {
	// Index is the row position in the unfiltered catalog at read time.
	Index       int
	Seller      string
	SellerEmail string
	Name        string
	Description string
	PhotoRef    string
	Price       decimal.Decimal
}

// CatalogStore implements Catalog on top of a RecordFile.
type CatalogStore struct {
	file *RecordFile
}

var _ Catalog = (*CatalogStore)(nil)

// NewCatalogStore creates a catalog backed by the file at path.
func NewCatalogStore(path string) *CatalogStore {
	return &CatalogStore{file: NewRecordFile(path, CatalogHeader)}
}

// List returns every product in file order.
func (s *CatalogStore) List() ([]Product, error) {
	return s.filter(func(Product) bool { return true })
}

// ListBySeller returns the products listed by the seller with the given email.
// Each product keeps the index it has in the unfiltered catalog.
func (s *CatalogStore) ListBySeller(email string) ([]Product, error) {
	return s.filter(func(p Product) bool { return p.SellerEmail == email })
}

// Add appends product to the catalog. The price is stored as given.
func (s *CatalogStore) Add(product Product) (*Product, error) {
	index, err := s.file.Append(encodeProduct(product))
	if err != nil {
		return nil, fmt.Errorf("failed to add product %q: %w", product.Name, err)
	}
	product.Index = index
	return &product, nil
}

// RemoveAt deletes the product at the given position of the unfiltered catalog.
func (s *CatalogStore) RemoveAt(index int) error {
	if err := s.file.RemoveAt(index); err != nil {
		return fmt.Errorf("failed to remove product: %w", err)
	}
	return nil
}

func (s *CatalogStore) filter(keep func(Product) bool) ([]Product, error) {
	rows, err := s.file.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	products := make([]Product, 0, len(rows))
	for i, row := range rows {
		p, err := decodeProduct(i, row)
		if err != nil {
			return nil, err
		}
		if keep(p) {
			products = append(products, p)
		}
	}
	return products, nil
}

func encodeProduct(p Product) []string {
	return []string{p.Seller, p.SellerEmail, p.Name, p.Description, p.PhotoRef, p.Price.String()}
}

func decodeProduct(index int, row []string) (Product, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(row[5]))
	if err != nil {
		return Product{}, fmt.Errorf("catalog row %d has invalid price %q: %w", index, row[5], serrors.ErrMalformedRow)
	}
	return Product{
		Index:       index,
		Seller:      row[0],
		SellerEmail: row[1],
		Name:        row[2],
		Description: row[3],
		PhotoRef:    row[4],
		Price:       price,
	}, nil
}
