package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"stylesync/internal/logger"
	"stylesync/internal/models"
)

// Store is the catalog side of the sync: products, variants and taxonomy
// terms over the shared database. The sync engine only ever addresses
// products by SKU and variants by (product, color, size).
type Store struct {
	db     *gorm.DB
	logger *logger.Logger

	// CDNBaseURL resolves relative distributor image paths.
	CDNBaseURL string

	// BrandTaxonomyEnabled controls whether brands are assigned as taxonomy
	// terms or fall back to a plain product attribute.
	BrandTaxonomyEnabled bool
}

func NewStore(db *gorm.DB, cdnBaseURL string, logger *logger.Logger) *Store {
	return &Store{
		db:                   db,
		logger:               logger,
		CDNBaseURL:           cdnBaseURL,
		BrandTaxonomyEnabled: true,
	}
}

// Ping reports whether the catalog backend is reachable. The reconciler
// short-circuits a whole run when it is not.
func (s *Store) Ping() error {
	if s == nil || s.db == nil {
		return errors.New("catalog store is not configured")
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("catalog store unavailable: %w", err)
	}
	return sqlDB.Ping()
}

// ProductIDBySKU returns the ID of the product owning a SKU, or "" when the
// SKU is unclaimed.
func (s *Store) ProductIDBySKU(sku string) (string, error) {
	var product models.CatalogProduct
	err := s.db.Select("id").First(&product, "sku = ?", sku).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return product.ID, nil
}

// ProductIDByStyleSKU returns the ID of the product previously synced from a
// monitored style, or "" when none was.
func (s *Store) ProductIDByStyleSKU(styleSKU string) (string, error) {
	var product models.CatalogProduct
	err := s.db.Select("id").First(&product, "style_sku = ?", styleSKU).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return product.ID, nil
}

func (s *Store) GetProduct(id string) (*models.CatalogProduct, error) {
	var product models.CatalogProduct
	if err := s.db.First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *Store) GetProductBySKU(sku string) (*models.CatalogProduct, error) {
	var product models.CatalogProduct
	err := s.db.First(&product, "sku = ?", sku).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// SaveProduct creates or updates a product record.
func (s *Store) SaveProduct(product *models.CatalogProduct) error {
	return s.db.Save(product).Error
}

// ResolveTerm finds or creates one taxonomy term, matching first by slug,
// then by display name, creating when neither exists.
func (s *Store) ResolveTerm(name, taxonomy string) (*models.TaxonomyTerm, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("term name is empty")
	}

	termSlug := slug.Make(name)

	var term models.TaxonomyTerm
	err := s.db.First(&term, "taxonomy = ? AND slug = ?", taxonomy, termSlug).Error
	if err == nil {
		return &term, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = s.db.First(&term, "taxonomy = ? AND name = ?", taxonomy, name).Error
	if err == nil {
		return &term, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	term = models.TaxonomyTerm{Taxonomy: taxonomy, Slug: termSlug, Name: name}
	if err := s.db.Create(&term).Error; err != nil {
		return nil, err
	}
	return &term, nil
}

// ResolveTerms resolves a deduplicated set of names, skipping blanks and
// names that fail to resolve.
func (s *Store) ResolveTerms(names []string, taxonomy string) ([]models.TaxonomyTerm, error) {
	seen := map[string]bool{}
	terms := make([]models.TaxonomyTerm, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		term, err := s.ResolveTerm(name, taxonomy)
		if err != nil {
			s.logger.Warn("failed to resolve %s term %q: %v", taxonomy, name, err)
			continue
		}
		terms = append(terms, *term)
	}
	return terms, nil
}

// TermSlug resolves a name to its term slug, creating the term when needed.
// Returns "" when the name is blank or resolution fails.
func (s *Store) TermSlug(name, taxonomy string) string {
	term, err := s.ResolveTerm(name, taxonomy)
	if err != nil {
		return ""
	}
	return term.Slug
}

// AssignTerms attaches taxonomy terms to a product, ignoring duplicates.
func (s *Store) AssignTerms(productID string, terms []models.TaxonomyTerm) error {
	for _, term := range terms {
		link := models.ProductTerm{ProductID: productID, TermID: term.ID}
		if err := s.db.FirstOrCreate(&link, link).Error; err != nil {
			return err
		}
	}
	return nil
}

// ProductTerms lists the terms of one taxonomy assigned to a product.
func (s *Store) ProductTerms(productID, taxonomy string) ([]models.TaxonomyTerm, error) {
	var terms []models.TaxonomyTerm
	err := s.db.
		Joins("JOIN product_terms ON product_terms.term_id = taxonomy_terms.id").
		Where("product_terms.product_id = ? AND taxonomy_terms.taxonomy = ?", productID, taxonomy).
		Find(&terms).Error
	return terms, err
}

// SetCategory resolves the category name to a product_cat term and assigns it.
func (s *Store) SetCategory(productID, categoryName string) error {
	if strings.TrimSpace(categoryName) == "" {
		return nil
	}
	term, err := s.ResolveTerm(categoryName, models.TaxonomyCategory)
	if err != nil {
		return err
	}
	return s.AssignTerms(productID, []models.TaxonomyTerm{*term})
}

// ApplyBrand records the brand as a product_brand term when that taxonomy is
// enabled, else as a non-variation product attribute on the record itself.
// The attribute fallback mutates the product; the caller persists it.
func (s *Store) ApplyBrand(product *models.CatalogProduct, brandName string) error {
	brandName = strings.TrimSpace(brandName)
	if brandName == "" {
		return nil
	}

	if s.BrandTaxonomyEnabled {
		term, err := s.ResolveTerm(brandName, models.TaxonomyBrand)
		if err == nil {
			return s.AssignTerms(product.ID, []models.TaxonomyTerm{*term})
		}
		s.logger.Warn("brand term resolution failed for %q, falling back to attribute: %v", brandName, err)
	}

	if product.Attributes == nil {
		product.Attributes = map[string]models.ProductAttribute{}
	}
	product.Attributes["brand"] = models.ProductAttribute{
		Name:      "Brand",
		Options:   []string{brandName},
		Visible:   true,
		Variation: false,
	}
	return s.db.Model(product).Update("attributes", product.Attributes).Error
}

// SetFeaturedImage stores the style image on a product unless one is already
// set; an existing image is never overwritten by a sync.
func (s *Store) SetFeaturedImage(product *models.CatalogProduct, imageURL string) error {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" || product.ImageURL != "" {
		return nil
	}

	product.ImageURL = ResolveImageURL(s.CDNBaseURL, imageURL)
	return s.db.Model(product).Update("image_url", product.ImageURL).Error
}

// DeleteVariants removes every child variant of a product.
func (s *Store) DeleteVariants(productID string) error {
	return s.db.Where("product_id = ?", productID).Delete(&models.CatalogVariant{}).Error
}

func (s *Store) CreateVariant(variant *models.CatalogVariant) error {
	return s.db.Create(variant).Error
}

func (s *Store) VariantsByProduct(productID string) ([]models.CatalogVariant, error) {
	var variants []models.CatalogVariant
	err := s.db.Where("product_id = ?", productID).Find(&variants).Error
	return variants, err
}

// ResolveImageURL turns a relative distributor image path into an absolute
// CDN URL; absolute URLs pass through untouched.
func ResolveImageURL(cdnBase, imageURL string) string {
	if imageURL == "" || strings.HasPrefix(imageURL, "http") {
		return imageURL
	}
	return strings.TrimSuffix(cdnBase, "/") + "/" + strings.TrimPrefix(imageURL, "/")
}
