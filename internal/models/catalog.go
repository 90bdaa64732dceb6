package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductType string

const (
	ProductTypeSimple   ProductType = "simple"
	ProductTypeVariable ProductType = "variable"
)

type StockStatus string

const (
	StockStatusInStock    StockStatus = "instock"
	StockStatusOutOfStock StockStatus = "outofstock"
)

// Taxonomy names used by the catalog store.
const (
	TaxonomyColor    = "pa_color"
	TaxonomySize     = "pa_size"
	TaxonomyCategory = "product_cat"
	TaxonomyBrand    = "product_brand"
)

// ProductAttribute is a named attribute carried on a product record. Taxonomy
// attributes reference term options by slug; plain attributes carry literal
// values (the brand fallback when the brand taxonomy is disabled).
type ProductAttribute struct {
	Name      string   `json:"name"`
	Options   []string `json:"options"`
	Visible   bool     `json:"visible"`
	Variation bool     `json:"variation"`
}

// CatalogProduct is a product record in the catalog store, keyed by SKU.
// StyleSKU links the product back to the monitored distributor style that
// produced it; the product's own SKU may differ (brand+style pair).
type CatalogProduct struct {
	ID            string                      `json:"id" gorm:"type:uuid;primary_key"`
	SKU           string                      `json:"sku" gorm:"unique;not null"`
	StyleSKU      string                      `json:"style_sku" gorm:"index"`
	Name          string                      `json:"name" gorm:"not null"`
	Slug          string                      `json:"slug" gorm:"index"`
	Description   string                      `json:"description"`
	Status        string                      `json:"status" gorm:"default:publish"`
	Type          ProductType                 `json:"type" gorm:"default:simple"`
	ImageURL      string                      `json:"image_url"`
	MarginPercent float64                     `json:"margin_percent" gorm:"default:0"`
	Attributes    map[string]ProductAttribute `json:"attributes" gorm:"serializer:json"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
}

func (p *CatalogProduct) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// CatalogVariant is one purchasable color/size combination of a variable
// product. The sync engine treats the variant set as derived state and
// rebuilds it wholesale on every run.
type CatalogVariant struct {
	ID               string      `json:"id" gorm:"type:uuid;primary_key"`
	ProductID        string      `json:"product_id" gorm:"type:uuid;index;not null"`
	SKU              string      `json:"sku" gorm:"index"`
	ColorSlug        string      `json:"color_slug"`
	SizeSlug         string      `json:"size_slug"`
	Price            float64     `json:"price"`
	StockQuantity    int         `json:"stock_quantity" gorm:"default:0"`
	StockStatus      StockStatus `json:"stock_status" gorm:"default:outofstock"`
	ExternalImageURL string      `json:"external_image_url"`
	Status           string      `json:"status" gorm:"default:publish"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

func (v *CatalogVariant) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	return nil
}

// TaxonomyTerm is one attribute option (a color, a size, a category, a brand).
type TaxonomyTerm struct {
	ID        string    `json:"id" gorm:"type:uuid;primary_key"`
	Taxonomy  string    `json:"taxonomy" gorm:"index:idx_terms_taxonomy_slug,unique;not null"`
	Slug      string    `json:"slug" gorm:"index:idx_terms_taxonomy_slug,unique;not null"`
	Name      string    `json:"name" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (t *TaxonomyTerm) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

// ProductTerm assigns a taxonomy term to a product.
type ProductTerm struct {
	ProductID string `json:"product_id" gorm:"type:uuid;primaryKey"`
	TermID    string `json:"term_id" gorm:"type:uuid;primaryKey"`
}
