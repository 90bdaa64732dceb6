package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stylesync/internal/database"
	"stylesync/internal/logger"
	"stylesync/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.New("sqlite://:memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db.DB, "https://cdn.example.com/", logger.New("error"))
}

func TestResolveTermCreatesOnce(t *testing.T) {
	store := newTestStore(t)

	first, err := store.ResolveTerm("Heather Grey", models.TaxonomyColor)
	require.NoError(t, err)
	assert.Equal(t, "heather-grey", first.Slug)
	assert.Equal(t, "Heather Grey", first.Name)

	second, err := store.ResolveTerm("Heather Grey", models.TaxonomyColor)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestResolveTermMatchesByName(t *testing.T) {
	store := newTestStore(t)

	// A pre-existing term whose slug does not follow the generated form.
	seeded := models.TaxonomyTerm{Taxonomy: models.TaxonomyColor, Slug: "hthr-gry", Name: "Heather Grey"}
	require.NoError(t, store.db.Create(&seeded).Error)

	resolved, err := store.ResolveTerm("Heather Grey", models.TaxonomyColor)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, resolved.ID)
	assert.Equal(t, "hthr-gry", resolved.Slug)
}

func TestResolveTermScopedByTaxonomy(t *testing.T) {
	store := newTestStore(t)

	color, err := store.ResolveTerm("Small", models.TaxonomyColor)
	require.NoError(t, err)
	size, err := store.ResolveTerm("Small", models.TaxonomySize)
	require.NoError(t, err)

	assert.NotEqual(t, color.ID, size.ID)
}

func TestResolveTermsSkipsBlanksAndDuplicates(t *testing.T) {
	store := newTestStore(t)

	terms, err := store.ResolveTerms([]string{"Black", "", "  ", "Black", "Navy"}, models.TaxonomyColor)
	require.NoError(t, err)
	assert.Len(t, terms, 2)
}

func TestAssignTermsIdempotent(t *testing.T) {
	store := newTestStore(t)

	product := models.CatalogProduct{SKU: "B001", Name: "Tee"}
	require.NoError(t, store.SaveProduct(&product))

	term, err := store.ResolveTerm("Black", models.TaxonomyColor)
	require.NoError(t, err)

	require.NoError(t, store.AssignTerms(product.ID, []models.TaxonomyTerm{*term}))
	require.NoError(t, store.AssignTerms(product.ID, []models.TaxonomyTerm{*term}))

	terms, err := store.ProductTerms(product.ID, models.TaxonomyColor)
	require.NoError(t, err)
	assert.Len(t, terms, 1)
}

func TestApplyBrandFallsBackToAttribute(t *testing.T) {
	store := newTestStore(t)
	store.BrandTaxonomyEnabled = false

	product := models.CatalogProduct{SKU: "B001", Name: "Tee"}
	require.NoError(t, store.SaveProduct(&product))

	require.NoError(t, store.ApplyBrand(&product, "Gildan"))

	reloaded, err := store.GetProduct(product.ID)
	require.NoError(t, err)
	attr, ok := reloaded.Attributes["brand"]
	require.True(t, ok)
	assert.Equal(t, []string{"Gildan"}, attr.Options)
	assert.False(t, attr.Variation)

	terms, err := store.ProductTerms(product.ID, models.TaxonomyBrand)
	require.NoError(t, err)
	assert.Empty(t, terms)
}

func TestSetFeaturedImageNeverOverwrites(t *testing.T) {
	store := newTestStore(t)

	product := models.CatalogProduct{SKU: "B001", Name: "Tee"}
	require.NoError(t, store.SaveProduct(&product))

	require.NoError(t, store.SetFeaturedImage(&product, "Images/front.jpg"))
	assert.Equal(t, "https://cdn.example.com/Images/front.jpg", product.ImageURL)

	require.NoError(t, store.SetFeaturedImage(&product, "Images/other.jpg"))
	assert.Equal(t, "https://cdn.example.com/Images/front.jpg", product.ImageURL)
}

func TestProductIDBySKU(t *testing.T) {
	store := newTestStore(t)

	id, err := store.ProductIDBySKU("NOPE")
	require.NoError(t, err)
	assert.Empty(t, id)

	product := models.CatalogProduct{SKU: "B001", Name: "Tee"}
	require.NoError(t, store.SaveProduct(&product))

	id, err = store.ProductIDBySKU("B001")
	require.NoError(t, err)
	assert.Equal(t, product.ID, id)
}

func TestDeleteVariantsScopedToProduct(t *testing.T) {
	store := newTestStore(t)

	first := models.CatalogProduct{SKU: "A", Name: "A"}
	second := models.CatalogProduct{SKU: "B", Name: "B"}
	require.NoError(t, store.SaveProduct(&first))
	require.NoError(t, store.SaveProduct(&second))

	require.NoError(t, store.CreateVariant(&models.CatalogVariant{ProductID: first.ID, SKU: "A-1"}))
	require.NoError(t, store.CreateVariant(&models.CatalogVariant{ProductID: second.ID, SKU: "B-1"}))

	require.NoError(t, store.DeleteVariants(first.ID))

	remaining, err := store.VariantsByProduct(first.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	kept, err := store.VariantsByProduct(second.ID)
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestResolveImageURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/Images/a.jpg", ResolveImageURL("https://cdn.example.com/", "Images/a.jpg"))
	assert.Equal(t, "https://cdn.example.com/Images/a.jpg", ResolveImageURL("https://cdn.example.com", "/Images/a.jpg"))
	assert.Equal(t, "https://elsewhere.com/a.jpg", ResolveImageURL("https://cdn.example.com/", "https://elsewhere.com/a.jpg"))
	assert.Equal(t, "", ResolveImageURL("https://cdn.example.com/", ""))
}
