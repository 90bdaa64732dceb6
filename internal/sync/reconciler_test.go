package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stylesync/internal/catalog"
	"stylesync/internal/database"
	"stylesync/internal/logger"
	"stylesync/internal/models"
	"stylesync/internal/prefs"
	"stylesync/internal/services/ssactivewear"
	"stylesync/internal/synclog"
)

type fakeRemote struct {
	styles map[string]*ssactivewear.StyleRecord
	colors map[string][]ssactivewear.ColorRecord
}

func (f *fakeRemote) FetchStyle(sku string) *ssactivewear.StyleRecord {
	return f.styles[sku]
}

func (f *fakeRemote) FetchStyleColors(styleTitle string) []ssactivewear.ColorRecord {
	return f.colors[styleTitle]
}

type recordingPublisher struct {
	published []Summary
}

func (p *recordingPublisher) PublishSyncCompleted(summary Summary) error {
	p.published = append(p.published, summary)
	return nil
}

type fixture struct {
	reconciler *Reconciler
	remote     *fakeRemote
	catalog    *catalog.Store
	prefs      *prefs.Store
	log        *synclog.Log
	publisher  *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := database.New("sqlite://:memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	appLogger := logger.New("error")
	remote := &fakeRemote{
		styles: map[string]*ssactivewear.StyleRecord{},
		colors: map[string][]ssactivewear.ColorRecord{},
	}
	catalogStore := catalog.NewStore(db.DB, "https://cdn.example.com/", appLogger)
	prefStore := prefs.NewStore(db.DB)
	runLog := synclog.New(db.DB)
	publisher := &recordingPublisher{}

	reconciler := NewReconciler(remote, catalogStore, prefStore, runLog, publisher, appLogger, Options{
		DefaultMarginPercent: 50,
		PriceIncrement:       0.25,
		CDNBaseURL:           "https://cdn.example.com/",
	})

	return &fixture{
		reconciler: reconciler,
		remote:     remote,
		catalog:    catalogStore,
		prefs:      prefStore,
		log:        runLog,
		publisher:  publisher,
	}
}

func (f *fixture) seedGildan(t *testing.T) {
	t.Helper()

	f.remote.styles["B00760004"] = &ssactivewear.StyleRecord{
		StyleID:      "39",
		Title:        "Gildan 5000 Heavy Cotton",
		BrandName:    "Gildan",
		StyleName:    "5000",
		SKU:          "B00760004",
		Description:  "Heavyweight cotton tee.",
		StyleImage:   "Images/Style/39_f_fm.jpg",
		BaseCategory: "T-Shirts",
	}
	f.remote.colors["Gildan 5000"] = []ssactivewear.ColorRecord{
		{
			ColorCode:       "BLK",
			ColorName:       "Black",
			ColorFrontImage: "Images/black.jpg",
			SizeNames:       []string{"S", "M"},
			SizeSkus:        map[string]string{"S": "B001", "M": "B002"},
			SizePrices:      map[string]float64{"S": 5.00, "M": 6.00},
			SizeQtys:        map[string]int{"S": 3, "M": 6},
		},
		{
			ColorCode:  "NVY",
			ColorName:  "Navy",
			SizeNames:  []string{"M"},
			SizeSkus:   map[string]string{"M": "N002"},
			SizePrices: map[string]float64{"M": 6.00},
			SizeQtys:   map[string]int{"M": 0},
		},
	}
}

func TestReconcilerCreatesVariableProduct(t *testing.T) {
	f := newFixture(t)
	f.seedGildan(t)

	_, err := f.prefs.AddMonitoredSKU("B00760004")
	require.NoError(t, err)

	summary, err := f.reconciler.Run("manual")
	require.NoError(t, err)

	assert.Equal(t, "success", summary.Status)
	assert.Equal(t, 1, summary.SuccessCount)
	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 0, summary.FailCount)

	// Product identity: SKU is the brand+style pair, the monitored style SKU
	// is kept as the back-link.
	product, err := f.catalog.GetProductBySKU("Gildan 5000")
	require.NoError(t, err)
	require.NotNil(t, product)
	assert.Equal(t, "B00760004", product.StyleSKU)
	assert.Equal(t, "Gildan 5000 Heavy Cotton Gildan 5000", product.Name)
	assert.Equal(t, "gildan-5000", product.Slug)
	assert.Equal(t, models.ProductTypeVariable, product.Type)
	assert.Equal(t, 50.0, product.MarginPercent)
	assert.Equal(t, "https://cdn.example.com/Images/Style/39_f_fm.jpg", product.ImageURL)

	variants, err := f.catalog.VariantsByProduct(product.ID)
	require.NoError(t, err)
	require.Len(t, variants, 3)

	bySKU := map[string]models.CatalogVariant{}
	for _, v := range variants {
		bySKU[v.SKU] = v
	}

	blackS := bySKU["B001"]
	assert.Equal(t, 10.00, blackS.Price)
	assert.Equal(t, 3, blackS.StockQuantity)
	assert.Equal(t, models.StockStatusInStock, blackS.StockStatus)
	assert.Equal(t, "black", blackS.ColorSlug)
	assert.Equal(t, "s", blackS.SizeSlug)
	assert.Equal(t, "https://cdn.example.com/Images/black.jpg", blackS.ExternalImageURL)

	assert.Equal(t, 12.00, bySKU["B002"].Price)
	assert.Equal(t, 12.00, bySKU["N002"].Price)
	assert.Equal(t, models.StockStatusOutOfStock, bySKU["N002"].StockStatus)

	colorTerms, err := f.catalog.ProductTerms(product.ID, models.TaxonomyColor)
	require.NoError(t, err)
	assert.Len(t, colorTerms, 2)

	categoryTerms, err := f.catalog.ProductTerms(product.ID, models.TaxonomyCategory)
	require.NoError(t, err)
	require.Len(t, categoryTerms, 1)
	assert.Equal(t, "T-Shirts", categoryTerms[0].Name)

	brandTerms, err := f.catalog.ProductTerms(product.ID, models.TaxonomyBrand)
	require.NoError(t, err)
	require.Len(t, brandTerms, 1)
	assert.Equal(t, "Gildan", brandTerms[0].Name)

	require.Len(t, f.publisher.published, 1)
	assert.Equal(t, "manual", f.publisher.published[0].Trigger)
}

func TestReconcilerHonorsColorSelection(t *testing.T) {
	f := newFixture(t)
	f.seedGildan(t)

	_, err := f.prefs.AddMonitoredSKU("B00760004")
	require.NoError(t, err)
	require.NoError(t, f.prefs.SaveColorSelection("B00760004", []string{"Navy"}))

	summary, err := f.reconciler.Run("manual")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.SuccessCount)

	product, err := f.catalog.GetProductBySKU("Gildan 5000")
	require.NoError(t, err)
	require.NotNil(t, product)
	// One color, one size left: the product collapses to simple.
	assert.Equal(t, models.ProductTypeSimple, product.Type)

	variants, err := f.catalog.VariantsByProduct(product.ID)
	require.NoError(t, err)
	require.Len(t, variants, 1)
	assert.Equal(t, "N002", variants[0].SKU)
}

func TestReconcilerRebuildsVariants(t *testing.T) {
	f := newFixture(t)
	f.seedGildan(t)

	_, err := f.prefs.AddMonitoredSKU("B00760004")
	require.NoError(t, err)

	summary, err := f.reconciler.Run("manual")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Created)

	// Distributor drops Navy; the next run must not leave its variant behind.
	f.remote.colors["Gildan 5000"] = f.remote.colors["Gildan 5000"][:1]

	summary, err = f.reconciler.Run("cron")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, 0, summary.Created)

	product, err := f.catalog.GetProductBySKU("Gildan 5000")
	require.NoError(t, err)
	variants, err := f.catalog.VariantsByProduct(product.ID)
	require.NoError(t, err)
	require.Len(t, variants, 2)
	for _, v := range variants {
		assert.NotEqual(t, "N002", v.SKU)
	}
}

func TestReconcilerSKUCollisionLeavesOtherProductUntouched(t *testing.T) {
	f := newFixture(t)
	f.seedGildan(t)

	// An unrelated product already owns the brand+style SKU.
	other := models.CatalogProduct{SKU: "Gildan 5000", Name: "Hand-made listing"}
	require.NoError(t, f.catalog.SaveProduct(&other))

	_, err := f.prefs.AddMonitoredSKU("B00760004")
	require.NoError(t, err)

	summary, err := f.reconciler.Run("manual")
	require.NoError(t, err)
	assert.Equal(t, "error", summary.Status)
	assert.Equal(t, 1, summary.FailCount)
	assert.Equal(t, 0, summary.Created)

	reloaded, err := f.catalog.GetProduct(other.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hand-made listing", reloaded.Name)
	assert.Empty(t, reloaded.StyleSKU)

	variants, err := f.catalog.VariantsByProduct(other.ID)
	require.NoError(t, err)
	assert.Empty(t, variants)
}

func TestReconcilerCountsRemoteFailure(t *testing.T) {
	f := newFixture(t)

	_, err := f.prefs.AddMonitoredSKU("MISSING")
	require.NoError(t, err)

	summary, err := f.reconciler.Run("manual")
	require.NoError(t, err)

	assert.Equal(t, "error", summary.Status)
	assert.Equal(t, 1, summary.FailCount)
	assert.Equal(t, 0, summary.SuccessCount)

	lastRun, err := f.log.LastRun()
	require.NoError(t, err)
	require.NotNil(t, lastRun)
	assert.Equal(t, models.LogLevelError, lastRun.Level)
	assert.Contains(t, lastRun.ContextJSON, "MISSING")
}

func TestReconcilerRefusesConcurrentRun(t *testing.T) {
	f := newFixture(t)

	require.True(t, f.reconciler.tryLock())
	defer f.reconciler.unlock()

	summary, err := f.reconciler.Run("manual")
	assert.ErrorIs(t, err, ErrSyncInProgress)
	assert.Equal(t, "error", summary.Status)
	assert.True(t, f.reconciler.Running())

	// A refused run leaves no trace in the log.
	lastRun, err := f.log.LastRun()
	require.NoError(t, err)
	assert.Nil(t, lastRun)
}

func TestReconcilerSyncsStyleWithoutColorRows(t *testing.T) {
	f := newFixture(t)

	f.remote.styles["NC1"] = &ssactivewear.StyleRecord{
		BrandName:    "Acme",
		StyleName:    "77",
		BaseCategory: "Accessories",
	}

	_, err := f.prefs.AddMonitoredSKU("NC1")
	require.NoError(t, err)

	summary, err := f.reconciler.Run("manual")
	require.NoError(t, err)
	assert.Equal(t, "success", summary.Status)
	assert.Equal(t, 1, summary.SuccessCount)
	assert.Equal(t, 1, summary.Created)

	product, err := f.catalog.GetProductBySKU("Acme 77")
	require.NoError(t, err)
	require.NotNil(t, product)
	assert.Equal(t, models.ProductTypeSimple, product.Type)

	variants, err := f.catalog.VariantsByProduct(product.ID)
	require.NoError(t, err)
	assert.Empty(t, variants)
}

func TestReconcilerSelectionExcludingEveryColorClearsVariants(t *testing.T) {
	f := newFixture(t)
	f.seedGildan(t)

	_, err := f.prefs.AddMonitoredSKU("B00760004")
	require.NoError(t, err)

	summary, err := f.reconciler.Run("manual")
	require.NoError(t, err)
	require.Equal(t, 1, summary.Created)

	// The merchant deselects every color the distributor offers; the product
	// survives as a simple one with no variants left.
	require.NoError(t, f.prefs.SaveColorSelection("B00760004", []string{"Chartreuse"}))

	summary, err = f.reconciler.Run("manual")
	require.NoError(t, err)
	assert.Equal(t, "success", summary.Status)
	assert.Equal(t, 1, summary.Updated)

	product, err := f.catalog.GetProductBySKU("Gildan 5000")
	require.NoError(t, err)
	require.NotNil(t, product)
	assert.Equal(t, models.ProductTypeSimple, product.Type)

	variants, err := f.catalog.VariantsByProduct(product.ID)
	require.NoError(t, err)
	assert.Empty(t, variants)
}

func TestReconcilerDefaultsPriceIncrement(t *testing.T) {
	f := newFixture(t)
	reconciler := NewReconciler(f.remote, f.catalog, f.prefs, f.log, nil, logger.New("error"), Options{})

	f.remote.styles["Z1"] = &ssactivewear.StyleRecord{BrandName: "Acme", StyleName: "55"}
	f.remote.colors["Acme 55"] = []ssactivewear.ColorRecord{
		{
			ColorCode:  "BLK",
			ColorName:  "Black",
			SizeNames:  []string{"S"},
			SizeSkus:   map[string]string{"S": "Z1S"},
			SizePrices: map[string]float64{"S": 5.10},
			SizeQtys:   map[string]int{"S": 1},
		},
	}

	_, err := f.prefs.AddMonitoredSKU("Z1")
	require.NoError(t, err)

	summary, err := reconciler.Run("manual")
	require.NoError(t, err)
	require.Equal(t, 1, summary.SuccessCount)

	product, err := f.catalog.GetProductBySKU("Acme 55")
	require.NoError(t, err)
	require.NotNil(t, product)

	variants, err := f.catalog.VariantsByProduct(product.ID)
	require.NoError(t, err)
	require.Len(t, variants, 1)
	// Zero-value options still round to the quarter: 5.10 / 0.5 = 10.20,
	// rounded up to 10.25.
	assert.Equal(t, 10.25, variants[0].Price)
}

func TestReconcilerReportsCatalogDownWithNothingMonitored(t *testing.T) {
	db, err := database.New("sqlite://:memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	downDB, err := database.New("sqlite://:memory:")
	require.NoError(t, err)

	appLogger := logger.New("error")
	catalogStore := catalog.NewStore(downDB.DB, "", appLogger)
	reconciler := NewReconciler(&fakeRemote{}, catalogStore, prefs.NewStore(db.DB), synclog.New(db.DB), nil, appLogger, Options{})

	downDB.Close()

	summary, err := reconciler.Run("manual")
	require.Error(t, err)
	assert.Equal(t, "error", summary.Status)
	assert.Equal(t, 0, summary.Monitored)
	assert.Contains(t, summary.Message, "catalog backend unreachable")
}

func TestReconcilerWithNothingMonitored(t *testing.T) {
	f := newFixture(t)

	summary, err := f.reconciler.Run("schedule")
	require.NoError(t, err)

	assert.Equal(t, "success", summary.Status)
	assert.Equal(t, 0, summary.Monitored)
	assert.Contains(t, summary.Message, "nothing to sync")
}

func TestReconcilerFallbackVariantSKUs(t *testing.T) {
	f := newFixture(t)

	f.remote.styles["X1"] = &ssactivewear.StyleRecord{
		BrandName: "Acme",
		StyleName: "99",
		SKU:       "X1",
	}
	f.remote.colors["Acme 99"] = []ssactivewear.ColorRecord{
		{
			ColorCode: "RED",
			ColorName: "Red",
			SizeNames: []string{"S", "M"},
			SizeSkus:  map[string]string{},
			SizeQtys:  map[string]int{"S": 1, "M": 1},
		},
	}

	_, err := f.prefs.AddMonitoredSKU("X1")
	require.NoError(t, err)

	summary, err := f.reconciler.Run("manual")
	require.NoError(t, err)
	require.Equal(t, 1, summary.SuccessCount)

	product, err := f.catalog.GetProductBySKU("Acme 99")
	require.NoError(t, err)
	require.NotNil(t, product)
	assert.Equal(t, "Acme 99", product.Name)
	assert.Equal(t, "acme-99", product.Slug)

	variants, err := f.catalog.VariantsByProduct(product.ID)
	require.NoError(t, err)
	require.Len(t, variants, 2)

	skus := []string{variants[0].SKU, variants[1].SKU}
	assert.Contains(t, skus, "Acme 99-red-s")
	assert.Contains(t, skus, "Acme 99-red-m")

	// No cost data: variants stay unpriced.
	assert.Equal(t, 0.0, variants[0].Price)
}
