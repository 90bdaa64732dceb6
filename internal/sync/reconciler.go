package sync

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gosimple/slug"

	"stylesync/internal/catalog"
	"stylesync/internal/logger"
	"stylesync/internal/models"
	"stylesync/internal/prefs"
	"stylesync/internal/services/ssactivewear"
	"stylesync/internal/synclog"
)

// RemoteClient is the slice of the distributor client the reconciler needs.
type RemoteClient interface {
	FetchStyle(sku string) *ssactivewear.StyleRecord
	FetchStyleColors(styleTitle string) []ssactivewear.ColorRecord
}

// Publisher announces completed runs to downstream consumers. Optional;
// publish failures never fail a sync.
type Publisher interface {
	PublishSyncCompleted(summary Summary) error
}

// Summary is the outcome of one reconciliation run.
type Summary struct {
	Status       string        `json:"status"`
	Message      string        `json:"message"`
	Trigger      string        `json:"trigger"`
	Monitored    int           `json:"monitored"`
	SuccessCount int           `json:"success_count"`
	FailCount    int           `json:"fail_count"`
	Created      int           `json:"created"`
	Updated      int           `json:"updated"`
	Duration     time.Duration `json:"duration"`
}

// ErrSyncInProgress is returned when a run is refused because another run
// holds the lock.
var ErrSyncInProgress = errors.New("sync already running")

// defaultLockTTL caps how long a stuck run can block new ones.
const defaultLockTTL = 30 * time.Minute

// defaultPriceIncrement rounds retail prices to the quarter when Options
// leaves the increment unset.
const defaultPriceIncrement = 0.25

// Options tunes a Reconciler beyond its collaborators.
type Options struct {
	DefaultMarginPercent float64
	PriceIncrement       float64
	CDNBaseURL           string
	LockTTL              time.Duration

	// FieldMapper, when set, runs after the base style-to-product mapping
	// and may adjust the product before it is saved.
	FieldMapper func(product *models.CatalogProduct, style *ssactivewear.StyleRecord)
}

// Reconciler drives full sync runs: it walks the monitored SKU list, pulls
// each style from the distributor and rewrites the matching catalog product
// and its variants.
type Reconciler struct {
	client    RemoteClient
	catalog   *catalog.Store
	prefs     *prefs.Store
	log       *synclog.Log
	publisher Publisher
	logger    *logger.Logger
	opts      Options

	mu       sync.Mutex
	lockedAt time.Time
}

func NewReconciler(client RemoteClient, store *catalog.Store, prefStore *prefs.Store, log *synclog.Log, publisher Publisher, logger *logger.Logger, opts Options) *Reconciler {
	if opts.DefaultMarginPercent <= 0 {
		opts.DefaultMarginPercent = 50
	}
	if opts.PriceIncrement <= 0 {
		opts.PriceIncrement = defaultPriceIncrement
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = defaultLockTTL
	}

	return &Reconciler{
		client:    client,
		catalog:   store,
		prefs:     prefStore,
		log:       log,
		publisher: publisher,
		logger:    logger,
		opts:      opts,
	}
}

// tryLock acquires the single-slot run lock. A lock older than the TTL is
// treated as abandoned and stolen.
func (r *Reconciler) tryLock() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.lockedAt.IsZero() && time.Since(r.lockedAt) < r.opts.LockTTL {
		return false
	}
	r.lockedAt = time.Now()
	return true
}

func (r *Reconciler) unlock() {
	r.mu.Lock()
	r.lockedAt = time.Time{}
	r.mu.Unlock()
}

// Running reports whether a run currently holds the lock.
func (r *Reconciler) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.lockedAt.IsZero() && time.Since(r.lockedAt) < r.opts.LockTTL
}

// Run executes one full reconciliation. Concurrent calls beyond the first
// return ErrSyncInProgress without touching the catalog or the log.
func (r *Reconciler) Run(trigger string) (Summary, error) {
	if !r.tryLock() {
		return Summary{Status: "error", Message: "sync already running", Trigger: trigger}, ErrSyncInProgress
	}
	defer r.unlock()

	started := time.Now()
	summary := Summary{Status: "success", Trigger: trigger}

	monitored, err := r.prefs.MonitoredSKUs()
	if err != nil {
		summary.Status = "error"
		summary.Message = fmt.Sprintf("failed to load monitored SKUs: %v", err)
		r.appendLog(summary, started, nil)
		return summary, err
	}
	summary.Monitored = len(monitored)

	// The dependency check comes before the nothing-to-sync shortcut so a
	// down backend is reported even with an empty monitored list. One
	// unreachable-backend log line instead of one per SKU.
	if err := r.catalog.Ping(); err != nil {
		summary.Status = "error"
		summary.FailCount = len(monitored)
		summary.Message = fmt.Sprintf("catalog backend unreachable: %v", err)
		r.appendLog(summary, started, nil)
		return summary, err
	}

	if len(monitored) == 0 {
		summary.Message = "No monitored SKUs; nothing to sync."
		r.appendLog(summary, started, nil)
		return summary, nil
	}

	var failedSKUs []string
	for _, entry := range monitored {
		created, err := r.syncStyle(entry.SKU)
		if err != nil {
			r.logger.Warn("sync failed for %s: %v", entry.SKU, err)
			summary.FailCount++
			failedSKUs = append(failedSKUs, entry.SKU)
			continue
		}
		summary.SuccessCount++
		if created {
			summary.Created++
		} else {
			summary.Updated++
		}
	}

	summary.Duration = time.Since(started)
	if summary.FailCount > 0 {
		summary.Status = "error"
		summary.Message = "Sync completed with errors."
	} else {
		summary.Message = "Sync completed."
	}

	r.appendLog(summary, started, failedSKUs)

	if r.publisher != nil {
		if err := r.publisher.PublishSyncCompleted(summary); err != nil {
			r.logger.Warn("failed to publish sync event: %v", err)
		}
	}

	return summary, nil
}

func (r *Reconciler) appendLog(summary Summary, started time.Time, failedSKUs []string) {
	level := models.LogLevelSuccess
	if summary.Status == "error" {
		level = models.LogLevelError
	}

	context := map[string]interface{}{
		"trigger":     summary.Trigger,
		"duration_ms": time.Since(started).Milliseconds(),
	}
	if len(failedSKUs) > 0 {
		context["failed_skus"] = failedSKUs
	}

	if err := r.log.Append(level, summary.Message, summary.SuccessCount, summary.FailCount, context); err != nil {
		r.logger.Error("failed to append sync log: %v", err)
	}
}

// syncStyle reconciles one monitored SKU. Returns whether the product was
// created (vs updated).
func (r *Reconciler) syncStyle(sku string) (bool, error) {
	style := r.client.FetchStyle(sku)
	if style == nil {
		return false, fmt.Errorf("style %s not found at distributor", sku)
	}

	name := joinFields(style.Title, style.BrandName, style.StyleName)
	if name == "" {
		name = fmt.Sprintf("Synced SKU %s", sku)
	}

	// The product's own SKU is the brand+style pair, not the monitored SKU.
	desiredSKU := style.StyleTitle()
	if desiredSKU == "" {
		desiredSKU = strings.TrimSpace(style.SKU)
	}
	if desiredSKU == "" {
		desiredSKU = sku
	}

	queryTitle := style.StyleTitle()
	if queryTitle == "" {
		queryTitle = name
	}
	// A style with no color rows, or a selection matching none of them,
	// still syncs: it becomes a simple product and the variant rebuild below
	// clears whatever variants a previous run left.
	colors := r.client.FetchStyleColors(queryTitle)
	maps := Aggregate(colors, r.prefs.SelectedColors(sku), r.opts.CDNBaseURL)

	margin := r.prefs.MarginPercentFor(sku, r.opts.DefaultMarginPercent)

	colorNames := maps.Colors()
	sizeNames := maps.Sizes()
	variable := len(colorNames) > 1 || len(sizeNames) > 1

	// Collision guard: the desired SKU must be free or already owned by the
	// product this monitored style produced before.
	priorID, err := r.catalog.ProductIDByStyleSKU(sku)
	if err != nil {
		return false, err
	}
	ownerID, err := r.catalog.ProductIDBySKU(desiredSKU)
	if err != nil {
		return false, err
	}
	if ownerID != "" && ownerID != priorID {
		return false, fmt.Errorf("sku %q already belongs to another product", desiredSKU)
	}

	created := priorID == ""
	product := &models.CatalogProduct{}
	if !created {
		product, err = r.catalog.GetProduct(priorID)
		if err != nil {
			return false, err
		}
	}

	product.SKU = desiredSKU
	product.StyleSKU = sku
	product.Name = name
	product.Slug = slug.Make(desiredSKU)
	if style.Description != "" {
		product.Description = style.Description
	}
	product.MarginPercent = margin
	product.Status = "publish"
	if variable {
		product.Type = models.ProductTypeVariable
	} else {
		product.Type = models.ProductTypeSimple
	}

	if product.Attributes == nil {
		product.Attributes = map[string]models.ProductAttribute{}
	}
	product.Attributes[models.TaxonomyColor] = models.ProductAttribute{
		Name:      "Color",
		Options:   colorNames,
		Visible:   true,
		Variation: variable,
	}
	product.Attributes[models.TaxonomySize] = models.ProductAttribute{
		Name:      "Size",
		Options:   sizeNames,
		Visible:   true,
		Variation: variable,
	}

	if r.opts.FieldMapper != nil {
		r.opts.FieldMapper(product, style)
	}

	if err := r.catalog.SaveProduct(product); err != nil {
		return created, err
	}

	if err := r.assignAttributeTerms(product.ID, colorNames, sizeNames); err != nil {
		return created, err
	}
	if err := r.catalog.SetCategory(product.ID, style.BaseCategory); err != nil {
		r.logger.Warn("category assignment failed for %s: %v", desiredSKU, err)
	}
	if err := r.catalog.ApplyBrand(product, style.BrandName); err != nil {
		r.logger.Warn("brand assignment failed for %s: %v", desiredSKU, err)
	}
	if err := r.catalog.SetFeaturedImage(product, style.StyleImage); err != nil {
		r.logger.Warn("featured image update failed for %s: %v", desiredSKU, err)
	}

	if err := r.rebuildVariants(product, desiredSKU, maps); err != nil {
		return created, err
	}

	return created, nil
}

func joinFields(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

func (r *Reconciler) assignAttributeTerms(productID string, colorNames, sizeNames []string) error {
	colorTerms, err := r.catalog.ResolveTerms(colorNames, models.TaxonomyColor)
	if err != nil {
		return err
	}
	if err := r.catalog.AssignTerms(productID, colorTerms); err != nil {
		return err
	}

	sizeTerms, err := r.catalog.ResolveTerms(sizeNames, models.TaxonomySize)
	if err != nil {
		return err
	}
	return r.catalog.AssignTerms(productID, sizeTerms)
}

// rebuildVariants drops and recreates the product's variant set from the
// aggregated maps. Variants are derived state; rebuilding wholesale keeps
// removed colors and sizes from lingering.
func (r *Reconciler) rebuildVariants(product *models.CatalogProduct, baseSKU string, maps *Maps) error {
	if err := r.catalog.DeleteVariants(product.ID); err != nil {
		return err
	}

	for _, color := range maps.Colors() {
		colorSlug := r.catalog.TermSlug(color, models.TaxonomyColor)
		if colorSlug == "" {
			colorSlug = slug.Make(color)
		}

		for _, size := range maps.ColorSizes[color] {
			sizeSlug := r.catalog.TermSlug(size, models.TaxonomySize)
			if sizeSlug == "" {
				sizeSlug = slug.Make(size)
			}

			variantSKU := maps.ColorSizeSKUs[color][size]
			if variantSKU == "" {
				variantSKU = fmt.Sprintf("%s-%s-%s", baseSKU, colorSlug, sizeSlug)
			}

			qty := maps.ColorSizeQtys[color][size]
			status := models.StockStatusOutOfStock
			if qty > 0 {
				status = models.StockStatusInStock
			}

			price := 0.0
			if cost, ok := maps.ColorSizePrices[color][size]; ok && cost > 0 {
				price = ComputeVariantPrice(cost, product.MarginPercent, r.opts.PriceIncrement)
			}

			variant := models.CatalogVariant{
				ProductID:        product.ID,
				SKU:              variantSKU,
				ColorSlug:        colorSlug,
				SizeSlug:         sizeSlug,
				Price:            price,
				StockQuantity:    qty,
				StockStatus:      status,
				ExternalImageURL: maps.ImageBySKU[variantSKU],
				Status:           "publish",
			}
			if err := r.catalog.CreateVariant(&variant); err != nil {
				return err
			}
		}
	}

	return nil
}
