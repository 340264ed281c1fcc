package storefront

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vesaa/dressify/internal/backend"
	"github.com/vesaa/dressify/internal/models"
)

// fakeCatalog counts calls and serves canned data.
type fakeCatalog struct {
	mu          sync.Mutex
	catalog     *models.Catalog
	catalogErr  error
	products    map[string]models.Product
	catalogHits int
	productHits []string
}

func (f *fakeCatalog) ProductsByCategory(ctx context.Context, n int) (*models.Catalog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.catalogHits++
	if f.catalogErr != nil {
		return nil, f.catalogErr
	}
	return f.catalog, nil
}

func (f *fakeCatalog) Product(ctx context.Context, id string) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.productHits = append(f.productHits, id)
	if p, ok := f.products[id]; ok {
		return &p, nil
	}
	return nil, backend.ErrNotFound
}

type alertRecorder struct {
	messages []string
}

func (r *alertRecorder) Alert(m string) { r.messages = append(r.messages, m) }

func shirtsCatalog() *models.Catalog {
	return &models.Catalog{Categories: []models.Category{
		{Name: "Shirts", Products: []models.Product{
			{ImageID: "101", Title: "Oxford Shirt", Brand: "Arrow", ThumbnailURL: "x"},
			{ImageID: "102", ProductDisplayName: "Linen Shirt"},
			{ImageID: "103"},
		}},
		{Name: "Watches", Products: []models.Product{
			{ImageID: "201", Title: "Chrono", Price: models.Price{Amount: 99, Valid: true}},
		}},
	}}
}

func newTestApp(t *testing.T, f *fakeCatalog) (*App, *alertRecorder) {
	t.Helper()
	alerts := &alertRecorder{}
	app, err := New(f, Options{ItemsPerCategory: 8, Alerter: alerts})
	require.NoError(t, err)
	return app, alerts
}

func renderedDoc(t *testing.T, app *App) *goquery.Document {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, app.WritePage(&buf))
	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	return doc
}

func TestLoadRendersOneSectionPerCategory(t *testing.T) {
	f := &fakeCatalog{catalog: shirtsCatalog()}
	app, _ := newTestApp(t, f)

	require.NoError(t, app.Load(context.Background()))
	doc := renderedDoc(t, app)

	sections := doc.Find("#category-sections .category-section")
	require.Equal(t, 2, sections.Length())

	first := sections.Eq(0)
	assert.Equal(t, "Shirts", first.Find("h2").Text())
	assert.Equal(t, 3, first.Find(".grid-product-card").Length())
	assert.Equal(t, "3 items", first.Find(".item-count").Text())
	assert.Equal(t, "👔", first.Find(".cat-icon").Text())

	second := sections.Eq(1)
	assert.Equal(t, 1, second.Find(".grid-product-card").Length())
	assert.Equal(t, "$99.00", strings.TrimSpace(second.Find(".grid-product-price").Text()))

	assert.Equal(t, 0, doc.Find("#products-loading").Length(), "loader is gone after success")
	assert.Len(t, app.State().Products, 4)
}

func TestLoadSingleCategoryCounts(t *testing.T) {
	f := &fakeCatalog{catalog: &models.Catalog{Categories: []models.Category{
		{Name: "Shirts", Products: []models.Product{{ImageID: "1"}, {ImageID: "2"}}},
	}}}
	app, _ := newTestApp(t, f)
	require.NoError(t, app.Load(context.Background()))

	doc := renderedDoc(t, app)
	assert.Equal(t, 1, doc.Find(".category-section").Length())
	assert.Equal(t, 2, doc.Find(".category-section .grid-product-card").Length())
}

func TestCardFallbacks(t *testing.T) {
	f := &fakeCatalog{catalog: shirtsCatalog()}
	app, _ := newTestApp(t, f)
	require.NoError(t, app.Load(context.Background()))

	doc := renderedDoc(t, app)
	cards := doc.Find(".grid-product-card")

	withThumb := cards.Eq(0)
	src, _ := withThumb.Find("img").Attr("src")
	assert.Equal(t, "/images/101.jpg", src)
	href, _ := withThumb.Attr("href")
	assert.Equal(t, "?product=101", href)

	bare := cards.Eq(2)
	src, _ = bare.Find("img").Attr("src")
	assert.Equal(t, models.PlaceholderCardImage, src)
	assert.Equal(t, "Unbranded", bare.Find(".grid-product-brand").Text())
	assert.Equal(t, "Fashion Item", bare.Find(".grid-product-title").Text())
	assert.Equal(t, "Price on request", bare.Find(".grid-product-price").Text())
}

func TestLoadFailureShowsStaticMessage(t *testing.T) {
	f := &fakeCatalog{catalogErr: errors.New("connection refused")}
	app, _ := newTestApp(t, f)

	err := app.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, f.catalogHits, "no retry")

	doc := renderedDoc(t, app)
	assert.Equal(t, LoadFailedMessage, doc.Find("#products-loading .load-error").Text())
	assert.Equal(t, 0, doc.Find(".category-section").Length())
}

func TestShowProductCacheHit(t *testing.T) {
	f := &fakeCatalog{catalog: shirtsCatalog()}
	app, alerts := newTestApp(t, f)
	require.NoError(t, app.Load(context.Background()))

	p, err := app.ShowProduct(context.Background(), "102")
	require.NoError(t, err)
	assert.Equal(t, "Linen Shirt", p.DisplayTitle())

	assert.Empty(t, f.productHits, "known id must not hit the backend")
	assert.Empty(t, alerts.messages)
	assert.Equal(t, ViewProduct, app.Views().Current())

	doc := renderedDoc(t, app)
	assert.Equal(t, "Linen Shirt", doc.Find("#detail-title").Text())
	assert.Equal(t, "Unisex", doc.Find("#detail-gender").Text())
	assert.True(t, doc.Find("#home-view").HasClass("hidden"))
	assert.True(t, doc.Find("#product-view").HasClass("active"))
}

func TestShowProductFallbackFetch(t *testing.T) {
	f := &fakeCatalog{
		catalog:  shirtsCatalog(),
		products: map[string]models.Product{"900": {ImageID: "900", Brand: "Puma"}},
	}
	app, alerts := newTestApp(t, f)
	require.NoError(t, app.Load(context.Background()))

	p, err := app.ShowProduct(context.Background(), "900")
	require.NoError(t, err)
	assert.Equal(t, "Puma", p.Brand)
	assert.Equal(t, []string{"900"}, f.productHits)
	assert.Empty(t, alerts.messages)
}

func TestShowProductUnknownAlertsOnce(t *testing.T) {
	f := &fakeCatalog{catalog: shirtsCatalog()}
	app, alerts := newTestApp(t, f)
	require.NoError(t, app.Load(context.Background()))

	_, err := app.ShowProduct(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProductNotFound))

	assert.Equal(t, []string{"nope"}, f.productHits, "exactly one fallback fetch")
	assert.Equal(t, []string{NotFoundAlert}, alerts.messages, "exactly one alert")
	assert.Equal(t, ViewHome, app.Views().Current(), "view is unchanged")
}

func TestInitDeepLink(t *testing.T) {
	f := &fakeCatalog{catalog: shirtsCatalog()}
	app, _ := newTestApp(t, f)

	require.NoError(t, app.Init(context.Background(), url.Values{"product": {"201"}}))
	assert.Equal(t, ViewProduct, app.Views().Current())
	assert.Empty(t, f.productHits, "deep link resolves from the loaded catalog")
	assert.Equal(t, "Chrono", app.State().Current.DisplayTitle())
}

func TestInitDeepLinkAfterLoadFailure(t *testing.T) {
	f := &fakeCatalog{
		catalogErr: errors.New("down"),
		products:   map[string]models.Product{"7": {ImageID: "7"}},
	}
	app, alerts := newTestApp(t, f)

	err := app.Init(context.Background(), url.Values{"product": {"7"}})
	require.Error(t, err, "load failure is still reported")
	assert.Equal(t, []string{"7"}, f.productHits)
	assert.Empty(t, alerts.messages)
	assert.Equal(t, ViewProduct, app.Views().Current())
}

func TestInitWithoutDeepLinkStaysHome(t *testing.T) {
	f := &fakeCatalog{catalog: shirtsCatalog()}
	app, _ := newTestApp(t, f)

	require.NoError(t, app.Init(context.Background(), url.Values{}))
	assert.Equal(t, ViewHome, app.Views().Current())
}

func TestShowProductRejectedDuringTransition(t *testing.T) {
	f := &fakeCatalog{catalog: shirtsCatalog()}
	app, _ := newTestApp(t, f)
	require.NoError(t, app.Load(context.Background()))

	tr, err := app.Views().Begin(ViewHome)
	require.NoError(t, err)

	_, err = app.ShowProduct(context.Background(), "101")
	assert.True(t, errors.Is(err, ErrTransitionInFlight))

	tr.Complete()
	_, err = app.ShowProduct(context.Background(), "101")
	assert.NoError(t, err)
}

func TestAddToCart(t *testing.T) {
	app, _ := newTestApp(t, &fakeCatalog{catalog: shirtsCatalog()})

	assert.Equal(t, 1, app.AddToCart())
	assert.Equal(t, 2, app.AddToCart())

	doc := renderedDoc(t, app)
	assert.Equal(t, "Cart (2)", doc.Find("#cart-btn").Text())
}
