// Package storefront holds the catalog, product detail, and cart behavior of
// the Dressify shop. All state lives in an explicit App value; nothing is
// package-global.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/vesaa/dressify/internal/backend"
	"github.com/vesaa/dressify/internal/models"
)

const (
	// LoadFailedMessage replaces the loading indicator when the catalog fetch fails.
	LoadFailedMessage = "Failed to load products. Please try again later."
	// NotFoundAlert is raised once when a product cannot be found anywhere.
	NotFoundAlert = "Product not found!"
	// DeepLinkParam is the query parameter that opens a product on load.
	DeepLinkParam = "product"
)

// ErrProductNotFound is returned by ShowProduct when neither the local
// catalog nor the backend has the product.
var ErrProductNotFound = errors.New("product not found")

// Alerter surfaces a blocking message to the shopper.
type Alerter interface {
	Alert(message string)
}

// AlertFunc adapts a function to Alerter.
type AlertFunc func(message string)

func (f AlertFunc) Alert(message string) { f(message) }

// logAlerter is used when no Alerter is configured.
type logAlerter struct{ log *log.Entry }

func (a logAlerter) Alert(message string) { a.log.Warn(message) }

// Options configures an App.
type Options struct {
	ItemsPerCategory int
	Alerter          Alerter
}

// State is the storefront's data, as of the last successful fetch.
type State struct {
	Catalog  models.Catalog
	Products []models.Product

	Loaded     bool
	LoadFailed bool
	Sections   template.HTML

	Current *models.Product
	Detail  template.HTML
}

// Snapshot is what the page template renders.
type Snapshot struct {
	View       View
	CartCount  int
	Loaded     bool
	LoadFailed bool
	LoadError  string
	Sections   template.HTML
	Detail     template.HTML
	Current    *models.Product
}

// App is one storefront session.
type App struct {
	backend  backend.Catalog
	alerts   Alerter
	render   *Renderer
	views    *ViewMachine
	cart     Cart
	perGroup int
	log      *log.Entry

	mu    sync.RWMutex
	state State
}

// New builds an App on top of a backend catalog.
func New(b backend.Catalog, opts Options) (*App, error) {
	r, err := NewRenderer()
	if err != nil {
		return nil, err
	}
	entry := log.WithField("component", "storefront")
	if opts.ItemsPerCategory <= 0 {
		opts.ItemsPerCategory = 8
	}
	if opts.Alerter == nil {
		opts.Alerter = logAlerter{log: entry}
	}
	return &App{
		backend:  b,
		alerts:   opts.Alerter,
		render:   r,
		views:    NewViewMachine(ViewHome, ViewProduct),
		perGroup: opts.ItemsPerCategory,
		log:      entry,
	}, nil
}

// Init loads the catalog and then follows a deep link in query, if any.
func (a *App) Init(ctx context.Context, query url.Values) error {
	loadErr := a.Load(ctx)
	id := strings.TrimSpace(query.Get(DeepLinkParam))
	if id == "" {
		return loadErr
	}
	_, showErr := a.ShowProduct(ctx, id)
	return errors.Join(loadErr, showErr)
}

// Load fetches the catalog once and renders the category sections. On
// failure the static failure message is kept in place of the sections.
func (a *App) Load(ctx context.Context) error {
	cat, err := a.backend.ProductsByCategory(ctx, a.perGroup)
	if err != nil {
		a.log.Errorf("failed to fetch products: %v", err)
		a.mu.Lock()
		a.state.LoadFailed = true
		a.mu.Unlock()
		return fmt.Errorf("loading catalog: %w", err)
	}

	sections, err := a.render.Sections(cat.Categories)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.state.Catalog = *cat
	a.state.Products = cat.Flatten()
	a.state.Sections = sections
	a.state.Loaded = true
	a.state.LoadFailed = false
	a.mu.Unlock()

	a.log.Infof("loaded %d categories", len(cat.Categories))
	return nil
}

// lookup finds a product in the flattened local list.
func (a *App) lookup(id string) (*models.Product, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for i := range a.state.Products {
		if string(a.state.Products[i].ImageID) == id {
			p := a.state.Products[i]
			return &p, true
		}
	}
	return nil, false
}

// ShowProduct opens the detail view for id. The local catalog is consulted
// first; on a miss the backend is asked once. If that fails too, the shopper
// is alerted once and ErrProductNotFound is returned.
func (a *App) ShowProduct(ctx context.Context, id string) (*models.Product, error) {
	id = strings.TrimSpace(id)
	p, ok := a.lookup(id)
	if !ok {
		fetched, err := a.backend.Product(ctx, id)
		if err != nil {
			a.log.Errorf("error fetching details: %v", err)
			a.alerts.Alert(NotFoundAlert)
			return nil, fmt.Errorf("product %s: %w", id, ErrProductNotFound)
		}
		p = fetched
	}

	detail, err := a.render.Detail(p)
	if err != nil {
		return nil, err
	}
	if err := a.views.Navigate(ViewProduct); err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.state.Current = p
	a.state.Detail = detail
	a.mu.Unlock()
	return p, nil
}

// Navigate switches the visible view.
func (a *App) Navigate(v View) error {
	return a.views.Navigate(v)
}

// Views exposes the view machine, e.g. to hold a transition open.
func (a *App) Views() *ViewMachine {
	return a.views
}

// AddToCart increments the cart and returns the new count.
func (a *App) AddToCart() int {
	return a.cart.Add()
}

// State returns a copy of the current state.
func (a *App) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s := a.state
	s.Products = append([]models.Product(nil), a.state.Products...)
	return s
}

// Snapshot captures what the page should show right now.
func (a *App) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s := Snapshot{
		View:       a.views.Current(),
		CartCount:  a.cart.Count(),
		Loaded:     a.state.Loaded,
		LoadFailed: a.state.LoadFailed,
		Sections:   a.state.Sections,
		Detail:     a.state.Detail,
		Current:    a.state.Current,
	}
	if s.LoadFailed {
		s.LoadError = LoadFailedMessage
	}
	return s
}

// WritePage renders the full storefront document.
func (a *App) WritePage(w io.Writer) error {
	return a.render.Page(w, a.Snapshot())
}
