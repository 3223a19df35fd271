// Package dashboard pilote le graphique des ventes et le badge des commandes en attente
// à partir des endpoints d'administration.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"storefront_back_end/internal/catalog"

	"go.uber.org/zap"
)

const (
	AllOption = "all"

	DefaultSalesPath    = "/api/admin/sales-data"
	DefaultStatusPath   = "/api/employee/orders-status"
	DefaultPollInterval = 10 * time.Second
	defaultRange        = 30

	BadgeWarning = "badge bg-warning text-dark"
	BadgeSuccess = "badge bg-success"
)

var (
	ErrControlDisabled = errors.New("control is disabled")
	ErrClosed          = errors.New("dashboard is disconnected")
	ErrUnknownRange    = errors.New("unknown range")
)

// Chart reçoit les séries à afficher. Update modifie le graphique en place.
type Chart interface {
	Update(labels []string, data []float64)
	Destroy()
}

// Badge affiche le compteur des commandes en attente.
type Badge interface {
	Update(pending int, text, style string)
}

type Option struct {
	Value string
	Label string
}

// ProductSelect est le sélecteur de produits, repeuplé à chaque changement de catégorie.
type ProductSelect interface {
	SetOptions(options []Option, enabled bool)
}

// Control identifie la commande à l'origine d'un chargement.
type Control string

const (
	ControlRange    Control = "range"
	ControlCategory Control = "category"
	ControlProduct  Control = "product"
)

type Config struct {
	BaseURL      string
	SalesPath    string
	StatusPath   string
	Token        string
	HTTPClient   *http.Client
	PollInterval time.Duration
	RangeButtons []int
	Catalog      []catalog.FilterCategory

	Chart    Chart
	Badge    Badge
	Products ProductSelect
}

type Widget struct {
	cfg    Config
	client *http.Client

	mu              sync.Mutex
	category        string
	product         string
	rangeDays       int
	productOptions  []Option
	productsEnabled bool
	busy            map[Control]bool
	seq             uint64
	closed          bool

	pollCancel context.CancelFunc
	pollDone   chan struct{}
}

func New(cfg Config) (*Widget, error) {
	if cfg.Chart == nil {
		return nil, errors.New("dashboard: chart is required")
	}
	if cfg.SalesPath == "" {
		cfg.SalesPath = DefaultSalesPath
	}
	if cfg.StatusPath == "" {
		cfg.StatusPath = DefaultStatusPath
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	w := &Widget{
		cfg:       cfg,
		client:    client,
		category:  AllOption,
		product:   AllOption,
		rangeDays: DefaultRange(cfg.RangeButtons),
		busy:      make(map[Control]bool),
	}
	w.populateProducts(AllOption)
	return w, nil
}

// DefaultRange préfère le bouton 30, sinon le premier bouton, sinon 30.
func DefaultRange(buttons []int) int {
	for _, b := range buttons {
		if b == defaultRange {
			return b
		}
	}
	if len(buttons) > 0 {
		return buttons[0]
	}
	return defaultRange
}

// Connect lance le sondage du badge puis charge le graphique avec les filtres initiaux.
func (w *Widget) Connect(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	if w.pollCancel == nil && w.cfg.Badge != nil {
		pollCtx, cancel := context.WithCancel(context.Background())
		w.pollCancel = cancel
		w.pollDone = make(chan struct{})
		go w.pollLoop(pollCtx)
	}
	w.mu.Unlock()

	return w.Refresh(ctx)
}

// Disconnect arrête le sondage, attend sa fin et libère le graphique.
// Les chargements encore en vol sont ignorés à leur retour.
func (w *Widget) Disconnect() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	cancel, done := w.pollCancel, w.pollDone
	w.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	w.cfg.Chart.Destroy()
}

// Refresh recharge le graphique avec la combinaison courante.
func (w *Widget) Refresh(ctx context.Context) error {
	return w.fetchSeries(ctx, "")
}

// SetRange applique un bouton de période.
func (w *Widget) SetRange(ctx context.Context, days int) error {
	if len(w.cfg.RangeButtons) > 0 && !containsInt(w.cfg.RangeButtons, days) {
		return fmt.Errorf("%w: %d", ErrUnknownRange, days)
	}
	return w.change(ctx, ControlRange, func() error {
		w.rangeDays = days
		return nil
	})
}

// SelectCategory repeuple les produits depuis le catalogue local et remet le produit à "all".
func (w *Widget) SelectCategory(ctx context.Context, categoryID string) error {
	if categoryID == "" {
		categoryID = AllOption
	}
	return w.change(ctx, ControlCategory, func() error {
		w.category = categoryID
		w.populateProducts(categoryID)
		return nil
	})
}

// SelectProduct choisit un produit de la catégorie courante.
func (w *Widget) SelectProduct(ctx context.Context, productID string) error {
	if productID == "" {
		productID = AllOption
	}

	// vérifié sous le verrou : une catégorie choisie entre-temps a déjà remplacé les options
	return w.change(ctx, ControlProduct, func() error {
		if !w.productsEnabled || !hasOption(w.productOptions, productID) {
			return ErrControlDisabled
		}
		w.product = productID
		return nil
	})
}

// State expose les sélections courantes.
func (w *Widget) State() (category, product string, rangeDays int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.category, w.product, w.rangeDays
}

// ProductOptions retourne les options du sélecteur de produits et s'il est actif.
func (w *Widget) ProductOptions() ([]Option, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Option(nil), w.productOptions...), w.productsEnabled
}

// change applique la sélection sous w.mu puis recharge le graphique.
func (w *Widget) change(ctx context.Context, control Control, apply func() error) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	if w.busy[control] {
		w.mu.Unlock()
		return ErrControlDisabled
	}
	if err := apply(); err != nil {
		w.mu.Unlock()
		return err
	}
	w.mu.Unlock()

	return w.fetchSeries(ctx, control)
}

// populateProducts doit être appelée sous w.mu.
func (w *Widget) populateProducts(categoryID string) {
	w.product = AllOption

	if categoryID == AllOption {
		w.productOptions = []Option{{Value: AllOption, Label: "Select a category first"}}
		w.productsEnabled = false
	} else {
		options := []Option{{Value: AllOption, Label: "All products"}}
		for _, c := range w.cfg.Catalog {
			if c.ID != categoryID {
				continue
			}
			for _, p := range c.Products {
				options = append(options, Option{Value: p.ID, Label: p.Name})
			}
			break
		}
		w.productOptions = options
		// Une catégorie sans produit n'offre que "All products"
		w.productsEnabled = len(options) > 1
	}

	if w.cfg.Products != nil {
		w.cfg.Products.SetOptions(append([]Option(nil), w.productOptions...), w.productsEnabled)
	}
}

type seriesPayload struct {
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
}

func (w *Widget) fetchSeries(ctx context.Context, control Control) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	w.seq++
	seq := w.seq
	query := w.queryLocked()
	if control != "" {
		w.busy[control] = true
	}
	w.mu.Unlock()

	defer func() {
		if control != "" {
			w.mu.Lock()
			delete(w.busy, control)
			w.mu.Unlock()
		}
	}()

	var payload seriesPayload
	if err := w.getJSON(ctx, w.cfg.SalesPath, query, &payload); err != nil {
		zap.L().Warn("❌ Échec mise à jour du graphique", zap.String("query", query.Encode()), zap.Error(err))
		return err
	}
	if payload.Labels == nil {
		payload.Labels = []string{}
	}
	if payload.Data == nil {
		payload.Data = []float64{}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	// Seule la réponse à la dernière requête émise atteint le graphique
	if w.closed || seq != w.seq {
		return nil
	}
	w.cfg.Chart.Update(payload.Labels, payload.Data)
	return nil
}

// queryLocked construit range/category/product. Les valeurs "all" ne sont jamais envoyées.
func (w *Widget) queryLocked() url.Values {
	q := url.Values{}
	q.Set("range", strconv.Itoa(w.rangeDays))
	if w.category != AllOption {
		q.Set("category", w.category)
	}
	if w.product != AllOption {
		q.Set("product", w.product)
	}
	return q
}

func (w *Widget) pollLoop(ctx context.Context) {
	defer close(w.pollDone)

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		w.pollOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Widget) pollOnce(ctx context.Context) {
	var payload struct {
		Pending int `json:"pending"`
	}
	if err := w.getJSON(ctx, w.cfg.StatusPath, nil, &payload); err != nil {
		if ctx.Err() == nil {
			zap.L().Warn("❌ Échec lecture des commandes en attente", zap.Error(err))
		}
		return
	}

	text, style := BadgeText(payload.Pending)
	w.cfg.Badge.Update(payload.Pending, text, style)
}

// BadgeText retourne le libellé et le style du badge pour un nombre de commandes en attente.
func BadgeText(pending int) (string, string) {
	if pending > 0 {
		return fmt.Sprintf("%d pending", pending), BadgeWarning
	}
	return "All caught up", BadgeSuccess
}

func (w *Widget) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	endpoint := strings.TrimRight(w.cfg.BaseURL, "/") + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if w.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+w.cfg.Token)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func containsInt(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

func hasOption(options []Option, value string) bool {
	for _, o := range options {
		if o.Value == value {
			return true
		}
	}
	return false
}

// DefaultCatalogPath sert l'arbre catégories → produits une fois au démarrage.
const DefaultCatalogPath = "/api/admin/filter-catalog"

// LoadCatalog récupère le catalogue des filtres. Le widget le garde ensuite en mémoire.
func LoadCatalog(ctx context.Context, client *http.Client, baseURL, token string) ([]catalog.FilterCategory, error) {
	w := &Widget{cfg: Config{BaseURL: baseURL, Token: token}, client: client}
	if w.client == nil {
		w.client = http.DefaultClient
	}
	var tree []catalog.FilterCategory
	if err := w.getJSON(ctx, DefaultCatalogPath, nil, &tree); err != nil {
		return nil, fmt.Errorf("load filter catalog: %w", err)
	}
	for i := range tree {
		if tree[i].Products == nil {
			tree[i].Products = []catalog.FilterProduct{}
		}
	}
	return tree, nil
}
