package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"storefront_back_end/internal/config"
	"storefront_back_end/internal/dashboard"
	"storefront_back_end/internal/logger"

	"go.uber.org/zap"
)

var rangeButtons = []int{7, 30, 90}

// terminal dessine le graphique et le badge sur la sortie standard.
type terminal struct {
	mu  sync.Mutex
	out io.Writer
}

func (t *terminal) Update(labels []string, data []float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	maxValue := 0.0
	for _, v := range data {
		if v > maxValue {
			maxValue = v
		}
	}
	fmt.Fprintln(t.out, "── Ventes ──")
	if len(labels) == 0 {
		fmt.Fprintln(t.out, "(aucune vente)")
	}
	for i, label := range labels {
		width := 0
		if maxValue > 0 {
			width = int(data[i] / maxValue * 40)
		}
		fmt.Fprintf(t.out, "%s │%s %.2f\n", label, strings.Repeat("█", width), data[i])
	}
}

func (t *terminal) Destroy() {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, "── Graphique fermé ──")
}

type badge struct{ t *terminal }

func (b badge) Update(_ int, text, style string) {
	b.t.mu.Lock()
	defer b.t.mu.Unlock()
	marker := "✅"
	if style == dashboard.BadgeWarning {
		marker = "⏳"
	}
	fmt.Fprintf(b.t.out, "%s %s\n", marker, text)
}

type productSelect struct{ t *terminal }

func (p productSelect) SetOptions(options []dashboard.Option, enabled bool) {
	p.t.mu.Lock()
	defer p.t.mu.Unlock()
	state := "actif"
	if !enabled {
		state = "désactivé"
	}
	names := make([]string, 0, len(options))
	for _, o := range options {
		names = append(names, fmt.Sprintf("%s=%s", o.Value, o.Label))
	}
	fmt.Fprintf(p.t.out, "Produits (%s): %s\n", state, strings.Join(names, ", "))
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Configuration invalide: %v", err)
	}
	l, err := logger.InitLogger(cfg.GinMode)
	if err != nil {
		log.Fatalf("❌ Initialisation du logger: %v", err)
	}
	defer func() { _ = l.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tree, err := dashboard.LoadCatalog(ctx, nil, cfg.Dashboard.BaseURL, cfg.Dashboard.Token)
	if err != nil {
		zap.L().Fatal("❌ Chargement du catalogue des filtres", zap.Error(err))
	}

	term := &terminal{out: os.Stdout}
	w, err := dashboard.New(dashboard.Config{
		BaseURL:      cfg.Dashboard.BaseURL,
		Token:        cfg.Dashboard.Token,
		PollInterval: cfg.Dashboard.PollInterval,
		RangeButtons: rangeButtons,
		Catalog:      tree,
		Chart:        term,
		Badge:        badge{t: term},
		Products:     productSelect{t: term},
	})
	if err != nil {
		zap.L().Fatal("❌ Initialisation du tableau de bord", zap.Error(err))
	}
	defer w.Disconnect()

	for _, c := range tree {
		fmt.Printf("Catégorie %s: %s (%d produits)\n", c.ID, c.Name, len(c.Products))
	}
	fmt.Println("Commandes: range <jours> | category <id|all> | product <id|all> | refresh | quit")

	if err := w.Connect(ctx); err != nil {
		zap.L().Warn("❌ Premier chargement du graphique", zap.Error(err))
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if quit := handleCommand(ctx, w, line); quit {
				return
			}
		}
	}
}

func handleCommand(ctx context.Context, w *dashboard.Widget, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	var err error
	switch fields[0] {
	case "quit", "exit":
		return true
	case "refresh":
		err = w.Refresh(ctx)
	case "range":
		if len(fields) < 2 {
			fmt.Println("usage: range <jours>")
			return false
		}
		days, convErr := strconv.Atoi(fields[1])
		if convErr != nil {
			fmt.Println("période invalide")
			return false
		}
		err = w.SetRange(ctx, days)
	case "category":
		if len(fields) < 2 {
			fmt.Println("usage: category <id|all>")
			return false
		}
		err = w.SelectCategory(ctx, fields[1])
	case "product":
		if len(fields) < 2 {
			fmt.Println("usage: product <id|all>")
			return false
		}
		err = w.SelectProduct(ctx, fields[1])
	default:
		fmt.Println("commande inconnue")
	}
	if err != nil {
		fmt.Printf("❌ %v\n", err)
	}
	return false
}
