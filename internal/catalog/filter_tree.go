package catalog

import (
	"sort"
	"strconv"

	"storefront_back_end/internal/models"
)

const UncategorizedID = "uncategorized"

type FilterProduct struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FilterCategory est une entrée du sélecteur de catégories du tableau de bord.
// Products n'est jamais nil : une catégorie vide se sérialise en [].
type FilterCategory struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Products []FilterProduct `json:"products"`
}

// BuildFilterTree construit l'arbre catégories → produits.
// Les catégories connues sont triées par nom, suivies des catégories référencées
// mais absentes ("Category #id"), puis du groupe "Uncategorized" s'il y a lieu.
func BuildFilterTree(categories []models.Category, products []models.Product) []FilterCategory {
	known := append([]models.Category(nil), categories...)
	sort.SliceStable(known, func(i, j int) bool {
		if known[i].Name != known[j].Name {
			return known[i].Name < known[j].Name
		}
		return known[i].ID < known[j].ID
	})

	sortedProducts := append([]models.Product(nil), products...)
	sort.SliceStable(sortedProducts, func(i, j int) bool {
		if sortedProducts[i].Name != sortedProducts[j].Name {
			return sortedProducts[i].Name < sortedProducts[j].Name
		}
		return sortedProducts[i].ID < sortedProducts[j].ID
	})

	byCategory := make(map[int64][]FilterProduct)
	var (
		uncategorized []FilterProduct
		unknownIDs    []int64
	)
	knownIDs := make(map[int64]bool, len(known))
	for _, c := range known {
		knownIDs[c.ID] = true
	}

	for _, p := range sortedProducts {
		entry := FilterProduct{ID: strconv.FormatInt(p.ID, 10), Name: p.Name}
		if p.IsUncategorized() {
			uncategorized = append(uncategorized, entry)
			continue
		}
		id := *p.CategoryID
		if !knownIDs[id] {
			if _, seen := byCategory[id]; !seen {
				unknownIDs = append(unknownIDs, id)
			}
		}
		byCategory[id] = append(byCategory[id], entry)
	}
	sort.Slice(unknownIDs, func(i, j int) bool { return unknownIDs[i] < unknownIDs[j] })

	tree := make([]FilterCategory, 0, len(known)+len(unknownIDs)+1)
	for _, c := range known {
		tree = append(tree, newFilterCategory(strconv.FormatInt(c.ID, 10), c.Name, byCategory[c.ID]))
	}
	for _, id := range unknownIDs {
		key := strconv.FormatInt(id, 10)
		tree = append(tree, newFilterCategory(key, "Category #"+key, byCategory[id]))
	}
	if len(uncategorized) > 0 {
		tree = append(tree, newFilterCategory(UncategorizedID, "Uncategorized", uncategorized))
	}
	return tree
}

func newFilterCategory(id, name string, products []FilterProduct) FilterCategory {
	if products == nil {
		products = []FilterProduct{}
	}
	return FilterCategory{ID: id, Name: name, Products: products}
}
