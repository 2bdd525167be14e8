// Package catalog provides the food catalog used to build meal portions
package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/mrcode/glucopredict/internal/models"
)

//go:embed foods.json
var defaultFoods []byte

// ErrUnknownFood is returned when a selection names a food the catalog does not have
var ErrUnknownFood = errors.New("unknown food")

// Catalog is an immutable set of foods
type Catalog struct {
	foods  []models.Food
	byName map[string]int
}

type catalogFile struct {
	Foods []models.Food `json:"foods"`
}

// Default returns the embedded catalog
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(defaultFoods))
}

// LoadFile reads a catalog from a JSON file
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path) //nolint:gosec // Catalog path comes from process configuration
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Load(f)
}

// Load decodes a {"foods": [...]} document
func Load(r io.Reader) (*Catalog, error) {
	var file catalogFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	return New(file.Foods)
}

// New validates foods and builds a catalog. Missing glycemic loads are derived.
func New(foods []models.Food) (*Catalog, error) {
	c := &Catalog{
		foods:  make([]models.Food, 0, len(foods)),
		byName: make(map[string]int, len(foods)),
	}

	for i, food := range foods {
		if err := validate(food); err != nil {
			return nil, fmt.Errorf("food %d: %w", i, err)
		}
		key := normalize(food.Name)
		if _, dup := c.byName[key]; dup {
			return nil, fmt.Errorf("food %d: duplicate name %q", i, food.Name)
		}
		if food.GlycemicLoad == 0 {
			food.GlycemicLoad = models.DeriveGlycemicLoad(food.GlycemicIndex, food.Carbs)
		}
		c.byName[key] = len(c.foods)
		c.foods = append(c.foods, food)
	}

	return c, nil
}

func validate(f models.Food) error {
	switch {
	case strings.TrimSpace(f.Name) == "":
		return errors.New("name is required")
	case f.GlycemicIndex < 0 || f.GlycemicIndex > 100:
		return fmt.Errorf("%s: glycemic index %d out of range 0-100", f.Name, f.GlycemicIndex)
	case f.Carbs < 0 || f.Protein < 0 || f.Fat < 0 || f.Fiber < 0 || f.GlycemicLoad < 0:
		return fmt.Errorf("%s: nutrient values must not be negative", f.Name)
	case !f.Category.IsValid():
		return fmt.Errorf("%s: unknown category %q", f.Name, f.Category)
	}
	return nil
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Len returns the number of foods
func (c *Catalog) Len() int {
	return len(c.foods)
}

// All returns every food in catalog order
func (c *Catalog) All() []models.Food {
	return append([]models.Food(nil), c.foods...)
}

// Find looks a food up by name, ignoring case
func (c *Catalog) Find(name string) (models.Food, bool) {
	i, ok := c.byName[normalize(name)]
	if !ok {
		return models.Food{}, false
	}
	return c.foods[i], true
}

// Search returns foods whose name contains text, ignoring case. Empty text returns everything.
func (c *Catalog) Search(text string) []models.Food {
	needle := normalize(text)
	if needle == "" {
		return c.All()
	}
	return lo.Filter(c.foods, func(f models.Food, _ int) bool {
		return strings.Contains(strings.ToLower(f.Name), needle)
	})
}

// ByCategory returns the foods in a category
func (c *Catalog) ByCategory(category models.FoodCategory) []models.Food {
	return lo.Filter(c.foods, func(f models.Food, _ int) bool {
		return f.Category == category
	})
}

// Categories returns the categories present in the catalog, in display order
func (c *Catalog) Categories() []models.FoodCategory {
	present := lo.Uniq(lo.Map(c.foods, func(f models.Food, _ int) models.FoodCategory {
		return f.Category
	}))
	return lo.Filter(models.FoodCategories, func(cat models.FoodCategory, _ int) bool {
		return lo.Contains(present, cat)
	})
}

// Selection is a food name and quantity as entered by a user
type Selection struct {
	Name  string  `json:"name"`
	Grams float64 `json:"grams"`
}

// ParseSelection parses "name:grams". Grams default to 100 when omitted.
func ParseSelection(s string) (Selection, error) {
	name, grams, found := strings.Cut(s, ":")
	sel := Selection{Name: strings.TrimSpace(name), Grams: 100}
	if sel.Name == "" {
		return Selection{}, fmt.Errorf("invalid food selection %q", s)
	}
	if found {
		g, err := strconv.ParseFloat(strings.TrimSpace(grams), 64)
		if err != nil {
			return Selection{}, fmt.Errorf("invalid grams in %q: %w", s, err)
		}
		sel.Grams = g
	}
	return sel, nil
}

// Portions resolves selections into portions with grams clamped to 1-500
func (c *Catalog) Portions(selections []Selection) ([]models.FoodPortion, error) {
	portions := make([]models.FoodPortion, 0, len(selections))
	for _, sel := range selections {
		food, ok := c.Find(sel.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownFood, sel.Name)
		}
		portions = append(portions, models.NewFoodPortion(food, sel.Grams))
	}
	return portions, nil
}
