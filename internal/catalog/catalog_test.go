package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mrcode/glucopredict/internal/models"
)

func TestDefault(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if c.Len() == 0 {
		t.Fatal("default catalog is empty")
	}

	for _, f := range c.All() {
		want := models.DeriveGlycemicLoad(f.GlycemicIndex, f.Carbs)
		if f.GlycemicLoad != want {
			t.Errorf("%s: GlycemicLoad = %f, want %f", f.Name, f.GlycemicLoad, want)
		}
	}

	if got := len(c.Categories()); got != len(models.FoodCategories) {
		t.Errorf("Categories() = %d, want %d", got, len(models.FoodCategories))
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"Malformed", `{"foods": [`},
		{"Missing name", `{"foods": [{"name": " ", "category": "fruits"}]}`},
		{"GI too high", `{"foods": [{"name": "x", "glycemicIndex": 120, "category": "fruits"}]}`},
		{"Negative carbs", `{"foods": [{"name": "x", "carbs": -1, "category": "fruits"}]}`},
		{"Unknown category", `{"foods": [{"name": "x", "category": "candy"}]}`},
		{"Duplicate", `{"foods": [{"name": "x", "category": "fruits"}, {"name": "X", "category": "fruits"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(strings.NewReader(tt.json)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoad_KeepsExplicitGlycemicLoad(t *testing.T) {
	c, err := Load(strings.NewReader(`{"foods": [{"name": "Mystery", "carbs": 10, "glycemicIndex": 50, "glycemicLoad": 7, "category": "processed"}]}`))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	f, _ := c.Find("mystery")
	if f.GlycemicLoad != 7 {
		t.Errorf("GlycemicLoad = %f, want 7", f.GlycemicLoad)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "foods.json")
	if err := os.WriteFile(path, []byte(`{"foods": [{"name": "Rice", "carbs": 28, "glycemicIndex": 73, "category": "carbohydrates"}]}`), 0600); err != nil {
		t.Fatal(err)
	}

	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSearch(t *testing.T) {
	c, _ := Default()

	tests := []struct {
		text     string
		contains string
	}{
		{"RICE", "White rice"},
		{"bread", "Whole wheat bread"},
		{"  broc ", "Broccoli"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			found := false
			for _, f := range c.Search(tt.text) {
				if f.Name == tt.contains {
					found = true
				}
			}
			if !found {
				t.Errorf("Search(%q) did not return %s", tt.text, tt.contains)
			}
		})
	}

	if got := len(c.Search("")); got != c.Len() {
		t.Errorf("Search(\"\") = %d foods, want %d", got, c.Len())
	}
	if got := c.Search("pizza"); len(got) != 0 {
		t.Errorf("Search(\"pizza\") = %v, want none", got)
	}
}

func TestByCategory(t *testing.T) {
	c, _ := Default()
	for _, f := range c.ByCategory(models.CategoryVegetables) {
		if f.Category != models.CategoryVegetables {
			t.Errorf("%s has category %s", f.Name, f.Category)
		}
	}
	if len(c.ByCategory(models.CategoryVegetables)) == 0 {
		t.Error("expected vegetables in default catalog")
	}
}

func TestParseSelection(t *testing.T) {
	tests := []struct {
		in      string
		want    Selection
		wantErr bool
	}{
		{"White rice:150", Selection{Name: "White rice", Grams: 150}, false},
		{"Broccoli", Selection{Name: "Broccoli", Grams: 100}, false},
		{" Egg : 60 ", Selection{Name: "Egg", Grams: 60}, false},
		{":100", Selection{}, true},
		{"Egg:lots", Selection{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSelection(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSelection(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseSelection(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPortions(t *testing.T) {
	c, _ := Default()

	portions, err := c.Portions([]Selection{{Name: "white rice", Grams: 900}, {Name: "Broccoli", Grams: 0}})
	if err != nil {
		t.Fatalf("Portions() error = %v", err)
	}
	if portions[0].Grams != models.MaxPortionGrams {
		t.Errorf("rice grams = %f, want %f", portions[0].Grams, models.MaxPortionGrams)
	}
	if portions[1].Grams != models.MinPortionGrams {
		t.Errorf("broccoli grams = %f, want %f", portions[1].Grams, models.MinPortionGrams)
	}

	_, err = c.Portions([]Selection{{Name: "Unicorn steak", Grams: 100}})
	if !errors.Is(err, ErrUnknownFood) {
		t.Errorf("Portions() error = %v, want ErrUnknownFood", err)
	}
}
