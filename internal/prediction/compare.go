package prediction

import (
	"sort"
	"sync"

	"github.com/mrcode/glucopredict/internal/models"
)

// OrderResult is one meal order's prediction within a comparison
type OrderResult struct {
	Order         models.MealOrder          `json:"order"`
	Prediction    *models.GlucosePrediction `json:"prediction"`
	PeakReduction float64                   `json:"peakReduction"` // % of the simultaneous rise avoided
}

// Comparison holds predictions for every meal order, lowest peak first
type Comparison struct {
	Results []OrderResult    `json:"results"`
	Best    models.MealOrder `json:"best"`
}

// CompareOrders predicts the request once per meal order. The runs are
// independent and execute concurrently; the request's own order is ignored.
func (p *Predictor) CompareOrders(req Request) Comparison {
	if req.MealTime.IsZero() {
		req.MealTime = p.now()
	}

	results := make([]OrderResult, len(models.AllMealOrders))
	var wg sync.WaitGroup
	for i, order := range models.AllMealOrders {
		wg.Add(1)
		go func(i int, order models.MealOrder) {
			defer wg.Done()
			r := req
			r.Order = order
			results[i] = OrderResult{Order: order, Prediction: p.Predict(r)}
		}(i, order)
	}
	wg.Wait()

	var baseline float64
	for _, r := range results {
		if r.Order == models.OrderSimultaneous {
			baseline = r.Prediction.PeakRise
		}
	}
	for i := range results {
		if baseline > 0 {
			results[i].PeakReduction = (baseline - results[i].Prediction.PeakRise) / baseline * 100
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Prediction.Peak.Glucose < results[j].Prediction.Peak.Glucose
	})

	return Comparison{Results: results, Best: results[0].Order}
}

// Result returns the entry for an order
func (c Comparison) Result(order models.MealOrder) (OrderResult, bool) {
	for _, r := range c.Results {
		if r.Order == order {
			return r, true
		}
	}
	return OrderResult{}, false
}
