package devig

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/yourusername/fairline/internal/models"
)

func snapshotWithPrices(prices map[string]float64) models.MarketSnapshot {
	now := time.Now()
	snapshot := models.MarketSnapshot{
		EventID:    "evt-1",
		MarketType: models.MarketTypeHeadToHead,
		BookID:     "bookA",
		ObservedAt: now,
	}
	for outcome, price := range prices {
		snapshot.Quotes = append(snapshot.Quotes, models.Quote{
			EventID:    "evt-1",
			MarketType: models.MarketTypeHeadToHead,
			Outcome:    outcome,
			BookID:     "bookA",
			Price:      price,
			ObservedAt: now,
		})
	}
	return snapshot
}

func TestProportionalTwoWay(t *testing.T) {
	converter, err := NewConverter(MethodProportional)
	if err != nil {
		t.Fatalf("NewConverter failed: %v", err)
	}

	// 1.91/1.91: implied 0.5236 each, overround 4.71%, fair 50/50
	fair, err := converter.Convert(snapshotWithPrices(map[string]float64{"home": 1.91, "away": 1.91}))
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if math.Abs(fair.Probabilities["home"]-0.5) > 1e-9 {
		t.Errorf("expected fair 0.5, got %f", fair.Probabilities["home"])
	}
	if math.Abs(fair.Overround-(2.0/1.91-1.0)) > 1e-9 {
		t.Errorf("unexpected overround %f", fair.Overround)
	}
}

func TestFairDistributionSumsToOne(t *testing.T) {
	converter, _ := NewConverter(MethodProportional)
	cases := []map[string]float64{
		{"home": 1.91, "away": 1.91},
		{"home": 1.55, "draw": 4.10, "away": 6.50},
		{"over": 2.30, "under": 1.62},
	}
	for _, prices := range cases {
		fair, err := converter.Convert(snapshotWithPrices(prices))
		if err != nil {
			t.Fatalf("Convert failed: %v", err)
		}
		sum := 0.0
		for outcome, p := range fair.Probabilities {
			if p <= 0 || p >= 1 {
				t.Errorf("fair probability for %q out of (0,1): %f", outcome, p)
			}
			sum += p
		}
		if math.Abs(sum-1.0) > 1e-6 {
			t.Errorf("fair probabilities sum to %f, want 1.0", sum)
		}
	}
}

func TestOverroundInvariance(t *testing.T) {
	// Scaling every implied probability by the same overround factor, i.e.
	// dividing every price by the factor, must not change the fair
	// distribution.
	converter, _ := NewConverter(MethodProportional)
	base := map[string]float64{"home": 2.40, "away": 1.70}
	scaled := map[string]float64{}
	factor := 1.08
	for outcome, price := range base {
		scaled[outcome] = price / factor
	}

	fairBase, err := converter.Convert(snapshotWithPrices(base))
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	fairScaled, err := converter.Convert(snapshotWithPrices(scaled))
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	for outcome := range base {
		if math.Abs(fairBase.Probabilities[outcome]-fairScaled.Probabilities[outcome]) > 1e-9 {
			t.Errorf("fair probability for %q changed under rescaling: %f vs %f",
				outcome, fairBase.Probabilities[outcome], fairScaled.Probabilities[outcome])
		}
	}
}

func TestSingleOutcomeRejected(t *testing.T) {
	converter, _ := NewConverter(MethodProportional)
	_, err := converter.Convert(snapshotWithPrices(map[string]float64{"home": 1.91}))
	if !errors.Is(err, models.ErrInsufficientOutcomes) {
		t.Fatalf("expected ErrInsufficientOutcomes, got %v", err)
	}
}

func TestInvalidPricePropagates(t *testing.T) {
	converter, _ := NewConverter(MethodProportional)
	_, err := converter.Convert(snapshotWithPrices(map[string]float64{"home": 1.0, "away": 1.91}))
	if !errors.Is(err, models.ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
}

func TestUnknownMethod(t *testing.T) {
	if _, err := NewConverter(Method("shin")); err == nil {
		t.Fatal("expected error for unregistered method")
	}
}
