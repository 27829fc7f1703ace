package dataset

import "time"

// HeatStressThreshold is the daily max temperature, in Celsius, above which
// a day counts towards the heat stress metric.
const HeatStressThreshold = 35.0

// Metrics summarizes a merged dataset for the dashboard header cards.
type Metrics struct {
	RainfallTotalMM float64   `json:"rainfall_total_mm"`
	NDVIMean        float64   `json:"ndvi_mean"`
	HeatStressDays  int       `json:"heat_stress_days"`
	LatestPrice     float64   `json:"latest_price"`
	PriceChange     float64   `json:"price_change"`
	SeasonStatus    string    `json:"season_status"`
	FirstDate       time.Time `json:"first_date"`
	LastDate        time.Time `json:"last_date"`
	Rows            int       `json:"rows"`
}

// Summarize computes the dashboard metrics over a table. Missing cells are
// skipped; a column that is entirely missing contributes zero values.
func Summarize(t *Table) Metrics {
	m := Metrics{Rows: t.NumRows()}
	if t.NumRows() == 0 {
		m.SeasonStatus = "Sem dados"
		return m
	}

	m.FirstDate = t.Dates[0]
	m.LastDate = t.Dates[len(t.Dates)-1]

	var ndviSum float64
	var ndviCount int
	for i := range t.Dates {
		if v := t.Value(ColRainfall, i); !IsMissing(v) {
			m.RainfallTotalMM += v
		}
		if v := t.Value(ColNDVI, i); !IsMissing(v) {
			ndviSum += v
			ndviCount++
		}
		if v := t.Value(ColTempMax, i); !IsMissing(v) && v > HeatStressThreshold {
			m.HeatStressDays++
		}
	}
	if ndviCount > 0 {
		m.NDVIMean = ndviSum / float64(ndviCount)
	}

	m.LatestPrice, m.PriceChange = latestPrice(t)
	m.SeasonStatus = seasonStatus(m.LastDate)
	return m
}

// latestPrice finds the most recent observed price and its change against
// the previous observation.
func latestPrice(t *Table) (latest, change float64) {
	prevIdx := -1
	lastIdx := -1
	for i := range t.Dates {
		if IsMissing(t.Value(ColPriceClose, i)) {
			continue
		}
		prevIdx = lastIdx
		lastIdx = i
	}
	if lastIdx < 0 {
		return 0, 0
	}
	latest = t.Value(ColPriceClose, lastIdx)
	if prevIdx >= 0 {
		change = latest - t.Value(ColPriceClose, prevIdx)
	}
	return latest, change
}

// seasonStatus maps the latest covered date onto the crop calendar
func seasonStatus(last time.Time) string {
	switch m := last.Month(); {
	case m == time.January || m == time.February:
		return "Desenvolvimento"
	case m == time.March:
		return "Maturação"
	case m == time.April:
		return "Colheita Finalizada"
	case m >= time.October:
		return "Plantio"
	default:
		return "Entressafra"
	}
}
