package dataset

import (
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

// Month classes for the Mato Grosso crop calendar. The wet season drives
// gamma-distributed rainfall, the dry winter months near-zero exponential
// draws, and the shoulder months a lighter gamma.
var wetMonths = map[time.Month]bool{
	time.January:  true,
	time.February: true,
	time.March:    true,
	time.November: true,
	time.December: true,
}

var dryMonths = map[time.Month]bool{
	time.June:   true,
	time.July:   true,
	time.August: true,
}

// ndviPlateau returns the phenology baseline for a month: full canopy in
// Jan/Feb, senescence in March, harvest in April, planting from October,
// fallow otherwise.
func ndviPlateau(m time.Month) float64 {
	switch {
	case m == time.January || m == time.February:
		return 0.85
	case m == time.March:
		return 0.60
	case m == time.April:
		return 0.20
	case m >= time.October:
		return 0.40
	default:
		return 0.15
	}
}

// SeasonGenerator synthesizes placeholder rainfall and NDVI series for a
// season when no live source is available. Deterministic for a given seed.
type SeasonGenerator struct {
	wetRain      distuv.Gamma
	shoulderRain distuv.Gamma
	dryRain      distuv.Exponential
	ndviNoise    distuv.Normal
}

// NewSeasonGenerator returns a generator seeded for reproducible draws
func NewSeasonGenerator(seed uint64) *SeasonGenerator {
	src := rand.NewPCG(seed, seed)
	return &SeasonGenerator{
		wetRain:      distuv.Gamma{Alpha: 2, Beta: 0.1, Src: src},
		shoulderRain: distuv.Gamma{Alpha: 1, Beta: 0.2, Src: src},
		dryRain:      distuv.Exponential{Rate: 1, Src: src},
		ndviNoise:    distuv.Normal{Mu: 0, Sigma: 0.02, Src: src},
	}
}

// Rainfall draws a daily precipitation value in mm for the given date
func (g *SeasonGenerator) Rainfall(date time.Time) float64 {
	switch m := date.Month(); {
	case wetMonths[m]:
		return g.wetRain.Rand()
	case dryMonths[m]:
		return g.dryRain.Rand()
	default:
		return g.shoulderRain.Rand()
	}
}

// NDVI draws a vegetation index value for the given date, clipped to [0,1]
func (g *SeasonGenerator) NDVI(date time.Time) float64 {
	v := ndviPlateau(date.Month()) + g.ndviNoise.Rand()
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Season generates daily rainfall and NDVI series covering the given year
func (g *SeasonGenerator) Season(year int) (rain, ndvi *Series) {
	rain = NewSeries(ColRainfall)
	ndvi = NewSeries(ColNDVI)

	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		rain.Set(d, g.Rainfall(d))
		ndvi.Set(d, g.NDVI(d))
	}
	return rain, ndvi
}

// ClimateFallback generates a placeholder climate history (daily max
// temperature and rainfall) over the given date range. Temperature follows
// a mild seasonal curve around the tropical mean with gaussian noise.
func (g *SeasonGenerator) ClimateFallback(from, to time.Time) (temp, rain *Series) {
	temp = NewSeries(ColTempMax)
	rain = NewSeries(ColRainfall)

	tempNoise := distuv.Normal{Mu: 0, Sigma: 1.5, Src: g.ndviNoise.Src}
	for d := Day(from); !d.After(Day(to)); d = d.AddDate(0, 0, 1) {
		base := 32.0
		if dryMonths[d.Month()] {
			base = 30.0
		}
		temp.Set(d, base+tempNoise.Rand())
		rain.Set(d, g.Rainfall(d))
	}
	return temp, rain
}
