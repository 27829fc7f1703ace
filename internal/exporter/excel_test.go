package exporter

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"agronexus/internal/dataset"
)

func TestExcelExporterWrite(t *testing.T) {
	rain := dataset.NewSeries(dataset.ColRainfall)
	temp := dataset.NewSeries(dataset.ColTempMax)
	ndvi := dataset.NewSeries(dataset.ColNDVI)
	price := dataset.NewSeries(dataset.ColPriceClose)

	d := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	rain.Set(d, 10.5)
	temp.Set(d, 34.2)
	ndvi.Set(d, 0.85)
	price.Set(d, 1190)

	tab := dataset.MergeByDate(temp, rain, ndvi, price)

	var buf bytes.Buffer
	require.NoError(t, NewExcelExporter().Write(&buf, tab))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{SheetMerged, SheetClimate, SheetSeason, SheetMarket}, f.GetSheetList())

	rows, err := f.GetRows(SheetMerged)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"date", "temp_max_c", "rain_mm", "ndvi", "price_close"}, rows[0])
	assert.Equal(t, "2024-02-01", rows[1][0])

	climate, err := f.GetRows(SheetClimate)
	require.NoError(t, err)
	assert.Equal(t, []string{"date", "temp_max_c", "rain_mm"}, climate[0])
}

func TestExcelExporterSkipsAbsentSources(t *testing.T) {
	rain := dataset.NewSeries(dataset.ColRainfall)
	rain.Set(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), 1)
	tab := dataset.MergeByDate(rain)

	var buf bytes.Buffer
	require.NoError(t, NewExcelExporter().Write(&buf, tab))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	assert.Contains(t, sheets, SheetMerged)
	assert.Contains(t, sheets, SheetClimate)
	assert.NotContains(t, sheets, SheetMarket, "no price column means no market sheet")
	assert.NotContains(t, sheets, SheetSeason)
}
