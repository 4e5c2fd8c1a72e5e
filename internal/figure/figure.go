// Package figure renders the study's charts as PNG files.
package figure

import (
	"image/color"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/BeeKIS/honeybee-migrations/internal/cost"
	"github.com/BeeKIS/honeybee-migrations/internal/fit"
	"github.com/BeeKIS/honeybee-migrations/internal/stats"
)

var (
	grey  = color.RGBA{R: 169, G: 169, B: 169, A: 255}
	light = color.RGBA{R: 211, G: 211, B: 211, A: 255}
	teal  = color.RGBA{R: 0, G: 128, B: 128, A: 255}
	black = color.RGBA{A: 255}
)

// Input is everything the figures are drawn from.
type Input struct {
	Report  stats.Report
	Samples []cost.Sample
	Fuel    fit.Linear
	FuelExp fit.RiseExp
	Costed  []cost.Row
}

// Renderer writes figures into a directory.
type Renderer struct {
	dir    string
	width  vg.Length
	height vg.Length
}

// NewRenderer creates a renderer for dir with the default 8×4 inch canvas.
func NewRenderer(dir string) *Renderer {
	return &Renderer{dir: dir, width: 8 * vg.Inch, height: 4 * vg.Inch}
}

// All renders every figure that has data and returns the written paths.
func (r *Renderer) All(in Input) ([]string, error) {
	figures := []struct {
		name string
		draw func() (*plot.Plot, error)
	}{
		{"migrations_by_year", func() (*plot.Plot, error) {
			return yearBars("Migrations per year", "Number of migrations",
				series{"all", in.Report.Migrations, grey}, series{"> 8 colonies, > 5 km", in.Report.MigrationsPruned, teal})
		}},
		{"colonies_by_year", func() (*plot.Plot, error) {
			return yearBars("Colonies migrated per year", "Number of migrated colonies",
				series{"all", in.Report.Colonies, grey}, series{"> 8 colonies, > 5 km", in.Report.ColoniesPruned, teal})
		}},
		{"distances_by_year", func() (*plot.Plot, error) {
			return yearBars("Cumulative travel distance", "Travel distance [km]",
				series{"all", in.Report.Distance, teal}, series{"small beekeepers", in.Report.DistanceSmall, black})
		}},
		{"yearly_costs", func() (*plot.Plot, error) { return yearlyCosts(in.Report.Costs) }},
		{"colony_packaging", func() (*plot.Plot, error) { return packaging(in.Report.PackagingPruned) }},
		{"weekly_dynamics", func() (*plot.Plot, error) { return weekly(in.Report.WeeklyPruned) }},
		{"travel_time", func() (*plot.Plot, error) { return travelTime(in.Costed) }},
		{"fuel_calibration", func() (*plot.Plot, error) { return calibration(in.Samples, in.Fuel, in.FuelExp) }},
		{"cost_per_hive_per_km", func() (*plot.Plot, error) { return costPerHiveKm(in.Costed) }},
	}

	var paths []string
	for _, f := range figures {
		p, err := f.draw()
		if err != nil {
			return paths, eris.Wrapf(err, "figure: draw %s", f.name)
		}
		if p == nil {
			zap.L().Info("figure: no data, skipping", zap.String("figure", f.name))
			continue
		}
		path, err := r.save(p, f.name)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (r *Renderer) save(p *plot.Plot, name string) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "figure: create directory %s", r.dir)
	}
	path := filepath.Join(r.dir, name+".png")
	if err := p.Save(r.width, r.height, path); err != nil {
		return "", eris.Wrapf(err, "figure: save %s", path)
	}
	return path, nil
}

type series struct {
	label  string
	values stats.ByYear
	color  color.Color
}

// yearBars draws side-by-side bars per year. Years missing from a series
// are drawn as zero.
func yearBars(title, ylabel string, ss ...series) (*plot.Plot, error) {
	yearSet := make(map[int]bool)
	for _, s := range ss {
		for y := range s.values {
			yearSet[y] = true
		}
	}
	if len(yearSet) == 0 {
		return nil, nil
	}
	years := slices.Sorted(maps.Keys(yearSet))

	p := newPlot(title, "Year", ylabel)
	width := vg.Points(12)
	for i, s := range ss {
		vals := make(plotter.Values, len(years))
		for j, y := range years {
			vals[j] = s.values[y]
		}
		bars, err := plotter.NewBarChart(vals, width)
		if err != nil {
			return nil, err
		}
		bars.Color = s.color
		bars.LineStyle.Width = vg.Length(0)
		bars.Offset = width * vg.Length(float64(i)-float64(len(ss)-1)/2)
		p.Add(bars)
		p.Legend.Add(s.label, bars)
	}
	p.NominalX(yearLabels(years)...)
	p.Legend.Top = true
	return p, nil
}

func yearlyCosts(costs []stats.YearCost) (*plot.Plot, error) {
	if len(costs) == 0 {
		return nil, nil
	}
	years := make([]int, len(costs))
	fuel := make(plotter.Values, len(costs))
	e02 := make(plotter.Values, len(costs))
	e6 := make(plotter.Values, len(costs))
	for i, c := range costs {
		years[i] = c.Year
		fuel[i] = c.Fuel.InexactFloat64()
		e02[i] = c.TotalEuro02.InexactFloat64()
		e6[i] = c.TotalEuro6.InexactFloat64()
	}

	p := newPlot("Yearly costs of hive transport", "Year", "Cost [€]")
	width := vg.Points(20)
	for _, s := range []struct {
		label string
		vals  plotter.Values
		color color.Color
	}{
		{"toll Euro 0 - 2", e02, grey},
		{"toll Euro 6, EEV", e6, light},
		{"fuel", fuel, teal},
	} {
		bars, err := plotter.NewBarChart(s.vals, width)
		if err != nil {
			return nil, err
		}
		bars.Color = s.color
		bars.LineStyle.Width = vg.Length(0)
		p.Add(bars)
		p.Legend.Add(s.label, bars)
	}
	p.NominalX(yearLabels(years)...)
	p.Legend.Top = true
	return p, nil
}

func packaging(bins []stats.Bin) (*plot.Plot, error) {
	const shown = 100
	vals := make(plotter.Values, 0, shown)
	total := 0
	for _, b := range bins {
		if b.Colonies > shown {
			break
		}
		vals = append(vals, float64(b.Count))
		total += b.Count
	}
	if total == 0 {
		return nil, nil
	}

	p := newPlot("Colony packaging by migration", "No. of colonies packed in single migration", "No. of migrations")
	bars, err := plotter.NewBarChart(vals, vg.Points(3))
	if err != nil {
		return nil, err
	}
	bars.Color = teal
	bars.LineStyle.Width = vg.Length(0)
	bars.XMin = 1
	p.Add(bars)
	return p, nil
}

func weekly(b stats.ByWeek) (*plot.Plot, error) {
	if len(b) == 0 {
		return nil, nil
	}
	byYear := make(map[int]plotter.XYs)
	for _, k := range b.Keys() {
		byYear[k.Year] = append(byYear[k.Year], plotter.XY{X: float64(k.Week), Y: b[k]})
	}

	p := newPlot("Colonies migrated per week", "Week", "Colonies migrated")
	for i, y := range slices.Sorted(maps.Keys(byYear)) {
		line, points, err := plotter.NewLinePoints(byYear[y])
		if err != nil {
			return nil, err
		}
		c := palette(i)
		line.Color = c
		points.Color = c
		points.Radius = vg.Points(2)
		p.Add(line, points)
		p.Legend.Add(strconv.Itoa(y), line, points)
	}
	p.Legend.Top = true
	return p, nil
}

func travelTime(rows []cost.Row) (*plot.Plot, error) {
	var vals plotter.Values
	for _, r := range rows {
		if r.Routed() {
			vals = append(vals, r.Travel.TimeMin)
		}
	}
	if len(vals) == 0 {
		return nil, nil
	}

	p := newPlot("Travel times", "Travel time within single migration [minutes]", "Count")
	h, err := plotter.NewHist(vals, 60)
	if err != nil {
		return nil, err
	}
	h.FillColor = teal
	p.Add(h)
	return p, nil
}

// calibration plots surveyed fuel use per 100 km against the fitted line
// and its two-sigma band, plus the exponential fit when there is one.
func calibration(samples []cost.Sample, l fit.Linear, e fit.RiseExp) (*plot.Plot, error) {
	if len(samples) == 0 {
		return nil, nil
	}
	pts := make(plotter.XYs, len(samples))
	for i, s := range samples {
		pts[i] = plotter.XY{X: s.Colonies, Y: s.LitresPer100}
	}

	p := newPlot("Fuel consumption calibration", "No of colonies", "Fuel consumption [L/100 km]")
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	scatter.Color = black
	scatter.Radius = vg.Points(3)

	fitted := plotter.NewFunction(func(x float64) float64 { return 100 * l.Predict(x) })
	fitted.Width = vg.Points(2)
	fitted.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}
	upper := plotter.NewFunction(func(x float64) float64 { return 100 * (l.Predict(x) + 2*l.PredictStd(x)) })
	lower := plotter.NewFunction(func(x float64) float64 { return 100 * (l.Predict(x) - 2*l.PredictStd(x)) })
	for _, f := range []*plotter.Function{upper, lower} {
		f.Color = grey
	}

	p.Add(scatter, fitted, upper, lower)
	p.Legend.Add("survey", scatter)
	p.Legend.Add("linear fit", fitted)
	p.Legend.Add("± 2σ", upper)
	if e.K > 0 {
		exp := plotter.NewFunction(func(x float64) float64 { return 100 * e.Predict(x) })
		exp.Color = teal
		exp.Width = vg.Points(1.5)
		p.Add(exp)
		p.Legend.Add("exponential fit", exp)
	}
	if l.N > 0 {
		p.Legend.Add("R² = " + strconv.FormatFloat(l.R2, 'f', 2, 64))
	}
	p.X.Min = 0
	p.Y.Min = 0
	p.Y.Max = 35
	p.Legend.Top = true
	return p, nil
}

// ReferenceLoads are the load sizes traced in the cost per hive per km
// figure: typical car and truck loads.
var ReferenceLoads = []int{8, 10, 20, 24, 28, 40, 60, 72}

func costPerHiveKm(rows []cost.Row) (*plot.Plot, error) {
	summaries := stats.CostPerHiveKm(rows)
	byLoad := make(map[int]plotter.XYs)
	for _, s := range summaries {
		if slices.Contains(ReferenceLoads, s.Colonies) {
			byLoad[s.Colonies] = append(byLoad[s.Colonies], plotter.XY{X: float64(s.Year), Y: s.Mean})
		}
	}
	if len(byLoad) == 0 {
		return nil, nil
	}

	p := newPlot("Cost of migration", "Year", "Cost of migration [€ / hive / km]")
	for i, n := range ReferenceLoads {
		xys, ok := byLoad[n]
		if !ok {
			continue
		}
		line, points, err := plotter.NewLinePoints(xys)
		if err != nil {
			return nil, err
		}
		c := grey
		vehicle := "car"
		if n > cost.DefaultTollAbove {
			c, vehicle = black, "truck"
		}
		line.Color = c
		line.Dashes = dashes(i)
		points.Color = c
		p.Add(line, points)
		p.Legend.Add(vehicle+", "+strconv.Itoa(n)+" hives", line, points)
	}
	p.Legend.Top = true
	return p, nil
}

func newPlot(title, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	return p
}

func yearLabels(years []int) []string {
	out := make([]string, len(years))
	for i, y := range years {
		out[i] = strconv.Itoa(y)
	}
	return out
}

var lineDashes = [][]vg.Length{
	nil,
	{vg.Points(1), vg.Points(2)},
	{vg.Points(5), vg.Points(3)},
	{vg.Points(5), vg.Points(2), vg.Points(1), vg.Points(2)},
}

func dashes(i int) []vg.Length { return lineDashes[i%len(lineDashes)] }

var colors = []color.Color{
	teal, black, grey,
	color.RGBA{R: 49, G: 130, B: 189, A: 255},
	color.RGBA{R: 230, G: 85, B: 13, A: 255},
	color.RGBA{R: 49, G: 163, B: 84, A: 255},
	color.RGBA{R: 117, G: 107, B: 177, A: 255},
}

func palette(i int) color.Color { return colors[i%len(colors)] }
