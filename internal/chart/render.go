package chart

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/samber/lo"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/mrcode/glucopredict/internal/models"
)

// Plot margins in pixels
const (
	marginLeft   = 56.0
	marginRight  = 20.0
	marginTop    = 36.0
	marginBottom = 40.0
)

// Options controls the rendered chart
type Options struct {
	Width      int
	Height     int
	Unit       string // "mg/dL" or "mmol/L"
	TargetLow  float64
	TargetHigh float64
	ShowTarget bool
	Title      string
	Settings   *models.Settings // colors
}

// OptionsFromSettings builds chart options from the user's settings
func OptionsFromSettings(s *models.Settings) Options {
	c := s.Clone()
	return Options{
		Width:      c.ChartWidth,
		Height:     c.ChartHeight,
		Unit:       c.Unit,
		TargetLow:  float64(c.TargetLow),
		TargetHigh: float64(c.TargetHigh),
		ShowTarget: c.ChartShowTarget,
		Settings:   c,
	}
}

func (o Options) withDefaults() Options {
	if o.Settings == nil {
		o.Settings = models.DefaultSettings()
	}
	if o.Width <= 0 {
		o.Width = o.Settings.ChartWidth
	}
	if o.Height <= 0 {
		o.Height = o.Settings.ChartHeight
	}
	if o.TargetLow <= 0 {
		o.TargetLow = float64(o.Settings.TargetLow)
	}
	if o.TargetHigh <= 0 {
		o.TargetHigh = float64(o.Settings.TargetHigh)
	}
	return o
}

// plotArea maps minutes and mg/dL values onto pixels
type plotArea struct {
	x0, y0, w, h float64
	maxMinute    float64
	lo, hi       float64
}

func (p plotArea) x(minute float64) float64 {
	return p.x0 + minute/p.maxMinute*p.w
}

func (p plotArea) y(mgdl float64) float64 {
	return p.y0 + p.h - (mgdl-p.lo)/(p.hi-p.lo)*p.h
}

// Render draws the predicted curve with its target band and peak marker
func Render(prediction *models.GlucosePrediction, opts Options) (image.Image, error) {
	if prediction == nil || len(prediction.Points) == 0 {
		return nil, fmt.Errorf("nothing to render: prediction has no points")
	}
	opts = opts.withDefaults()

	dc := gg.NewContext(opts.Width, opts.Height)
	dc.SetColor(color.White)
	dc.Clear()

	area := newPlotArea(prediction, opts)

	if opts.ShowTarget {
		r, g, b := parseHexColor(opts.Settings.ChartColorInRange)
		dc.SetRGBA255(int(r), int(g), int(b), 48)
		top := area.y(opts.TargetHigh)
		dc.DrawRectangle(area.x0, top, area.w, area.y(opts.TargetLow)-top)
		dc.Fill()
	}

	fontErr := loadFont(dc, 12)
	drawAxes(dc, area, opts, fontErr == nil)

	// Curve
	dc.SetRGB255(37, 99, 235)
	dc.SetLineWidth(3)
	for i, pt := range prediction.Points {
		x, y := area.x(float64(pt.Minute)), area.y(pt.Glucose)
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
	dc.Stroke()

	// Peak marker in the color of its band
	r, g, b := parseHexColor(BandColor(prediction.PeakBand, opts.Settings))
	px, py := area.x(float64(prediction.Peak.Minute)), area.y(prediction.Peak.Glucose)
	dc.SetRGB255(int(r), int(g), int(b))
	dc.DrawCircle(px, py, 7)
	dc.Fill()

	if fontErr == nil {
		dc.SetColor(color.Black)
		label := fmt.Sprintf("Peak %s at %d min", formatValue(prediction.Peak.Glucose, opts.Unit), prediction.Peak.Minute)
		dc.DrawStringAnchored(label, px, py-16, 0.5, 0)

		title := opts.Title
		if title == "" {
			title = fmt.Sprintf("%s · %s", OrderLabel(prediction.Order), BandLabel(prediction.PeakBand))
		}
		dc.DrawStringAnchored(title, float64(opts.Width)/2, marginTop/2, 0.5, 0.5)
	}

	return dc.Image(), nil
}

// RenderPNG draws the prediction and writes it to w as PNG
func RenderPNG(w io.Writer, prediction *models.GlucosePrediction, opts Options) error {
	img, err := Render(prediction, opts)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode chart: %w", err)
	}
	return nil
}

func newPlotArea(prediction *models.GlucosePrediction, opts Options) plotArea {
	values := prediction.Values()
	low := min(lo.Min(values), opts.TargetLow, models.GlucoseFloor)
	high := max(lo.Max(values), opts.TargetHigh)

	maxMinute := float64(prediction.Points[len(prediction.Points)-1].Minute)
	if maxMinute <= 0 {
		maxMinute = models.CurveHorizonMinutes
	}

	return plotArea{
		x0:        marginLeft,
		y0:        marginTop,
		w:         float64(opts.Width) - marginLeft - marginRight,
		h:         float64(opts.Height) - marginTop - marginBottom,
		maxMinute: maxMinute,
		lo:        low - 10,
		hi:        high + 20,
	}
}

func drawAxes(dc *gg.Context, area plotArea, opts Options, withLabels bool) {
	dc.SetRGB255(156, 163, 175)
	dc.SetLineWidth(1)
	dc.DrawLine(area.x0, area.y0, area.x0, area.y0+area.h)
	dc.DrawLine(area.x0, area.y0+area.h, area.x0+area.w, area.y0+area.h)
	dc.Stroke()

	if !withLabels {
		return
	}

	dc.SetRGB255(75, 85, 99)
	for minute := 0; minute <= int(area.maxMinute); minute += 30 {
		x := area.x(float64(minute))
		dc.DrawStringAnchored(fmt.Sprintf("%d", minute), x, area.y0+area.h+14, 0.5, 0.5)
	}
	dc.DrawStringAnchored("minutes after meal", area.x0+area.w/2, area.y0+area.h+30, 0.5, 0.5)

	for _, v := range []float64{opts.TargetLow, opts.TargetHigh} {
		dc.DrawStringAnchored(formatValue(v, opts.Unit), area.x0-6, area.y(v), 1, 0.5)
	}
}

func formatValue(mgdl float64, unit string) string {
	if unit == "mmol/L" {
		return fmt.Sprintf("%.1f mmol/L", models.ToMmol(mgdl))
	}
	return fmt.Sprintf("%.0f mg/dL", mgdl)
}

// loadFont sets the Go regular font at size
func loadFont(dc *gg.Context, size float64) error {
	font, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return err
	}
	dc.SetFontFace(truetype.NewFace(font, &truetype.Options{Size: size}))
	return nil
}

// parseHexColor parses a hex color string to RGB values
func parseHexColor(hex string) (r, g, b byte) {
	if len(hex) == 7 && hex[0] == '#' {
		_, _ = fmt.Sscanf(hex, "#%02x%02x%02x", &r, &g, &b)
	}
	return
}
