// Package main is the command-line front end of the glucose prediction engine
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/mrcode/glucopredict/internal/app"
	"github.com/mrcode/glucopredict/internal/catalog"
	"github.com/mrcode/glucopredict/internal/chart"
	"github.com/mrcode/glucopredict/internal/history"
	"github.com/mrcode/glucopredict/internal/logging"
	"github.com/mrcode/glucopredict/internal/models"
	"github.com/mrcode/glucopredict/internal/nightscout"
	"github.com/mrcode/glucopredict/internal/notifications"
	"github.com/mrcode/glucopredict/internal/prediction"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	foods        []catalog.Selection
	order        string
	glucose      float64
	compare      bool
	pngPath      string
	notify       bool
	testNotify   bool
	today        bool
	showProfile  bool
	listFoods    string
	catalogPath  string
	historyPath  string
	settingsPath string
	logLevel     string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options

	fs := flag.NewFlagSet("glucopredict", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Func("food", `food portion as "name:grams", repeatable`, func(s string) error {
		sel, err := catalog.ParseSelection(s)
		if err != nil {
			return err
		}
		opts.foods = append(opts.foods, sel)
		return nil
	})
	fs.StringVar(&opts.order, "order", "", "meal order: vegetables_first, protein_first, carbohydrate_first or simultaneous")
	fs.Float64Var(&opts.glucose, "glucose", 0, "current glucose in the configured unit (0 = last known value)")
	fs.BoolVar(&opts.compare, "compare", false, "compare every meal order")
	fs.StringVar(&opts.pngPath, "png", "", "write the predicted curve as a PNG chart (the best order with -compare)")
	fs.BoolVar(&opts.notify, "notify", false, "raise a desktop alert when the predicted peak is high")
	fs.BoolVar(&opts.testNotify, "test-notify", false, "send a test desktop notification and exit")
	fs.BoolVar(&opts.today, "today", false, "print today's readings, trend and recent meals")
	fs.BoolVar(&opts.showProfile, "profile", false, "print the stored profile")
	fs.StringVar(&opts.listFoods, "foods", "", `list catalog foods matching a query ("*" for all)`)
	fs.StringVar(&opts.catalogPath, "catalog", "", "food catalog JSON file (default embedded)")
	fs.StringVar(&opts.historyPath, "history", "", "history file holding the profile (default in the config dir)")
	fs.StringVar(&opts.settingsPath, "settings", "", "settings file (default in the config dir)")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if len(opts.foods) == 0 && !opts.showProfile && !opts.today && !opts.testNotify && opts.listFoods == "" {
		fs.Usage()
		return opts, errors.New("at least one -food is required")
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	log := logging.New(opts.logLevel, stderr)

	settings := models.DefaultSettings()
	if opts.settingsPath != "" {
		err = settings.LoadFrom(opts.settingsPath)
	} else {
		err = settings.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	if opts.testNotify {
		if err := notifications.NewManager(settings).SendTestNotification(); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "Test notification sent")
		return nil
	}

	foods, err := catalog.Default()
	if opts.catalogPath != "" {
		foods, err = catalog.LoadFile(opts.catalogPath)
	}
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	historyPath := opts.historyPath
	if historyPath == "" {
		if historyPath, err = history.DefaultPath(); err != nil {
			return err
		}
	}

	svcOpts := app.Options{
		Settings:   settings,
		Catalog:    foods,
		Repository: history.NewFileRepository(historyPath),
		Logger:     log,
	}
	if opts.notify {
		svcOpts.Notifier = notifications.NewManager(settings)
	}
	if client := nightscout.NewClientFromSettings(settings); client != nil && opts.glucose == 0 {
		svcOpts.Source = client
	}

	svc, err := app.New(ctx, svcOpts)
	if err != nil {
		return err
	}

	if opts.listFoods != "" {
		query := opts.listFoods
		if query == "*" {
			query = ""
		}
		printFoods(stdout, svc.Foods(query, ""))
		return nil
	}

	if opts.today {
		printToday(stdout, svc.TodayStats(), settings)
		if len(opts.foods) == 0 && !opts.showProfile {
			return nil
		}
		fmt.Fprintln(stdout)
	}

	if opts.showProfile {
		fmt.Fprintln(stdout, svc.ProfileReport())
		if len(opts.foods) == 0 {
			return nil
		}
		fmt.Fprintln(stdout)
	}

	in := app.MealInput{Foods: opts.foods, Order: opts.order}
	if opts.glucose > 0 {
		current := opts.glucose
		if settings.Clone().Unit == "mmol/L" {
			current = models.ToMgdl(current)
		}
		in.CurrentGlucose = &current
	}

	if opts.compare {
		comparison, err := svc.Compare(ctx, in)
		if err != nil {
			return err
		}
		printComparison(stdout, comparison, settings)

		if opts.pngPath != "" {
			best, ok := comparison.Result(comparison.Best)
			if !ok {
				return fmt.Errorf("no result for %s", comparison.Best)
			}
			if err := writeChart(opts.pngPath, best.Prediction, settings); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "\nChart of %s written to %s\n", chart.OrderLabel(best.Order), opts.pngPath)
		}
		return nil
	}

	result, err := svc.Predict(ctx, in)
	if err != nil {
		return err
	}
	printPrediction(stdout, result, settings)

	if opts.pngPath != "" {
		if err := writeChart(opts.pngPath, result, settings); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "\nChart written to %s\n", opts.pngPath)
	}
	return nil
}

func formatGlucose(settings *models.Settings, mgdl float64) string {
	unit := settings.Clone().Unit
	if unit == "mmol/L" {
		return fmt.Sprintf("%.1f %s", settings.FormatGlucose(mgdl), unit)
	}
	return fmt.Sprintf("%.0f mg/dL", mgdl)
}

func printPrediction(w io.Writer, p *models.GlucosePrediction, settings *models.Settings) {
	fmt.Fprintf(w, "Order:         %s\n", chart.OrderLabel(p.Order))
	fmt.Fprintf(w, "Start:         %s\n", formatGlucose(settings, p.InitialGlucose))
	fmt.Fprintf(w, "Peak:          %s after %d min (%s)\n", formatGlucose(settings, p.Peak.Glucose), p.Peak.Minute, chart.BandLabel(p.PeakBand))
	fmt.Fprintf(w, "Glycemic load: %.1f\n", p.GlycemicLoad)
	fmt.Fprintf(w, "Macros:        %.1f g carbs, %.1f g protein, %.1f g fat, %.1f g fiber\n",
		p.Macros.Carbs, p.Macros.Protein, p.Macros.Fat, p.Macros.Fiber)
	if p.DoseAdvice != nil {
		fmt.Fprintf(w, "Insulin:       %.1f U (bolus %.1f, correction %.1f)\n",
			p.DoseAdvice.Units, p.DoseAdvice.Bolus, p.DoseAdvice.Correction)
		if !p.DoseAdvice.WithinSafeRange {
			fmt.Fprintf(w, "               above the safe limit of %.1f U\n", p.DoseAdvice.MaxSafeUnits)
		}
	}

	if spark := chart.Sparkline(p.Values()); spark != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, spark)
	}

	if len(p.Recommendations) > 0 {
		fmt.Fprintln(w)
		for _, r := range p.Recommendations {
			fmt.Fprintf(w, "- %s\n", r)
		}
	}
}

func printToday(w io.Writer, today app.Today, settings *models.Settings) {
	stats := today.Stats
	if stats.Count == 0 {
		fmt.Fprintf(w, "Today:         no readings on %s\n", stats.Date)
	} else {
		fmt.Fprintf(w, "Today:         %d readings on %s\n", stats.Count, stats.Date)
		fmt.Fprintf(w, "Mean:          %s (%s to %s)\n",
			formatGlucose(settings, stats.Mean), formatGlucose(settings, stats.Min), formatGlucose(settings, stats.Max))
		fmt.Fprintf(w, "Time in range: %.0f%%\n", stats.TimeInRange)
	}
	fmt.Fprintf(w, "Trend:         %s %s\n", chart.TrendArrow(today.Trend), today.Trend)
	fmt.Fprintf(w, "Last 3 hours:  %s\n", formatGlucose(settings, today.RecentAverage))

	if len(today.RecentMeals) == 0 {
		return
	}
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tFOODS\tPREDICTED PEAK\tRESULT\t")
	for _, m := range today.RecentMeals {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n",
			m.Time.Local().Format("Jan 2 15:04"),
			strings.Join(m.Foods, ", "),
			formatGlucose(settings, m.PredictedPeak),
			chart.EffectivenessLabel(m.Effectiveness),
		)
	}
	_ = tw.Flush()
}

func printComparison(w io.Writer, c prediction.Comparison, settings *models.Settings) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tPEAK\tMINUTE\tREDUCTION\t")
	for _, r := range c.Results {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.0f%%\t\n",
			chart.OrderLabel(r.Order),
			formatGlucose(settings, r.Prediction.Peak.Glucose),
			r.Prediction.Peak.Minute,
			r.PeakReduction,
		)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "\nBest: %s\n", chart.OrderLabel(c.Best))
}

func printFoods(w io.Writer, foods []models.Food) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCATEGORY\tGI\tCARBS/100g\t")
	for _, f := range foods {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.1f\t\n", f.Name, strings.ToLower(string(f.Category)), f.GlycemicIndex, f.Carbs)
	}
	_ = tw.Flush()
}

func writeChart(path string, p *models.GlucosePrediction, settings *models.Settings) error {
	f, err := os.Create(path) //nolint:gosec // Output path is chosen by the user on the command line
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}

	if err := chart.RenderPNG(f, p, chart.OptionsFromSettings(settings)); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
