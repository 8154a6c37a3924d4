package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	storecast "github.com/retailops/storecast"
	"github.com/retailops/storecast/crossval"
	"github.com/retailops/storecast/dataset"
	"github.com/retailops/storecast/event"
	"github.com/retailops/storecast/forecast"
	"github.com/retailops/storecast/plots"
	"github.com/retailops/storecast/timedataset"
	"github.com/retailops/storecast/tracking"
)

type workflowConfig struct {
	dataFile string
	dataDir  string
	outDir   string

	storeID       int
	openFlag      int
	trainFraction float64

	yearly   bool
	weekly   bool
	daily    bool
	holidays bool

	intervalWidth float64

	trackingURI string
	experiment  string

	report     bool
	cpuProfile bool
}

func newRootCmd() *cobra.Command {
	cfg := &workflowConfig{}

	cmd := &cobra.Command{
		Use:   "storecast",
		Short: "Forecast daily store sales with tracked experiment runs",
		Long: `storecast downloads the Rossmann store sales history, fits an additive
forecast model for one store, evaluates it with rolling cross validation, and
records parameters, metrics, and the model to an MLflow compatible tracking
server.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflow(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.dataFile, "data", "", "path to an existing train.csv, skips the download")
	cmd.Flags().StringVar(&cfg.dataDir, "data-dir", "data", "directory to download and cache the sales history in")
	cmd.Flags().StringVar(&cfg.outDir, "out-dir", ".", "directory to write plots into")
	cmd.Flags().IntVar(&cfg.storeID, "store", 4, "store id to forecast")
	cmd.Flags().IntVar(&cfg.openFlag, "open", 1, "keep only rows with this open flag")
	cmd.Flags().Float64Var(&cfg.trainFraction, "train-fraction", 0.8, "fraction of the series used for training")
	cmd.Flags().BoolVar(&cfg.yearly, "yearly", true, "fit a yearly seasonal cycle")
	cmd.Flags().BoolVar(&cfg.weekly, "weekly", true, "fit a weekly seasonal cycle")
	cmd.Flags().BoolVar(&cfg.daily, "daily", false, "fit a daily seasonal cycle")
	cmd.Flags().BoolVar(&cfg.holidays, "holidays", false, "model christmas and easter monday as holiday events")
	cmd.Flags().Float64Var(&cfg.intervalWidth, "interval-width", 0.95, "uncertainty interval width")
	cmd.Flags().StringVar(&cfg.trackingURI, "tracking-uri", os.Getenv("MLFLOW_TRACKING_URI"), "tracking server uri, defaults to MLFLOW_TRACKING_URI")
	cmd.Flags().StringVar(&cfg.experiment, "experiment", "store-sales", "tracking experiment name")
	cmd.Flags().BoolVar(&cfg.report, "report", false, "write an html fit report next to the plots")
	cmd.Flags().BoolVar(&cfg.cpuProfile, "cpu-profile", false, "write a cpu profile to the output directory")

	return cmd
}

func runWorkflow(ctx context.Context, cfg *workflowConfig) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if cfg.cpuProfile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(cfg.outDir)).Stop()
	}

	trainPath, err := resolveTrainCSV(ctx, cfg)
	if err != nil {
		return err
	}

	records, err := dataset.ReadCSVFile(trainPath)
	if err != nil {
		return err
	}
	slog.Info("loaded sales history", "path", trainPath, "rows", len(records))

	t, y := dataset.PrepStore(records, cfg.storeID, cfg.openFlag)
	slog.Info("prepared store series", "store", cfg.storeID, "open", cfg.openFlag, "points", len(t))

	if err := os.MkdirAll(cfg.outDir, 0o755); err != nil {
		return fmt.Errorf("unable to create output directory, %w", err)
	}
	seriesPlot := filepath.Join(cfg.outDir, "store_data.png")
	if err := plots.SaveSeries(seriesPlot, fmt.Sprintf("store %d sales", cfg.storeID), t, y); err != nil {
		return fmt.Errorf("unable to plot store series, %w", err)
	}
	slog.Info("wrote series plot", "path", seriesPlot)

	td, err := timedataset.NewUnivariateDataset(t, y)
	if err != nil {
		return fmt.Errorf("unable to build store dataset, %w", err)
	}
	train, test, err := td.Split(cfg.trainFraction)
	if err != nil {
		return fmt.Errorf("unable to split store dataset, %w", err)
	}
	slog.Info("split series", "train", train.Len(), "test", test.Len())

	run, endRun, err := startTrackedRun(ctx, cfg)
	if err != nil {
		return err
	}
	defer endRun()

	if run != nil {
		if err := logRunParams(ctx, run, cfg); err != nil {
			return err
		}
	}

	f, err := storecast.New(forecasterOptions(cfg, td.StartTime(), td.EndTime()))
	if err != nil {
		return err
	}
	if err := f.Fit(train.T, train.Y); err != nil {
		return fmt.Errorf("unable to fit store series, %w", err)
	}
	slog.Info("fit series model", "train_rmse", f.Scores().RMSE, "train_end", f.TrainEndTime())

	res, err := f.Predict(test.T)
	if err != nil {
		return fmt.Errorf("unable to forecast holdout window, %w", err)
	}
	holdoutRMSE, err := forecast.RMSE(res.Forecast, test.Y)
	if err != nil {
		return err
	}
	slog.Info("scored holdout window", "rmse", holdoutRMSE)

	summary, err := crossValidate(train, func() *storecast.Options {
		return forecasterOptions(cfg, td.StartTime(), td.EndTime())
	})
	if err != nil {
		return fmt.Errorf("cross validation failed, %w", err)
	}
	first, err := summary.First()
	if err != nil {
		return err
	}
	slog.Info("cross validated", "windows", len(summary.Windows), "rmse", first.Scores.RMSE, "mean_rmse", summary.MeanRMSE())

	if run != nil {
		if err := run.LogMetric(ctx, "rmse", first.Scores.RMSE); err != nil {
			return err
		}
		if err := run.LogMetric(ctx, "holdout_rmse", holdoutRMSE); err != nil {
			return err
		}

		model, err := f.Model()
		if err != nil {
			return err
		}
		modelBytes, err := model.Bytes()
		if err != nil {
			return err
		}
		if err := run.LogModel(ctx, modelBytes); err != nil {
			return err
		}
		slog.Info("logged model", "model_uri", run.ModelURI())
	}

	forecastPlot := filepath.Join(cfg.outDir, "store_data_forecast.png")
	err = plots.SaveForecast(
		forecastPlot,
		fmt.Sprintf("store %d forecast", cfg.storeID),
		train.T, train.Y,
		test.T, test.Y,
		res,
		plots.DefaultTrailingPoints,
	)
	if err != nil {
		return fmt.Errorf("unable to plot forecast, %w", err)
	}
	slog.Info("wrote forecast plot", "path", forecastPlot)

	if cfg.report {
		reportPath := filepath.Join(cfg.outDir, "fit_report.html")
		if err := f.PlotFit(reportPath, nil); err != nil {
			return fmt.Errorf("unable to write fit report, %w", err)
		}
		slog.Info("wrote fit report", "path", reportPath)
	}

	if run != nil {
		if err := run.End(ctx, tracking.StatusFinished); err != nil {
			return err
		}
	}
	return nil
}

func resolveTrainCSV(ctx context.Context, cfg *workflowConfig) (string, error) {
	if cfg.dataFile != "" {
		return cfg.dataFile, nil
	}

	creds, err := dataset.LoadCredentials()
	if err != nil {
		return "", fmt.Errorf("pass --data or configure kaggle credentials, %w", err)
	}
	client := dataset.NewClient(creds)
	return client.EnsureTrainCSV(ctx, cfg.dataDir)
}

// startTrackedRun starts a tracking run when a tracking uri is configured. The
// returned end func marks the run failed unless it was already ended.
func startTrackedRun(ctx context.Context, cfg *workflowConfig) (*tracking.Run, func(), error) {
	if cfg.trackingURI == "" {
		slog.Warn("no tracking uri configured, skipping experiment tracking")
		return nil, func() {}, nil
	}

	client, err := tracking.NewClient(cfg.trackingURI)
	if err != nil {
		return nil, nil, err
	}
	expID, err := client.GetOrCreateExperiment(ctx, cfg.experiment)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to resolve tracking experiment, %w", err)
	}
	run, err := client.StartRun(ctx, expID, fmt.Sprintf("store-%d-%s", cfg.storeID, time.Now().Format("20060102-150405")))
	if err != nil {
		return nil, nil, fmt.Errorf("unable to start tracking run, %w", err)
	}

	endRun := func() {
		if err := run.End(ctx, tracking.StatusFailed); err != nil {
			slog.Error("unable to end tracking run", "run_id", run.ID, "error", err)
		}
	}
	return run, endRun, nil
}

func logRunParams(ctx context.Context, run *tracking.Run, cfg *workflowConfig) error {
	params := map[string]string{
		"store_id":           strconv.Itoa(cfg.storeID),
		"open":               strconv.Itoa(cfg.openFlag),
		"train_fraction":     strconv.FormatFloat(cfg.trainFraction, 'f', -1, 64),
		"yearly_seasonality": strconv.FormatBool(cfg.yearly),
		"weekly_seasonality": strconv.FormatBool(cfg.weekly),
		"daily_seasonality":  strconv.FormatBool(cfg.daily),
		"holidays":           strconv.FormatBool(cfg.holidays),
		"interval_width":     strconv.FormatFloat(cfg.intervalWidth, 'f', -1, 64),
	}
	for key, value := range params {
		if err := run.LogParam(ctx, key, value); err != nil {
			return fmt.Errorf("unable to log %q, %w", key, err)
		}
	}
	return nil
}

// crossValidate estimates out of sample error over rolling windows of the
// training series only so the holdout suffix never leaks into a fold.
func crossValidate(train *timedataset.TimeDataset, newOptions func() *storecast.Options) (*crossval.Summary, error) {
	return crossval.Run(train, crossval.NewDefaultConfig(), newOptions)
}

func forecasterOptions(cfg *workflowConfig, start, end time.Time) *storecast.Options {
	opt := storecast.NewDefaultOptions()
	opt.IntervalWidth = cfg.intervalWidth
	opt.OutlierOptions = storecast.NewOutlierOptions()

	seasonality := forecast.NewSeasonalityFromToggles(cfg.yearly, cfg.weekly, cfg.daily)
	opt.SeriesOptions.SeasonalityOptions = seasonality
	opt.ResidualOptions.SeasonalityOptions = forecast.NewSeasonalityFromToggles(false, cfg.weekly, cfg.daily)

	if cfg.holidays {
		events := event.Christmas(start, end, 24*time.Hour, 0)
		events = append(events, event.Easter(start, end, 0, 0)...)
		opt.SeriesOptions.EventOptions.Events = events
	}
	return opt
}
