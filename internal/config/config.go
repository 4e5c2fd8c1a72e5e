// Package config loads beemig settings from config.yaml and BEEMIG_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DateLayout is the layout of date settings.
const DateLayout = "2006-01-02"

// MaxThresholdLabel is the longest threshold label that keeps every sheet
// named after a threshold within Excel's 31-character limit.
const MaxThresholdLabel = 2

// ThresholdLabel formats a distance threshold for sheet names.
func ThresholdLabel(km float64) string { return strconv.FormatFloat(km, 'f', -1, 64) }

// Config holds the full application configuration.
type Config struct {
	Input   InputConfig   `yaml:"input" mapstructure:"input"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Chains  ChainsConfig  `yaml:"chains" mapstructure:"chains"`
	Routing RoutingConfig `yaml:"routing" mapstructure:"routing"`
	Costs   CostsConfig   `yaml:"costs" mapstructure:"costs"`
	Stats   StatsConfig   `yaml:"stats" mapstructure:"stats"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// InputConfig names the source workbooks.
type InputConfig struct {
	Movements      string `yaml:"movements" mapstructure:"movements"`
	MovementsSheet string `yaml:"movements_sheet" mapstructure:"movements_sheet"`
	Census         string `yaml:"census" mapstructure:"census"`
	CensusSheet    string `yaml:"census_sheet" mapstructure:"census_sheet"`
	// Survey holds the transportation and honey_prices sheets.
	Survey string `yaml:"survey" mapstructure:"survey"`
	// Fuel holds the diesel and toll sheets.
	Fuel string `yaml:"fuel" mapstructure:"fuel"`
}

// OutputConfig names the generated files. Relative paths resolve against Dir.
type OutputConfig struct {
	Dir         string `yaml:"dir" mapstructure:"dir"`
	Chains      string `yaml:"chains" mapstructure:"chains"`
	Distances   string `yaml:"distances" mapstructure:"distances"`
	Calibration string `yaml:"calibration" mapstructure:"calibration"`
	Costs       string `yaml:"costs" mapstructure:"costs"`
	Stats       string `yaml:"stats" mapstructure:"stats"`
	Model       string `yaml:"model" mapstructure:"model"`
	Figures     string `yaml:"figures" mapstructure:"figures"`
	Paths       string `yaml:"paths" mapstructure:"paths"`
}

// Path resolves an output file name against Dir.
func (o OutputConfig) Path(name string) string {
	if filepath.IsAbs(name) || o.Dir == "" {
		return name
	}
	return filepath.Join(o.Dir, name)
}

// ChainsConfig configures chain reconstruction.
type ChainsConfig struct {
	ThresholdsKm     []float64 `yaml:"thresholds_km" mapstructure:"thresholds_km"`
	MinColonies      int       `yaml:"min_colonies" mapstructure:"min_colonies"`
	ReturnAfterDays  int       `yaml:"return_after_days" mapstructure:"return_after_days"`
	CloseAtPermanent bool      `yaml:"close_at_permanent" mapstructure:"close_at_permanent"`
}

// ReturnAfter is the offset of synthesized returns.
func (c ChainsConfig) ReturnAfter() time.Duration {
	return time.Duration(c.ReturnAfterDays) * 24 * time.Hour
}

// RoutingConfig configures the GraphHopper client.
type RoutingConfig struct {
	URL         string  `yaml:"url" mapstructure:"url"`
	Profile     string  `yaml:"profile" mapstructure:"profile"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	Concurrency int     `yaml:"concurrency" mapstructure:"concurrency"`
	PointStep   int     `yaml:"point_step" mapstructure:"point_step"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxAttempts int     `yaml:"max_attempts" mapstructure:"max_attempts"`

	// ThresholdsKm selects the chain tables that are routed. Each must also
	// be a chains threshold.
	ThresholdsKm []float64 `yaml:"thresholds_km" mapstructure:"thresholds_km"`
}

// CostsConfig configures the transport cost stage.
type CostsConfig struct {
	ThresholdKm float64 `yaml:"threshold_km" mapstructure:"threshold_km"`
	Cutoff      string  `yaml:"cutoff" mapstructure:"cutoff"`
	TollAbove   int     `yaml:"toll_above" mapstructure:"toll_above"`
}

// CutoffDate parses Cutoff.
func (c CostsConfig) CutoffDate() (time.Time, error) {
	d, err := time.Parse(DateLayout, c.Cutoff)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "config: parse costs.cutoff %q", c.Cutoff)
	}
	return d, nil
}

// StatsConfig configures the statistics stage.
type StatsConfig struct {
	// AllThresholdKm selects the chain sheet counted as all migrations.
	AllThresholdKm float64 `yaml:"all_threshold_km" mapstructure:"all_threshold_km"`
	CutoffYear     int     `yaml:"cutoff_year" mapstructure:"cutoff_year"`
	SmallMax       int     `yaml:"small_max" mapstructure:"small_max"`
}

// StoreConfig configures the run ledger.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("BEEMIG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("input.movements", "data/migrations.xlsx")
	v.SetDefault("input.movements_sheet", "migrations pruned")
	v.SetDefault("input.census", "data/census.xlsx")
	v.SetDefault("input.census_sheet", "")
	v.SetDefault("input.survey", "data/survey_results.xlsx")
	v.SetDefault("input.fuel", "data/fuel_prices.xlsx")
	v.SetDefault("output.dir", "output")
	v.SetDefault("output.chains", "migrations_chains.xlsx")
	v.SetDefault("output.distances", "migrations_distances.xlsx")
	v.SetDefault("output.calibration", "fuel_calibration.xlsx")
	v.SetDefault("output.costs", "migrations_costs.xlsx")
	v.SetDefault("output.stats", "migrations_stats.xlsx")
	v.SetDefault("output.model", "travel_costs.xlsx")
	v.SetDefault("output.figures", "figures")
	v.SetDefault("output.paths", "migration_paths.shp")
	v.SetDefault("chains.thresholds_km", []float64{0, 3, 5})
	v.SetDefault("chains.min_colonies", 8)
	v.SetDefault("chains.return_after_days", 30)
	v.SetDefault("chains.close_at_permanent", false)
	v.SetDefault("routing.thresholds_km", []float64{0, 5})
	v.SetDefault("routing.url", "http://localhost:8989/route")
	v.SetDefault("routing.profile", "truck")
	v.SetDefault("routing.rate_limit", 20.0)
	v.SetDefault("routing.concurrency", 8)
	v.SetDefault("routing.point_step", 40)
	v.SetDefault("routing.timeout_secs", 30)
	v.SetDefault("routing.max_attempts", 4)
	v.SetDefault("costs.threshold_km", 5.0)
	v.SetDefault("costs.cutoff", "2023-01-01")
	v.SetDefault("costs.toll_above", 28)
	v.SetDefault("stats.all_threshold_km", 0.0)
	v.SetDefault("stats.cutoff_year", 2023)
	v.SetDefault("stats.small_max", 28)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "beemig.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command depends on. Every problem found is
// reported in one error.
func (c *Config) Validate(command string) error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		add("log.format must be console or json, got %q", c.Log.Format)
	}
	if c.Store.Driver != "sqlite" {
		add("store.driver must be sqlite, got %q", c.Store.Driver)
	}
	if c.Store.DatabaseURL == "" {
		add("store.database_url is required")
	}

	switch command {
	case "chains":
		c.validateChains(add)
	case "distances":
		c.validateChains(add)
		c.validateRouting(add)
	case "costs", "model":
		c.validateCosts(add)
	case "stats":
		c.validateCosts(add)
		c.validateStats(add)
	case "run":
		c.validateChains(add)
		c.validateRouting(add)
		c.validateCosts(add)
		c.validateStats(add)
	case "figures", "export", "runs", "config", "help", "completion", "beemig":
	default:
		add("unknown command %q", command)
	}

	if len(errs) > 0 {
		return eris.Wrap(errors.Join(errs...), "config: validate")
	}
	return nil
}

func (c *Config) validateChains(add func(string, ...any)) {
	if c.Input.Movements == "" {
		add("input.movements is required")
	}
	if len(c.Chains.ThresholdsKm) == 0 {
		add("chains.thresholds_km must not be empty")
	}
	for _, th := range c.Chains.ThresholdsKm {
		if th < 0 {
			add("chains.thresholds_km must be >= 0, got %v", th)
		}
		checkLabel(add, "chains.thresholds_km", th)
	}
	if c.Chains.MinColonies < 0 {
		add("chains.min_colonies must be >= 0")
	}
	if c.Chains.ReturnAfterDays < 1 {
		add("chains.return_after_days must be >= 1")
	}
}

func (c *Config) validateRouting(add func(string, ...any)) {
	if len(c.Routing.ThresholdsKm) == 0 {
		add("routing.thresholds_km must not be empty")
	}
	for _, th := range c.Routing.ThresholdsKm {
		if !slices.Contains(c.Chains.ThresholdsKm, th) {
			add("routing.thresholds_km: %v is not one of chains.thresholds_km", th)
		}
	}
	if c.Routing.URL == "" {
		add("routing.url is required")
	}
	if c.Routing.Concurrency < 1 || c.Routing.Concurrency > 64 {
		add("routing.concurrency must be between 1 and 64")
	}
	if c.Routing.RateLimit <= 0 {
		add("routing.rate_limit must be > 0")
	}
	if c.Routing.PointStep < 1 {
		add("routing.point_step must be >= 1")
	}
	if c.Routing.MaxAttempts < 1 {
		add("routing.max_attempts must be >= 1")
	}
}

func (c *Config) validateCosts(add func(string, ...any)) {
	if c.Input.Survey == "" {
		add("input.survey is required")
	}
	if c.Input.Fuel == "" {
		add("input.fuel is required")
	}
	if c.Costs.ThresholdKm < 0 {
		add("costs.threshold_km must be >= 0")
	}
	checkLabel(add, "costs.threshold_km", c.Costs.ThresholdKm)
	if !slices.Contains(c.Routing.ThresholdsKm, c.Costs.ThresholdKm) {
		add("costs.threshold_km: %v is not one of routing.thresholds_km", c.Costs.ThresholdKm)
	}
	if c.Costs.TollAbove < 0 {
		add("costs.toll_above must be >= 0")
	}
	if _, err := time.Parse(DateLayout, c.Costs.Cutoff); err != nil {
		add("costs.cutoff must be a %s date, got %q", DateLayout, c.Costs.Cutoff)
	}
}

func (c *Config) validateStats(add func(string, ...any)) {
	if c.Input.Census == "" {
		add("input.census is required")
	}
	if c.Stats.CutoffYear <= 0 {
		add("stats.cutoff_year must be > 0")
	}
	if c.Stats.SmallMax < 1 {
		add("stats.small_max must be >= 1")
	}
	if !slices.Contains(c.Chains.ThresholdsKm, c.Stats.AllThresholdKm) {
		add("stats.all_threshold_km: %v is not one of chains.thresholds_km", c.Stats.AllThresholdKm)
	}
}

func checkLabel(add func(string, ...any), key string, km float64) {
	if l := ThresholdLabel(km); len(l) > MaxThresholdLabel {
		add("%s: %v is too long for a sheet name, use at most %d characters", key, km, MaxThresholdLabel)
	}
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
