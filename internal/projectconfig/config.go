// Package projectconfig provides the ProjectConfig struct and loader for
// .benchgate.yaml project-level configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/benchgate/benchgate/internal/dataset"
	"github.com/benchgate/benchgate/internal/models"
	"github.com/benchgate/benchgate/internal/validation"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up from the working directory upwards.
const FileName = ".benchgate.yaml"

// Default values for project configuration. New() references them and no
// other code should duplicate them.
const (
	DefaultResultsDir      = "results/"
	DefaultCacheDir        = ".benchgate-cache"
	DefaultHistoryPath     = ".benchgate/history.db"
	DefaultContainer       = "benchgate"
	DefaultTotalPartitions = 1
	DefaultFormat          = "text"
	DefaultDevice          = "cuda"
)

// ErrUnknownSuite is returned when a suite name is not configured.
var ErrUnknownSuite = errors.New("unknown suite")

var structValidator = validator.New()

// CacheConfig holds the environment cache settings.
type CacheConfig struct {
	Dir string `mapstructure:"dir"`
}

// HistoryConfig holds the verdict history store settings.
type HistoryConfig struct {
	Enabled *bool  `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// PublishConfig holds blob storage settings for uploading artifacts and
// verdicts.
type PublishConfig struct {
	AccountURL string `mapstructure:"account_url" validate:"omitempty,url"`
	Container  string `mapstructure:"container"`
	Prefix     string `mapstructure:"prefix"`
}

// DefaultsConfig holds flag defaults.
type DefaultsConfig struct {
	TotalPartitions int    `mapstructure:"total_partitions" validate:"gte=0"`
	Format          string `mapstructure:"format" validate:"omitempty,oneof=text json github-comment html"`
	Device          string `mapstructure:"device"`
}

// SuiteConfig describes one model suite and how it is validated.
type SuiteConfig struct {
	Models          []string          `mapstructure:"models" validate:"required_without=ModelsFile,dive,required"`
	ModelsFile      string            `mapstructure:"models_file"`
	Exclude         []string          `mapstructure:"exclude"`
	TotalPartitions int               `mapstructure:"total_partitions" validate:"gte=0"`
	Modes           []string          `mapstructure:"modes" validate:"dive,oneof=accuracy performance training inference"`
	Baselines       map[string]string `mapstructure:"baselines" validate:"dive,keys,oneof=accuracy performance training inference,endkeys,required"`
	MinCoverage     *float64          `mapstructure:"min_coverage" validate:"omitempty,gte=0,lte=1"`
	MetricFloor     *float64          `mapstructure:"metric_floor" validate:"omitempty,gte=0"`
	Quirks          []string          `mapstructure:"quirks"`
}

// ProjectConfig is the top-level configuration loaded from .benchgate.yaml.
type ProjectConfig struct {
	ResultsDir string                 `mapstructure:"results_dir"`
	Cache      CacheConfig            `mapstructure:"cache"`
	History    HistoryConfig          `mapstructure:"history"`
	Publish    PublishConfig          `mapstructure:"publish"`
	Defaults   DefaultsConfig         `mapstructure:"defaults"`
	Suites     map[string]SuiteConfig `mapstructure:"suites" validate:"dive"`

	// Path is the file the config was loaded from; empty for defaults.
	Path string `mapstructure:"-"`
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		ResultsDir: DefaultResultsDir,
		Cache: CacheConfig{
			Dir: DefaultCacheDir,
		},
		History: HistoryConfig{
			Enabled: boolPtr(false),
			Path:    DefaultHistoryPath,
		},
		Publish: PublishConfig{
			Container: DefaultContainer,
		},
		Defaults: DefaultsConfig{
			TotalPartitions: DefaultTotalPartitions,
			Format:          DefaultFormat,
			Device:          DefaultDevice,
		},
		Suites: map[string]SuiteConfig{},
	}
}

// Load finds .benchgate.yaml by walking up from startDir (max 10 levels),
// validates and decodes it, and fills in missing fields with defaults.
// If no config file is found, returns defaults with a nil error.
// Real I/O errors (e.g. permission denied) are returned to the caller.
func Load(startDir string) (*ProjectConfig, error) {
	data, path, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(), nil // no file found → return defaults
		}
		return nil, fmt.Errorf("loading %s: %w", FileName, err)
	}
	return parse(data, path)
}

// LoadFile loads an explicit config path. Unlike Load, a missing file is an
// error.
func LoadFile(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", path, err)
	}
	return parse(data, abs)
}

func parse(data []byte, path string) (*ProjectConfig, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if errs := validation.ValidateConfigDocument(doc); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s does not match the config schema:\n  %s", models.ErrInvalidInput, path, strings.Join(errs, "\n  "))
	}

	var fileCfg ProjectConfig
	if doc != nil {
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:      &fileCfg,
			ErrorUnused: true,
		})
		if err != nil {
			return nil, fmt.Errorf("creating config decoder: %w", err)
		}
		if err := dec.Decode(doc); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
	}

	cfg := New()
	mergeConfig(cfg, &fileCfg)
	cfg.Path = path

	if err := structValidator.Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrInvalidInput, path, err)
	}
	return cfg, nil
}

// Find returns the path of the nearest .benchgate.yaml at or above startDir.
// It returns an error wrapping os.ErrNotExist when there is none.
func Find(startDir string) (string, error) {
	_, path, err := findConfigFile(startDir)
	if err != nil {
		return "", err
	}
	return path, nil
}

// findConfigFile walks up from dir looking for .benchgate.yaml (max 10
// levels). Returns os.ErrNotExist if no config file is found. Propagates real
// I/O errors instead of silently swallowing them.
func findConfigFile(dir string) ([]byte, string, error) {
	// Convert to absolute path so filepath.Dir(".") walks correctly.
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for i := 0; i < 10; i++ {
		p := filepath.Join(dir, FileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return data, p, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, "", fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break // reached filesystem root
		}
		dir = parent
	}
	return nil, "", os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *ProjectConfig) {
	if src.ResultsDir != "" {
		dst.ResultsDir = src.ResultsDir
	}

	// Cache
	if src.Cache.Dir != "" {
		dst.Cache.Dir = src.Cache.Dir
	}

	// History
	if src.History.Enabled != nil {
		dst.History.Enabled = src.History.Enabled
	}
	if src.History.Path != "" {
		dst.History.Path = src.History.Path
	}

	// Publish
	if src.Publish.AccountURL != "" {
		dst.Publish.AccountURL = src.Publish.AccountURL
	}
	if src.Publish.Container != "" {
		dst.Publish.Container = src.Publish.Container
	}
	if src.Publish.Prefix != "" {
		dst.Publish.Prefix = src.Publish.Prefix
	}

	// Defaults
	if src.Defaults.TotalPartitions != 0 {
		dst.Defaults.TotalPartitions = src.Defaults.TotalPartitions
	}
	if src.Defaults.Format != "" {
		dst.Defaults.Format = src.Defaults.Format
	}
	if src.Defaults.Device != "" {
		dst.Defaults.Device = src.Defaults.Device
	}

	for name, s := range src.Suites {
		dst.Suites[name] = s
	}
}

// Resolve interprets p relative to the config file's directory. Absolute
// paths and paths on a default config are returned unchanged.
func (c *ProjectConfig) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.Path == "" {
		return p
	}
	return filepath.Join(filepath.Dir(c.Path), p)
}

// HistoryEnabled reports whether verdicts are recorded.
func (c *ProjectConfig) HistoryEnabled() bool {
	return c.History.Enabled != nil && *c.History.Enabled
}

// SuiteNames returns configured suite names in lexical order.
func (c *ProjectConfig) SuiteNames() []string {
	names := make([]string, 0, len(c.Suites))
	for name := range c.Suites {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Suite returns the named suite's settings.
func (c *ProjectConfig) Suite(name string) (SuiteConfig, error) {
	s, ok := c.Suites[name]
	if !ok {
		known := strings.Join(c.SuiteNames(), ", ")
		if known == "" {
			known = "none configured"
		}
		return SuiteConfig{}, fmt.Errorf("%w %q (known: %s)", ErrUnknownSuite, name, known)
	}
	return s, nil
}

// TotalPartitions returns the suite's partition count, falling back to the
// project default.
func (c *ProjectConfig) TotalPartitions(s SuiteConfig) int {
	if s.TotalPartitions > 0 {
		return s.TotalPartitions
	}
	return c.Defaults.TotalPartitions
}

// LoadModels returns the suite's ordered model list. Inline models come first,
// then the entries of models_file.
func (c *ProjectConfig) LoadModels(s SuiteConfig) (models.ModelSuite, error) {
	ids := append([]string(nil), s.Models...)
	if s.ModelsFile != "" {
		fromFile, err := dataset.LoadModelList(c.Resolve(s.ModelsFile))
		if err != nil {
			return nil, fmt.Errorf("loading models_file: %w", err)
		}
		ids = append(ids, fromFile...)
	}
	suite := models.ModelSuite(ids)
	if err := suite.Validate(); err != nil {
		return nil, err
	}
	return suite, nil
}

// BaselinePath returns the resolved baseline for mode, or "" if none is set.
func (c *ProjectConfig) BaselinePath(s SuiteConfig, mode models.RunMode) string {
	return c.Resolve(s.Baselines[string(mode)])
}

// Exclusions returns the suite's exclusion set.
func (s SuiteConfig) Exclusions() models.ExclusionSet {
	return models.NewExclusionSet(s.Exclude...)
}

// QuirkSet returns the models allowed to regress.
func (s SuiteConfig) QuirkSet() models.ExclusionSet {
	return models.NewExclusionSet(s.Quirks...)
}

// RunModes returns the suite's run modes, defaulting to accuracy.
func (s SuiteConfig) RunModes() ([]models.RunMode, error) {
	if len(s.Modes) == 0 {
		return []models.RunMode{models.ModeAccuracy}, nil
	}
	modes := make([]models.RunMode, 0, len(s.Modes))
	for _, m := range s.Modes {
		mode, err := models.ParseRunMode(m)
		if err != nil {
			return nil, err
		}
		modes = append(modes, mode)
	}
	return modes, nil
}

func boolPtr(b bool) *bool {
	return &b
}
