package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Configuration keys, as spelled in ctp.yaml. The environment uses CTP_ + upper case.
const (
	KeyTimeoutSeconds            = "timeout_seconds"
	KeyMemoryCheckEnabled        = "memory_check_enabled"
	KeyMemoryCheckFlags          = "memory_check_flags"
	KeyMemoryCheckTimeoutSeconds = "memory_check_timeout_seconds"
	KeyDriverFileName            = "driver_file_name"
	KeyExecutableFileName        = "executable_file_name"
	KeyBuildTargetName           = "build_target_name"
	KeyCleanupExecutableAfterRun = "cleanup_executable_after_run"
	KeyCleanupDriverAfterRun     = "cleanup_driver_after_run"
	KeyRunCleanCommandOnExit     = "run_clean_command_on_exit"

	KeyTestFileSuffix     = "test_file_suffix"
	KeyPathsToIgnore      = "paths_to_ignore"
	KeyGoldenOutputDir    = "golden_output_dir"
	KeyDiffTempFileName   = "diff_temp_file_name"
	KeyBuildCommand       = "build_command"
	KeyCleanTargetName    = "clean_target_name"
	KeyMemoryCheckTool    = "memory_check_tool"
	KeyDriverTemplateFile = "driver_template_file"
	KeyReportDir          = "report_dir"
	KeyReportFile         = "report_file"
)

// RequiredKeys must all be resolved before a run starts.
var RequiredKeys = []string{
	KeyTimeoutSeconds,
	KeyMemoryCheckEnabled,
	KeyMemoryCheckFlags,
	KeyMemoryCheckTimeoutSeconds,
	KeyDriverFileName,
	KeyExecutableFileName,
	KeyBuildTargetName,
	KeyCleanupExecutableAfterRun,
	KeyCleanupDriverAfterRun,
	KeyRunCleanCommandOnExit,
}

// MissingKeyError reports required settings absent from every configuration source.
type MissingKeyError struct {
	Keys []string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("missing required configuration: %s (run `ctp init` to write %s)",
		strings.Join(e.Keys, ", "), ConfigFileName)
}

// Config holds all configuration for the application
type Config struct {
	// Project settings
	ProjectPath string
	TestPath    string

	// Discovery settings
	TestFileSuffix string
	PathsToIgnore  []string

	// Execution settings
	TimeoutSeconds            float64
	MemoryCheckEnabled        bool
	MemoryCheckFlags          string
	MemoryCheckTimeoutSeconds float64
	MemoryCheckTool           string
	GoldenOutputDir           string
	DiffTempFileName          string

	// Build settings
	DriverFileName     string
	DriverTemplateFile string
	ExecutableFileName string
	BuildCommand       string
	BuildTargetName    string
	CleanTargetName    string

	// Cleanup settings
	CleanupExecutableAfterRun bool
	CleanupDriverAfterRun     bool
	RunCleanCommandOnExit     bool

	// Output settings
	OutputJSONFile string
	OutputJSONDir  string

	// Command flags
	Flags Flags

	missing []string
}

// Flags holds command-line flags
type Flags struct {
	TestPath     string
	NameFilter   string
	FileFilter   string
	NoProgress   bool
	OpenFailures bool
	ShowTree     bool
	Force        bool
	FailFast     bool
}

// New creates a new Config with defaults for every optional setting.
// Required settings stay unresolved until Load finds them.
func New() *Config {
	cfg := &Config{
		ProjectPath:      DefaultProjectPath,
		TestPath:         DefaultTestPath,
		TestFileSuffix:   DefaultTestFileSuffix,
		MemoryCheckTool:  DefaultMemoryCheckTool,
		GoldenOutputDir:  DefaultGoldenOutputDir,
		DiffTempFileName: DefaultDiffTempFileName,
		BuildCommand:     DefaultBuildCommand,
		CleanTargetName:  DefaultCleanTargetName,
		OutputJSONFile:   DefaultOutputJSONFile,
		OutputJSONDir:    DefaultOutputJSONDir,
	}
	cfg.PathsToIgnore = make([]string, len(DefaultPathsToIgnore))
	copy(cfg.PathsToIgnore, DefaultPathsToIgnore)
	cfg.missing = append([]string(nil), RequiredKeys...)
	return cfg
}

// Load resolves configuration for the project rooted at projectPath.
// Sources, later wins: ctp.yaml, .env, CTP_* environment variables.
func Load(projectPath string) (*Config, error) {
	values, err := readSources(projectPath)
	if err != nil {
		return nil, err
	}

	cfg := New()
	cfg.ProjectPath = projectPath
	if err := cfg.apply(values); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RequireRunSettings fails when any required key was not resolved.
func (c *Config) RequireRunSettings() error {
	if len(c.missing) == 0 {
		return nil
	}
	keys := append([]string(nil), c.missing...)
	sort.Strings(keys)
	return &MissingKeyError{Keys: keys}
}

func readSources(projectPath string) (map[string]string, error) {
	values := make(map[string]string)

	data, err := os.ReadFile(filepath.Join(projectPath, ConfigFileName))
	switch {
	case err == nil:
		var raw map[string]interface{}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse %s: %w", ConfigFileName, err)
		}
		for k, v := range raw {
			values[strings.ToLower(k)] = stringify(v)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("read %s: %w", ConfigFileName, err)
	}

	// .env never overrides the real environment, same as godotenv.Load.
	env, err := godotenv.Read(filepath.Join(projectPath, EnvFileName))
	if err == nil {
		for k, v := range env {
			if key, ok := envKey(k); ok {
				values[key] = v
			}
		}
	}

	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if key, ok := envKey(k); ok {
			values[key] = v
		}
	}
	return values, nil
}

func envKey(name string) (string, bool) {
	if !strings.HasPrefix(name, EnvPrefix) {
		return "", false
	}
	return strings.ToLower(strings.TrimPrefix(name, EnvPrefix)), true
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []interface{}:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(t)
	}
}

func (c *Config) apply(values map[string]string) error {
	var missing []string
	for _, key := range RequiredKeys {
		raw, ok := values[key]
		if !ok {
			missing = append(missing, key)
			continue
		}
		if err := c.set(key, raw); err != nil {
			return err
		}
	}
	c.missing = missing

	for key, raw := range values {
		if isRequired(key) {
			continue
		}
		if err := c.set(key, raw); err != nil {
			return err
		}
	}
	return nil
}

func isRequired(key string) bool {
	for _, k := range RequiredKeys {
		if k == key {
			return true
		}
	}
	return false
}

func (c *Config) set(key, raw string) error {
	var err error
	switch key {
	case KeyTimeoutSeconds:
		c.TimeoutSeconds, err = parseSeconds(raw)
	case KeyMemoryCheckEnabled:
		c.MemoryCheckEnabled, err = strconv.ParseBool(raw)
	case KeyMemoryCheckFlags:
		c.MemoryCheckFlags = raw
	case KeyMemoryCheckTimeoutSeconds:
		c.MemoryCheckTimeoutSeconds, err = parseSeconds(raw)
	case KeyDriverFileName:
		c.DriverFileName = raw
	case KeyExecutableFileName:
		c.ExecutableFileName = raw
	case KeyBuildTargetName:
		c.BuildTargetName = raw
	case KeyCleanupExecutableAfterRun:
		c.CleanupExecutableAfterRun, err = strconv.ParseBool(raw)
	case KeyCleanupDriverAfterRun:
		c.CleanupDriverAfterRun, err = strconv.ParseBool(raw)
	case KeyRunCleanCommandOnExit:
		c.RunCleanCommandOnExit, err = strconv.ParseBool(raw)
	case KeyTestFileSuffix:
		c.TestFileSuffix = raw
	case KeyPathsToIgnore:
		c.PathsToIgnore = splitList(raw)
	case KeyGoldenOutputDir:
		c.GoldenOutputDir = raw
	case KeyDiffTempFileName:
		c.DiffTempFileName = raw
	case KeyBuildCommand:
		c.BuildCommand = raw
	case KeyCleanTargetName:
		c.CleanTargetName = raw
	case KeyMemoryCheckTool:
		c.MemoryCheckTool = raw
	case KeyDriverTemplateFile:
		c.DriverTemplateFile = raw
	case KeyReportDir:
		c.OutputJSONDir = raw
	case KeyReportFile:
		c.OutputJSONFile = raw
	}
	if err != nil {
		return fmt.Errorf("invalid value %q for %s: %w", raw, key, err)
	}
	return nil
}

func parseSeconds(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, fmt.Errorf("must be positive")
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// GetTestPath returns the test path, using flag if provided
func (c *Config) GetTestPath() string {
	if c.Flags.TestPath != "" {
		if filepath.IsAbs(c.Flags.TestPath) {
			return c.Flags.TestPath
		}
		return filepath.Join(c.ProjectPath, c.Flags.TestPath)
	}

	return filepath.Join(c.ProjectPath, c.TestPath)
}

// GetOutputPath returns the absolute path of the last-run report.
func (c *Config) GetOutputPath() string {
	p := filepath.Join(c.ProjectPath, c.OutputJSONDir, c.OutputJSONFile)
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// ResolvePath joins a relative path onto the project root.
func (c *Config) ResolvePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.ProjectPath, p)
}

// DriverPath returns where the synthesized driver is written.
func (c *Config) DriverPath() string {
	return filepath.Join(c.ProjectPath, c.DriverFileName)
}

// ExecutablePath returns the built test binary.
func (c *Config) ExecutablePath() string {
	p := filepath.Join(c.ProjectPath, c.ExecutableFileName)
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// DiffTempPath returns the shared capture file used for golden comparisons.
func (c *Config) DiffTempPath() string {
	return filepath.Join(c.ProjectPath, c.DiffTempFileName)
}

// GoldenOutputLookup returns the golden stdout file for a test, if one exists.
func (c *Config) GoldenOutputLookup(testName string) (string, bool) {
	p := filepath.Join(c.ProjectPath, c.GoldenOutputDir, testName)
	info, err := os.Stat(p)
	if err != nil || info.IsDir() {
		return "", false
	}
	return p, true
}

// Timeout returns the per-test wall-clock bound.
func (c *Config) Timeout() time.Duration {
	return seconds(c.TimeoutSeconds)
}

// MemoryCheckTimeout returns the wall-clock bound for the memory-checker run.
func (c *Config) MemoryCheckTimeout() time.Duration {
	return seconds(c.MemoryCheckTimeoutSeconds)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// fileLayout is the on-disk shape written by `ctp init`.
type fileLayout struct {
	TimeoutSeconds            float64 `yaml:"timeout_seconds"`
	MemoryCheckEnabled        bool    `yaml:"memory_check_enabled"`
	MemoryCheckFlags          string  `yaml:"memory_check_flags"`
	MemoryCheckTimeoutSeconds float64 `yaml:"memory_check_timeout_seconds"`
	DriverFileName            string  `yaml:"driver_file_name"`
	ExecutableFileName        string  `yaml:"executable_file_name"`
	BuildTargetName           string  `yaml:"build_target_name"`
	CleanupExecutableAfterRun bool    `yaml:"cleanup_executable_after_run"`
	CleanupDriverAfterRun     bool    `yaml:"cleanup_driver_after_run"`
	RunCleanCommandOnExit     bool    `yaml:"run_clean_command_on_exit"`
	TestFileSuffix            string  `yaml:"test_file_suffix"`
	GoldenOutputDir           string  `yaml:"golden_output_dir"`
	BuildCommand              string  `yaml:"build_command"`
}

// WriteDefaultFile writes ctp.yaml with every required key into projectPath.
// An existing file is kept unless force is set.
func WriteDefaultFile(projectPath string, force bool) (string, error) {
	path := filepath.Join(projectPath, ConfigFileName)
	if _, err := os.Stat(path); err == nil && !force {
		return path, fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	data, err := yaml.Marshal(initDefaults)
	if err != nil {
		return path, fmt.Errorf("marshal defaults: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return path, fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
