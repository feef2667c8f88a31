package config

const (
	// DefaultProjectPath is the default project path
	DefaultProjectPath = "."
	// DefaultTestPath is the default test path
	DefaultTestPath = "."
	// ConfigFileName is the configuration file looked up in the project root
	ConfigFileName = "ctp.yaml"
	// EnvFileName is the dotenv file looked up in the project root
	EnvFileName = ".env"
	// EnvPrefix prefixes configuration keys taken from the environment
	EnvPrefix = "CTP_"

	// DefaultTestFileSuffix selects which headers are scanned for tests
	DefaultTestFileSuffix = "tests.h"
	// DefaultGoldenOutputDir holds expected stdout files named after each test
	DefaultGoldenOutputDir = "stdout"
	// DefaultDiffTempFileName receives captured stdout of golden-compared tests
	DefaultDiffTempFileName = "tmp"
	// DefaultBuildCommand builds the driver
	DefaultBuildCommand = "make"
	// DefaultCleanTargetName is passed to the build command by the clean step
	DefaultCleanTargetName = "clean"
	// DefaultMemoryCheckTool is the memory checker binary
	DefaultMemoryCheckTool = "valgrind"
	// DefaultOutputJSONFile is the default report file name
	DefaultOutputJSONFile = "last-run.json"
	// DefaultOutputJSONDir is the default report directory
	DefaultOutputJSONDir = ".ctp"
)

// DefaultPathsToIgnore are the default directories to ignore when scanning for tests
var DefaultPathsToIgnore = []string{
	"build",
	"node_modules",
	"vendor",
	"third_party",
	DefaultGoldenOutputDir,
	DefaultOutputJSONDir,
}

// initDefaults are the values written by `ctp init`.
var initDefaults = fileLayout{
	TimeoutSeconds:            5,
	MemoryCheckEnabled:        false,
	MemoryCheckFlags:          "--leak-check=full",
	MemoryCheckTimeoutSeconds: 20,
	DriverFileName:            "unit_test_driver.cpp",
	ExecutableFileName:        "a.out",
	BuildTargetName:           "unit_test",
	CleanupExecutableAfterRun: true,
	CleanupDriverAfterRun:     false,
	RunCleanCommandOnExit:     false,
	TestFileSuffix:            DefaultTestFileSuffix,
	GoldenOutputDir:           DefaultGoldenOutputDir,
	BuildCommand:              DefaultBuildCommand,
}
