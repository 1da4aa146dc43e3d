package cmd

import (
	"errors"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/pavzaj/visualmutator/internal/domain"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "vmut"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	outputFlagName      = "output"
	verboseFlagName     = "verbose"
	logFileFlagName     = "log-file"
	runParallelFlagName = "parallel"
	operatorsFlagName   = "operators"
	testsFlagName       = "tests"
	testCommandFlagName = "test-command"
	testTimeoutFlagName = "test-timeout"
	diffFlagName        = "diff"
	metricsFlagName     = "metrics-textfile"
	destFlagName        = "dest"
	patchFlagName       = "patch"

	runParallelConfigKey   = "run.parallel"
	operatorsConfigKey     = "mutate.operators"
	testsConfigKey         = "mutate.tests"
	diffConfigKey          = "mutate.diff"
	harnessCommandKey      = "harness.command"
	harnessTimeoutKey      = "harness.timeout"
	debugReadExtensionKey  = "debug.read_extension"
	debugWriteExtensionKey = "debug.write_extension"
	metricsTextfileKey     = "metrics.textfile"

	defaultHarnessTimeout   = time.Minute * 2
	defaultMutantsDir       = ".vmut-mutants"
	defaultRunParallel      = 1
	defaultMutateDiff       = false
	defaultHarnessCommand   = ""
	defaultMetricsTextfile  = ""
	defaultTestTreeLocation = ""

	envPrefix = "VMUT"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".vmut.log"
	defaultLogLevel      = int(slog.LevelInfo)
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var globalLogger *slog.Logger

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(outputFlagName, defaultMutantsDir)
	viper.SetDefault(runParallelConfigKey, defaultRunParallel)
	viper.SetDefault(operatorsConfigKey, []string{})
	viper.SetDefault(testsConfigKey, defaultTestTreeLocation)
	viper.SetDefault(diffConfigKey, defaultMutateDiff)
	viper.SetDefault(harnessCommandKey, defaultHarnessCommand)
	viper.SetDefault(harnessTimeoutKey, int64(defaultHarnessTimeout.Seconds()))
	viper.SetDefault(debugReadExtensionKey, domain.DefaultDebugReadExtension)
	viper.SetDefault(debugWriteExtensionKey, domain.DefaultDebugWriteExtension)
	viper.SetDefault(metricsTextfileKey, defaultMetricsTextfile)

	// Logging defaults (used by config/env and as fallbacks for flags).
	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return
		}

		return
	}
}

// harnessTimeout returns the per-run harness timeout.
func harnessTimeout() time.Duration {
	return secondsToDuration(viper.GetInt64(harnessTimeoutKey))
}

// secondsToDuration converts a timeout setting; zero or negative disables it.
func secondsToDuration(seconds int64) time.Duration {
	if seconds <= 0 {
		return 0
	}

	return time.Duration(seconds) * time.Second
}

// harnessCommand splits the configured harness command line into argv.
func harnessCommand() []string {
	return strings.Fields(viper.GetString(harnessCommandKey))
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Numeric slog levels are accepted too (-4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger configures the global slog logger.
//
// By default it logs at Info; if verbose is true it logs at Debug.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	var logLevel slog.Level
	if verbose {
		logLevel = slog.LevelDebug
	} else {
		logLevel = parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}
