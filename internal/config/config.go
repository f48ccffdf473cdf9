package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/riskibarqy/fotmob-etl/internal/platform/logging"
	"github.com/riskibarqy/fotmob-etl/internal/platform/resilience"
)

// DefaultSeasons is the season list fetched when ETL_SEASONS is unset, newest first.
var DefaultSeasons = []string{
	"2023/2024",
	"2022/2023",
	"2021/2022",
	"2020/2021",
	"2019/2020",
	"2018/2019",
	"2017/2018",
	"2016/2017",
	"2015/2016",
	"2014/2015",
	"2013/2014",
}

// Config stores runtime configuration for the job.
type Config struct {
	AppEnv                  string `validate:"oneof=dev stage prod"`
	ServiceName             string `validate:"required"`
	ServiceVersion          string
	LogLevel                logging.Level
	Seasons                 []string `validate:"min=1,dive,season"`
	DBURL                   string
	DBDisablePreparedBinary bool
	FotMobBaseURL           string        `validate:"required,url"`
	FotMobLeagueID          int64         `validate:"gt=0"`
	FotMobTimeout           time.Duration `validate:"gt=0"`
	RetryCount              int           `validate:"gte=0"`
	RetryDelay              time.Duration `validate:"gte=0"`
	UptraceEnabled          bool
	UptraceDSN              string `validate:"required_if=UptraceEnabled true"`
	PyroscopeEnabled        bool
	PyroscopeServerAddress  string `validate:"required_if=PyroscopeEnabled true"`
	PyroscopeAppName        string `validate:"required_if=PyroscopeEnabled true"`
	PyroscopeAuthToken      string
	PyroscopeBasicAuthUser  string
	PyroscopeBasicAuthPass  string
	PyroscopeUploadRate     time.Duration `validate:"gt=0"`
}

// Pipeline is the configuration the ETL stages receive.
type Pipeline struct {
	Seasons            []string
	DBConnectionTarget string
}

func (c Config) Pipeline() Pipeline {
	return Pipeline{
		Seasons:            append([]string(nil), c.Seasons...),
		DBConnectionTarget: c.DBURL,
	}
}

// RetryPolicy is the orchestration retry built from ETL_RETRIES and ETL_RETRY_DELAY.
func (c Config) RetryPolicy() resilience.RetryPolicy {
	return resilience.RetryPolicyFromRetries(c.RetryCount, c.RetryDelay)
}

// RequireDB fails when no database target is configured.
func (c Config) RequireDB() error {
	if strings.TrimSpace(c.DBURL) == "" {
		return fmt.Errorf("DB_URL is required")
	}
	return nil
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}

	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}

	leagueID, err := strconv.ParseInt(strings.TrimSpace(getEnv("FOTMOB_LEAGUE_ID", "55")), 10, 64)
	if err != nil {
		return Config{}, fmt.Errorf("parse FOTMOB_LEAGUE_ID: %w", err)
	}
	fotmobTimeout, err := time.ParseDuration(getEnv("FOTMOB_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse FOTMOB_TIMEOUT: %w", err)
	}

	defaultRetry := resilience.DefaultRetryPolicy()
	retryCount, err := getEnvAsInt("ETL_RETRIES", defaultRetry.Retries())
	if err != nil {
		return Config{}, fmt.Errorf("parse ETL_RETRIES: %w", err)
	}
	retryDelay, err := time.ParseDuration(getEnv("ETL_RETRY_DELAY", defaultRetry.Delay.String()))
	if err != nil {
		return Config{}, fmt.Errorf("parse ETL_RETRY_DELAY: %w", err)
	}

	seasons := DefaultSeasons
	if raw := getEnv("ETL_SEASONS", ""); raw != "" {
		seasons = splitCSV(raw)
	}

	cfg := Config{
		AppEnv:                  appEnv,
		ServiceName:             strings.TrimSpace(getEnv("SERVICE_NAME", "fotmob-etl")),
		ServiceVersion:          getEnv("SERVICE_VERSION", "dev"),
		LogLevel:                parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
		Seasons:                 append([]string(nil), seasons...),
		DBURL:                   strings.TrimSpace(getEnv("DB_URL", "")),
		DBDisablePreparedBinary: dbDisablePreparedBinary,
		FotMobBaseURL:           strings.TrimSpace(getEnv("FOTMOB_BASE_URL", "https://www.fotmob.com")),
		FotMobLeagueID:          leagueID,
		FotMobTimeout:           fotmobTimeout,
		RetryCount:              retryCount,
		RetryDelay:              retryDelay,
		UptraceEnabled:          uptraceEnabled,
		UptraceDSN:              uptraceDSN,
		PyroscopeEnabled:        pyroscopeEnabled,
		PyroscopeServerAddress:  strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", "")),
		PyroscopeAuthToken:      strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:  strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPass:  strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:     pyroscopeUploadRate,
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var seasonPattern = regexp.MustCompile(`^\d{4}/\d{4}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("season", func(fl validator.FieldLevel) bool {
		return seasonPattern.MatchString(fl.Field().String())
	})
	return v
}

// Validate reports the first invalid field by its environment name.
func Validate(cfg Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validate config: %w", err)
	}
	first := fieldErrs[0]
	return fmt.Errorf("invalid %s: failed %q check (value=%v)", envName(first.StructField()), first.Tag(), first.Value())
}

var envNames = map[string]string{
	"AppEnv":                 "APP_ENV",
	"ServiceName":            "SERVICE_NAME",
	"Seasons":                "ETL_SEASONS",
	"FotMobBaseURL":          "FOTMOB_BASE_URL",
	"FotMobLeagueID":         "FOTMOB_LEAGUE_ID",
	"FotMobTimeout":          "FOTMOB_TIMEOUT",
	"RetryCount":             "ETL_RETRIES",
	"RetryDelay":             "ETL_RETRY_DELAY",
	"UptraceDSN":             "UPTRACE_DSN",
	"PyroscopeServerAddress": "PYROSCOPE_SERVER_ADDRESS",
	"PyroscopeAppName":       "PYROSCOPE_APP_NAME",
	"PyroscopeUploadRate":    "PYROSCOPE_UPLOAD_RATE",
}

func envName(field string) string {
	// dive errors report "Seasons[3]".
	if idx := strings.IndexByte(field, '['); idx > 0 {
		field = field[:idx]
	}
	if name, ok := envNames[field]; ok {
		return name
	}
	return field
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	for _, item := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			return strings.Trim(strings.TrimSpace(parts[1]), "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
