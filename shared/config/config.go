package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Problem struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Config struct {
	Env              string
	ServiceName      string
	HTTPPort         int
	LogLevel         string
	ConfigPath       string
	RequestTimeoutMS int
	RequestTimeout   time.Duration

	DatabaseURL      string
	DBMaxConns       int
	DBMinConns       int
	DBConnMaxIdleSec int
	DBConnMaxLifeSec int

	KafkaBrokers  []string
	KafkaClientID string
	KafkaGroupID  string
	KafkaRetryMax int
	KafkaWriteMS  int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AsynqRedisAddr   string
	AsynqRedisPass   string
	AsynqRedisDB     int
	AsynqQueue       string
	AsynqConcurrency int

	OutboxScanSec     int
	OutboxBatchSize   int
	OutboxMaxAttempts int

	ResyncIntervalSec    int
	SnapshotCacheTTLSec  int
	HargaPertalite       int
	HargaPertamax        int
	CORSAllowedOrigins   []string

	InfluxURL       string
	InfluxToken     string
	InfluxOrg       string
	InfluxBucket    string
	InfluxTimeoutMS int

	OtelEnabled     bool
	OtelEndpoint    string
	OtelInsecure    bool
	OtelSampleRatio float64
}

// Load builds the config from defaults, an optional JSON config file
// (CONFIG_PATH), and environment variables, in that order of precedence.
// Validation issues are collected as Problems rather than aborting.
func Load(serviceNameDefault string, httpPortDefault int) (Config, []Problem) {
	envRaw := strings.TrimSpace(os.Getenv("ENV"))
	cfg := Config{
		Env:                 envRaw,
		ServiceName:         serviceNameDefault,
		HTTPPort:            httpPortDefault,
		LogLevel:            "info",
		ConfigPath:          strings.TrimSpace(os.Getenv("CONFIG_PATH")),
		RequestTimeoutMS:    30000,
		DatabaseURL:         strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:          10,
		DBMinConns:          1,
		DBConnMaxIdleSec:    300,
		DBConnMaxLifeSec:    1800,
		KafkaRetryMax:       5,
		KafkaWriteMS:        5000,
		AsynqQueue:          "default",
		AsynqConcurrency:    10,
		OutboxScanSec:       5,
		OutboxBatchSize:     50,
		OutboxMaxAttempts:   20,
		ResyncIntervalSec:   30,
		SnapshotCacheTTLSec: 300,
		HargaPertalite:      10000,
		HargaPertamax:       13500,
		InfluxTimeoutMS:     5000,
		OtelInsecure:        true,
		OtelSampleRatio:     1.0,
	}

	problems := make([]Problem, 0, 4)
	envProvided := envRaw != ""

	if raw, fileProblems, ok := loadConfigFile(cfg.ConfigPath); ok {
		problems = append(problems, fileProblems...)
		if v, ok := readString(raw, "ENV"); ok && strings.TrimSpace(v) != "" {
			envProvided = true
		}
		applyMap(&cfg, raw, &problems)
	} else {
		problems = append(problems, fileProblems...)
	}

	applyEnv(&cfg, &problems)

	if cfg.Env == "" {
		cfg.Env = "dev"
	}
	if !envProvided {
		problems = append(problems, Problem{Field: "ENV", Message: "ENV is required"})
	}
	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		problems = append(problems, Problem{Field: "HTTP_PORT", Message: "HTTP_PORT must be 1-65535"})
		cfg.HTTPPort = httpPortDefault
	}
	if cfg.RequestTimeoutMS <= 0 {
		problems = append(problems, Problem{Field: "REQUEST_TIMEOUT_MS", Message: "REQUEST_TIMEOUT_MS must be > 0"})
		cfg.RequestTimeoutMS = 30000
	}
	cfg.RequestTimeout = time.Duration(cfg.RequestTimeoutMS) * time.Millisecond
	if cfg.DBMaxConns <= 0 {
		problems = append(problems, Problem{Field: "DB_MAX_CONNS", Message: "DB_MAX_CONNS must be > 0"})
		cfg.DBMaxConns = 10
	}
	if cfg.DBMinConns < 0 {
		problems = append(problems, Problem{Field: "DB_MIN_CONNS", Message: "DB_MIN_CONNS must be >= 0"})
		cfg.DBMinConns = 1
	}
	if cfg.DBMinConns > cfg.DBMaxConns {
		problems = append(problems, Problem{Field: "DB_MIN_CONNS", Message: "DB_MIN_CONNS must be <= DB_MAX_CONNS"})
		cfg.DBMinConns = cfg.DBMaxConns
	}
	if cfg.DBConnMaxIdleSec <= 0 {
		problems = append(problems, Problem{Field: "DB_CONN_MAX_IDLE_SECONDS", Message: "DB_CONN_MAX_IDLE_SECONDS must be > 0"})
		cfg.DBConnMaxIdleSec = 300
	}
	if cfg.DBConnMaxLifeSec <= 0 {
		problems = append(problems, Problem{Field: "DB_CONN_MAX_LIFETIME_SECONDS", Message: "DB_CONN_MAX_LIFETIME_SECONDS must be > 0"})
		cfg.DBConnMaxLifeSec = 1800
	}
	if cfg.KafkaRetryMax < 0 {
		problems = append(problems, Problem{Field: "KAFKA_RETRY_MAX", Message: "KAFKA_RETRY_MAX must be >= 0"})
		cfg.KafkaRetryMax = 5
	}
	if cfg.KafkaWriteMS <= 0 {
		problems = append(problems, Problem{Field: "KAFKA_WRITE_TIMEOUT_MS", Message: "KAFKA_WRITE_TIMEOUT_MS must be > 0"})
		cfg.KafkaWriteMS = 5000
	}
	if cfg.RedisDB < 0 {
		problems = append(problems, Problem{Field: "REDIS_DB", Message: "REDIS_DB must be >= 0"})
		cfg.RedisDB = 0
	}
	if cfg.AsynqRedisDB < 0 {
		problems = append(problems, Problem{Field: "ASYNQ_REDIS_DB", Message: "ASYNQ_REDIS_DB must be >= 0"})
		cfg.AsynqRedisDB = 0
	}
	if cfg.AsynqConcurrency <= 0 {
		problems = append(problems, Problem{Field: "ASYNQ_CONCURRENCY", Message: "ASYNQ_CONCURRENCY must be > 0"})
		cfg.AsynqConcurrency = 10
	}
	if cfg.OutboxScanSec <= 0 {
		problems = append(problems, Problem{Field: "OUTBOX_SCAN_INTERVAL_SECONDS", Message: "OUTBOX_SCAN_INTERVAL_SECONDS must be > 0"})
		cfg.OutboxScanSec = 5
	}
	if cfg.OutboxBatchSize <= 0 {
		problems = append(problems, Problem{Field: "OUTBOX_BATCH_SIZE", Message: "OUTBOX_BATCH_SIZE must be > 0"})
		cfg.OutboxBatchSize = 50
	}
	if cfg.OutboxMaxAttempts <= 0 {
		problems = append(problems, Problem{Field: "OUTBOX_MAX_ATTEMPTS", Message: "OUTBOX_MAX_ATTEMPTS must be > 0"})
		cfg.OutboxMaxAttempts = 20
	}
	if cfg.ResyncIntervalSec <= 0 {
		problems = append(problems, Problem{Field: "RESYNC_INTERVAL_SECONDS", Message: "RESYNC_INTERVAL_SECONDS must be > 0"})
		cfg.ResyncIntervalSec = 30
	}
	if cfg.SnapshotCacheTTLSec <= 0 {
		problems = append(problems, Problem{Field: "SNAPSHOT_CACHE_TTL_SECONDS", Message: "SNAPSHOT_CACHE_TTL_SECONDS must be > 0"})
		cfg.SnapshotCacheTTLSec = 300
	}
	if cfg.HargaPertalite <= 0 {
		problems = append(problems, Problem{Field: "HARGA_PERTALITE", Message: "HARGA_PERTALITE must be > 0"})
		cfg.HargaPertalite = 10000
	}
	if cfg.HargaPertamax <= 0 {
		problems = append(problems, Problem{Field: "HARGA_PERTAMAX", Message: "HARGA_PERTAMAX must be > 0"})
		cfg.HargaPertamax = 13500
	}
	if cfg.InfluxTimeoutMS <= 0 {
		problems = append(problems, Problem{Field: "INFLUX_TIMEOUT_MS", Message: "INFLUX_TIMEOUT_MS must be > 0"})
		cfg.InfluxTimeoutMS = 5000
	}
	if cfg.OtelSampleRatio < 0 || cfg.OtelSampleRatio > 1 {
		problems = append(problems, Problem{Field: "OTEL_SAMPLE_RATIO", Message: "OTEL_SAMPLE_RATIO must be 0-1"})
		cfg.OtelSampleRatio = 1.0
	}

	return cfg, problems
}

func loadConfigFile(path string) (map[string]any, []Problem, bool) {
	if strings.TrimSpace(path) == "" {
		return nil, nil, false
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, []Problem{{Field: "CONFIG_PATH", Message: "config file not found"}}, false
		}
		return nil, []Problem{{Field: "CONFIG_PATH", Message: fmt.Sprintf("failed to read config file: %v", err)}}, false
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, []Problem{{Field: "CONFIG_PATH", Message: fmt.Sprintf("invalid json: %v", err)}}, false
	}
	return raw, nil, true
}

type setter struct {
	key   string
	set   func(cfg *Config, v any) bool
	usage string
}

// setters drives both the config-file map and the env var application so the
// two sources cannot drift apart.
var setters = []setter{
	{"ENV", func(c *Config, v any) bool { return setString(&c.Env, v) }, ""},
	{"SERVICE_NAME", func(c *Config, v any) bool { return setNonEmptyString(&c.ServiceName, v) }, ""},
	{"HTTP_PORT", func(c *Config, v any) bool { return setInt(&c.HTTPPort, v) }, "HTTP_PORT must be an integer"},
	{"LOG_LEVEL", func(c *Config, v any) bool { return setNonEmptyString(&c.LogLevel, v) }, ""},
	{"REQUEST_TIMEOUT_MS", func(c *Config, v any) bool { return setInt(&c.RequestTimeoutMS, v) }, "REQUEST_TIMEOUT_MS must be an integer"},
	{"DATABASE_URL", func(c *Config, v any) bool { return setString(&c.DatabaseURL, v) }, ""},
	{"DB_MAX_CONNS", func(c *Config, v any) bool { return setInt(&c.DBMaxConns, v) }, "DB_MAX_CONNS must be an integer"},
	{"DB_MIN_CONNS", func(c *Config, v any) bool { return setInt(&c.DBMinConns, v) }, "DB_MIN_CONNS must be an integer"},
	{"DB_CONN_MAX_IDLE_SECONDS", func(c *Config, v any) bool { return setInt(&c.DBConnMaxIdleSec, v) }, "DB_CONN_MAX_IDLE_SECONDS must be an integer"},
	{"DB_CONN_MAX_LIFETIME_SECONDS", func(c *Config, v any) bool { return setInt(&c.DBConnMaxLifeSec, v) }, "DB_CONN_MAX_LIFETIME_SECONDS must be an integer"},
	{"KAFKA_BROKERS", func(c *Config, v any) bool { return setCSV(&c.KafkaBrokers, v) }, ""},
	{"KAFKA_CLIENT_ID", func(c *Config, v any) bool { return setString(&c.KafkaClientID, v) }, ""},
	{"KAFKA_CONSUMER_GROUP", func(c *Config, v any) bool { return setString(&c.KafkaGroupID, v) }, ""},
	{"KAFKA_RETRY_MAX", func(c *Config, v any) bool { return setInt(&c.KafkaRetryMax, v) }, "KAFKA_RETRY_MAX must be an integer"},
	{"KAFKA_WRITE_TIMEOUT_MS", func(c *Config, v any) bool { return setInt(&c.KafkaWriteMS, v) }, "KAFKA_WRITE_TIMEOUT_MS must be an integer"},
	{"REDIS_ADDR", func(c *Config, v any) bool { return setString(&c.RedisAddr, v) }, ""},
	{"REDIS_PASSWORD", func(c *Config, v any) bool { return setRawString(&c.RedisPassword, v) }, ""},
	{"REDIS_DB", func(c *Config, v any) bool { return setInt(&c.RedisDB, v) }, "REDIS_DB must be an integer"},
	{"ASYNQ_REDIS_ADDR", func(c *Config, v any) bool { return setString(&c.AsynqRedisAddr, v) }, ""},
	{"ASYNQ_REDIS_PASSWORD", func(c *Config, v any) bool { return setRawString(&c.AsynqRedisPass, v) }, ""},
	{"ASYNQ_REDIS_DB", func(c *Config, v any) bool { return setInt(&c.AsynqRedisDB, v) }, "ASYNQ_REDIS_DB must be an integer"},
	{"ASYNQ_QUEUE", func(c *Config, v any) bool { return setNonEmptyString(&c.AsynqQueue, v) }, ""},
	{"ASYNQ_CONCURRENCY", func(c *Config, v any) bool { return setInt(&c.AsynqConcurrency, v) }, "ASYNQ_CONCURRENCY must be an integer"},
	{"OUTBOX_SCAN_INTERVAL_SECONDS", func(c *Config, v any) bool { return setInt(&c.OutboxScanSec, v) }, "OUTBOX_SCAN_INTERVAL_SECONDS must be an integer"},
	{"OUTBOX_BATCH_SIZE", func(c *Config, v any) bool { return setInt(&c.OutboxBatchSize, v) }, "OUTBOX_BATCH_SIZE must be an integer"},
	{"OUTBOX_MAX_ATTEMPTS", func(c *Config, v any) bool { return setInt(&c.OutboxMaxAttempts, v) }, "OUTBOX_MAX_ATTEMPTS must be an integer"},
	{"RESYNC_INTERVAL_SECONDS", func(c *Config, v any) bool { return setInt(&c.ResyncIntervalSec, v) }, "RESYNC_INTERVAL_SECONDS must be an integer"},
	{"SNAPSHOT_CACHE_TTL_SECONDS", func(c *Config, v any) bool { return setInt(&c.SnapshotCacheTTLSec, v) }, "SNAPSHOT_CACHE_TTL_SECONDS must be an integer"},
	{"HARGA_PERTALITE", func(c *Config, v any) bool { return setInt(&c.HargaPertalite, v) }, "HARGA_PERTALITE must be an integer"},
	{"HARGA_PERTAMAX", func(c *Config, v any) bool { return setInt(&c.HargaPertamax, v) }, "HARGA_PERTAMAX must be an integer"},
	{"CORS_ALLOWED_ORIGINS", func(c *Config, v any) bool { return setCSV(&c.CORSAllowedOrigins, v) }, ""},
	{"INFLUX_URL", func(c *Config, v any) bool { return setString(&c.InfluxURL, v) }, ""},
	{"INFLUX_TOKEN", func(c *Config, v any) bool { return setRawString(&c.InfluxToken, v) }, ""},
	{"INFLUX_ORG", func(c *Config, v any) bool { return setString(&c.InfluxOrg, v) }, ""},
	{"INFLUX_BUCKET", func(c *Config, v any) bool { return setString(&c.InfluxBucket, v) }, ""},
	{"INFLUX_TIMEOUT_MS", func(c *Config, v any) bool { return setInt(&c.InfluxTimeoutMS, v) }, "INFLUX_TIMEOUT_MS must be an integer"},
	{"OTEL_ENABLED", func(c *Config, v any) bool { return setBool(&c.OtelEnabled, v) }, "OTEL_ENABLED must be a boolean"},
	{"OTEL_EXPORTER_OTLP_ENDPOINT", func(c *Config, v any) bool { return setString(&c.OtelEndpoint, v) }, ""},
	{"OTEL_EXPORTER_OTLP_INSECURE", func(c *Config, v any) bool { return setBool(&c.OtelInsecure, v) }, "OTEL_EXPORTER_OTLP_INSECURE must be a boolean"},
	{"OTEL_SAMPLE_RATIO", func(c *Config, v any) bool { return setFloat(&c.OtelSampleRatio, v) }, "OTEL_SAMPLE_RATIO must be a number"},
}

func applyMap(cfg *Config, raw map[string]any, problems *[]Problem) {
	for k, v := range raw {
		key := strings.ToUpper(strings.TrimSpace(k))
		for _, s := range setters {
			if s.key != key {
				continue
			}
			if !s.set(cfg, v) && s.usage != "" {
				*problems = append(*problems, Problem{Field: s.key, Message: s.usage})
			}
			break
		}
	}
}

func applyEnv(cfg *Config, problems *[]Problem) {
	for _, s := range setters {
		v := strings.TrimSpace(os.Getenv(s.key))
		if v == "" {
			continue
		}
		if !s.set(cfg, v) && s.usage != "" {
			*problems = append(*problems, Problem{Field: s.key, Message: s.usage})
		}
	}
	// PORT is accepted as a fallback alias for HTTP_PORT.
	if strings.TrimSpace(os.Getenv("HTTP_PORT")) == "" {
		if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
			if p, err := strconv.Atoi(v); err == nil {
				cfg.HTTPPort = p
			} else {
				*problems = append(*problems, Problem{Field: "HTTP_PORT", Message: "HTTP_PORT must be an integer"})
			}
		}
	}
}

func readString(raw map[string]any, key string) (string, bool) {
	for k, v := range raw {
		if strings.EqualFold(strings.TrimSpace(k), key) {
			s, ok := v.(string)
			return s, ok
		}
	}
	return "", false
}

func setString(dst *string, v any) bool {
	s, ok := asString(v)
	if !ok {
		return false
	}
	*dst = strings.TrimSpace(s)
	return true
}

func setRawString(dst *string, v any) bool {
	s, ok := asString(v)
	if !ok {
		return false
	}
	*dst = s
	return true
}

func setNonEmptyString(dst *string, v any) bool {
	s, ok := asString(v)
	if !ok {
		return false
	}
	if strings.TrimSpace(s) == "" {
		return true
	}
	*dst = strings.TrimSpace(s)
	return true
}

func setInt(dst *int, v any) bool {
	n, ok := asInt(v)
	if !ok {
		return false
	}
	*dst = n
	return true
}

func setFloat(dst *float64, v any) bool {
	f, ok := asFloat(v)
	if !ok {
		return false
	}
	*dst = f
	return true
}

func setBool(dst *bool, v any) bool {
	switch t := v.(type) {
	case bool:
		*dst = t
		return true
	case string:
		b, ok := asBool(t)
		if !ok {
			return false
		}
		*dst = b
		return true
	default:
		return false
	}
}

func setCSV(dst *[]string, v any) bool {
	switch t := v.(type) {
	case string:
		*dst = parseCSV(t)
		return true
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				s = strings.TrimSpace(s)
				if s != "" {
					out = append(out, s)
				}
			}
		}
		*dst = out
		return true
	default:
		return false
	}
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	case json.Number:
		i, err := t.Int64()
		return int(i), err == nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(t))
		return i, err == nil
	default:
		return 0, false
	}
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func asBool(v string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "y":
		return true, true
	case "false", "0", "no", "n":
		return false, true
	default:
		return false, false
	}
}

func parseCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
