package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode      Mode
	HTTPAddr  string
	PublicURL string
	LogLevel  string

	DBDriver string
	DBDSN    string

	BlobBasePath string // archetype sources live here
	CatalogFile  string // optional YAML question catalog

	SessionSecret   string
	OwnerSecretHash string // bcrypt
	SecureCookies   bool

	StripeSecretKey  string
	StripeAPIURL     string
	ReportPriceCents int64
	ReportCurrency   string

	// Empty means the report page verifies in-process.
	GateBackendURL string
	GateTimeout    time.Duration

	ReportCacheSize int

	CORSOriginsOnline  []string
	CORSOriginsOffline []string
}

var defaults = map[string]any{
	"MODE":                 string(ModeOffline),
	"HTTP_ADDR":            ":8080",
	"PUBLIC_URL":           "http://localhost:8080",
	"LOG_LEVEL":            "info",
	"DB_DRIVER":            "sqlite",
	"DB_DSN":               "",
	"BLOB_BASE_PATH":       "./data",
	"CATALOG_FILE":         "",
	"SESSION_SECRET":       "supersecret-dev-key",
	"OWNER_SECRET_HASH":    "",
	"STRIPE_SECRET_KEY":    "",
	"STRIPE_API_URL":       "https://api.stripe.com",
	"REPORT_PRICE_CENTS":   99,
	"REPORT_CURRENCY":      "usd",
	"GATE_BACKEND_URL":     "",
	"GATE_TIMEOUT":         "5s",
	"REPORT_CACHE_SIZE":    256,
	"CORS_ORIGINS_ONLINE":  "https://bigfive.mindengage.ai",
	"CORS_ORIGINS_OFFLINE": "http://localhost:3000,http://localhost:8080",
}

// FromEnv reads configuration from the environment. If CONFIG_FILE is set,
// that file supplies values for keys the environment leaves unset; a file
// that cannot be read or parsed is an error.
func FromEnv() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	if f := v.GetString("CONFIG_FILE"); f != "" {
		v.SetConfigFile(f)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", f, err)
		}
	}
	return fromViper(v), nil
}

func fromViper(v *viper.Viper) Config {
	mode := Mode(strings.ToLower(v.GetString("MODE")))
	if mode != ModeOnline {
		mode = ModeOffline
	}
	pub := strings.TrimSuffix(v.GetString("PUBLIC_URL"), "/")
	timeout := v.GetDuration("GATE_TIMEOUT")
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return Config{
		Mode:      mode,
		HTTPAddr:  v.GetString("HTTP_ADDR"),
		PublicURL: pub,
		LogLevel:  v.GetString("LOG_LEVEL"),

		DBDriver: v.GetString("DB_DRIVER"),
		DBDSN:    v.GetString("DB_DSN"),

		BlobBasePath: v.GetString("BLOB_BASE_PATH"),
		CatalogFile:  v.GetString("CATALOG_FILE"),

		SessionSecret:   v.GetString("SESSION_SECRET"),
		OwnerSecretHash: v.GetString("OWNER_SECRET_HASH"),
		SecureCookies:   envBool(v, "SECURE_COOKIES", strings.HasPrefix(pub, "https://") || mode == ModeOnline),

		StripeSecretKey:  v.GetString("STRIPE_SECRET_KEY"),
		StripeAPIURL:     strings.TrimSuffix(v.GetString("STRIPE_API_URL"), "/"),
		ReportPriceCents: v.GetInt64("REPORT_PRICE_CENTS"),
		ReportCurrency:   v.GetString("REPORT_CURRENCY"),

		GateBackendURL: strings.TrimSuffix(v.GetString("GATE_BACKEND_URL"), "/"),
		GateTimeout:    timeout,

		ReportCacheSize: v.GetInt("REPORT_CACHE_SIZE"),

		CORSOriginsOnline:  csv(v.GetString("CORS_ORIGINS_ONLINE")),
		CORSOriginsOffline: csv(v.GetString("CORS_ORIGINS_OFFLINE")),
	}
}

func envBool(v *viper.Viper, k string, def bool) bool {
	switch v.GetString(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func csv(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
