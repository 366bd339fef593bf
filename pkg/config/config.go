package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Auth         AuthConfig
	Geocoding    GeocodingConfig
	GCP          GCPConfig
	GCS          GCSConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDB reads only the app and database sections, for tools that never
// touch the cloud dependencies.
func LoadDB() (AppConfig, DBConfig, error) {
	var app AppConfig
	var db DBConfig
	if err := envconfig.Process(EnvPrefix, &app); err != nil {
		return app, db, fmt.Errorf("parsing app config: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, &db); err != nil {
		return app, db, fmt.Errorf("parsing db config: %w", err)
	}
	if err := db.ensureDSN(); err != nil {
		return app, db, err
	}
	return app, db, nil
}

type AppConfig struct {
	Env             string        `envconfig:"RENTALS_APP_ENV" required:"true"`
	Port            string        `envconfig:"RENTALS_APP_PORT" default:"8080"`
	LogLevel        string        `envconfig:"RENTALS_LOG_LEVEL" default:"info"`
	LogWarnStack    bool          `envconfig:"RENTALS_LOG_WARN_STACK" default:"false"`
	ShutdownTimeout time.Duration `envconfig:"RENTALS_SHUTDOWN_TIMEOUT" default:"15s"`
	AllowedOrigins  []string      `envconfig:"RENTALS_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"RENTALS_DB_DSN"`

	Host     string `envconfig:"RENTALS_DB_HOST"`
	Port     int    `envconfig:"RENTALS_DB_PORT" default:"5432"`
	User     string `envconfig:"RENTALS_DB_USER"`
	Password string `envconfig:"RENTALS_DB_PASSWORD"`
	Name     string `envconfig:"RENTALS_DB_NAME"`
	SSLMode  string `envconfig:"RENTALS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"RENTALS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"RENTALS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"RENTALS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RENTALS_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQuery  time.Duration `envconfig:"RENTALS_DB_SLOW_QUERY" default:"500ms"`
	TxAttempts int           `envconfig:"RENTALS_DB_TX_ATTEMPTS" default:"3"`
}

// RedisConfig is optional. An empty URL disables the search cache.
type RedisConfig struct {
	URL            string        `envconfig:"RENTALS_REDIS_URL"`
	PoolSize       int           `envconfig:"RENTALS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns   int           `envconfig:"RENTALS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout    time.Duration `envconfig:"RENTALS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout    time.Duration `envconfig:"RENTALS_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout   time.Duration `envconfig:"RENTALS_REDIS_WRITE_TIMEOUT" default:"3s"`
	SearchCacheTTL time.Duration `envconfig:"RENTALS_SEARCH_CACHE_TTL" default:"60s"`
	ReplayTTL      time.Duration `envconfig:"RENTALS_IDEMPOTENCY_TTL" default:"24h"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != ""
}

// AuthConfig controls bearer token handling. Tokens are issued by the external
// identity provider; without a secret they are decoded but not verified.
type AuthConfig struct {
	JWTSecret string `envconfig:"RENTALS_JWT_SECRET"`
	Issuer    string `envconfig:"RENTALS_JWT_ISSUER"`
	RoleClaim string `envconfig:"RENTALS_JWT_ROLE_CLAIM" default:"custom:role"`
}

func (a AuthConfig) VerifySignatures() bool {
	return a.JWTSecret != ""
}

type GeocodingConfig struct {
	BaseURL       string        `envconfig:"RENTALS_GEOCODER_BASE_URL" default:"https://nominatim.openstreetmap.org"`
	UserAgent     string        `envconfig:"RENTALS_GEOCODER_USER_AGENT" default:"rentals-backend/1.0"`
	Email         string        `envconfig:"RENTALS_GEOCODER_EMAIL"`
	Timeout       time.Duration `envconfig:"RENTALS_GEOCODER_TIMEOUT" default:"5s"`
	CacheTTL      time.Duration `envconfig:"RENTALS_GEOCODER_CACHE_TTL" default:"24h"`
	CacheCapacity uint64        `envconfig:"RENTALS_GEOCODER_CACHE_CAPACITY" default:"1000"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"RENTALS_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON string `envconfig:"RENTALS_GCP_CREDENTIALS_JSON"`
}

type GCSConfig struct {
	BucketName    string        `envconfig:"RENTALS_GCS_BUCKET_NAME" required:"true"`
	PublicBaseURL string        `envconfig:"RENTALS_GCS_PUBLIC_BASE_URL" default:"https://storage.googleapis.com"`
	UploadTimeout time.Duration `envconfig:"RENTALS_GCS_UPLOAD_TIMEOUT" default:"30s"`
	MaxPhotoMB    int           `envconfig:"RENTALS_MAX_PHOTO_MB" default:"10"`
	MaxPhotos     int           `envconfig:"RENTALS_MAX_PHOTOS" default:"20"`
}

type PubSubConfig struct {
	DomainTopic string `envconfig:"RENTALS_PUBSUB_DOMAIN_TOPIC" default:"rentals-domain-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"RENTALS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"RENTALS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"RENTALS_OUTBOX_MAX_ATTEMPTS" default:"10"`

	RetentionDays     int           `envconfig:"RENTALS_OUTBOX_RETENTION_DAYS" default:"30"`
	RetentionInterval time.Duration `envconfig:"RENTALS_OUTBOX_RETENTION_INTERVAL" default:"24h"`

	// MetricsAddr exposes /metrics from the publisher process. Empty disables it.
	MetricsAddr string `envconfig:"RENTALS_OUTBOX_METRICS_ADDR" default:""`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"RENTALS_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, key := range discreteDBEnvVars {
		if values[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
