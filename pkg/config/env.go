package config

const (
	EnvPrefix = "RENTALS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv          = "RENTALS_APP_ENV"
	EnvDBDSN           = "RENTALS_DB_DSN"
	EnvDBHost          = "RENTALS_DB_HOST"
	EnvDBUser          = "RENTALS_DB_USER"
	EnvDBPassword      = "RENTALS_DB_PASSWORD"
	EnvDBName          = "RENTALS_DB_NAME"
	EnvRedisURL        = "RENTALS_REDIS_URL"
	EnvSearchCacheTTL  = "RENTALS_SEARCH_CACHE_TTL"
	EnvJWTSecret       = "RENTALS_JWT_SECRET"
	EnvGeocoderTimeout = "RENTALS_GEOCODER_TIMEOUT"
	EnvGCPProjectID    = "RENTALS_GCP_PROJECT_ID"
	EnvGCSBucket       = "RENTALS_GCS_BUCKET_NAME"
	EnvAllowedOrigins  = "RENTALS_CORS_ALLOWED_ORIGINS"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
