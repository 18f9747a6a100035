package config

const (
	EnvPrefix = "SAFETRADE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv       = "SAFETRADE_APP_ENV"
	EnvPort         = "SAFETRADE_APP_PORT"
	EnvRedisURL     = "SAFETRADE_REDIS_URL"
	EnvGCPProjectID = "SAFETRADE_GCP_PROJECT_ID"

	EnvDBDSN  = "SAFETRADE_DB_DSN"
	EnvDBHost = "SAFETRADE_DB_HOST"
	EnvDBUser = "SAFETRADE_DB_USER"
	EnvDBName = "SAFETRADE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
