package config

const (
	EnvPrefix = "CLASSPILOT"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	PayFastModeProduction = "production"
	PayFastModeSandbox    = "sandbox"

	EnvAppEnv = "CLASSPILOT_APP_ENV"
	EnvPort   = "CLASSPILOT_APP_PORT"

	EnvDBDSN  = "CLASSPILOT_DB_DSN"
	EnvDBHost = "CLASSPILOT_DB_HOST"
	EnvDBUser = "CLASSPILOT_DB_USER"
	EnvDBName = "CLASSPILOT_DB_NAME"

	EnvRedisURL = "CLASSPILOT_REDIS_URL"

	EnvPayFastMerchantID = "CLASSPILOT_PAYFAST_MERCHANT_ID"
	EnvPayFastPassphrase = "CLASSPILOT_PAYFAST_PASSPHRASE"
	EnvPayFastMode       = "CLASSPILOT_PAYFAST_MODE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
