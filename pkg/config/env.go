package config

// EnvPrefix is intentionally empty: every variable names its full AT_* key in
// its envconfig tag.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "AT_DB_DSN"
	EnvDBHost = "AT_DB_HOST"
	EnvDBUser = "AT_DB_USER"
	EnvDBName = "AT_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
