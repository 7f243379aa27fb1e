package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Settings holds the runtime configuration read from the environment.
type Settings struct {
	ServerPort  string
	GinMode     string
	Environment string
	DebugSQL    bool
	LogPath     string

	DBHost     string
	DBPort     string
	DBDatabase string
	DBUsername string
	DBPassword string

	JWTSecret      string
	JWTExpireHours int

	UploadPath     string
	UploadMaxBytes int64

	CORSAllowedOrigins []string

	SMTPHost          string
	SMTPPort          int
	SMTPUser          string
	SMTPPass          string
	SMTPFrom          string
	SMTPSkipTLSVerify bool

	RabbitMQURL string
	NotifyQueue string
	AppBaseURL  string

	SeedAdminEmail    string
	SeedAdminPassword string
}

// Conf is the process-wide configuration. LoadSettings replaces it.
var Conf = defaultSettings()

func newViper() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("DEBUG_SQL", false)
	v.SetDefault("LOG_PATH", defaultLogPath)
	v.SetDefault("DB_HOST", "127.0.0.1")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("DB_DATABASE", "eteeap")
	v.SetDefault("DB_USERNAME", "root")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("JWT_SECRET", "change-me")
	v.SetDefault("JWT_EXPIRE_HOURS", 24)
	v.SetDefault("UPLOAD_PATH", "./uploads")
	v.SetDefault("UPLOAD_MAX_BYTES", int64(10*1024*1024))
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASS", "")
	v.SetDefault("SMTP_FROM", "")
	v.SetDefault("SMTP_SKIP_TLS_VERIFY", false)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("NOTIFY_QUEUE", "portfolio_notifications")
	v.SetDefault("APP_BASE_URL", "http://localhost:3000")
	v.SetDefault("SEED_ADMIN_EMAIL", "superadmin@eteeap.local")
	v.SetDefault("SEED_ADMIN_PASSWORD", "")
	v.AutomaticEnv()
	return v
}

func defaultSettings() Settings {
	return fromViper(newViper())
}

// LoadSettings re-reads the environment into Conf. Call it after godotenv.Load.
func LoadSettings() Settings {
	Conf = fromViper(newViper())
	return Conf
}

func fromViper(v *viper.Viper) Settings {
	origins := make([]string, 0)
	for _, o := range strings.Split(v.GetString("CORS_ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return Settings{
		ServerPort:         v.GetString("SERVER_PORT"),
		GinMode:            strings.ToLower(v.GetString("GIN_MODE")),
		Environment:        strings.ToLower(v.GetString("ENVIRONMENT")),
		DebugSQL:           v.GetBool("DEBUG_SQL"),
		LogPath:            strings.TrimSpace(v.GetString("LOG_PATH")),
		DBHost:             v.GetString("DB_HOST"),
		DBPort:             v.GetString("DB_PORT"),
		DBDatabase:         v.GetString("DB_DATABASE"),
		DBUsername:         v.GetString("DB_USERNAME"),
		DBPassword:         v.GetString("DB_PASSWORD"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		JWTExpireHours:     v.GetInt("JWT_EXPIRE_HOURS"),
		UploadPath:         v.GetString("UPLOAD_PATH"),
		UploadMaxBytes:     v.GetInt64("UPLOAD_MAX_BYTES"),
		CORSAllowedOrigins: origins,
		SMTPHost:           v.GetString("SMTP_HOST"),
		SMTPPort:           v.GetInt("SMTP_PORT"),
		SMTPUser:           v.GetString("SMTP_USER"),
		SMTPPass:           v.GetString("SMTP_PASS"),
		SMTPFrom:           v.GetString("SMTP_FROM"),
		SMTPSkipTLSVerify:  v.GetBool("SMTP_SKIP_TLS_VERIFY"),
		RabbitMQURL:        v.GetString("RABBITMQ_URL"),
		NotifyQueue:        v.GetString("NOTIFY_QUEUE"),
		AppBaseURL:         strings.TrimRight(v.GetString("APP_BASE_URL"), "/"),
		SeedAdminEmail:     v.GetString("SEED_ADMIN_EMAIL"),
		SeedAdminPassword:  v.GetString("SEED_ADMIN_PASSWORD"),
	}
}

// IsProduction reports whether ENVIRONMENT=production.
func (s Settings) IsProduction() bool {
	return s.Environment == "production"
}
