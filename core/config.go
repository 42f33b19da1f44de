package core

import (
	"fmt"
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"
)

type (
	ServerConfig struct {
		Host                      string
		Port                      int
		DebugHost                 string
		ReadTimeout               time.Duration
		WriteTimeout              time.Duration
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		DisableReqLogs            bool
		UploadLimit               string
	}

	AuthConfig struct {
		Required                  bool
		PasswordResetTimeoutDelta time.Duration
	}

	CORSConfig struct {
		Origins     []string
		Credentials bool
	}

	RateLimitConfig struct {
		Enabled        bool
		APIRequests    int
		APIWindow      time.Duration
		StrictRequests int
		StrictWindow   time.Duration
		RedisURL       string
	}

	DatabaseConfig struct {
		Engine string // sqlite | postgres
		Path   string // sqlite file
		URL    string // postgres DSN
	}

	AIConfig struct {
		APIKey  string
		Models  []string
		Timeout time.Duration
	}

	JobsConfig struct {
		Enabled     bool
		OverdueSpec string
	}

	ProgressReportConfig struct {
		SchoolYearStartMonth time.Month
		SchoolYearStartDay   int
	}

	Config struct {
		AppName          string
		Env              string
		Debug            bool
		TestMode         bool
		Build            string
		SecretKey        string
		WorkDir          string
		FrontendBaseURL  string
		DefaultFromEmail mail.Address
		SendgridApiKey   string
		RollbarToken     string
		LogLevel         string

		Server          ServerConfig
		Auth            AuthConfig
		CORS            CORSConfig
		RateLimit       RateLimitConfig
		Database        DatabaseConfig
		AI              AIConfig
		Jobs            JobsConfig
		ProgressReports ProgressReportConfig
	}
)

// Address returns the address the API server listens on.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *Config) IsProduction() bool { return c.Env == EnvProduction }

// NewConfig reads the configuration from config/.env.<env> (if it exists) and the environment.
func NewConfig() *Config {
	v := viper.New()

	env := strings.ToLower(firstEnv("NODE_ENV", "ENV"))
	switch env {
	case "", "dev":
		env = EnvDevelopment
	case "prod":
		env = EnvProduction
	}

	workDir := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+env)
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	setDefaults(v, env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("server.port", "PORT")
	_ = v.BindEnv("cors.origin", "CORS_ORIGIN")
	_ = v.BindEnv("cors.credentials", "CORS_CREDENTIALS")
	_ = v.BindEnv("ai.apiKey", "GEMINI_API_KEY", "AI_API_KEY")
	_ = v.BindEnv("ai.models", "GEMINI_MODELS")
	_ = v.BindEnv("rateLimit.redisURL", "REDIS_URL")
	_ = v.BindEnv("database.url", "DATABASE_URL")
	_ = v.BindEnv("database.path", "DATABASE_PATH")
	_ = v.BindEnv("database.engine", "DATABASE_ENGINE")
	_ = v.BindEnv("auth.required", "AUTH_REQUIRED")
	_ = v.BindEnv("secretKey", "SECRET_KEY", "JWT_SECRET")
	_ = v.BindEnv("sendgridApiKey", "SENDGRID_API_KEY")
	_ = v.BindEnv("rollbarToken", "ROLLBAR_TOKEN")
	_ = v.BindEnv("defaultFromEmail", "DEFAULT_FROM_EMAIL")
	_ = v.BindEnv("logLevel", "LOG_LEVEL")

	conf := &Config{
		AppName:         v.GetString("appName"),
		Env:             env,
		Debug:           env == EnvDevelopment,
		TestMode:        env == EnvTest,
		Build:           v.GetString("build"),
		SecretKey:       v.GetString("secretKey"),
		WorkDir:         workDir,
		FrontendBaseURL: v.GetString("frontendBaseURL"),
		SendgridApiKey:  v.GetString("sendgridApiKey"),
		RollbarToken:    v.GetString("rollbarToken"),
		LogLevel:        v.GetString("logLevel"),
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Port:                      v.GetInt("server.port"),
			DebugHost:                 v.GetString("server.debugHost"),
			ReadTimeout:               v.GetDuration("server.readTimeout"),
			WriteTimeout:              v.GetDuration("server.writeTimeout"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
			DisableReqLogs:            v.GetBool("server.disableReqLogs"),
			UploadLimit:               v.GetString("server.uploadLimit"),
		},
		Auth: AuthConfig{
			Required:                  v.GetBool("auth.required"),
			PasswordResetTimeoutDelta: v.GetDuration("auth.passwordResetTimeoutDelta"),
		},
		CORS: CORSConfig{
			Origins:     splitList(v.GetString("cors.origin")),
			Credentials: v.GetBool("cors.credentials"),
		},
		RateLimit: RateLimitConfig{
			Enabled:        v.GetBool("rateLimit.enabled"),
			APIRequests:    v.GetInt("rateLimit.apiRequests"),
			APIWindow:      v.GetDuration("rateLimit.apiWindow"),
			StrictRequests: v.GetInt("rateLimit.strictRequests"),
			StrictWindow:   v.GetDuration("rateLimit.strictWindow"),
			RedisURL:       v.GetString("rateLimit.redisURL"),
		},
		Database: DatabaseConfig{
			Engine: v.GetString("database.engine"),
			Path:   v.GetString("database.path"),
			URL:    v.GetString("database.url"),
		},
		AI: AIConfig{
			APIKey:  v.GetString("ai.apiKey"),
			Models:  splitList(v.GetString("ai.models")),
			Timeout: v.GetDuration("ai.timeout"),
		},
		Jobs: JobsConfig{
			Enabled:     v.GetBool("jobs.enabled"),
			OverdueSpec: v.GetString("jobs.overdueSpec"),
		},
		ProgressReports: ProgressReportConfig{
			SchoolYearStartMonth: time.Month(v.GetInt("progressReports.schoolYearStartMonth")),
			SchoolYearStartDay:   v.GetInt("progressReports.schoolYearStartDay"),
		},
	}

	from, err := mail.ParseAddress(v.GetString("defaultFromEmail"))
	if err != nil {
		log.Fatalf("config.defaultFromEmail: %v", err)
	}
	conf.DefaultFromEmail = *from

	if conf.IsProduction() && conf.SecretKey == defaultSecretKey {
		log.Fatal("config.secretKey: SECRET_KEY must be set in production")
	}
	return conf
}

const defaultSecretKey = "4kq!o_cas3load-dev-only-)enb$+57=dz&uoxh2(h!x)#*c2"

func setDefaults(v *viper.Viper, env string) {
	v.SetTypeByDefaultValue(true)

	v.SetDefault("appName", "Caseload")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", defaultSecretKey)
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "Caseload <noreply@localhost>")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("logLevel", "info")

	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.debugHost", "localhost:5001")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 2*time.Minute)
	v.SetDefault("server.shutdownTimeout", 10*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 8*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.disableReqLogs", env == EnvTest)
	v.SetDefault("server.uploadLimit", "11M") // 10MB documents plus multipart overhead

	v.SetDefault("auth.required", false)
	v.SetDefault("auth.passwordResetTimeoutDelta", 3*24*time.Hour)

	v.SetDefault("cors.origin", "http://localhost:3000")
	v.SetDefault("cors.credentials", false)

	v.SetDefault("rateLimit.enabled", env != EnvTest)
	v.SetDefault("rateLimit.apiRequests", 100)
	v.SetDefault("rateLimit.apiWindow", 15*time.Minute)
	v.SetDefault("rateLimit.strictRequests", 10)
	v.SetDefault("rateLimit.strictWindow", 15*time.Minute)
	v.SetDefault("rateLimit.redisURL", "")

	v.SetDefault("database.engine", "sqlite")
	v.SetDefault("database.path", "caseload.db")
	v.SetDefault("database.url", "")

	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.models", "gemini-1.5-flash,gemini-1.5-pro,gemini-pro")
	v.SetDefault("ai.timeout", 60*time.Second)

	v.SetDefault("jobs.enabled", env != EnvTest)
	v.SetDefault("jobs.overdueSpec", "0 6 * * *")

	v.SetDefault("progressReports.schoolYearStartMonth", int(time.August))
	v.SetDefault("progressReports.schoolYearStartDay", 15)
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if val := os.Getenv(k); val != "" {
			return val
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
