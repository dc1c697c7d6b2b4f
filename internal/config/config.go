package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

type Config struct {
	Env       string
	Server    ServerConfig
	Database  DatabaseConfig
	Bot       BotConfig
	Dispatch  DispatchConfig
	Scheduler SchedulerConfig
	Export    ExportConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

type BotConfig struct {
	Token string
	// WebhookURL empty means long polling.
	WebhookURL                 string
	WebhookPath                string
	WebhookSecret              string
	WebhookRateLimitPerMinute  int
	WebhookRateLimitBurst      int
	TelegramRateLimitPerSecond int
	Debug                      bool
	Location                   *time.Location
	SessionIdleTimeout         time.Duration
}

type DispatchConfig struct {
	Workers   int
	QueueSize int
}

type SchedulerConfig struct {
	ReminderChatIDs []int64
	ReminderSpec    string
	BudgetResetSpec string
	SessionSweep    time.Duration
}

type ExportConfig struct {
	PublicURL string
	Secret    string
	Issuer    string
	TokenTTL  time.Duration
}

// Load загружает конфигурацию приложения из окружения и .env.
func Load() (Config, error) {
	cfg := Config{}

	if err := loadEnv(); err != nil {
		return cfg, err
	}

	cfg.Env = getEnv("APP_ENV", "local")

	serverPort, err := parseIntEnv("SERVER_PORT", 8080)
	if err != nil {
		return cfg, err
	}

	readTimeout, err := parseDurationEnv("SERVER_READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return cfg, err
	}

	writeTimeout, err := parseDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return cfg, err
	}

	idleTimeout, err := parseDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return cfg, err
	}

	cfg.Server = ServerConfig{
		Host:         getEnv("SERVER_HOST", "0.0.0.0"),
		Port:         serverPort,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	cfg.Database, err = loadDatabase()
	if err != nil {
		return cfg, err
	}

	webhookRateLimit, err := parseIntEnv("WEBHOOK_RATE_LIMIT_PER_MINUTE", 600)
	if err != nil {
		return cfg, err
	}

	webhookRateBurst, err := parseIntEnv("WEBHOOK_RATE_LIMIT_BURST", 60)
	if err != nil {
		return cfg, err
	}

	telegramRateLimit, err := parseIntEnv("TELEGRAM_RATE_LIMIT_PER_SECOND", 25)
	if err != nil {
		return cfg, err
	}

	sessionIdleTimeout, err := parseDurationEnv("SESSION_IDLE_TIMEOUT", 15*time.Minute)
	if err != nil {
		return cfg, err
	}

	timezone := getEnv("BOT_TIMEZONE", "Asia/Kolkata")
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return cfg, fmt.Errorf("BOT_TIMEZONE must be an IANA zone: %w", err)
	}

	debug, err := parseBoolEnv("BOT_DEBUG", false)
	if err != nil {
		return cfg, err
	}

	cfg.Bot = BotConfig{
		Token:                      getEnv("BOT_TOKEN", ""),
		WebhookURL:                 strings.TrimRight(getEnv("WEBHOOK_URL", ""), "/"),
		WebhookPath:                getEnv("WEBHOOK_PATH", "/webhook"),
		WebhookSecret:              getEnv("WEBHOOK_SECRET", ""),
		WebhookRateLimitPerMinute:  webhookRateLimit,
		WebhookRateLimitBurst:      webhookRateBurst,
		TelegramRateLimitPerSecond: telegramRateLimit,
		Debug:                      debug,
		Location:                   location,
		SessionIdleTimeout:         sessionIdleTimeout,
	}

	workers, err := parseIntEnv("DISPATCH_WORKERS", 4)
	if err != nil {
		return cfg, err
	}

	queueSize, err := parseIntEnv("DISPATCH_QUEUE_SIZE", 256)
	if err != nil {
		return cfg, err
	}

	cfg.Dispatch = DispatchConfig{
		Workers:   workers,
		QueueSize: queueSize,
	}

	reminderChatIDs, err := parseInt64ListEnv("REMINDER_CHAT_ID")
	if err != nil {
		return cfg, err
	}

	sessionSweep, err := parseDurationEnv("SESSION_SWEEP_INTERVAL", time.Minute)
	if err != nil {
		return cfg, err
	}

	cfg.Scheduler = SchedulerConfig{
		ReminderChatIDs: reminderChatIDs,
		ReminderSpec:    getEnv("REMINDER_CRON", "0 22 * * *"),
		BudgetResetSpec: getEnv("BUDGET_RESET_CRON", "0 0 * * *"),
		SessionSweep:    sessionSweep,
	}

	exportTTL, err := parseDurationEnv("EXPORT_TOKEN_TTL", 15*time.Minute)
	if err != nil {
		return cfg, err
	}

	cfg.Export = ExportConfig{
		PublicURL: strings.TrimRight(getEnv("PUBLIC_URL", ""), "/"),
		Secret:    getEnv("EXPORT_SECRET", ""),
		Issuer:    getEnv("EXPORT_ISSUER", "finance-tracker-bot"),
		TokenTTL:  exportTTL,
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// LoadDatabase загружает только настройки базы данных для утилиты миграций.
func LoadDatabase() (DatabaseConfig, error) {
	if err := loadEnv(); err != nil {
		return DatabaseConfig{}, err
	}

	db, err := loadDatabase()
	if err != nil {
		return DatabaseConfig{}, err
	}

	if db.Host == "" || db.User == "" || db.Name == "" {
		return DatabaseConfig{}, fmt.Errorf("DB_HOST, DB_USER and DB_NAME are required")
	}

	return db, nil
}

func loadDatabase() (DatabaseConfig, error) {
	dbPort, err := parseIntEnv("DB_PORT", 5432)
	if err != nil {
		return DatabaseConfig{}, err
	}

	maxOpenConns, err := parseIntEnv("DB_MAX_OPEN_CONNS", 10)
	if err != nil {
		return DatabaseConfig{}, err
	}

	maxIdleConns, err := parseIntEnv("DB_MAX_IDLE_CONNS", 2)
	if err != nil {
		return DatabaseConfig{}, err
	}

	connMaxIdleTime, err := parseDurationEnv("DB_CONN_MAX_IDLE_TIME", 5*time.Minute)
	if err != nil {
		return DatabaseConfig{}, err
	}

	connMaxLifetime, err := parseDurationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute)
	if err != nil {
		return DatabaseConfig{}, err
	}

	return DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            dbPort,
		User:            getEnv("DB_USER", "finance"),
		Password:        getEnv("DB_PASSWORD", "finance"),
		Name:            getEnv("DB_NAME", "finance_tracker"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    maxOpenConns,
		MaxIdleConns:    maxIdleConns,
		ConnMaxIdleTime: connMaxIdleTime,
		ConnMaxLifetime: connMaxLifetime,
	}, nil
}

// DSN возвращает строку подключения к базе данных.
func (c DatabaseConfig) DSN() string {
	user := url.UserPassword(c.User, c.Password)
	dsn := url.URL{
		Scheme: "postgres",
		User:   user,
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   c.Name,
	}

	query := url.Values{}
	query.Set("sslmode", c.SSLMode)
	return dsn.String() + "?" + query.Encode()
}

// UsesWebhook сообщает, получает ли бот обновления через вебхук.
func (c BotConfig) UsesWebhook() bool {
	return c.WebhookURL != ""
}

func (c Config) validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("SERVER_PORT must be greater than 0")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}

	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}

	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}

	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("DB_MAX_IDLE_CONNS cannot exceed DB_MAX_OPEN_CONNS")
	}

	if c.Bot.Token == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}

	if !strings.HasPrefix(c.Bot.WebhookPath, "/") {
		return fmt.Errorf("WEBHOOK_PATH must start with /")
	}

	if c.Bot.UsesWebhook() && !strings.HasPrefix(c.Bot.WebhookURL, "https://") {
		return fmt.Errorf("WEBHOOK_URL must be an https url")
	}

	if c.Export.Secret == "" {
		return fmt.Errorf("EXPORT_SECRET is required")
	}

	if c.Dispatch.QueueSize < c.Dispatch.Workers {
		return fmt.Errorf("DISPATCH_QUEUE_SIZE cannot be less than DISPATCH_WORKERS")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return fallback
}

func parseIntEnv(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}

	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}

	return parsed, nil
}

func parseBoolEnv(key string, fallback bool) (bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}

	return parsed, nil
}

func parseDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}

	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}

	return parsed, nil
}

func parseCSVEnv(key string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.ToLower(strings.TrimSpace(part))
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

func parseInt64ListEnv(key string) ([]int64, error) {
	values := parseCSVEnv(key)
	if len(values) == 0 {
		return nil, nil
	}

	out := make([]int64, 0, len(values))
	for _, value := range values {
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be a list of chat ids: %w", key, err)
		}
		out = append(out, parsed)
	}

	return out, nil
}

func loadEnv() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}

	return nil
}
