package config

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/Alturino/storefront/internal/log"
)

type Application struct {
	Env       string `mapstructure:"env"        json:"env"`
	Host      string `mapstructure:"host"       json:"host"`
	SecretKey string `mapstructure:"secret_key" json:"-"`
	LogFile   string `mapstructure:"log_file"   json:"log_file"`
	Port      int    `mapstructure:"port"       json:"port"`
}

type Database struct {
	Name           string `mapstructure:"name"            json:"name"`
	Host           string `mapstructure:"host"            json:"host"`
	MigrationPath  string `mapstructure:"migration_path"  json:"migration_path"`
	Password       string `mapstructure:"password"        json:"-"`
	TimeZone       string `mapstructure:"timezone"        json:"timezone"`
	Username       string `mapstructure:"username"        json:"username"`
	MaxConnections int    `mapstructure:"max_connections" json:"max_connections"`
	MinConnections int    `mapstructure:"min_connections" json:"min_connections"`
	Port           uint16 `mapstructure:"port"            json:"port"`
}

type Cache struct {
	Host     string `mapstructure:"host"     json:"host"`
	Password string `mapstructure:"password" json:"-"`
	Database int    `mapstructure:"database" json:"database"`
	Port     uint16 `mapstructure:"port"     json:"port"`
}

type Otel struct {
	Host string `mapstructure:"host" json:"host"`
	Port int    `mapstructure:"port" json:"port"`
}

type Firebase struct {
	ProjectID       string `mapstructure:"project_id"       json:"project_id"`
	CredentialsFile string `mapstructure:"credentials_file" json:"credentials_file"`
}

type Cart struct {
	// Store selects the persistent cart store backend: "redis" or "postgres".
	Store              string        `mapstructure:"store"                json:"store"`
	StoreTTL           time.Duration `mapstructure:"store_ttl"            json:"store_ttl"`
	PersistDebounce    time.Duration `mapstructure:"persist_debounce"     json:"persist_debounce"`
	SessionIdleTimeout time.Duration `mapstructure:"session_idle_timeout" json:"session_idle_timeout"`
	SessionTokenTTL    time.Duration `mapstructure:"session_token_ttl"    json:"session_token_ttl"`
	ResolverBatchLimit int           `mapstructure:"resolver_batch_limit" json:"resolver_batch_limit"`
	ProductCacheTTL    time.Duration `mapstructure:"product_cache_ttl"    json:"product_cache_ttl"`
	ShareBaseURL       string        `mapstructure:"share_base_url"       json:"share_base_url"`
	// ProductServiceURL makes the cart resolve products through the product service
	// instead of reading Firestore directly.
	ProductServiceURL string `mapstructure:"product_service_url" json:"product_service_url"`
	DefaultLocale     string `mapstructure:"default_locale"       json:"default_locale"`
}

type Config struct {
	Database    `mapstructure:"db"          json:"db"`
	Cache       `mapstructure:"cache"       json:"cache"`
	Application `mapstructure:"application" json:"application"`
	Otel        `mapstructure:"otel"        json:"otel"`
	Firebase    `mapstructure:"firebase"    json:"firebase"`
	Cart        `mapstructure:"cart"        json:"cart"`
}

func (o Otel) Endpoint() string {
	return fmt.Sprintf("%s:%d", o.Host, o.Port)
}

var (
	once   sync.Once
	config *Config
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("application.env", "production")
	v.SetDefault("application.host", "0.0.0.0")
	v.SetDefault("application.port", 8080)
	v.SetDefault("otel.host", "otel-collector")
	v.SetDefault("otel.port", 4317)
	v.SetDefault("db.migration_path", "file://migrations")
	v.SetDefault("db.max_connections", 10)
	v.SetDefault("db.min_connections", 2)
	v.SetDefault("cart.store", "redis")
	v.SetDefault("cart.store_ttl", 30*24*time.Hour)
	v.SetDefault("cart.persist_debounce", 250*time.Millisecond)
	v.SetDefault("cart.session_idle_timeout", 15*time.Minute)
	v.SetDefault("cart.session_token_ttl", 90*24*time.Hour)
	v.SetDefault("cart.resolver_batch_limit", 30)
	v.SetDefault("cart.product_cache_ttl", 5*time.Minute)
	v.SetDefault("cart.share_base_url", "http://localhost:8080")
	v.SetDefault("cart.default_locale", "bg")
}

// InitConfig reads ./env/<filename>.yaml once; environment variables such as CART_STORE override it.
func InitConfig(c context.Context, filename string) *Config {
	once.Do(func() {
		logger := zerolog.Ctx(c).
			With().
			Str(log.KeyTag, "main InitConfig").
			Str(log.KeyProcess, "init config").
			Str("filename", filename).
			Logger()

		v := viper.New()
		v.SetConfigName(filename)
		v.AddConfigPath("./env")
		v.SetConfigType("yaml")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
		setDefaults(v)

		logger = logger.With().Str(log.KeyProcess, "reading config").Logger()
		logger.Info().Msg("reading config")
		err := v.ReadInConfig()
		if err != nil {
			err = fmt.Errorf("error when reading config with error=%w", err)
			logger.Fatal().Err(err).Msg(err.Error())
		}
		logger.Info().Msg("read config")

		logger = logger.With().Str(log.KeyProcess, "unmarshaling config").Logger()
		logger.Info().Msg("unmarshaling config")
		cfg := Config{}
		err = v.Unmarshal(&cfg)
		if err != nil {
			err = fmt.Errorf("error unmarshaling config with error=%w", err)
			logger.Fatal().Err(err).Msg(err.Error())
		}
		config = &cfg
		logger.Info().Any(log.KeyConfig, cfg).Msg("unmarshaled config")
	})
	return config
}
