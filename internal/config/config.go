package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/homestead-rentals/service-booking/internal/common/database"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// JWTConfig holds token validation settings.
type JWTConfig struct {
	Secret    string
	AccessTTL time.Duration
	Issuer    string
}

// KafkaConfig holds broker settings.
type KafkaConfig struct {
	Brokers     []string
	GroupPrefix string
	Enabled     bool
}

// RedisConfig holds the booked-dates cache settings. An empty Addr disables the cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// ServiceConfig holds all configuration for the booking service.
type ServiceConfig struct {
	Port        string
	AppEnv      string
	DBConfig    database.PostgresConfig
	JWTConfig   JWTConfig
	KafkaConfig KafkaConfig
	RedisConfig RedisConfig
}

// Load reads configuration from an optional .env file and BOOKING_-prefixed environment variables.
func Load() (*ServiceConfig, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("BOOKING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &ServiceConfig{
		Port:   normalizePort(v.GetString("service_port")),
		AppEnv: v.GetString("app_env"),
		DBConfig: database.PostgresConfig{
			Host:            v.GetString("db_host"),
			Port:            v.GetString("db_port"),
			User:            v.GetString("db_user"),
			Password:        v.GetString("db_password"),
			DBName:          v.GetString("db_name"),
			SSLMode:         v.GetString("db_sslmode"),
			MaxOpenConns:    v.GetInt("db_max_open_conns"),
			MaxIdleConns:    v.GetInt("db_max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("db_conn_max_lifetime"),
		},
		JWTConfig: JWTConfig{
			Secret:    v.GetString("jwt_secret"),
			AccessTTL: v.GetDuration("jwt_access_ttl"),
			Issuer:    v.GetString("jwt_issuer"),
		},
		KafkaConfig: KafkaConfig{
			Brokers:     splitList(v.GetString("kafka_brokers")),
			GroupPrefix: v.GetString("kafka_group_prefix"),
			Enabled:     v.GetBool("kafka_enabled"),
		},
		RedisConfig: RedisConfig{
			Addr:     v.GetString("redis_addr"),
			Password: v.GetString("redis_password"),
			DB:       v.GetInt("redis_db"),
			TTL:      v.GetDuration("redis_ttl"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service_port", "8082")
	v.SetDefault("app_env", "development")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "postgres")
	v.SetDefault("db_password", "postgres")
	v.SetDefault("db_name", "booking_db")
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("db_max_open_conns", 25)
	v.SetDefault("db_max_idle_conns", 5)
	v.SetDefault("db_conn_max_lifetime", 30*time.Minute)
	v.SetDefault("jwt_access_ttl", 15*time.Minute)
	v.SetDefault("jwt_issuer", "identity-service")
	v.SetDefault("kafka_brokers", "localhost:9092")
	v.SetDefault("kafka_group_prefix", "")
	v.SetDefault("kafka_enabled", true)
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_ttl", 5*time.Minute)
}

func (c *ServiceConfig) validate() error {
	if c.JWTConfig.Secret == "" {
		return fmt.Errorf("BOOKING_JWT_SECRET is required")
	}
	if c.KafkaConfig.Enabled && len(c.KafkaConfig.Brokers) == 0 {
		return fmt.Errorf("BOOKING_KAFKA_BROKERS is required when kafka is enabled")
	}
	return nil
}

// IsDevelopment reports whether the service runs with development conveniences (auto-migrate).
func (c *ServiceConfig) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func normalizePort(port string) string {
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
