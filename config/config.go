package config

import (
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type PostgresConfig struct {
	Host       string `mapstructure:"host"`
	Port       string `mapstructure:"port"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	DBName     string `mapstructure:"dbName"`
	SSLMode    string `mapstructure:"sslMode"`
	SchemaPath string `mapstructure:"schemaPath"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type OrdersConfig struct {
	// StrictTransitions switches the order state machine from the
	// permissive any-to-any graph to the forward-only one.
	StrictTransitions bool `mapstructure:"strictTransitions"`
}

type TrackerConfig struct {
	SweepInterval time.Duration `mapstructure:"sweepInterval"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Orders   OrdersConfig   `mapstructure:"orders"`
	Tracker  TrackerConfig  `mapstructure:"tracker"`
}

// LoadConfig reads configuration from config.yaml in the given path and
// overrides individual keys with environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()

	viper.BindEnv("server.port", "PORT")
	viper.BindEnv("postgres.host", "DB_HOST")
	viper.BindEnv("postgres.port", "DB_PORT")
	viper.BindEnv("postgres.user", "DB_USER")
	viper.BindEnv("postgres.password", "DB_PASSWORD")
	viper.BindEnv("postgres.dbName", "DB_NAME")
	viper.BindEnv("postgres.sslMode", "DB_SSLMODE")
	viper.BindEnv("postgres.schemaPath", "DB_SCHEMA_PATH")
	viper.BindEnv("redis.addr", "REDIS_ADDR")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")
	viper.BindEnv("jwt.secret", "JWT_SECRET")
	viper.BindEnv("orders.strictTransitions", "ORDERS_STRICT_TRANSITIONS")
	viper.BindEnv("tracker.sweepInterval", "TRACKER_SWEEP_INTERVAL")

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("postgres.host", "localhost")
	viper.SetDefault("postgres.port", "5432")
	viper.SetDefault("postgres.user", "warehouse_user")
	viper.SetDefault("postgres.password", "warehouse_password")
	viper.SetDefault("postgres.dbName", "warehouse_db")
	viper.SetDefault("postgres.sslMode", "disable")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("orders.strictTransitions", false)
	viper.SetDefault("tracker.sweepInterval", 5*time.Minute)

	if err = viper.ReadInConfig(); err != nil {
		// A missing config file is fine; env vars and defaults cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		err = nil
	}

	err = viper.Unmarshal(&config)
	return
}
