package config

import (
	"Bookstore/models"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const DefaultConfigPath = "config/config.yaml"

type ServerConfig struct {
	Port            string `yaml:"port"`
	Mode            string `yaml:"mode"`
	UploadDir       string `yaml:"uploadDir"`
	ShutdownTimeout string `yaml:"shutdownTimeout"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Database string `yaml:"database"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	Database int    `yaml:"database"`
}

type JWTConfig struct {
	// Secret is base64 encoded and used as the HMAC-SHA256 key.
	Secret     string `yaml:"secret"`
	Expiration string `yaml:"expiration"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

type StripeConfig struct {
	APIKey         string `yaml:"apiKey"`
	PublishableKey string `yaml:"publishableKey"`
	Currency       string `yaml:"currency"`
}

type AdminConfig struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type AuditConfig struct {
	MongoURI   string `yaml:"mongoURI"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	JWT      JWTConfig      `yaml:"jwt"`
	CORS     CORSConfig     `yaml:"cors"`
	Stripe   StripeConfig   `yaml:"stripe"`
	Admin    AdminConfig    `yaml:"admin"`
	Log      LogConfig      `yaml:"log"`
	Audit    AuditConfig    `yaml:"audit"`
}

func LoadConfig(filename string) (Config, error) {
	var config Config
	file, err := os.Open(filename)
	if err != nil {
		return config, err
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&config); err != nil {
		return config, err
	}

	config.applyEnv()
	config.applyDefaults()
	return config, config.Validate()
}

// Load reads the config file named by BOOKSTORE_CONFIG (or the default path) after loading .env.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("load .env: %v", err)
	}
	path := os.Getenv("BOOKSTORE_CONFIG")
	if path == "" {
		path = DefaultConfigPath
	}
	return LoadConfig(path)
}

func (c *Config) applyEnv() {
	overrides := []struct {
		key    string
		target *string
	}{
		{"JWT_SECRET", &c.JWT.Secret},
		{"STRIPE_API_KEY", &c.Stripe.APIKey},
		{"STRIPE_PUBLISHABLE_KEY", &c.Stripe.PublishableKey},
		{"DB_HOST", &c.Database.Host},
		{"DB_PASSWORD", &c.Database.Password},
		{"REDIS_ADDR", &c.Redis.Addr},
		{"MONGO_URI", &c.Audit.MongoURI},
		{"PORT", &c.Server.Port},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.key); v != "" {
			*o.target = v
		}
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.CORS.AllowedOrigins = splitList(v)
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	if c.Server.UploadDir == "" {
		c.Server.UploadDir = "./uploads"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.JWT.Expiration == "" {
		c.JWT.Expiration = "1h"
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if c.Stripe.Currency == "" {
		c.Stripe.Currency = "inr"
	}
	if c.Admin.Email == "" {
		c.Admin.Name = "admin"
		c.Admin.Email = "admin@test.com"
		c.Admin.Password = "admin"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Audit.Database == "" {
		c.Audit.Database = "bookstore"
	}
	if c.Audit.Collection == "" {
		c.Audit.Collection = "payment_audit"
	}
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	key, err := c.JWT.Key()
	if err != nil {
		return err
	}
	if len(key) < 32 {
		return fmt.Errorf("jwt secret must decode to at least 32 bytes, got %d", len(key))
	}
	if _, err := c.JWT.TTL(); err != nil {
		return err
	}
	if _, err := c.Server.ShutdownGrace(); err != nil {
		return err
	}
	switch c.Database.Driver {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	return nil
}

// Key decodes the base64 signing secret.
func (j JWTConfig) Key() ([]byte, error) {
	if strings.TrimSpace(j.Secret) == "" {
		return nil, errors.New("jwt secret is required")
	}
	key, err := base64.StdEncoding.DecodeString(j.Secret)
	if err != nil {
		return nil, fmt.Errorf("decode jwt secret: %w", err)
	}
	return key, nil
}

func (j JWTConfig) TTL() (time.Duration, error) {
	d, err := time.ParseDuration(j.Expiration)
	if err != nil {
		return 0, fmt.Errorf("parse jwt expiration: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("jwt expiration must be positive, got %s", d)
	}
	return d, nil
}

func (s ServerConfig) ShutdownGrace() (time.Duration, error) {
	if s.ShutdownTimeout == "" {
		return 10 * time.Second, nil
	}
	d, err := time.ParseDuration(s.ShutdownTimeout)
	if err != nil {
		return 0, fmt.Errorf("parse shutdown timeout: %w", err)
	}
	return d, nil
}

func (d DatabaseConfig) Dialector() gorm.Dialector {
	if d.Driver == "postgres" {
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			d.Host, d.Username, d.Password, d.Database, d.Port)
		return postgres.Open(dsn)
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.Username,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
	)
	return mysql.Open(dsn)
}

func SetupDatabaseConnection(config Config, logger *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(config.Database.Dialector(), &gorm.Config{Logger: newGormLogger(logger)})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", config.Database.Driver, err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates every table the store needs.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Book{},
		&models.Order{},
		&models.CartItem{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// SetupRedisConnection returns nil when the cache is disabled.
func SetupRedisConnection(config Config) *redis.Client {
	if !config.Redis.Enabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     config.Redis.Addr,
		Password: config.Redis.Password,
		DB:       config.Redis.Database,
	})
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
