package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
}

type CORS struct {
	AllowedOrigin string
}

type App struct {
	Name string
	Env  string
	HTTP HTTP
	CORS CORS
}

type LogFile struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Log struct {
	Level string
	JSON  bool
	File  LogFile
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
}

// Auth 单账号登录；PasswordHash 优先于明文 Password
type Auth struct {
	Username     string
	Password     string
	PasswordHash string
	RequireToken bool
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTLSec   int    `mapstructure:"ttlSec"`
}

type DB struct {
	Driver             string // mongo / mysql / postgres / memory
	URI                string // mongo 连接串
	Database           string
	ConnectTimeoutSec  int
	DSN                string // gorm 连接串
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

type API struct {
	EmptyListNotFound   bool
	RateLimitRPS        float64
	RateLimitBurst      int
	LoginRateLimitPerIP float64 // 0 关闭 /login 的按 IP 限流
	LoginRateLimitBurst int
	MaxConcurrent       int64
	MaxBodyBytes        int64
	RequestTimeoutSec   int
}

type Config struct {
	App   App
	Log   Log
	JWT   JWT
	Auth  Auth
	DB    DB
	Redis Redis `mapstructure:"redis"`
	API   API
}

const defaultPath = "./configs/config.local.yaml"

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "user-management")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 3001)
	v.SetDefault("app.http.readTimeoutSec", 5)
	v.SetDefault("app.http.writeTimeoutSec", 10)
	v.SetDefault("app.http.idleTimeoutSec", 60)
	v.SetDefault("app.cors.allowedOrigin", "http://localhost:3000")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.file.enable", false)
	v.SetDefault("log.file.filename", "logs/app.log")
	v.SetDefault("log.file.maxSizeMB", 100)
	v.SetDefault("log.file.maxBackups", 7)
	v.SetDefault("log.file.maxAgeDays", 30)
	v.SetDefault("log.file.compress", true)

	v.SetDefault("jwt.secret", "secretKey")
	v.SetDefault("jwt.issuer", "user-management")
	v.SetDefault("jwt.accessTokenTTLMin", 60)

	v.SetDefault("auth.username", "userManagement@mail.com")
	v.SetDefault("auth.password", "123456789")
	v.SetDefault("auth.passwordHash", "")
	v.SetDefault("auth.requireToken", false)

	v.SetDefault("db.driver", "mongo")
	v.SetDefault("db.uri", "mongodb://localhost:27017")
	v.SetDefault("db.database", "userManagement")
	v.SetDefault("db.connectTimeoutSec", 10)
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.username", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.maxOpenConns", 50)
	v.SetDefault("db.maxIdleConns", 10)
	v.SetDefault("db.connMaxLifetimeMin", 30)
	v.SetDefault("db.autoMigrate", true)
	v.SetDefault("db.logLevel", "warn")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttlSec", 60)

	v.SetDefault("api.emptyListNotFound", true)
	v.SetDefault("api.rateLimitRPS", 200)
	v.SetDefault("api.rateLimitBurst", 400)
	v.SetDefault("api.loginRateLimitPerIP", 1)
	v.SetDefault("api.loginRateLimitBurst", 10)
	v.SetDefault("api.maxConcurrent", 300)
	v.SetDefault("api.maxBodyBytes", 16<<20)
	v.SetDefault("api.requestTimeoutSec", 10)
}

// 兼容旧部署的环境变量名
func bindLegacyEnv(v *viper.Viper) error {
	for key, names := range map[string][]string{
		"db.uri":                 {"APP_DB_URI", "MONGODB_URI"},
		"app.http.port":          {"APP_APP_HTTP_PORT", "PORT"},
		"app.cors.allowedOrigin": {"APP_APP_CORS_ALLOWEDORIGIN", "FRONTEND_URL"},
	} {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return err
		}
	}
	return nil
}

// Read 读取配置；文件不存在时仅用默认值 + 环境变量，显式指定的路径除外
func Read(path string) (*Config, error) {
	v := viper.New()
	explicit := path != ""
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		explicit = path != ""
	}
	if path == "" {
		path = defaultPath
	}

	setDefaults(v)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindLegacyEnv(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else if explicit || !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

func Load(path string) *Config {
	c, err := Read(path)
	if err != nil {
		log.Fatalf("%v", err)
	}
	return c
}
