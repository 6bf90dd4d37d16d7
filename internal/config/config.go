package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Configはアプリ全体の設定
type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Cookie    CookieConfig
	Google    GoogleConfig
	RateLimit RateLimitConfig
	Shop      ShopConfig
}

type AppConfig struct {
	Env          string `envconfig:"APP_ENV" default:"dev"`
	Port         string `envconfig:"PORT" default:"8080"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LOG_WARN_STACK" default:"false"`
	FEURL        string `envconfig:"FE_URL" default:"http://localhost:3000"` // CORSとパスワード再設定リンク
	AutoMigrate  bool   `envconfig:"AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// Addrは":8080"形式で返す
func (a AppConfig) Addr() string {
	if strings.HasPrefix(a.Port, ":") {
		return a.Port
	}
	return ":" + a.Port
}

type DBConfig struct {
	Driver string `envconfig:"DB_DRIVER" default:"postgres"`
	DSN    string `envconfig:"DATABASE_URL"`

	// DATABASE_URLが無いときだけ使う
	Host     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" default:"postgres"`
	Password string `envconfig:"POSTGRES_PASSWORD" default:"postgres"`
	Name     string `envconfig:"POSTGRES_DB" default:"perfumeshop"`
	SSLMode  string `envconfig:"POSTGRES_SSLMODE" default:"disable"`

	// sqliteのファイル
	SQLitePath string `envconfig:"SQLITE_PATH" default:"perfumeshop.db"`

	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"1h"`
}

// 空ならRedisは使わない（レート制限なし）
type RedisConfig struct {
	URL          string        `envconfig:"REDIS_URL"`
	PoolSize     int           `envconfig:"REDIS_POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"REDIS_WRITE_TIMEOUT" default:"3s"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != ""
}

type JWTConfig struct {
	Secret    string        `envconfig:"JWT_SECRET" required:"true"`
	AccessTTL time.Duration `envconfig:"JWT_ACCESS_TTL" default:"15m"`
}

type CookieConfig struct {
	Secure         bool          `envconfig:"COOKIE_SECURE" default:"true"`
	Domain         string        `envconfig:"API_DOMAIN"`
	CartSessionTTL time.Duration `envconfig:"CART_SESSION_TTL" default:"720h"`
}

// Googleログイン（ClientIDが空なら無効）
type GoogleConfig struct {
	ClientID     string `envconfig:"GOOGLE_CLIENT_ID"`
	ClientSecret string `envconfig:"GOOGLE_CLIENT_SECRET"`
	RedirectURL  string `envconfig:"GOOGLE_REDIRECT_URL" default:"http://localhost:8080/auth/google/callback"`
}

func (g GoogleConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

type RateLimitConfig struct {
	LoginWindow    time.Duration `envconfig:"RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginLimit     int64         `envconfig:"RATE_LIMIT_LOGIN_LIMIT" default:"10"`
	RegisterWindow time.Duration `envconfig:"RATE_LIMIT_REGISTER_WINDOW" default:"10m"`
	RegisterLimit  int64         `envconfig:"RATE_LIMIT_REGISTER_LIMIT" default:"5"`
}

type ShopConfig struct {
	PasswordResetTTL time.Duration `envconfig:"PASSWORD_RESET_TTL" default:"1h"`
	BcryptCost       int           `envconfig:"BCRYPT_COST" default:"12"`
}

// Loadは環境変数から設定を読む
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	// requiredは未設定しか弾かないので空文字もここで弾く
	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}

	switch cfg.DB.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return Config{}, fmt.Errorf("DB_DRIVER must be %q or %q", DriverPostgres, DriverSQLite)
	}

	if err := cfg.DB.ensureDSN(); err != nil {
		return Config{}, err
	}
	if cfg.JWT.AccessTTL <= 0 {
		return Config{}, fmt.Errorf("JWT_ACCESS_TTL must be positive")
	}
	return cfg, nil
}

// DATABASE_URLが無ければPOSTGRES_*から組み立てる
func (d *DBConfig) ensureDSN() error {
	if d.Driver == DriverSQLite {
		if d.DSN == "" {
			d.DSN = d.SQLitePath
		}
		return nil
	}
	if strings.TrimSpace(d.DSN) != "" {
		return nil
	}
	if d.Host == "" || d.Name == "" {
		return fmt.Errorf("DATABASE_URL or POSTGRES_HOST/POSTGRES_DB is required")
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()

	d.DSN = u.String()
	return nil
}
