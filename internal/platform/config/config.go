package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath はフラグ・環境変数が無い場合の設定ファイルです。
const DefaultPath = "assets/local.yaml"

// Config はアプリケーション全体の設定を表現します。
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       LogConfig       `yaml:"log"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Deletion  DeletionConfig  `yaml:"deletion"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Poller    PollerConfig    `yaml:"poller"`
}

// ServerConfig は gRPC サーバー (ヘルスチェック) に関する設定です。
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// HTTPConfig は HTTP API に関する設定です。
type HTTPConfig struct {
	ListenAddr           string        `yaml:"listen_addr"`
	ReadHeaderTimeout    time.Duration `yaml:"-"`
	ReadHeaderTimeoutRaw string        `yaml:"read_header_timeout"`
}

// DatabaseConfig は PostgreSQL 接続に関する設定です。
type DatabaseConfig struct {
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	User               string        `yaml:"user"`
	Password           string        `yaml:"password"`
	Name               string        `yaml:"name"`
	SSLMode            string        `yaml:"ssl_mode"`
	MaxOpenConns       int           `yaml:"max_open_conns"`
	MaxIdleConns       int           `yaml:"max_idle_conns"`
	ConnMaxLifetime    time.Duration `yaml:"-"`
	ConnMaxIdleTime    time.Duration `yaml:"-"`
	ConnMaxLifetimeRaw string        `yaml:"conn_max_lifetime"`
	ConnMaxIdleTimeRaw string        `yaml:"conn_max_idle_time"`
}

// RedisConfig はレート制限用 Redis の設定です。Addr が空なら無効です。
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Enabled は Redis が設定されているかを返します。
func (r RedisConfig) Enabled() bool { return r.Addr != "" }

// AuthConfig は認証関連の設定です。
type AuthConfig struct {
	JWTSecret     string        `yaml:"jwt_secret"`
	Issuer        string        `yaml:"issuer"`
	RequireSigned bool          `yaml:"require_signed"`
	TokenTTL      time.Duration `yaml:"-"`
	TokenTTLRaw   string        `yaml:"token_ttl"`
	BcryptCost    int           `yaml:"bcrypt_cost"`
}

// SigningEnabled は署名付きトークンが有効かを返します。
func (a AuthConfig) SigningEnabled() bool { return a.JWTSecret != "" }

// LogConfig はログ出力の設定です。
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// RateLimitConfig は固定窓レート制限の設定です。Requests が 0 なら無効です。
type RateLimitConfig struct {
	Requests  int           `yaml:"requests"`
	Window    time.Duration `yaml:"-"`
	WindowRaw string        `yaml:"window"`
}

// DeletionConfig は連鎖削除の設定です。
type DeletionConfig struct {
	Timeout    time.Duration `yaml:"-"`
	TimeoutRaw string        `yaml:"timeout"`
}

// TelemetryConfig はトレース送信の設定です。Endpoint が空なら送信しません。
type TelemetryConfig struct {
	ServiceName string `yaml:"service_name"`
	Endpoint    string `yaml:"otlp_endpoint"`
	Insecure    bool   `yaml:"insecure"`
}

// PollerConfig はヘルスポーラーの設定です。
type PollerConfig struct {
	Interval    time.Duration  `yaml:"-"`
	IntervalRaw string         `yaml:"interval"`
	Timeout     time.Duration  `yaml:"-"`
	TimeoutRaw  string         `yaml:"timeout"`
	Targets     []PollerTarget `yaml:"targets"`
}

// PollerTarget は監視対象です。Kind は grpc か http です。
type PollerTarget struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
	URL  string `yaml:"url"`
}

// Load は指定されたパスから設定ファイルを読み込みます。
// カレントディレクトリの .env を先に読み込み、${VAR} を展開します。
func Load(path string) (*Config, error) {
	loadDotEnv()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(b))), &cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ResolvePath はフラグ、CONFIG_PATH、assets/local.yaml の順に設定ファイルのパスを決定します。
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		return env
	}
	return DefaultPath
}

// loadDotEnv は既存の環境変数を上書きせずに .env を読み込みます。
func loadDotEnv() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}
}

func (c *Config) validateAndNormalize() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("config: server.listen_addr must be set")
	}

	steps := []func() error{
		c.HTTP.validateAndNormalize,
		c.Database.validateAndNormalize,
		c.Auth.validateAndNormalize,
		c.Log.validateAndNormalize,
		c.RateLimit.validateAndNormalize,
		c.Deletion.validateAndNormalize,
		c.Telemetry.validateAndNormalize,
		c.Poller.validateAndNormalize,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func (h *HTTPConfig) validateAndNormalize() error {
	if h.ListenAddr == "" {
		h.ListenAddr = ":8080"
	}
	if _, _, err := net.SplitHostPort(h.ListenAddr); err != nil {
		return fmt.Errorf("config: http.listen_addr: %w", err)
	}
	timeout, err := parseDurationAllowEmpty(h.ReadHeaderTimeoutRaw)
	if err != nil {
		return fmt.Errorf("config: http.read_header_timeout: %w", err)
	}
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	h.ReadHeaderTimeout = timeout
	return nil
}

func (d *DatabaseConfig) validateAndNormalize() error {
	if d.Host == "" {
		return fmt.Errorf("config: database.host must be set")
	}
	if d.Port == 0 {
		return fmt.Errorf("config: database.port must be set")
	}
	if d.User == "" {
		return fmt.Errorf("config: database.user must be set")
	}
	if d.Password == "" {
		return fmt.Errorf("config: database.password must be set")
	}
	if d.Name == "" {
		return fmt.Errorf("config: database.name must be set")
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}

	lifetime, err := parseDurationAllowEmpty(d.ConnMaxLifetimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_lifetime: %w", err)
	}
	d.ConnMaxLifetime = lifetime

	idleTime, err := parseDurationAllowEmpty(d.ConnMaxIdleTimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_idle_time: %w", err)
	}
	d.ConnMaxIdleTime = idleTime

	return nil
}

func (a *AuthConfig) validateAndNormalize() error {
	if a.RequireSigned && a.JWTSecret == "" {
		return fmt.Errorf("config: auth.require_signed needs auth.jwt_secret")
	}
	if a.JWTSecret != "" && len(a.JWTSecret) < 32 {
		return fmt.Errorf("config: auth.jwt_secret must be at least 32 bytes")
	}
	ttl, err := parseDurationAllowEmpty(a.TokenTTLRaw)
	if err != nil {
		return fmt.Errorf("config: auth.token_ttl: %w", err)
	}
	if ttl == 0 {
		ttl = 8 * time.Hour
	}
	a.TokenTTL = ttl
	if a.Issuer == "" {
		a.Issuer = "personnel-core"
	}
	if a.BcryptCost == 0 {
		a.BcryptCost = 10
	}
	if a.BcryptCost < 4 || a.BcryptCost > 31 {
		return fmt.Errorf("config: auth.bcrypt_cost must be between 4 and 31")
	}
	return nil
}

func (l *LogConfig) validateAndNormalize() error {
	l.Level = strings.ToLower(strings.TrimSpace(l.Level))
	if l.Level == "" {
		l.Level = "info"
	}
	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is not supported", l.Level)
	}

	l.Format = strings.ToLower(strings.TrimSpace(l.Format))
	if l.Format == "" {
		l.Format = "text"
	}
	if l.Format != "text" && l.Format != "json" {
		return fmt.Errorf("config: log.format %q is not supported", l.Format)
	}
	return nil
}

func (r *RateLimitConfig) validateAndNormalize() error {
	if r.Requests < 0 {
		return fmt.Errorf("config: rate_limit.requests must not be negative")
	}
	window, err := parseDurationAllowEmpty(r.WindowRaw)
	if err != nil {
		return fmt.Errorf("config: rate_limit.window: %w", err)
	}
	if window == 0 {
		window = time.Minute
	}
	r.Window = window
	return nil
}

func (d *DeletionConfig) validateAndNormalize() error {
	timeout, err := parseDurationAllowEmpty(d.TimeoutRaw)
	if err != nil {
		return fmt.Errorf("config: deletion.timeout: %w", err)
	}
	d.Timeout = timeout
	return nil
}

func (t *TelemetryConfig) validateAndNormalize() error {
	if t.ServiceName == "" {
		t.ServiceName = "personnel-core"
	}
	return nil
}

func (p *PollerConfig) validateAndNormalize() error {
	interval, err := parseDurationAllowEmpty(p.IntervalRaw)
	if err != nil {
		return fmt.Errorf("config: poller.interval: %w", err)
	}
	if interval == 0 {
		interval = 10 * time.Minute
	}
	p.Interval = interval

	timeout, err := parseDurationAllowEmpty(p.TimeoutRaw)
	if err != nil {
		return fmt.Errorf("config: poller.timeout: %w", err)
	}
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	p.Timeout = timeout

	for i, target := range p.Targets {
		if target.URL == "" {
			return fmt.Errorf("config: poller.targets[%d].url must be set", i)
		}
		switch target.Kind {
		case "":
			p.Targets[i].Kind = "http"
		case "http", "grpc":
		default:
			return fmt.Errorf("config: poller.targets[%d].kind %q is not supported", i, target.Kind)
		}
		if target.Name == "" {
			p.Targets[i].Name = target.URL
		}
	}
	return nil
}

func parseDurationAllowEmpty(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	return d, nil
}

// DSN は pgx 用の接続文字列を返します。認証情報は URL エスケープされます。
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}
