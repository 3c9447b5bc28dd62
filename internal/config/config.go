package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ストレージドライバの種別。
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Config はサービス全体の設定。YAML ファイルと環境変数から組み立てる。
type Config struct {
	// Addr は HTTP サーバーの待ち受けアドレス。
	Addr string `yaml:"addr"`

	// Storage はストレージドライバ（memory / sqlite / postgres）。
	Storage string `yaml:"storage"`

	// SQLitePath は sqlite ドライバ使用時のデータベースファイルパス。
	SQLitePath string `yaml:"sqlitePath"`

	// PostgresDSN は postgres ドライバ使用時の接続文字列。
	// 環境変数 DATABASE_URL で上書きできる。
	PostgresDSN string `yaml:"postgresDsn"`

	// DecisionTimeoutSeconds は保留された競合が決定を待つ最長時間（秒）。
	// 0 なら無制限（キャンセルエンドポイントでのみ解放される）。
	DecisionTimeoutSeconds int `yaml:"decisionTimeoutSeconds"`

	Log LogConfig `yaml:"log"`
}

// DecisionTimeout は DecisionTimeoutSeconds を time.Duration に変換して返す。
func (c Config) DecisionTimeout() time.Duration {
	return time.Duration(c.DecisionTimeoutSeconds) * time.Second
}

// LogConfig はログ出力の設定。
type LogConfig struct {
	// Level は zap のログレベル（debug / info / warn / error）。
	Level string `yaml:"level"`

	// File を指定するとローテーション付きでファイルにも出力する。
	File string `yaml:"file"`

	// MaxSizeMB はローテーション前の1ファイルの最大サイズ。
	MaxSizeMB int `yaml:"maxSizeMb"`

	// MaxBackups は保持する世代数。
	MaxBackups int `yaml:"maxBackups"`
}

// Default は開発用のデフォルト設定を返す。
func Default() Config {
	return Config{
		Addr:                   ":8082",
		Storage:                StorageMemory,
		SQLitePath:             "roadmap.db",
		DecisionTimeoutSeconds: 600,
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
		},
	}
}

// Load は YAML ファイル（省略可）と環境変数から設定を組み立てる。
// APP_ENV=production の場合、postgres ドライバの DSN が未設定ならエラーを返す。
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// 環境変数による上書き
	if v := os.Getenv("ROADMAP_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.PostgresDSN = v
	}

	if err := cfg.validate(os.Getenv("APP_ENV")); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// validate は設定値の整合性を検証する。
// 本番環境では memory ストレージや DSN 未設定を許さない。
func (c Config) validate(appEnv string) error {
	switch c.Storage {
	case StorageMemory, StorageSQLite, StoragePostgres:
	default:
		return fmt.Errorf("unknown storage driver: %q", c.Storage)
	}

	isProduction := appEnv == "production"

	if isProduction && c.Storage == StorageMemory {
		return errors.New("memory storage must not be used in production")
	}

	if c.Storage == StoragePostgres && c.PostgresDSN == "" {
		if isProduction {
			return errors.New("DATABASE_URL must be set in production")
		}
		return errors.New("postgres storage requires a DSN")
	}

	if c.Storage == StorageSQLite && c.SQLitePath == "" {
		return errors.New("sqlite storage requires a database path")
	}

	return nil
}
