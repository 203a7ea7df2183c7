package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/char5742/remote-input/internal/keymap"
	"github.com/char5742/remote-input/internal/logging"
	"github.com/char5742/remote-input/internal/protocol"
)

const appName = "remote-input"

// Config はアプリケーション全体の設定を表す構造体
type Config struct {
	Server ServerConfig `toml:"server"`
	Client ClientConfig `toml:"client"`
	Log    LogConfig    `toml:"log"`
	API    APIConfig    `toml:"api"`
	Remap  RemapConfig  `toml:"remap"`
	Motion MotionConfig `toml:"motion"`
}

// ServerConfig は受信側デーモンの設定
type ServerConfig struct {
	Listen     string `toml:"listen"`
	Port       int    `toml:"port"`
	DeviceName string `toml:"device_name"`
	// User は待ち受け開始後に切り替えるユーザー。空なら切り替えない
	User string `toml:"user"`
}

// ClientConfig は送信側の設定
type ClientConfig struct {
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	Display string `toml:"display"`
	// APIPort は接続先デーモンの状態APIのポート
	APIPort int `toml:"api_port"`
}

// LogConfig はログの設定
type LogConfig struct {
	Level  string `toml:"level"`
	Target string `toml:"target"`
}

// APIConfig は状態APIの設定
type APIConfig struct {
	Enabled bool `toml:"enabled"`
	Port    int  `toml:"port"`
}

// RemapConfig は注入側のキー置き換え
type RemapConfig struct {
	Profile string            `toml:"profile"`
	Entries map[string]string `toml:"entries"`
}

// MotionConfig はポインタ移動の平滑化の設定
type MotionConfig struct {
	SmoothingFactor float64 `toml:"smoothing_factor"`
	WarmUpCount     int     `toml:"warm_up_count"`
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:     "",
			Port:       protocol.DefaultPort,
			DeviceName: appName,
			User:       "nobody",
		},
		Client: ClientConfig{
			Port:    protocol.DefaultPort,
			APIPort: 8080,
		},
		Log: LogConfig{
			Level:  "info",
			Target: logging.TargetStdio,
		},
		API: APIConfig{
			Enabled: false,
			Port:    8080,
		},
		Remap: RemapConfig{
			Entries: map[string]string{},
		},
		Motion: MotionConfig{
			SmoothingFactor: 0,
			WarmUpCount:     10,
		},
	}
}

// Validate は値の範囲を確認する
func (c *Config) Validate() error {
	var errs []error
	for name, port := range map[string]int{
		"server.port":     c.Server.Port,
		"client.port":     c.Client.Port,
		"client.api_port": c.Client.APIPort,
		"api.port":        c.API.Port,
	} {
		if port < 1 || port > 65535 {
			errs = append(errs, fmt.Errorf("%s: ポート番号が不正です: %d", name, port))
		}
	}
	if c.Server.DeviceName == "" {
		errs = append(errs, errors.New("server.device_name: デバイス名が空です"))
	}
	if c.Motion.SmoothingFactor < 0 || c.Motion.SmoothingFactor >= 1 {
		errs = append(errs, fmt.Errorf("motion.smoothing_factor: 0以上1未満で指定してください: %v", c.Motion.SmoothingFactor))
	}
	if _, err := c.Remapper(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Remapper は [remap] からキー置き換え表を作成する
func (c *Config) Remapper() (*keymap.Remapper, error) {
	return keymap.NewRemapper(c.Remap.Profile, c.Remap.Entries)
}

// GetDefaultConfigDir は設定ディレクトリ ($XDG_CONFIG_HOME/remote-input) を返す
func GetDefaultConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName), nil
}

// DefaultConfigPath は設定ファイルのデフォルトパスを返す
func DefaultConfigPath() (string, error) {
	dir, err := GetDefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ErrDefaultsNotSaved は設定ファイルがなく、デフォルト設定の保存にも失敗したことを表す。
// 返される設定はデフォルト設定なのでそのまま使える
var ErrDefaultsNotSaved = errors.New("デフォルト設定を保存できませんでした")

// Load は path から設定を読み込む。path が空ならデフォルトパスを使う。
// ファイルはあるが不正な場合はエラー
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return DefaultConfig(), fmt.Errorf("%w: %v", ErrDefaultsNotSaved, err)
		}
		path = p
	}
	return LoadConfig(path)
}

// LoadConfig は設定ファイルから設定を読み込む
func LoadConfig(configPath string) (*Config, error) {
	// デフォルト設定を用意
	config := DefaultConfig()

	// ファイルが存在しない場合はデフォルト設定を保存して返す
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := SaveConfig(configPath, config); err != nil {
			return config, fmt.Errorf("%w: %v", ErrDefaultsNotSaved, err)
		}
		return config, nil
	}

	// 設定ファイルの読み込み
	md, err := toml.DecodeFile(configPath, config)
	if err != nil {
		return config, fmt.Errorf("設定ファイルの読み込みに失敗しました: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return config, fmt.Errorf("未知の設定項目があります: %v", undecoded)
	}

	return config, config.Validate()
}

// SaveConfig は設定をTOMLファイルに保存する
func SaveConfig(configPath string, config *Config) error {
	// 設定ディレクトリの作成
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	// ファイルを開く（なければ作成）
	f, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer f.Close()

	// TOML形式でエンコードして書き込み
	encoder := toml.NewEncoder(f)
	return encoder.Encode(config)
}
