package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// AppConfig 应用配置
type AppConfig struct {
	Server ServerConfig `toml:"server"`
	Data   DataConfig   `toml:"data"`
	Auth   AuthConfig   `toml:"auth"`
	Log    LogConfig    `toml:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port        int    `toml:"port" validate:"gte=1,lte=65535"`
	DevMode     bool   `toml:"dev_mode"`
	OpenBrowser bool   `toml:"open_browser"`
	CookieName  string `toml:"cookie_name" validate:"required"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir string `toml:"data_dir" validate:"required"`
	DBFile  string `toml:"db_file" validate:"required"`
	// DBPath 非空时直接使用该路径，忽略 DataDir/DBFile
	DBPath string `toml:"db_path"`
}

// AuthConfig 登录账号配置（用户名 -> 密码，密码可为明文或 bcrypt 哈希）
type AuthConfig struct {
	Users map[string]string `toml:"users" validate:"required,min=1"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `toml:"level" validate:"omitempty,oneof=debug info warn error"`
	File  string `toml:"file"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	PortSpecified bool
}

// DefaultUsers 默认账号
func DefaultUsers() map[string]string {
	return map[string]string{
		"NOP-PALU":   "palu123",
		"NOP-MKS":    "mks123",
		"NOP-MANADO": "manado123",
		"admin":      "admin123",
	}
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:        5000,
			DevMode:     false,
			OpenBrowser: true,
			CookieName:  "proposaldesk_session",
		},
		Data: DataConfig{
			DataDir: "data",
			DBFile:  "data_pipeline.sqlite",
		},
		Auth: AuthConfig{
			Users: DefaultUsers(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// LoadConfigWithInfo 从可执行文件同目录的 config.toml 加载配置并返回元信息
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}
	return LoadConfigFile(filepath.Join(exeDir, "config.toml"))
}

// LoadConfigFile 从指定路径加载配置；文件不存在时使用默认配置
// 加载顺序：默认值 -> config.toml -> .env / 环境变量
func LoadConfigFile(configPath string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{Path: configPath}
	config := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		info.PortSpecified = isPortSpecifiedInToml(data)
		// users 整体替换而不是与默认账号合并
		if hasUsersTable(data) {
			config.Auth.Users = nil
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, fmt.Errorf("parse %s: %w", configPath, err)
		}
	case os.IsNotExist(err):
		// 配置文件不存在，使用默认配置
	default:
		return nil, info, err
	}

	// .env 不存在时忽略
	_ = godotenv.Load(filepath.Join(filepath.Dir(configPath), ".env"))
	applyEnv(config, &info)

	if err := Validate(config); err != nil {
		return nil, info, err
	}
	return config, info, nil
}

func hasUsersTable(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}
	authMap, ok := raw["auth"].(map[string]any)
	if !ok {
		return false
	}
	_, ok = authMap["users"]
	return ok
}

// 环境变量覆盖（用于部署 / 本地运行）
func applyEnv(config *AppConfig, info *LoadConfigInfo) {
	if v := os.Getenv("PROPOSALDESK_DB_PATH"); v != "" {
		config.Data.DBPath = v
	}
	if v := os.Getenv("PROPOSALDESK_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.Port = port
			info.PortSpecified = true
		}
	}
	// 单账号变量，旧版面板的部署方式
	user, password := os.Getenv("DASHBOARD_USER"), os.Getenv("DASHBOARD_PASSWORD")
	if user != "" && password != "" {
		if config.Auth.Users == nil {
			config.Auth.Users = map[string]string{}
		}
		config.Auth.Users[user] = password
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		config.Log.File = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		config.Log.Level = v
	}
}

// Validate 校验配置
func Validate(config *AppConfig) error {
	if err := validator.New().Struct(config); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// SaveConfig 保存配置到 config.toml；文件含账号密码，仅属主可读
func SaveConfig(config *AppConfig, configPath string) error {
	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(configPath, data, 0o600)
}

// EnsureDataDir 确保数据目录存在
// 相对路径以可执行文件所在目录为基准
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := config.Data.DataDir
	if !filepath.IsAbs(dataDir) {
		exeDir, err := GetExeDir()
		if err != nil {
			exeDir = "."
		}
		dataDir = filepath.Join(exeDir, dataDir)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	// 创建子目录
	subdirs := []string{"uploads", "exports"}
	for _, subdir := range subdirs {
		path := filepath.Join(dataDir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", err
		}
	}

	return dataDir, nil
}

// ResolveDBPath 返回 SQLite 文件路径
func ResolveDBPath(config *AppConfig, dataDir string) string {
	if config.Data.DBPath != "" {
		return config.Data.DBPath
	}
	return filepath.Join(dataDir, config.Data.DBFile)
}
