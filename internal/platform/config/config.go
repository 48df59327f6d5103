package config

import (
	"time"
)

// Config is the root configuration for the monitoring service.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Web     WebConfig     `yaml:"web"`
	Auth    AuthConfig    `yaml:"auth"`
	Monitor MonitorConfig `yaml:"monitor"`
}

type ServerConfig struct {
	IP   string `yaml:"ip"`
	Port int    `yaml:"port"`
}

type LogConfig struct {
	Level string `yaml:"log_level"`
	Dir   string `yaml:"log_dir"`
	File  string `yaml:"log_file"`
}

type WebConfig struct {
	StaticDir      string   `yaml:"static_dir"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// AuthConfig wires the credential table and the session store.
type AuthConfig struct {
	SessionTTL time.Duration   `yaml:"session_ttl"`
	Accounts   []AccountConfig `yaml:"accounts"`
	Store      StoreConfig     `yaml:"store"`
}

// AccountConfig declares one fixed login account. The password is digested at
// startup and never kept in memory as plaintext beyond construction.
type AccountConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

type StoreConfig struct {
	Type    string            `yaml:"type"`
	Cleanup time.Duration     `yaml:"cleanup"`
	Redis   RedisStoreConfig  `yaml:"redis,omitempty"`
	SQLite  SQLiteStoreConfig `yaml:"sqlite,omitempty"`
}

type RedisStoreConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
}

type SQLiteStoreConfig struct {
	Path string `yaml:"path,omitempty"`
}

// MonitorConfig tunes metric collection and the compliance thresholds.
type MonitorConfig struct {
	DiskPath        string        `yaml:"disk_path"`
	CPUSampleTime   time.Duration `yaml:"cpu_sample_time"`
	CPUThreshold    float64       `yaml:"cpu_threshold"`
	MemoryThreshold float64       `yaml:"memory_threshold"`
	DiskThreshold   float64       `yaml:"disk_threshold"`
}
