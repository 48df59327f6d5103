package config

import "time"

// DefaultConfig returns the configuration used when no config file overrides
// are present. The sample accounts match the demo credentials shipped with the
// frontend (admin/admin123, viewer/viewer123).
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			IP:   "0.0.0.0",
			Port: 8000,
		},
		Log: LogConfig{
			Level: "info",
			Dir:   "data/logs",
			File:  "soxmonitor.log",
		},
		Web: WebConfig{
			StaticDir:      "./web",
			AllowedOrigins: []string{"http://localhost:5173"},
		},
		Auth: AuthConfig{
			SessionTTL: time.Hour,
			Accounts: []AccountConfig{
				{Username: "admin", Password: "admin123", Role: "admin"},
				{Username: "viewer", Password: "viewer123", Role: "viewer"},
			},
			Store: StoreConfig{
				Type:    "memory",
				Cleanup: 10 * time.Minute,
				SQLite: SQLiteStoreConfig{
					Path: "data/soxmonitor.db",
				},
			},
		},
		Monitor: MonitorConfig{
			DiskPath:        "/",
			CPUSampleTime:   time.Second,
			CPUThreshold:    85,
			MemoryThreshold: 90,
			DiskThreshold:   80,
		},
	}
}
