package config

import (
	"errors"
	"os"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultCacheName      = "shelfwatch.db"
	DefaultReportName     = "shelfwatch-report.html"
	DefaultServerURL      = "http://localhost:5000"
)

type Keymap struct {
	Quit           string `toml:"quit"`
	Up             string `toml:"up"`
	Down           string `toml:"down"`
	AddItem        string `toml:"add_item"`
	DeleteItem     string `toml:"delete_item"`
	AddCategory    string `toml:"add_category"`
	DeleteCategory string `toml:"delete_category"`
	NextFilter     string `toml:"next_filter"`
	PrevFilter     string `toml:"prev_filter"`
	Refresh        string `toml:"refresh"`
	Export         string `toml:"export"`
	Confirm        string `toml:"confirm"`
	Cancel         string `toml:"cancel"`
}

// Config is fixed at startup; nothing here is editable at runtime.
type Config struct {
	ServerURL      string            `toml:"server_url"`
	CachePath      string            `toml:"cache_path"`
	ReportPath     string            `toml:"report_path"`
	UrgentDays     int               `toml:"urgent_days"`
	ActivityLogMax int               `toml:"activity_log_max"`
	ReadRetries    int               `toml:"read_retries"`
	DefaultIcon    string            `toml:"default_icon"`
	Icons          map[string]string `toml:"icons"`
	Keys           Keymap            `toml:"keys"`
}

// Icon resolves the sidebar icon for a category name, falling back to the
// configured default.
func (c Config) Icon(category string) string {
	if icon, ok := c.Icons[category]; ok {
		return icon
	}
	return c.DefaultIcon
}

func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	applyFallbacks(&cfg)
	return cfg, nil
}

func applyFallbacks(cfg *Config) {
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultServerURL
	}
	if cfg.CachePath == "" {
		cfg.CachePath = DefaultCacheName
	}
	if cfg.ReportPath == "" {
		cfg.ReportPath = DefaultReportName
	}
	if cfg.UrgentDays <= 0 {
		cfg.UrgentDays = 3
	}
	if cfg.ActivityLogMax <= 0 {
		cfg.ActivityLogMax = 5
	}
	if cfg.ReadRetries < 0 {
		cfg.ReadRetries = 1
	}
	if cfg.DefaultIcon == "" {
		cfg.DefaultIcon = "🏷"
	}
	if cfg.Icons == nil {
		cfg.Icons = defaultIcons()
	}
}

func write(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultIcons() map[string]string {
	return map[string]string{
		"All":           "⭐",
		"General":       "📦",
		"Food":          "🍎",
		"Medicine":      "💊",
		"Documents":     "📄",
		"Personal Care": "🧴",
	}
}

func defaultConfig() Config {
	return Config{
		ServerURL:      DefaultServerURL,
		CachePath:      DefaultCacheName,
		ReportPath:     DefaultReportName,
		UrgentDays:     3,
		ActivityLogMax: 5,
		ReadRetries:    1,
		DefaultIcon:    "🏷",
		Icons:          defaultIcons(),
		Keys: Keymap{
			Quit:           "q",
			Up:             "k",
			Down:           "j",
			AddItem:        "a",
			DeleteItem:     "d",
			AddCategory:    "c",
			DeleteCategory: "D",
			NextFilter:     "tab",
			PrevFilter:     "shift+tab",
			Refresh:        "r",
			Export:         "x",
			Confirm:        "enter",
			Cancel:         "esc",
		},
	}
}
