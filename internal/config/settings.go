package config

import (
	"fmt"
	"net/url"

	"github.com/spf13/viper"
)

const DefaultSettingsFile = "db_config.json"

// Settings are the connection parameters persisted in the settings file.
type Settings struct {
	Host     string `mapstructure:"host" json:"host"`
	Database string `mapstructure:"database" json:"database"`
	User     string `mapstructure:"user" json:"user"`
	Password string `mapstructure:"password" json:"password"`
}

func DefaultSettings() Settings {
	return Settings{
		Host:     "localhost",
		Database: "clinica_exames",
		User:     "postgres",
		Password: "",
	}
}

// DSN renders the settings as a postgres connection URL. Host may carry
// a ":port" suffix; without one the driver default applies.
func (s Settings) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   s.Host,
		Path:   "/" + s.Database,
	}
	if s.Password != "" {
		u.User = url.UserPassword(s.User, s.Password)
	} else if s.User != "" {
		u.User = url.User(s.User)
	}
	return u.String()
}

// LoadSettings reads the settings file at path. A missing or unparsable
// file is replaced with the defaults, which are then returned. The values
// themselves are not validated.
func LoadSettings(path string) (Settings, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		def := DefaultSettings()
		if werr := SaveSettings(path, def); werr != nil {
			return def, fmt.Errorf("write default settings: %w", werr)
		}
		return def, nil
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		def := DefaultSettings()
		if werr := SaveSettings(path, def); werr != nil {
			return def, fmt.Errorf("write default settings: %w", werr)
		}
		return def, nil
	}
	return s, nil
}

// SaveSettings rewrites the settings file at path.
func SaveSettings(path string, s Settings) error {
	v := viper.New()
	v.SetConfigType("json")
	v.Set("host", s.Host)
	v.Set("database", s.Database)
	v.Set("user", s.User)
	v.Set("password", s.Password)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("save settings to %s: %w", path, err)
	}
	return nil
}
