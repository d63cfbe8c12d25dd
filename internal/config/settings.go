package config

import (
	"clipcat/internal/storage"

	"github.com/spf13/viper"
)

// Settings reads the history limits from viper on every Load, so changes to
// the config file or environment take effect on the next retention pass.
type Settings struct {
	v *viper.Viper
}

var _ storage.SettingsProvider = Settings{}

func NewSettings(v *viper.Viper) Settings {
	return Settings{v: v}
}

func (s Settings) Load() storage.Settings {
	return storage.Settings{
		HistoryRetentionDays: s.v.GetInt(KeyRetentionDays),
		HistoryMaxItems:      s.v.GetInt(KeyMaxItems),
	}
}
