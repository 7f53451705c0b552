package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// ChannelProfile holds one chat's parser name and per-chat default fields.
// The engine wiring in cmd/engine reads only Parser; the tag, leverage,
// fraction and force-limit fields are loaded but not applied to parsed
// signals.
type ChannelProfile struct {
	Tag             string  `mapstructure:"tag"`
	Parser          string  `mapstructure:"parser"`
	DefaultLeverage int     `mapstructure:"default_leverage"`
	MaxLeverage     int     `mapstructure:"max_leverage"`
	DefaultFraction float64 `mapstructure:"default_fraction"`
	ForceLimitOrder bool    `mapstructure:"force_limit_order"`
}

// channelsFile is the top-level shape of channels.yaml: a map from chat
// id (as a string key, since YAML keys are strings) to its profile.
type channelsFile struct {
	Channels map[string]ChannelProfile `mapstructure:"channels"`
}

// LoadChannels reads the per-channel profile table from path (or
// "channels.yaml" in the working directory if path is empty) via viper.
// The table is immutable at runtime: new channels require a restart.
func LoadChannels(path string) (map[int64]ChannelProfile, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("channels")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: reading channel profiles: %w", err)
	}

	var parsed channelsFile
	if err := v.Unmarshal(&parsed); err != nil {
		return nil, fmt.Errorf("config: parsing channel profiles: %w", err)
	}

	out := make(map[int64]ChannelProfile, len(parsed.Channels))
	for key, profile := range parsed.Channels {
		var chatID int64
		if _, err := fmt.Sscanf(key, "%d", &chatID); err != nil {
			return nil, fmt.Errorf("config: channel key %q is not a chat id: %w", key, err)
		}
		out[chatID] = profile
	}
	return out, nil
}
