// Package config resolves the server settings from flags, environment
// (UNICYCLE_ prefix) and an optional config file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/DoyleJ11/unicycle-racing/internal/track"
	"github.com/DoyleJ11/unicycle-racing/pkg/types"
)

const EnvPrefix = "UNICYCLE"

// flag names, also the viper keys
const (
	KeyPort                   = "port"
	KeyTrack                  = "track"
	KeyLogLevel               = "log-level"
	KeyLogFormat              = "log-format"
	KeyLapClockInterval       = "lap-clock-interval"
	KeyLeaderboardMaxEntries  = "leaderboard-max-entries"
	KeyLeaderboardBestPerName = "leaderboard-best-per-name"
	KeyArchiveDSN             = "archive-dsn"
	KeyAllowedOrigins         = "allowed-origins"
	KeyOutboxSize             = "outbox-size"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Port                   int
	Track                  types.TrackType
	LogLevel               string
	LogFormat              string // text vs json
	LapClockInterval       time.Duration
	LeaderboardMaxEntries  int  // 0 keeps every lap
	LeaderboardBestPerName bool // one entry per display name
	ArchiveDSN             string
	AllowedOrigins         []string
	OutboxSize             int
}

func Default() Config {
	return Config{
		Port:             8082,
		Track:            types.TrackLoop,
		LogLevel:         "info",
		LogFormat:        "text",
		LapClockInterval: 10 * time.Millisecond,
		AllowedOrigins:   []string{"*"},
		OutboxSize:       64,
	}
}

// RegisterFlags declares every setting on fs with its default.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.Int(KeyPort, d.Port, "HTTP listen port")
	fs.String(KeyTrack, string(d.Track), "course to race on (Loop, FigureEight)")
	fs.String(KeyLogLevel, d.LogLevel, "log level (zap level names)")
	fs.String(KeyLogFormat, d.LogFormat, "log format (text, json)")
	fs.Duration(KeyLapClockInterval, d.LapClockInterval, "lap clock resolution")
	fs.Int(KeyLeaderboardMaxEntries, d.LeaderboardMaxEntries, "keep only the fastest N laps (0 = all)")
	fs.Bool(KeyLeaderboardBestPerName, d.LeaderboardBestPerName, "keep only the best lap per name")
	fs.String(KeyArchiveDSN, d.ArchiveDSN, "lap archive database (postgres://..., sqlite:<path>; empty disables)")
	fs.StringSlice(KeyAllowedOrigins, d.AllowedOrigins, "allowed browser origins")
	fs.Int(KeyOutboxSize, d.OutboxSize, "per-connection outbound buffer")
}

// Bind wires fs and the UNICYCLE_* environment into v.
func Bind(v *viper.Viper, fs *pflag.FlagSet) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v.BindPFlags(fs)
}

// FromViper reads the resolved values and validates them.
func FromViper(v *viper.Viper) (Config, error) {
	t, err := track.Parse(v.GetString(KeyTrack))
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	c := Config{
		Port:                   v.GetInt(KeyPort),
		Track:                  t,
		LogLevel:               v.GetString(KeyLogLevel),
		LogFormat:              v.GetString(KeyLogFormat),
		LapClockInterval:       v.GetDuration(KeyLapClockInterval),
		LeaderboardMaxEntries:  v.GetInt(KeyLeaderboardMaxEntries),
		LeaderboardBestPerName: v.GetBool(KeyLeaderboardBestPerName),
		ArchiveDSN:             v.GetString(KeyArchiveDSN),
		AllowedOrigins:         v.GetStringSlice(KeyAllowedOrigins),
		OutboxSize:             v.GetInt(KeyOutboxSize),
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("%w: port %d", ErrInvalid, c.Port)
	case c.LapClockInterval <= 0:
		return fmt.Errorf("%w: lap clock interval %s", ErrInvalid, c.LapClockInterval)
	case c.LeaderboardMaxEntries < 0:
		return fmt.Errorf("%w: leaderboard max entries %d", ErrInvalid, c.LeaderboardMaxEntries)
	case c.OutboxSize <= 0:
		return fmt.Errorf("%w: outbox size %d", ErrInvalid, c.OutboxSize)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log format %q", ErrInvalid, c.LogFormat)
	}
	if _, err := track.For(c.Track); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

func (c Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }
