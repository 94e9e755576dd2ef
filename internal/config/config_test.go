package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/unicycle-racing/pkg/types"
)

func load(t *testing.T, args ...string) (Config, error) {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	v := viper.New()
	require.NoError(t, Bind(v, fs))
	return FromViper(v)
}

func TestDefaults(t *testing.T) {
	c, err := load(t)
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
	assert.Equal(t, ":8082", c.Addr())
}

func TestFlagsAndEnvironment(t *testing.T) {
	t.Setenv("UNICYCLE_LAP_CLOCK_INTERVAL", "20ms")
	t.Setenv("UNICYCLE_TRACK", "figure-eight")

	c, err := load(t, "--port=9000", "--leaderboard-best-per-name", "--allowed-origins=a.example,b.example")
	require.NoError(t, err)
	assert.Equal(t, 9000, c.Port)
	assert.Equal(t, types.TrackFigureEight, c.Track)
	assert.Equal(t, 20*time.Millisecond, c.LapClockInterval)
	assert.True(t, c.LeaderboardBestPerName)
	assert.Equal(t, []string{"a.example", "b.example"}, c.AllowedOrigins)
}

func TestInvalid(t *testing.T) {
	for _, args := range [][]string{
		{"--track=Oval"},
		{"--port=0"},
		{"--lap-clock-interval=0s"},
		{"--leaderboard-max-entries=-1"},
		{"--outbox-size=0"},
		{"--log-format=xml"},
	} {
		_, err := load(t, args...)
		assert.ErrorIs(t, err, ErrInvalid, "%v", args)
	}
}
