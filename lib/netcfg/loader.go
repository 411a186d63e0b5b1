package netcfg

import (
	"errors"
	"io/fs"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Flag and environment-variable names, generalizing the demonstration
// binary's ad hoc flag.StringVar + os.Getenv overrides (as in the
// teacher's cmd/sam-bridge/main.go) into a single layered viper source:
// flags take precedence, then environment variables (NETMUX_ prefix),
// then an optional config file, then the compiled-in defaults.
const (
	keyHost                   = "host"
	keyPort                   = "port"
	keyDebug                  = "debug"
	keyKeepAliveIdle          = "keepalive-idle"
	keyConnectTimeout         = "connect-timeout"
	keyMaxFrameLength         = "max-frame-length"
	keyDatagramEgressCapacity = "datagram-egress-capacity"
)

// Loader layers flags, environment variables, and an optional config
// file into a Config, via viper.
type Loader struct {
	v     *viper.Viper
	flags *pflag.FlagSet
}

// NewLoader creates a Loader with the endpoint's flags registered on its
// own FlagSet (the caller parses os.Args and calls Load).
func NewLoader() *Loader {
	fs := pflag.NewFlagSet("netmux", pflag.ContinueOnError)
	fs.String(keyHost, DefaultHost, "bind address shared by both transports")
	fs.Int(keyPort, DefaultPort, "bind port shared by both transports (0 = ephemeral)")
	fs.Bool(keyDebug, false, "enable debug logging")
	fs.Duration(keyKeepAliveIdle, DefaultKeepAliveIdle, "stream keep-alive probe idle time")
	fs.Duration(keyConnectTimeout, DefaultConnectTimeout, "outbound stream connect timeout")
	fs.Int(keyMaxFrameLength, DefaultMaxFrameLength, "maximum accepted stream frame body length")
	fs.Int(keyDatagramEgressCapacity, DefaultDatagramEgressCapacity, "datagram transport egress buffer size")

	v := viper.New()
	v.SetEnvPrefix("NETMUX")
	v.AutomaticEnv()
	_ = v.BindPFlags(fs)

	return &Loader{v: v, flags: fs}
}

// Flags exposes the underlying FlagSet so callers can call Parse(os.Args[1:]).
func (l *Loader) Flags() *pflag.FlagSet {
	return l.flags
}

// SetConfigFile points the loader at an optional config file (TOML/YAML/
// JSON, detected by extension). A missing file is not an error — flags
// and environment variables still apply.
func (l *Loader) SetConfigFile(path string) {
	l.v.SetConfigFile(path)
}

// Load reads the layered configuration into a Config and validates it.
func (l *Loader) Load() (*Config, error) {
	if l.v.ConfigFileUsed() != "" {
		if err := l.v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{
		Host: l.v.GetString(keyHost),
		Port: l.v.GetInt(keyPort),
		Timeouts: Timeouts{
			Connect:       l.v.GetDuration(keyConnectTimeout),
			KeepAliveIdle: l.v.GetDuration(keyKeepAliveIdle),
		},
		Limits: Limits{
			MaxFrameLength:         l.v.GetInt(keyMaxFrameLength),
			DatagramEgressCapacity: l.v.GetInt(keyDatagramEgressCapacity),
			PeerCacheSize:          DefaultPeerCacheSize,
		},
		Debug: l.v.GetBool(keyDebug),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WatchForChanges enables viper's config-file watch (backed by
// fsnotify), invoking onChange with the freshly reloaded Config whenever
// the underlying file changes. Only process-bootstrap knobs — log level
// and keep-alive/limit tuning — are reloadable this way; the host
// command/event contract is unaffected.
func (l *Loader) WatchForChanges(log *logrus.Logger, onChange func(*Config)) {
	l.v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := l.Load()
		if err != nil {
			log.WithError(err).Warn("netcfg: reload failed, keeping previous configuration")
			return
		}
		onChange(cfg)
	})
	l.v.WatchConfig()
}
