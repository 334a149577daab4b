package config

const (
	defaultDataDir       = "~/.local/share/reviewd/data"
	defaultLogDir        = "~/.local/share/reviewd/logs"
	defaultAPIBind       = "127.0.0.1:7910"
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
	defaultSweepInterval = 300
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Sweep: Sweep{
			Interval: defaultSweepInterval,
			OnStart:  false,
		},
	}
}
