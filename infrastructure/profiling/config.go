// Package profiling starts the optional pprof side server and Pyroscope
// continuous profiling.
package profiling

// Config gates both profilers. Both are off unless enabled.
type Config struct {
	Pprof        bool   `env:"ENABLE_PROFILING"            yaml:"pprof"`
	PprofPort    string `env:"PPROF_PORT"                  yaml:"pprof_port"`
	Pyroscope    bool   `env:"ENABLE_CONTINUOUS_PROFILING" yaml:"pyroscope"`
	PyroscopeURL string `env:"PYROSCOPE_SERVER_URL"        yaml:"pyroscope_url"`
}

// SetDefaults fills the port and server address.
func (c *Config) SetDefaults() {
	if c.PprofPort == "" {
		c.PprofPort = "6060"
	}
	if c.PyroscopeURL == "" {
		c.PyroscopeURL = "http://pyroscope:4040"
	}
}
