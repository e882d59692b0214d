// Package config loads counter-logger settings.
//
// Values come from built-in defaults, then an optional YAML file given by
// --config, then command-line flags. A flag only overrides the file when it
// was set explicitly on the command line.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/sweeney/counter-logger/internal/gpio"
	"github.com/sweeney/counter-logger/internal/scpi"
)

// Config is the complete daemon configuration.
type Config struct {
	// Instrument is the instrument host, optionally with a port.
	Instrument string `yaml:"instrument"`
	// Port is used when Instrument carries no port.
	Port int `yaml:"port"`
	// Timeout bounds connect and every query.
	Timeout time.Duration `yaml:"timeout"`

	// Window is the interval length.
	Window time.Duration `yaml:"interval"`
	// SamplePeriod is the time between counter reads.
	SamplePeriod time.Duration `yaml:"sample"`

	// Output is the CSV log path.
	Output string `yaml:"output"`

	// HTTPAddr is the status server address (empty disables).
	HTTPAddr string `yaml:"http"`
	// Broker is the MQTT broker URL (empty disables).
	Broker string `yaml:"broker"`
	// ClientID is the MQTT client identifier.
	ClientID string `yaml:"client_id"`
	// LEDPin is the BCM pin of the health LED (-1 disables).
	LEDPin int `yaml:"led_pin"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Instrument:   "172.29.9.197",
		Port:         scpi.DefaultPort,
		Timeout:      3 * time.Second,
		Window:       60 * time.Second,
		SamplePeriod: time.Second,
		Output:       "events_log.csv",
		ClientID:     "counter-logger",
		LEDPin:       gpio.DefaultPinLED,
	}
}

// Address returns the instrument's host:port.
func (c Config) Address() string {
	return scpi.Address(c.Instrument, c.Port)
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.Instrument == "":
		return errors.New("instrument address is required")
	case c.Window <= 0:
		return fmt.Errorf("interval must be positive, got %v", c.Window)
	case c.SamplePeriod <= 0:
		return fmt.Errorf("sample period must be positive, got %v", c.SamplePeriod)
	case c.Timeout <= 0:
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	case c.Output == "":
		return errors.New("output path is required")
	case c.Port < 0 || c.Port > 65535:
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	return nil
}

// LoadFile overlays the YAML file at path onto c. Durations accept Go
// duration strings ("90s", "2m").
func (c *Config) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return c.decode(f, path)
}

func (c *Config) decode(r io.Reader, name string) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

// flagValues holds raw flag targets. Window and sample period are given in
// seconds on the command line.
type flagValues struct {
	configPath string
	window     int
	sample     float64
	cfg        Config
}

// Parse builds a Config from defaults, the optional --config file and args
// (without the program name). It returns pflag.ErrHelp for -h/--help.
func Parse(name string, args []string, stderr io.Writer) (Config, error) {
	def := Default()
	fv := flagValues{cfg: def}

	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&fv.configPath, "config", "", "YAML config file")
	fs.IntVarP(&fv.window, "interval", "i", int(def.Window/time.Second), "Time interval in seconds")
	fs.Float64VarP(&fv.sample, "sample", "s", def.SamplePeriod.Seconds(), "Sample period in seconds")
	fs.StringVarP(&fv.cfg.Output, "output", "o", def.Output, "Output CSV filename")
	fs.StringVar(&fv.cfg.Instrument, "ip", def.Instrument, "Instrument IP address or host[:port]")
	fs.IntVar(&fv.cfg.Port, "port", def.Port, "Instrument SCPI port")
	fs.DurationVar(&fv.cfg.Timeout, "timeout", def.Timeout, "Connect and query timeout")
	fs.StringVar(&fv.cfg.HTTPAddr, "http", def.HTTPAddr, "HTTP status address (empty to disable)")
	fs.StringVar(&fv.cfg.Broker, "broker", def.Broker, "MQTT broker URL, e.g. tcp://host:1883 (empty to disable)")
	fs.StringVar(&fv.cfg.ClientID, "client-id", def.ClientID, "MQTT client ID")
	fs.IntVar(&fv.cfg.LEDPin, "led-pin", def.LEDPin, "BCM pin for the health LED (-1 to disable)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := def
	if fv.configPath != "" {
		if err := cfg.LoadFile(fv.configPath); err != nil {
			return Config{}, err
		}
	}

	// Explicit flags win over the file.
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "interval":
			cfg.Window = time.Duration(fv.window) * time.Second
		case "sample":
			cfg.SamplePeriod = time.Duration(fv.sample * float64(time.Second))
		case "output":
			cfg.Output = fv.cfg.Output
		case "ip":
			cfg.Instrument = fv.cfg.Instrument
		case "port":
			cfg.Port = fv.cfg.Port
		case "timeout":
			cfg.Timeout = fv.cfg.Timeout
		case "http":
			cfg.HTTPAddr = fv.cfg.HTTPAddr
		case "broker":
			cfg.Broker = fv.cfg.Broker
		case "client-id":
			cfg.ClientID = fv.cfg.ClientID
		case "led-pin":
			cfg.LEDPin = fv.cfg.LEDPin
		}
	})

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
