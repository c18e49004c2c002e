package amqplog

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// envPrefix is the prefix for broker connection environment variables,
// e.g. RABBITMQ_HOST.
const envPrefix = "RABBITMQ_"

// Flags holds CLI flag names for handler configuration, allowing callers to
// customize flag names while keeping sensible defaults via [NewConfig].
type Flags struct {
	Service string
	Queue   string
	Level   string
}

// NewConfig creates a new [Config] embedding these flag names.
func (f Flags) NewConfig() *Config {
	return &Config{
		Host:     "localhost",
		Port:     5672,
		Username: "guest",
		Password: "guest",
		Queue:    QueueLogs,
		Level:    LevelInfo,
		Flags:    f,
	}
}

// Config holds the connection and routing configuration for a handler.
//
// Broker fields (Host, Port, Username, Password) are normally populated from
// RABBITMQ_* environment variables via [Config.LoadEnv]; the remaining fields
// identify the producing service and select the default destination queue.
// Configuration is fixed once a handler is constructed from it.
type Config struct {
	// Host is the broker host, from RABBITMQ_HOST.
	Host string `koanf:"host" validate:"required"`
	// Port is the broker port, from RABBITMQ_PORT.
	Port int `koanf:"port" validate:"required,min=1,max=65535"`
	// Username authenticates the connection, from RABBITMQ_USERNAME.
	Username string `koanf:"username" validate:"required"`
	// Password authenticates the connection, from RABBITMQ_PASSWORD.
	Password string `koanf:"password"`

	// Service names the service producing the logs.
	Service string `koanf:"-" validate:"required"`
	// Queue is the default destination queue.
	Queue Queue `koanf:"-" validate:"required"`
	// Level is the minimum severity a record must have to be published.
	Level Level `koanf:"-" validate:"required"`

	Flags Flags `koanf:"-" validate:"-"`
}

// NewConfig returns a new [Config] with broker and routing defaults
// (localhost:5672, guest/guest, the logs queue, info level).
// Use [Config.LoadEnv] to overlay environment variables and
// [Config.RegisterFlags] to add CLI flags.
func NewConfig() *Config {
	f := Flags{
		Service: "service",
		Queue:   "queue",
		Level:   "level",
	}

	return f.NewConfig()
}

// LoadEnv overlays broker settings from RABBITMQ_* environment variables.
// Unset variables leave the current values untouched.
func (c *Config) LoadEnv() error {
	k := koanf.New(".")

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil)
	if err != nil {
		return fmt.Errorf("loading environment: %w", err)
	}

	if err := k.Unmarshal("", c); err != nil {
		return fmt.Errorf("unmarshaling environment: %w", err)
	}

	return nil
}

// Validate checks that c is complete enough to construct a handler.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if _, err := ParseLevel(string(c.Level)); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}

// URL builds the amqp connection URL for c.
func (c *Config) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", c.Username, c.Password, c.Host, c.Port)
}

// RegisterFlags adds routing flags to the given [*pflag.FlagSet]. Broker
// connection settings intentionally stay environment-only.
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.StringVar(&c.Service, c.Flags.Service, c.Service,
		"name of the service producing the logs")
	flags.StringVar((*string)(&c.Queue), c.Flags.Queue, string(c.Queue),
		fmt.Sprintf("default destination queue, e.g. one of: %s", AllQueueStrings()))
	flags.StringVar((*string)(&c.Level), c.Flags.Level, string(c.Level),
		fmt.Sprintf("minimum severity to publish, one of: %s", AllLevelStrings()))
}

// RegisterCompletions registers shell completions for config flags on cmd.
func (c *Config) RegisterCompletions(cmd *cobra.Command) error {
	err := cmd.RegisterFlagCompletionFunc(c.Flags.Queue,
		cobra.FixedCompletions(completions(AllQueueStrings()), cobra.ShellCompDirectiveNoFileComp))
	if err != nil {
		return fmt.Errorf("registering %s completion: %w", c.Flags.Queue, err)
	}

	err = cmd.RegisterFlagCompletionFunc(c.Flags.Level,
		cobra.FixedCompletions(completions(AllLevelStrings()), cobra.ShellCompDirectiveNoFileComp))
	if err != nil {
		return fmt.Errorf("registering %s completion: %w", c.Flags.Level, err)
	}

	return nil
}

func completions(values []string) []cobra.Completion {
	out := make([]cobra.Completion, len(values))
	for i, v := range values {
		out[i] = cobra.Completion(v)
	}

	return out
}
