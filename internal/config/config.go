package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/teemow/voicedesk/internal/google"
	"github.com/teemow/voicedesk/internal/logging"
	"github.com/teemow/voicedesk/internal/scheduling"
)

// Keys shared by flags, environment variables and the config file.
const (
	KeyConfigFile     = "config"
	KeyAddr           = "addr"
	KeyMetricsAddr    = "metrics-addr"
	KeyMetrics        = "metrics"
	KeyDebug          = "debug"
	KeyLogFormat      = "log-format"
	KeyLogLevel       = "log-level"
	KeySigningSecret  = "retell-signing-secret"
	KeyClientID       = "google-client-id"
	KeyClientSecret   = "google-client-secret"
	KeyRefreshToken   = "google-refresh-token"
	KeyCalendarID     = "calendar-id"
	KeyCompany        = "company-name"
	KeySummaryPrefix  = "event-summary-prefix"
	KeyTimezone       = "business-timezone"
	KeyOpen           = "business-open"
	KeyClose          = "business-close"
	KeyClosedDays     = "business-closed-days"
	KeyHorizonDays    = "search-horizon-days"
	KeyDefaultMinutes = "default-duration-mins"
	KeyMaxMinutes     = "max-duration-mins"
	KeyKnowledgeFile  = "knowledge-file"
	KeySessionTTL     = "session-ttl"
	KeySweepInterval  = "sweep-interval"
	KeyToolTimeout    = "tool-timeout"
	KeyRateLimit      = "rate-limit"
	KeyRateBurst      = "rate-burst"
	KeyShutdownWait   = "shutdown-timeout"
)

var defaults = map[string]any{
	KeyAddr:           ":8080",
	KeyMetricsAddr:    ":9090",
	KeyMetrics:        true,
	KeyDebug:          false,
	KeyLogFormat:      logging.FormatJSON,
	KeyLogLevel:       "info",
	KeyCalendarID:     "primary",
	KeyCompany:        "Woodland HVAC Services",
	KeySummaryPrefix:  "HVAC Service",
	KeyTimezone:       "America/Los_Angeles",
	KeyOpen:           "09:00",
	KeyClose:          "17:00",
	KeyClosedDays:     []string{"sunday"},
	KeyHorizonDays:    scheduling.DefaultHorizonDays,
	KeyDefaultMinutes: 120,
	KeyMaxMinutes:     480,
	KeySessionTTL:     time.Hour,
	KeySweepInterval:  time.Hour,
	KeyToolTimeout:    10 * time.Second,
	KeyRateLimit:      20.0,
	KeyRateBurst:      40,
	KeyShutdownWait:   30 * time.Second,
}

// Business holds the receptionist's business settings.
type Business struct {
	Company       string
	SummaryPrefix string
	Timezone      string
	Open          string
	Close         string
	ClosedDays    []string
	HorizonDays   int

	DefaultDuration time.Duration
	MaxDuration     time.Duration
}

// Config is the validated runtime configuration.
type Config struct {
	Addr           string
	MetricsAddr    string
	MetricsEnabled bool
	Debug          bool
	LogFormat      string
	LogLevel       string

	// SigningSecret may be empty; the webhook then rejects every delivery.
	SigningSecret string

	Google     google.Credentials
	CalendarID string
	Business   Business

	// KnowledgeFile replaces the embedded FAQ when set.
	KnowledgeFile string

	SessionTTL      time.Duration
	SweepInterval   time.Duration
	ToolTimeout     time.Duration
	RateLimit       float64
	RateBurst       int
	ShutdownTimeout time.Duration

	hours scheduling.ServiceHours
	level slog.Level
}

// RegisterFlags defines every configuration flag on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(KeyConfigFile, "", "Path to a YAML config file")
	fs.String(KeyAddr, defaults[KeyAddr].(string), "Webhook listen address")
	fs.String(KeyMetricsAddr, defaults[KeyMetricsAddr].(string), "Prometheus metrics listen address")
	fs.Bool(KeyMetrics, defaults[KeyMetrics].(bool), "Serve Prometheus metrics on --metrics-addr")
	fs.Bool(KeyDebug, false, "Enable debug logging with the text handler")
	fs.String(KeyLogFormat, defaults[KeyLogFormat].(string), "Log format: json or text")
	fs.String(KeyLogLevel, defaults[KeyLogLevel].(string), "Log level: debug, info, warn or error")
	fs.String(KeyCalendarID, defaults[KeyCalendarID].(string), "Google Calendar to query and book into")
	fs.String(KeyCompany, defaults[KeyCompany].(string), "Business name")
	fs.String(KeySummaryPrefix, defaults[KeySummaryPrefix].(string), "Prefix of booked event titles")
	fs.String(KeyTimezone, defaults[KeyTimezone].(string), "IANA timezone of the business")
	fs.String(KeyOpen, defaults[KeyOpen].(string), "Opening time, HH:MM")
	fs.String(KeyClose, defaults[KeyClose].(string), "Closing time, HH:MM")
	fs.StringSlice(KeyClosedDays, defaults[KeyClosedDays].([]string), "Weekdays without appointments")
	fs.Int(KeyHorizonDays, defaults[KeyHorizonDays].(int), "Days searched for a free slot")
	fs.Int(KeyDefaultMinutes, defaults[KeyDefaultMinutes].(int), "Appointment length when none is requested, in minutes")
	fs.Int(KeyMaxMinutes, defaults[KeyMaxMinutes].(int), "Longest appointment that can be requested, in minutes")
	fs.String(KeyKnowledgeFile, "", "YAML FAQ file replacing the built-in knowledge base")
	fs.Duration(KeySessionTTL, defaults[KeySessionTTL].(time.Duration), "Lifetime of a call session")
	fs.Duration(KeySweepInterval, defaults[KeySweepInterval].(time.Duration), "How often expired sessions are removed")
	fs.Duration(KeyToolTimeout, defaults[KeyToolTimeout].(time.Duration), "Timeout of a single tool call")
	fs.Float64(KeyRateLimit, defaults[KeyRateLimit].(float64), "Webhook requests per second per client, 0 disables")
	fs.Int(KeyRateBurst, defaults[KeyRateBurst].(int), "Webhook burst per client")
	fs.Duration(KeyShutdownWait, defaults[KeyShutdownWait].(time.Duration), "Graceful shutdown timeout")
}

// New returns a viper instance with defaults and environment binding set.
func New() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load layers flags (may be nil) over v, reads the config file if one is
// named, and returns the validated configuration.
func Load(v *viper.Viper, flags *pflag.FlagSet) (Config, error) {
	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("failed to bind flags: %w", err)
		}
	}
	if path := v.GetString(KeyConfigFile); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := Config{
		Addr:           v.GetString(KeyAddr),
		MetricsAddr:    v.GetString(KeyMetricsAddr),
		MetricsEnabled: v.GetBool(KeyMetrics),
		Debug:          v.GetBool(KeyDebug),
		LogFormat:      v.GetString(KeyLogFormat),
		LogLevel:       v.GetString(KeyLogLevel),
		SigningSecret:  v.GetString(KeySigningSecret),
		Google: google.Credentials{
			ClientID:     v.GetString(KeyClientID),
			ClientSecret: v.GetString(KeyClientSecret),
			RefreshToken: v.GetString(KeyRefreshToken),
		},
		CalendarID: v.GetString(KeyCalendarID),
		Business: Business{
			Company:         v.GetString(KeyCompany),
			SummaryPrefix:   v.GetString(KeySummaryPrefix),
			Timezone:        v.GetString(KeyTimezone),
			Open:            v.GetString(KeyOpen),
			Close:           v.GetString(KeyClose),
			ClosedDays:      splitList(v.GetStringSlice(KeyClosedDays)),
			HorizonDays:     v.GetInt(KeyHorizonDays),
			DefaultDuration: time.Duration(v.GetInt(KeyDefaultMinutes)) * time.Minute,
			MaxDuration:     time.Duration(v.GetInt(KeyMaxMinutes)) * time.Minute,
		},
		KnowledgeFile:   v.GetString(KeyKnowledgeFile),
		SessionTTL:      v.GetDuration(KeySessionTTL),
		SweepInterval:   v.GetDuration(KeySweepInterval),
		ToolTimeout:     v.GetDuration(KeyToolTimeout),
		RateLimit:       v.GetFloat64(KeyRateLimit),
		RateBurst:       v.GetInt(KeyRateBurst),
		ShutdownTimeout: v.GetDuration(KeyShutdownWait),
	}
	if cfg.Debug {
		cfg.LogFormat = logging.FormatText
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// splitList accepts both repeated values and a single comma separated
// value, as environment variables provide.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate reports startup-fatal misconfiguration. A missing signing secret
// is not an error.
func (c *Config) Validate() error {
	var errs []error

	hours, err := c.Business.ServiceHours()
	if err != nil {
		errs = append(errs, err)
	}
	c.hours = hours

	if c.Business.DefaultDuration <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", KeyDefaultMinutes))
	}
	if c.Business.MaxDuration < c.Business.DefaultDuration {
		errs = append(errs, fmt.Errorf("%s must be at least %s", KeyMaxMinutes, KeyDefaultMinutes))
	}
	if c.LogFormat != logging.FormatJSON && c.LogFormat != logging.FormatText {
		errs = append(errs, fmt.Errorf("invalid %s %q, must be json or text", KeyLogFormat, c.LogFormat))
	}
	if c.level, err = logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	for key, d := range map[string]time.Duration{
		KeySessionTTL:    c.SessionTTL,
		KeySweepInterval: c.SweepInterval,
		KeyToolTimeout:   c.ToolTimeout,
		KeyShutdownWait:  c.ShutdownTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", key))
		}
	}
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", KeyRateLimit))
	}
	if err := c.Google.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Level returns the validated log level. Call only on a Config returned by
// Load.
func (c Config) Level() slog.Level {
	return c.level
}

// ServiceHours returns the validated scheduling hours. Call only on a
// Config returned by Load.
func (c Config) ServiceHours() scheduling.ServiceHours {
	return c.hours
}

// ServiceHours parses the business settings into scheduling hours.
func (b Business) ServiceHours() (scheduling.ServiceHours, error) {
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return scheduling.ServiceHours{}, fmt.Errorf("invalid %s %q: %w", KeyTimezone, b.Timezone, err)
	}
	open, err := scheduling.ParseClockTime(b.Open)
	if err != nil {
		return scheduling.ServiceHours{}, fmt.Errorf("invalid %s: %w", KeyOpen, err)
	}
	closing, err := scheduling.ParseClockTime(b.Close)
	if err != nil {
		return scheduling.ServiceHours{}, fmt.Errorf("invalid %s: %w", KeyClose, err)
	}
	closed := make([]time.Weekday, 0, len(b.ClosedDays))
	for _, name := range b.ClosedDays {
		d, err := scheduling.ParseWeekday(name)
		if err != nil {
			return scheduling.ServiceHours{}, fmt.Errorf("invalid %s: %w", KeyClosedDays, err)
		}
		closed = append(closed, d)
	}

	hours := scheduling.ServiceHours{
		Location:    loc,
		Open:        open,
		Close:       closing,
		ClosedDays:  closed,
		HorizonDays: b.HorizonDays,
	}
	if err := hours.Validate(); err != nil {
		return scheduling.ServiceHours{}, err
	}
	return hours, nil
}
