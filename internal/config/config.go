package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DiscordToken  string         `yaml:"discord_token"`
	GuildID       string         `yaml:"guild_id"`
	DatabasePath  string         `yaml:"database_path"`
	LogLevel      string         `yaml:"log_level"`
	Debug         bool           `yaml:"debug"`
	RetentionDays int            `yaml:"retention_days"`
	Health        HealthConfig   `yaml:"health"`
	ModLog        ModLogConfig   `yaml:"modlog"`
	AntiSpam      AntiSpamConfig `yaml:"antispam"`
}

type HealthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type ModLogConfig struct {
	ChannelID       string `yaml:"channel_id"`
	PingEveryone    bool   `yaml:"ping_everyone"`
	ArtifactBaseURL string `yaml:"artifact_base_url"`
}

type AntiSpamConfig struct {
	CleanOffending       bool             `yaml:"clean_offending"`
	ExemptChannels       []string         `yaml:"exempt_channels"`
	ExemptRoles          []string         `yaml:"exempt_roles"`
	SharedExemptChannels []string         `yaml:"shared_exempt_channels"`
	LinkAllowDomains     []string         `yaml:"link_allow_domains"`
	Punishment           PunishmentConfig `yaml:"punishment"`
	Rules                []RuleConfig     `yaml:"rules"`
}

type PunishmentConfig struct {
	RoleID             string `yaml:"role_id"`
	RemoveAfterSeconds int    `yaml:"remove_after"`
}

// RuleConfig is one entry of antispam.rules. The list order is the
// evaluation order.
type RuleConfig struct {
	Name            string `yaml:"name"`
	IntervalSeconds int    `yaml:"interval"`
	Max             int    `yaml:"max"`
	MaxConsecutive  int    `yaml:"max_consecutive"`
}

func (r RuleConfig) Interval() time.Duration {
	return time.Duration(r.IntervalSeconds) * time.Second
}

func (p PunishmentConfig) RemoveAfter() time.Duration {
	return time.Duration(p.RemoveAfterSeconds) * time.Second
}

func DefaultConfig() Config {
	return Config{
		DatabasePath:  "/data/warden.db",
		LogLevel:      "info",
		RetentionDays: 14,
		Health:        HealthConfig{Enabled: false, Addr: ":8080"},
		AntiSpam: AntiSpamConfig{
			CleanOffending: true,
			Punishment:     PunishmentConfig{RemoveAfterSeconds: 600},
			Rules: []RuleConfig{
				{Name: "burst", IntervalSeconds: 10, Max: 7},
				{Name: "duplicates", IntervalSeconds: 10, Max: 3},
				{Name: "attachments", IntervalSeconds: 10, Max: 9},
				{Name: "links", IntervalSeconds: 10, Max: 10},
				{Name: "mentions", IntervalSeconds: 10, Max: 5},
				{Name: "role_mentions", IntervalSeconds: 10, Max: 3},
				{Name: "discord_emojis", IntervalSeconds: 10, Max: 20},
				{Name: "newlines", IntervalSeconds: 10, Max: 100, MaxConsecutive: 10},
				{Name: "chars", IntervalSeconds: 5, Max: 3000},
				{Name: "burst_shared", IntervalSeconds: 10, Max: 20},
			},
		},
	}
}

func Load() (Config, error) {
	cfg := DefaultConfig()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	if cfg.DiscordToken == "" {
		return Config{}, errors.New("DISCORD_TOKEN is required")
	}
	if cfg.GuildID == "" {
		return Config{}, errors.New("GUILD_ID is required")
	}
	if err := validateAntiSpam(cfg.AntiSpam); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// validateAntiSpam checks config shape only. Rule names are validated
// against the registry at bot construction.
func validateAntiSpam(cfg AntiSpamConfig) error {
	if len(cfg.Rules) == 0 {
		return errors.New("antispam.rules must not be empty")
	}
	seen := make(map[string]struct{}, len(cfg.Rules))
	for _, rule := range cfg.Rules {
		if rule.Name == "" {
			return errors.New("antispam rule with empty name")
		}
		if _, ok := seen[rule.Name]; ok {
			return fmt.Errorf("antispam rule %q configured twice", rule.Name)
		}
		seen[rule.Name] = struct{}{}
		if rule.IntervalSeconds <= 0 {
			return fmt.Errorf("antispam rule %q: interval must be positive", rule.Name)
		}
		if rule.Max <= 0 {
			return fmt.Errorf("antispam rule %q: max must be positive", rule.Name)
		}
	}
	if cfg.Punishment.RoleID == "" {
		return errors.New("antispam.punishment.role_id is required")
	}
	if cfg.Punishment.RemoveAfterSeconds <= 0 {
		return errors.New("antispam.punishment.remove_after must be positive")
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.DiscordToken = envString("DISCORD_TOKEN", cfg.DiscordToken)
	cfg.GuildID = envString("GUILD_ID", cfg.GuildID)
	cfg.DatabasePath = envString("DATABASE_PATH", cfg.DatabasePath)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.Debug = envBool("DEBUG", cfg.Debug)
	cfg.RetentionDays = envInt("RETENTION_DAYS", cfg.RetentionDays)
	cfg.Health.Enabled = envBool("HEALTH_ENABLED", cfg.Health.Enabled)
	cfg.Health.Addr = envString("HEALTH_ADDR", cfg.Health.Addr)
	cfg.ModLog.ChannelID = envString("MODLOG_CHANNEL_ID", cfg.ModLog.ChannelID)
	cfg.ModLog.PingEveryone = envBool("MODLOG_PING_EVERYONE", cfg.ModLog.PingEveryone)
	cfg.ModLog.ArtifactBaseURL = envString("MODLOG_ARTIFACT_BASE_URL", cfg.ModLog.ArtifactBaseURL)
	cfg.AntiSpam.CleanOffending = envBool("ANTISPAM_CLEAN_OFFENDING", cfg.AntiSpam.CleanOffending)
	cfg.AntiSpam.Punishment.RoleID = envString("ANTISPAM_MUTED_ROLE_ID", cfg.AntiSpam.Punishment.RoleID)
	cfg.AntiSpam.Punishment.RemoveAfterSeconds = envInt("ANTISPAM_REMOVE_AFTER_SECONDS", cfg.AntiSpam.Punishment.RemoveAfterSeconds)
}

func BuildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	lvl := strings.ToLower(level)
	switch lvl {
	case "debug", "info", "warn", "error":
		cfg.Level = zap.NewAtomicLevelAt(parseLevel(lvl))
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	return cfg.Build()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		lower := strings.ToLower(value)
		return lower == "1" || lower == "true" || lower == "yes"
	}
	return fallback
}
