package bot

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds everything a bot needs to start. Zero channel IDs disable the
// matching log channel.
type Config struct {
	Token       string
	Prefix      string
	Color       int
	ErrorLogs   string
	GuildLogs   string
	CommandLogs string
	DatabaseURL string
	SQLitePath  string
	LocalesDir  string
	LogLevel    string
	ShardID     int
	ShardCount  int
	OwnerIDs    []string
	// MembersIntent requests the privileged guild members intent.
	MembersIntent bool
}

// LoadConfig reads .env (if present) and then the process environment.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Token:         os.Getenv("DISCORD_TOKEN"),
		Prefix:        envOr("COMMAND_PREFIX", "."),
		ErrorLogs:     os.Getenv("ERROR_LOGS"),
		GuildLogs:     os.Getenv("GUILD_LOGS"),
		CommandLogs:   os.Getenv("COMMAND_LOGS"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		SQLitePath:    envOr("SQLITE_PATH", "data.db"),
		LocalesDir:    os.Getenv("LOCALES_DIR"),
		LogLevel:      envOr("LOG_LEVEL", "info"),
		ShardCount:    1,
		MembersIntent: os.Getenv("MEMBERS_INTENT") == "true",
	}
	for _, id := range strings.Split(os.Getenv("OWNER_IDS"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			cfg.OwnerIDs = append(cfg.OwnerIDs, id)
		}
	}

	var err error
	if v := os.Getenv("BOT_COLOR"); v != "" {
		if cfg.Color, err = ParseColor(v); err != nil {
			return cfg, fmt.Errorf("BOT_COLOR: %w", err)
		}
	}
	if v := os.Getenv("SHARD_ID"); v != "" {
		if cfg.ShardID, err = strconv.Atoi(v); err != nil {
			return cfg, fmt.Errorf("SHARD_ID: %w", err)
		}
	}
	if v := os.Getenv("SHARD_COUNT"); v != "" {
		if cfg.ShardCount, err = strconv.Atoi(v); err != nil {
			return cfg, fmt.Errorf("SHARD_COUNT: %w", err)
		}
	}
	for name, id := range map[string]string{"ERROR_LOGS": cfg.ErrorLogs, "GUILD_LOGS": cfg.GuildLogs, "COMMAND_LOGS": cfg.CommandLogs} {
		if id == "" || id == "0" {
			continue
		}
		if _, err := strconv.ParseUint(id, 10, 64); err != nil {
			return cfg, fmt.Errorf("%s: invalid channel ID %q", name, id)
		}
	}
	return cfg, nil
}

// ParseColor accepts "#5865F2", "0x5865F2" or a decimal integer.
func ParseColor(s string) (int, error) {
	s = strings.TrimSpace(s)
	base := 10
	switch {
	case strings.HasPrefix(s, "#"):
		s, base = s[1:], 16
	case strings.HasPrefix(strings.ToLower(s), "0x"):
		s, base = s[2:], 16
	}
	v, err := strconv.ParseInt(s, base, 32)
	if err != nil || v < 0 || v > 0xFFFFFF {
		return 0, fmt.Errorf("invalid color %q", s)
	}
	return int(v), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
