package bot

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"#5865F2", 0x5865F2, false},
		{"0x5865f2", 0x5865F2, false},
		{"16711680", 0xFF0000, false},
		{"#GGGGGG", 0, true},
		{"#1000000", 0, true},
		{"-5", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("BOT_COLOR", "#00FF00")
	t.Setenv("ERROR_LOGS", "123456789012345678")
	t.Setenv("SHARD_COUNT", "4")
	t.Setenv("SHARD_ID", "2")
	t.Setenv("COMMAND_PREFIX", "")
	t.Setenv("OWNER_IDS", "111, 222,")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "token", cfg.Token)
	assert.Equal(t, 0x00FF00, cfg.Color)
	assert.Equal(t, "123456789012345678", cfg.ErrorLogs)
	assert.Equal(t, ".", cfg.Prefix)
	assert.Equal(t, "data.db", cfg.SQLitePath)
	assert.Equal(t, 4, cfg.ShardCount)
	assert.Equal(t, 2, cfg.ShardID)
	assert.Equal(t, []string{"111", "222"}, cfg.OwnerIDs)
}

func TestLoadConfig_BadChannel(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GUILD_LOGS", "#general")
	_, err := LoadConfig()
	assert.ErrorContains(t, err, "GUILD_LOGS")
}

func TestTheme(t *testing.T) {
	theme := NewTheme(0x123456)

	e := theme.Embed(&discordgo.MessageEmbed{Title: "Hi"})
	assert.Equal(t, 0x123456, e.Color)
	require.NotNil(t, e.Footer)
	assert.Equal(t, DefaultFooter, e.Footer.Text)

	e = theme.Embed(&discordgo.MessageEmbed{Color: ColorGreen})
	assert.Equal(t, ColorGreen, e.Color)

	e = theme.ErrorEmbed(nil)
	assert.Equal(t, ColorRed, e.Color)

	e = theme.Describe("body")
	assert.Equal(t, "body", e.Description)
	assert.Equal(t, 0x123456, e.Color)
}

func TestDBSchema_NoDatabase(t *testing.T) {
	_, err := (&Bot{}).DBSchema(context.Background())
	assert.ErrorIs(t, err, ErrNoDatabase)
}

func sqliteBot(t *testing.T) *Bot {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.db")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	b := &Bot{Config: Config{SQLitePath: path}, Log: zerolog.Nop()}
	require.NoError(t, b.OpenDatabase())
	t.Cleanup(func() { b.Db.Close() })
	require.Equal(t, DriverSQLite, b.Driver)
	return b
}

func TestOpenDatabase_MissingSQLiteFile(t *testing.T) {
	b := &Bot{Config: Config{SQLitePath: filepath.Join(t.TempDir(), "data.db")}, Log: zerolog.Nop()}
	require.NoError(t, b.OpenDatabase())
	assert.Nil(t, b.Db)
}

func TestDBSchema_SQLite(t *testing.T) {
	ctx := context.Background()
	b := sqliteBot(t)
	_, err := b.Db.Exec(`
		CREATE TABLE users (user_id TEXT PRIMARY KEY, balance INTEGER DEFAULT 0);
		CREATE TABLE prefixes (guild_id TEXT PRIMARY KEY, prefix TEXT NOT NULL);
	`)
	require.NoError(t, err)

	all, err := b.DBSchema(ctx)
	require.NoError(t, err)
	assert.Contains(t, all, "```sql\n")
	assert.Contains(t, all, "CREATE TABLE users")
	assert.Contains(t, all, "CREATE TABLE prefixes")
	assert.NotContains(t, all, "sqlite_autoindex")

	one, err := b.DBSchema(ctx, "prefixes")
	require.NoError(t, err)
	assert.Contains(t, one, "CREATE TABLE prefixes")
	assert.NotContains(t, one, "CREATE TABLE users")
}

func TestFormatCreateTable(t *testing.T) {
	def := "0"
	got := formatCreateTable("users", []pgColumn{
		{name: "user_id", dataType: "text", nullable: "NO"},
		{name: "balance", dataType: "integer", nullable: "YES", def: &def},
	})
	assert.Equal(t, "CREATE TABLE users (\n    user_id TEXT NOT NULL,\n    balance INTEGER DEFAULT 0\n);", got)
}
