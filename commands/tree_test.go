package commands

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Path string
	Body map[string]any
}

// recordingTransport answers every Discord REST call with a stub message and
// remembers the calls.
type recordingTransport struct {
	mu   sync.Mutex
	reqs []recordedRequest
}

func (rt *recordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rec := recordedRequest{Path: req.URL.Path}
	if req.Body != nil {
		raw, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &rec.Body); err != nil {
				return nil, err
			}
		}
	}

	rt.mu.Lock()
	rt.reqs = append(rt.reqs, rec)
	rt.mu.Unlock()

	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": {"application/json"}},
		Body:       io.NopCloser(strings.NewReader(`{"id":"900","channel_id":"c1"}`)),
		Request:    req,
	}, nil
}

func (rt *recordingTransport) requests() []recordedRequest {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return append([]recordedRequest(nil), rt.reqs...)
}

func recordingSession(t *testing.T) (*discordgo.Session, *recordingTransport) {
	t.Helper()
	s, err := discordgo.New("Bot test")
	require.NoError(t, err)
	rt := &recordingTransport{}
	s.Client = &http.Client{Transport: rt}
	return s, rt
}

func slashInvocation(name string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:        "i1",
		AppID:     "a1",
		Token:     "tok",
		Type:      discordgo.InteractionApplicationCommand,
		ChannelID: "c1",
		GuildID:   "g1",
		Member:    &discordgo.Member{User: &discordgo.User{ID: "7", Username: "clari", Discriminator: "0"}},
		Data: discordgo.ApplicationCommandInteractionData{
			Name:        name,
			CommandType: discordgo.ChatApplicationCommand,
		},
	}}
}

func TestTreeHandleInteraction_Failure(t *testing.T) {
	const (
		callback = "/api/v9/interactions/i1/tok/callback"
		followup = "/api/v9/webhooks/a1/tok"
		errorLog = "/api/v9/channels/555/messages"
	)
	ephemeral := float64(discordgo.MessageFlagsEphemeral)

	tests := []struct {
		name      string
		deferred  bool
		errorLogs string
		want      []recordedRequest
	}{
		{
			name:      "deferred",
			deferred:  true,
			errorLogs: "555",
			want: []recordedRequest{
				{Path: callback, Body: map[string]any{
					"type": float64(discordgo.InteractionResponseDeferredChannelMessageWithSource),
					"data": map[string]any{"flags": ephemeral},
				}},
				{Path: followup, Body: map[string]any{"content": "An error occurred."}},
				{Path: followup, Body: map[string]any{"content": "kaboom", "flags": ephemeral}},
				{Path: errorLog},
			},
		},
		{
			name:      "not deferred",
			errorLogs: "555",
			want: []recordedRequest{
				{Path: callback, Body: map[string]any{
					"type": float64(discordgo.InteractionResponseChannelMessageWithSource),
					"data": map[string]any{"content": "An error occurred."},
				}},
				{Path: followup, Body: map[string]any{"content": "kaboom", "flags": ephemeral}},
				{Path: errorLog},
			},
		},
		{
			name:      "error log disabled",
			deferred:  true,
			errorLogs: "0",
			want: []recordedRequest{
				{Path: callback},
				{Path: followup, Body: map[string]any{"content": "An error occurred."}},
				{Path: followup, Body: map[string]any{"content": "kaboom", "flags": ephemeral}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testBot()
			b.Config.ErrorLogs = tt.errorLogs
			tree := NewTree(b)
			require.NoError(t, tree.Add(&SlashCommand{
				Command: &discordgo.ApplicationCommand{Name: "boom"},
				Handler: func(*Interaction) error { return errors.New("kaboom") },
				Defer:   tt.deferred,
			}))
			s, rt := recordingSession(t)

			tree.HandleInteraction(s, slashInvocation("boom"))

			reqs := rt.requests()
			require.Len(t, reqs, len(tt.want))
			for i, want := range tt.want {
				assert.Equal(t, want.Path, reqs[i].Path, "request %d", i)
				for key, value := range want.Body {
					got := reqs[i].Body[key]
					if nested, ok := value.(map[string]any); ok {
						gotMap, ok := got.(map[string]any)
						require.True(t, ok, "request %d %s", i, key)
						for k, v := range nested {
							assert.Equal(t, v, gotMap[k], "request %d %s.%s", i, key, k)
						}
						continue
					}
					assert.Equal(t, value, got, "request %d %s", i, key)
				}
			}

			// only the ephemeral error carries the flag
			for _, r := range reqs {
				if r.Path == followup && r.Body["content"] == "An error occurred." {
					assert.NotContains(t, r.Body, "flags")
				}
			}

			last := reqs[len(reqs)-1]
			if last.Path == errorLog {
				content, _ := last.Body["content"].(string)
				assert.True(t, strings.HasPrefix(content, "clari ran boom in <#c1> (`g1`)\nNamespace()```go\n"), content)
				assert.True(t, strings.HasSuffix(content, "*errors.errorString: kaboom```"), content)
			}
		})
	}
}

func TestTreeHandleInteraction_Success(t *testing.T) {
	tree := NewTree(testBot())
	ran := false
	require.NoError(t, tree.Add(&SlashCommand{
		Command: &discordgo.ApplicationCommand{Name: "ping"},
		Handler: func(it *Interaction) error {
			ran = true
			return it.Send("pong", false)
		},
	}))
	s, rt := recordingSession(t)

	tree.HandleInteraction(s, slashInvocation("unknown"))
	assert.Empty(t, rt.requests())

	tree.HandleInteraction(s, slashInvocation("ping"))
	assert.True(t, ran)
	reqs := rt.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/api/v9/interactions/i1/tok/callback", reqs[0].Path)
}

type settingsCog struct {
	ran []string
}

func (c *settingsCog) Name() string { return "Settings" }

func (c *settingsCog) Group() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Description: "Server settings"}
}

func (c *settingsCog) Load(reg *Registry) error {
	for _, name := range []string{"show", "reset"} {
		err := reg.AddSlashCommand(&SlashCommand{
			Command: &discordgo.ApplicationCommand{Name: name, Description: "Settings " + name},
			Handler: func(it *Interaction) error {
				c.ran = append(c.ran, TranslationKey(it.Command, "reply"))
				return it.Send(name, true)
			},
			Defer: name == "reset",
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func subcommandInvocation(group, sub string) *discordgo.InteractionCreate {
	i := slashInvocation(group)
	i.Data = discordgo.ApplicationCommandInteractionData{
		Name:        group,
		CommandType: discordgo.ChatApplicationCommand,
		Options: []*discordgo.ApplicationCommandInteractionDataOption{
			{Name: sub, Type: discordgo.ApplicationCommandOptionSubCommand},
		},
	}
	return i
}

func TestGroupCog(t *testing.T) {
	reg := NewRegistry(testBot())
	cog := &settingsCog{}
	require.NoError(t, reg.Load(cog))

	_, ok := reg.Tree.Get("show")
	assert.False(t, ok, "subcommands are not top-level commands")
	parent, ok := reg.Tree.Get("settings")
	require.True(t, ok)
	assert.Equal(t, "settings", parent.Module)
	assert.Equal(t, "Server settings", parent.Command.Description)
	require.Len(t, parent.Command.Options, 2)
	assert.Equal(t, "show", parent.Command.Options[0].Name)
	assert.Equal(t, discordgo.ApplicationCommandOptionSubCommand, parent.Command.Options[0].Type)

	s, rt := recordingSession(t)
	reg.Tree.HandleInteraction(s, subcommandInvocation("settings", "show"))
	reg.Tree.HandleInteraction(s, subcommandInvocation("settings", "reset"))
	assert.Equal(t, []string{"settings.show.reply", "settings.reset.reply"}, cog.ran)

	reqs := rt.requests()
	require.Len(t, reqs, 3)
	// show answers directly, reset is deferred first and then follows up
	assert.Equal(t, float64(discordgo.InteractionResponseChannelMessageWithSource), reqs[0].Body["type"])
	assert.Equal(t, float64(discordgo.InteractionResponseDeferredChannelMessageWithSource), reqs[1].Body["type"])
	assert.Equal(t, "/api/v9/webhooks/a1/tok", reqs[2].Path)
	assert.Equal(t, "reset", reqs[2].Body["content"])
}

func TestGroupCog_UnknownSubcommand(t *testing.T) {
	reg := NewRegistry(testBot())
	require.NoError(t, reg.Load(&settingsCog{}))
	s, rt := recordingSession(t)

	reg.Tree.HandleInteraction(s, subcommandInvocation("settings", "delete"))

	reqs := rt.requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "unknown subcommand of /settings", reqs[1].Body["content"])
}
