package paginator

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

// DefaultTimeout is how long a paginator stays navigable after its last use.
const DefaultTimeout = 180 * time.Second

// ErrExpired is returned by Dispatch for paginators that are unknown or idle
// past the manager timeout.
var ErrExpired = errors.New("paginator expired")

type trackedControl struct {
	control  *Control
	lastUsed time.Time
}

// Manager routes component interactions to the paginators it has sent.
type Manager struct {
	states  map[string]*trackedControl // paginator ID -> control
	mu      sync.RWMutex
	timeout time.Duration
	log     zerolog.Logger
	now     func() time.Time
}

// NewManager creates a manager. A non-positive timeout uses DefaultTimeout.
func NewManager(log zerolog.Logger, timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Manager{
		states:  make(map[string]*trackedControl),
		timeout: timeout,
		log:     log,
		now:     time.Now,
	}
}

// Send sends p to dest and tracks its control for navigation.
func (m *Manager) Send(ctx context.Context, p *Paginator, dest Destination) (Message, error) {
	msg, err := p.SendTo(ctx, dest)
	if err != nil {
		return nil, err
	}
	if err := m.Track(p.Control()); err != nil {
		return nil, err
	}
	return msg, nil
}

// Track registers a control sent outside the manager. Paginators that have not
// been sent have no control and are rejected with ErrNotSent.
func (m *Manager) Track(c *Control) error {
	if c == nil {
		return ErrNotSent
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[c.paginator.ID()] = &trackedControl{control: c, lastUsed: m.now()}
	return nil
}

// Get retrieves a live control by paginator ID.
func (m *Manager) Get(id string) (*Control, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, exists := m.states[id]
	if !exists || m.now().Sub(state.lastUsed) > m.timeout {
		return nil, false
	}
	return state.control, true
}

// Remove stops tracking the paginator with the given ID.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, id)
}

func (m *Manager) touch(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state, ok := m.states[id]; ok {
		state.lastUsed = m.now()
	}
}

// Sweep drops every expired paginator and reports how many were removed.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, state := range m.states {
		if m.now().Sub(state.lastUsed) > m.timeout {
			delete(m.states, id)
			removed++
		}
	}
	return removed
}

// Len is the number of tracked paginators, expired or not.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.states)
}

// Dispatch resolves a component custom ID (and select values, for GoTo) to a
// navigation and performs it. handled is false when the custom ID does not
// belong to a paginator.
func (m *Manager) Dispatch(ctx context.Context, customID string, values []string) (handled bool, err error) {
	id, rel, ok := ParseCustomID(customID)
	if !ok {
		return false, nil
	}

	control, exists := m.Get(id)
	if !exists {
		m.Remove(id)
		return true, ErrExpired
	}

	nav := Navigation{Relation: rel}
	if rel == GoTo {
		if len(values) == 0 {
			return true, ErrPageOutOfRange
		}
		page, err := strconv.Atoi(values[0])
		if err != nil {
			return true, ErrPageOutOfRange
		}
		nav.Page = page
	}

	m.touch(id)
	if err := control.Activate(ctx, nav); err != nil {
		if errors.Is(err, ErrMessageGone) {
			m.Remove(id)
		}
		return true, err
	}
	return true, nil
}

// HandleInteraction is a discordgo handler for paginator buttons and selects.
func (m *Manager) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}
	data := i.MessageComponentData()
	if _, _, ok := ParseCustomID(data.CustomID); !ok {
		return
	}

	ctx := context.Background()
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}, discordgo.WithContext(ctx)); err != nil {
		m.log.Error().Err(err).Str("custom_id", data.CustomID).Msg("Error acknowledging paginator interaction")
		return
	}

	_, err := m.Dispatch(ctx, data.CustomID, data.Values)
	if err == nil {
		return
	}

	notice := "Could not change page."
	switch {
	case errors.Is(err, ErrExpired):
		notice = "This paginator has expired."
	case errors.Is(err, ErrMessageGone):
		m.log.Debug().Str("custom_id", data.CustomID).Msg("Paginated message was deleted")
		return
	default:
		m.log.Error().Err(err).Str("custom_id", data.CustomID).Msg("Error paginating message")
	}

	_, err = s.FollowupMessageCreate(i.Interaction, false, &discordgo.WebhookParams{
		Content: notice,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		m.log.Error().Err(err).Msg("Error sending paginator notice")
	}
}

// Run sweeps expired paginators every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.log.Debug().Int("removed", n).Msg("Swept expired paginators")
			}
		}
	}
}
