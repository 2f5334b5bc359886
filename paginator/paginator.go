package paginator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/oklog/ulid/v2"
)

// Errors returned by Paginator operations.
var (
	ErrPageOutOfRange         = errors.New("page out of range")
	ErrMessageGone            = errors.New("paginated message no longer exists")
	ErrDestinationUnavailable = errors.New("destination rejected the paginated message")
	ErrFinalized              = errors.New("paginator pages are finalized, lines can no longer be added")
	ErrAlreadySent            = errors.New("paginator already bound to a message")
	ErrNotSent                = errors.New("paginator has not been sent yet")
	ErrEmpty                  = errors.New("paginator has no content")
)

// Default page budgets, in characters, matching Discord's message content and
// embed description limits.
const (
	DefaultMaxLen      = 2000
	DefaultEmbedMaxLen = 4096
)

// RenderMode selects whether pages render as message content or as embeds.
type RenderMode int

const (
	PlainText RenderMode = iota
	RichContent
)

// Content is one rendered message body.
type Content struct {
	Text       string
	Embed      *discordgo.MessageEmbed
	Components []discordgo.MessageComponent
}

// Destination is anything a paginator can be sent to.
type Destination interface {
	Send(ctx context.Context, c Content) (Message, error)
}

// Message is the handle of a sent paginated message.
type Message interface {
	Edit(ctx context.Context, c Content) error
}

// EmbedFunc wraps a page body into an embed.
type EmbedFunc func(body string) *discordgo.MessageEmbed

// Options configures a Paginator.
type Options struct {
	Delimiter string
	MaxLen    int
	Mode      RenderMode
	Embed     EmbedFunc
	// GoTo adds a select menu for jumping straight to a page.
	GoTo bool
}

// Option sets one field of Options.
type Option func(*Options)

// WithDelimiter sets the string lines are joined with. The default is "\n".
func WithDelimiter(d string) Option { return func(o *Options) { o.Delimiter = d } }

// WithMaxLen sets the page budget in characters.
func WithMaxLen(n int) Option { return func(o *Options) { o.MaxLen = n } }

// WithGoTo adds the go-to-page select menu.
func WithGoTo() Option { return func(o *Options) { o.GoTo = true } }

// WithEmbed switches the paginator to rich content, wrapping each page with fn.
// A nil fn renders the page as a bare embed description.
func WithEmbed(fn EmbedFunc) Option {
	return func(o *Options) {
		o.Mode = RichContent
		o.Embed = fn
	}
}

// Paginator buckets lines into length-bounded pages and drives one message
// through them.
type Paginator struct {
	mu sync.Mutex

	id      string
	opts    Options
	lines   [][]string
	pages   []Content
	current int
	message Message
	control *Control
}

// New returns an empty paginator with a single pending page.
func New(opts ...Option) *Paginator {
	o := Options{Delimiter: "\n"}
	for _, opt := range opts {
		opt(&o)
	}
	if o.MaxLen <= 0 {
		o.MaxLen = DefaultMaxLen
		if o.Mode == RichContent {
			o.MaxLen = DefaultEmbedMaxLen
		}
	}
	if o.Mode == RichContent && o.Embed == nil {
		o.Embed = func(body string) *discordgo.MessageEmbed {
			return &discordgo.MessageEmbed{Description: body}
		}
	}
	return &Paginator{
		id:    ulid.Make().String(),
		opts:  o,
		lines: [][]string{{}},
	}
}

// ID identifies the paginator in component custom IDs.
func (p *Paginator) ID() string { return p.id }

// AddLine appends line to the last pending page, or starts a new page when the
// line would push the pending page past the length budget. A line longer than
// the budget is placed alone on its own page.
func (p *Paginator) AddLine(line string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pages != nil {
		return ErrFinalized
	}

	last := p.lines[len(p.lines)-1]
	if len(last) > 0 && p.pendingLen(last)+utf8.RuneCountInString(p.opts.Delimiter)+utf8.RuneCountInString(line) > p.opts.MaxLen {
		p.lines = append(p.lines, []string{line})
		return nil
	}
	p.lines[len(p.lines)-1] = append(last, line)
	return nil
}

func (p *Paginator) pendingLen(page []string) int {
	return utf8.RuneCountInString(strings.Join(page, p.opts.Delimiter))
}

func (p *Paginator) finalize() {
	p.pages = make([]Content, 0, len(p.lines))
	for _, page := range p.lines {
		body := strings.Join(page, p.opts.Delimiter)
		if p.opts.Mode == RichContent {
			p.pages = append(p.pages, Content{Embed: p.opts.Embed(body)})
		} else {
			p.pages = append(p.pages, Content{Text: body})
		}
	}
}

// SendTo finalizes the pages and sends the first one to dest together with a
// navigation control bound to this paginator.
func (p *Paginator) SendTo(ctx context.Context, dest Destination) (Message, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.message != nil {
		return nil, ErrAlreadySent
	}
	if len(p.lines) == 1 && len(p.lines[0]) == 0 {
		return nil, ErrEmpty
	}
	p.finalize()

	control := newControl(p)
	first := p.pages[0]
	first.Components = control.components(1, len(p.pages))
	msg, err := dest.Send(ctx, first)
	if err != nil {
		// nothing was sent, so the paginator stays open for more lines
		p.pages = nil
		return nil, fmt.Errorf("%w: %w", ErrDestinationUnavailable, err)
	}
	p.current, p.control, p.message = 1, control, msg
	return msg, nil
}

// ShowPage switches the displayed message to page n (1-based).
func (p *Paginator) ShowPage(ctx context.Context, n int) error {
	return p.show(ctx, func(int, int) int { return n })
}

// ShowNextPage moves one page forward.
func (p *Paginator) ShowNextPage(ctx context.Context) error {
	return p.show(ctx, func(cur, _ int) int { return cur + 1 })
}

// ShowPreviousPage moves one page back.
func (p *Paginator) ShowPreviousPage(ctx context.Context) error {
	return p.show(ctx, func(cur, _ int) int { return cur - 1 })
}

// ShowFirstPage jumps to page 1.
func (p *Paginator) ShowFirstPage(ctx context.Context) error {
	return p.show(ctx, func(int, int) int { return 1 })
}

// ShowLastPage jumps to the final page.
func (p *Paginator) ShowLastPage(ctx context.Context) error {
	return p.show(ctx, func(_, total int) int { return total })
}

// show resolves the target page against the current one and edits the
// message, all under the paginator lock.
func (p *Paginator) show(ctx context.Context, target func(cur, total int) int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.message == nil {
		return ErrNotSent
	}
	n := target(p.current, len(p.pages))
	if n < 1 || n > len(p.pages) {
		return fmt.Errorf("%w: %d not in [1, %d]", ErrPageOutOfRange, n, len(p.pages))
	}
	if err := p.message.Edit(ctx, p.render(n)); err != nil {
		return err
	}
	p.current = n
	return nil
}

// render must be called with p.mu held.
func (p *Paginator) render(n int) Content {
	c := p.pages[n-1]
	if p.control != nil {
		c.Components = p.control.components(n, len(p.pages))
	}
	return c
}

// CurrentPage is 0 until the paginator is sent.
func (p *Paginator) CurrentPage() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// NumPages counts pending pages before send and finalized pages after.
func (p *Paginator) NumPages() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pages != nil {
		return len(p.pages)
	}
	return len(p.lines)
}

// Pages returns the finalized pages without components, or nil before send.
func (p *Paginator) Pages() []Content {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pages == nil {
		return nil
	}
	out := make([]Content, len(p.pages))
	copy(out, p.pages)
	return out
}

// Message is the sent message, or nil before send.
func (p *Paginator) Message() Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.message
}

// Control returns the navigation control attached on send.
func (p *Paginator) Control() *Control {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.control
}
