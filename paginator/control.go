package paginator

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Relation is the kind of page switch a navigation element performs.
type Relation int

const (
	First Relation = iota
	Previous
	Next
	Last
	GoTo
)

var relationNames = [...]string{
	First:    "first",
	Previous: "previous",
	Next:     "next",
	Last:     "last",
	GoTo:     "goto",
}

func (r Relation) String() string {
	if r < First || r > GoTo {
		return "Relation(" + strconv.Itoa(int(r)) + ")"
	}
	return relationNames[r]
}

func parseRelation(s string) (Relation, bool) {
	for i, name := range relationNames {
		if name == s {
			return Relation(i), true
		}
	}
	return 0, false
}

// Navigation is one activation of a control element. Page is only read for GoTo.
type Navigation struct {
	Relation Relation
	Page     int
}

const customIDPrefix = "pager"

// maxSelectOptions is Discord's cap on options in one select menu.
const maxSelectOptions = 25

// CustomID builds the component custom ID for a relation of paginator id.
func CustomID(id string, r Relation) string {
	return customIDPrefix + ":" + id + ":" + r.String()
}

// ParseCustomID splits a component custom ID built by CustomID. ok is false for
// custom IDs that do not belong to a paginator.
func ParseCustomID(customID string) (id string, r Relation, ok bool) {
	parts := strings.Split(customID, ":")
	if len(parts) != 3 || parts[0] != customIDPrefix || parts[1] == "" {
		return "", 0, false
	}
	r, ok = parseRelation(parts[2])
	if !ok {
		return "", 0, false
	}
	return parts[1], r, true
}

// Control is the set of buttons (and optional page select) that navigates one
// Paginator.
type Control struct {
	paginator *Paginator
}

func newControl(p *Paginator) *Control {
	return &Control{paginator: p}
}

func (c *Control) Paginator() *Paginator { return c.paginator }

// Components renders the control for the paginator's current page.
func (c *Control) Components() []discordgo.MessageComponent {
	p := c.paginator
	p.mu.Lock()
	defer p.mu.Unlock()
	return c.components(p.current, len(p.pages))
}

// Activate performs the page switch nav asks for.
func (c *Control) Activate(ctx context.Context, nav Navigation) error {
	p := c.paginator
	switch nav.Relation {
	case First:
		return p.ShowFirstPage(ctx)
	case Previous:
		return p.ShowPreviousPage(ctx)
	case Next:
		return p.ShowNextPage(ctx)
	case Last:
		return p.ShowLastPage(ctx)
	case GoTo:
		return p.ShowPage(ctx, nav.Page)
	default:
		return fmt.Errorf("unknown navigation relation %v", nav.Relation)
	}
}

func (c *Control) components(current, total int) []discordgo.MessageComponent {
	id := c.paginator.id
	atStart, atEnd := current <= 1, current >= total

	button := func(r Relation, emoji, label string, disabled bool) discordgo.Button {
		return discordgo.Button{
			CustomID: CustomID(id, r),
			Label:    label,
			Emoji:    &discordgo.ComponentEmoji{Name: emoji},
			Style:    discordgo.PrimaryButton,
			Disabled: disabled,
		}
	}

	rows := []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			button(First, "⏮", "1", atStart),
			button(Previous, "◀", strconv.Itoa(max(current-1, 1)), atStart),
			discordgo.Button{
				CustomID: customIDPrefix + ":" + id + ":indicator",
				Label:    fmt.Sprintf("%d/%d", current, total),
				Style:    discordgo.PrimaryButton,
				Disabled: true,
			},
			button(Next, "▶", strconv.Itoa(min(current+1, total)), atEnd),
			button(Last, "⏭", strconv.Itoa(total), atEnd),
		}},
	}

	if c.paginator.opts.GoTo && total > 1 {
		rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:    discordgo.StringSelectMenu,
				CustomID:    CustomID(id, GoTo),
				Placeholder: "Go to page...",
				Options:     pageOptions(current, total),
			},
		}})
	}
	return rows
}

// pageOptions lists at most maxSelectOptions pages, in a window around current.
func pageOptions(current, total int) []discordgo.SelectMenuOption {
	lo, hi := 1, total
	if total > maxSelectOptions {
		lo = current - maxSelectOptions/2
		lo = max(1, min(lo, total-maxSelectOptions+1))
		hi = lo + maxSelectOptions - 1
	}
	opts := make([]discordgo.SelectMenuOption, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		opts = append(opts, discordgo.SelectMenuOption{
			Label:   strconv.Itoa(i),
			Value:   strconv.Itoa(i),
			Default: i == current,
		})
	}
	return opts
}
