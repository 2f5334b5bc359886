package bot

import "github.com/bwmarrin/discordgo"

const (
	DefaultFooter  = "© 2022 Portal Development. All rights reserved - /info"
	ColorRed       = 0xE74C3C
	ColorGreen     = 0x2ECC71
	ColorDarkGreen = 0x1F8B4C
)

// Theme styles every embed the bot sends.
type Theme struct {
	Color      int
	ErrorColor int
	Footer     string
}

// NewTheme creates a theme with the given embed colour and the default footer.
func NewTheme(color int) Theme {
	return Theme{Color: color, ErrorColor: ColorRed, Footer: DefaultFooter}
}

// Embed fills in the theme colour (unless e sets one) and the footer.
func (t Theme) Embed(e *discordgo.MessageEmbed) *discordgo.MessageEmbed {
	return t.apply(e, t.Color)
}

// ErrorEmbed is Embed with the error colour as default.
func (t Theme) ErrorEmbed(e *discordgo.MessageEmbed) *discordgo.MessageEmbed {
	return t.apply(e, t.ErrorColor)
}

func (t Theme) apply(e *discordgo.MessageEmbed, color int) *discordgo.MessageEmbed {
	if e == nil {
		e = &discordgo.MessageEmbed{}
	}
	if e.Color == 0 {
		e.Color = color
	}
	if t.Footer != "" {
		e.Footer = &discordgo.MessageEmbedFooter{Text: t.Footer}
	}
	return e
}

// Describe builds a themed embed around body, the shape the paginator wants.
func (t Theme) Describe(body string) *discordgo.MessageEmbed {
	return t.Embed(&discordgo.MessageEmbed{Description: body})
}
