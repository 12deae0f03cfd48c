package video

import (
	"math"
	"strconv"
	"strings"
)

// Reference geometry is authored for a 1080 px wide frame and scaled.
const (
	referenceWidth = 1080

	captionFontSize    = 72
	captionLineHeight  = 77
	captionBandPadding = 240
	captionWordsPerLn  = 4

	overlayText       = "why not you?"
	overlayFontSize   = 150
	overlayTextHeight = 108
	overlayLift       = 50

	AppName          = "BlockScroll"
	cardWidth        = 1000
	cardMinHeight    = 220
	cardBaseHeight   = 150
	cardGap          = 60
	cardTitleSize    = 50
	cardNowSize      = 40
	cardMessageSize  = 50
	cardLineHeight   = 66
	cardWrapColumns  = 32
	cardTextInset    = 160
	cardTitleTop     = 40
	cardMessageTop   = 120
	cardNowInset     = 180
	cardLogoSize     = 100
	cardLogoInset    = 40
	iconSize         = 70
	iconBackdrop     = 140
	iconSpacing      = 250
	iconBottomMargin = 250
)

// Rect is an axis-aligned box in frame pixels.
type Rect struct {
	X, Y, W, H int
}

// Text is one drawtext element.
type Text struct {
	Name     string
	Content  string
	X, Y     int
	Centered bool
	FontSize int
	Spacing  int
}

// Layout is the computed frame geometry for one render.
type Layout struct {
	Width, Height int
	Band          Rect
	Caption       []Text
	Overlay       Text
	Card          Rect
	CardTitle     Text
	CardNow       Text
	CardMessage   Text
	Logo          Rect
	LeftIcon      Rect
	RightIcon     Rect
	LeftBackdrop  Rect
	RightBackdrop Rect
}

// NewLayout places the caption band, overlay, notification card and icons
// for the given frame size.
func NewLayout(width, height int, caption, notification string) Layout {
	scale := float64(width) / referenceWidth
	px := func(v int) int { return int(math.Round(float64(v) * scale)) }

	l := Layout{Width: width, Height: height}

	lines := WrapWords(caption, captionWordsPerLn)
	lineHeight := px(captionLineHeight)
	blockHeight := len(lines) * lineHeight
	l.Band = Rect{X: 0, Y: 0, W: width, H: blockHeight + px(captionBandPadding)}
	y := (l.Band.H - blockHeight) / 2
	for i, line := range lines {
		l.Caption = append(l.Caption, Text{
			Name:     "caption_" + strconv.Itoa(i),
			Content:  line,
			Y:        y,
			Centered: true,
			FontSize: px(captionFontSize),
		})
		y += lineHeight
	}

	overlayY := (height-px(overlayTextHeight))/2 - px(overlayLift)
	l.Overlay = Text{Name: "overlay", Content: overlayText, Y: overlayY, Centered: true, FontSize: px(overlayFontSize)}

	msgLines := WrapColumns(notification, cardWrapColumns)
	textHeight := len(msgLines) * px(cardLineHeight)
	cardH := max(px(cardMinHeight), px(cardBaseHeight)+textHeight)
	l.Card = Rect{
		X: (width - px(cardWidth)) / 2,
		Y: overlayY + px(overlayTextHeight) + px(cardGap),
		W: px(cardWidth),
		H: cardH,
	}
	l.CardTitle = Text{Name: "app", Content: AppName, X: l.Card.X + px(cardTextInset), Y: l.Card.Y + px(cardTitleTop), FontSize: px(cardTitleSize)}
	l.CardNow = Text{Name: "now", Content: "now", X: l.Card.X + l.Card.W - px(cardNowInset), Y: l.Card.Y + px(cardTitleTop), FontSize: px(cardNowSize)}
	l.CardMessage = Text{
		Name:     "message",
		Content:  strings.Join(msgLines, "\n"),
		X:        l.Card.X + px(cardTextInset),
		Y:        l.Card.Y + px(cardMessageTop),
		FontSize: px(cardMessageSize),
		Spacing:  px(cardLineHeight - cardMessageSize),
	}

	blockTop := px(cardTitleTop)
	blockBottom := max(blockTop+px(cardTitleSize), px(cardMessageTop)+textHeight)
	logoY := (blockTop+blockBottom)/2 - px(cardLogoSize)/2
	logoY = max(0, min(cardH-px(cardLogoSize), logoY))
	l.Logo = Rect{X: l.Card.X + px(cardLogoInset), Y: l.Card.Y + logoY, W: px(cardLogoSize), H: px(cardLogoSize)}

	baseY := height - px(iconBottomMargin)
	backdrop := px(iconBackdrop)
	icon := px(iconSize)
	leftX := width/2 - px(iconSpacing) - backdrop/2
	rightX := width/2 + px(iconSpacing) - backdrop/2
	l.LeftBackdrop = Rect{X: leftX, Y: baseY - backdrop/2, W: backdrop, H: backdrop}
	l.RightBackdrop = Rect{X: rightX, Y: baseY - backdrop/2, W: backdrop, H: backdrop}
	l.LeftIcon = Rect{X: leftX + (backdrop-icon)/2, Y: baseY - icon/2, W: icon, H: icon}
	l.RightIcon = Rect{X: rightX + (backdrop-icon)/2, Y: baseY - icon/2, W: icon, H: icon}
	return l
}

// Texts returns every drawtext element in paint order.
func (l Layout) Texts() []Text {
	out := append([]Text(nil), l.Caption...)
	return append(out, l.Overlay, l.CardTitle, l.CardNow, l.CardMessage)
}

// WrapWords groups words n per line.
func WrapWords(text string, n int) []string {
	words := strings.Fields(text)
	var lines []string
	for i := 0; i < len(words); i += n {
		lines = append(lines, strings.Join(words[i:min(i+n, len(words))], " "))
	}
	return lines
}

// WrapColumns greedily wraps text so no line exceeds width runes unless a
// single word is longer.
func WrapColumns(text string, width int) []string {
	var lines []string
	var current strings.Builder
	currentLen := 0
	for _, word := range strings.Fields(text) {
		wordLen := len([]rune(word))
		switch {
		case currentLen == 0:
			current.WriteString(word)
			currentLen = wordLen
		case currentLen+1+wordLen <= width:
			current.WriteByte(' ')
			current.WriteString(word)
			currentLen += 1 + wordLen
		default:
			lines = append(lines, current.String())
			current.Reset()
			current.WriteString(word)
			currentLen = wordLen
		}
	}
	if currentLen > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
