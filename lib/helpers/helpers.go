package helpers

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const CreatedAtLayout = "2006-01-02 15:04:05.000000"

// EscapeMarkdown escapes the characters Discord treats as markdown.
func EscapeMarkdown(text string) string {
	charactersToEscape := []string{"\\", "*", "_", "~", "`", "|", ">"}

	for _, char := range charactersToEscape {
		text = strings.ReplaceAll(text, char, "\\"+char)
	}
	return text
}

// StripMarkdown removes the bold markers used in replies, for platforms that
// render them literally.
func StripMarkdown(text string) string {
	return strings.ReplaceAll(text, "**", "")
}

// FormatPriceRaw renders a price with the shortest exact decimal form, so
// 51000 stays "51000" and 0.000012 stays "0.000012".
func FormatPriceRaw(price float64) string {
	return strconv.FormatFloat(price, 'f', -1, 64)
}

// FormatPriceUS groups thousands and keeps more decimals for sub-dollar coins.
func FormatPriceUS(price float64) string {
	decimals := 6

	if price > 1.2 {
		decimals = 2
	} else if price < 0.00001 {
		decimals = 8
	}

	p := message.NewPrinter(language.English)
	return p.Sprintf("%.*f", decimals, price)
}

// FormatRoundedUS formats whole dollar amounts with thousands separators.
func FormatRoundedUS(value float64) string {
	return humanize.FormatFloat("#,###.", value)
}

func FormatSupplyUS(supply float64) string {
	return humanize.FormatFloat("#,###.", supply)
}

func FormatPercentage(p float64) string {
	return fmt.Sprintf("%.2f", p)
}

// FormatAge renders how long ago a created_at stamp was, falling back to the
// raw string when it does not parse.
func FormatAge(createdAt string, now time.Time) string {
	t, err := time.ParseInLocation(CreatedAtLayout, createdAt, time.Local)
	if err != nil {
		return createdAt
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// SplitMessage breaks text into chunks of at most limit characters, cutting
// at line breaks where possible. A chunk never ends inside a multi-byte rune.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0
	flush := func() {
		if currentLen > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			currentLen = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		n := utf8.RuneCountInString(line)
		for n > limit {
			flush()
			cut := runeOffset(line, limit)
			chunks = append(chunks, line[:cut])
			line = line[cut:]
			n -= limit
		}
		if currentLen+n > limit {
			flush()
		}
		current.WriteString(line)
		currentLen += n
	}
	flush()
	return chunks
}

// runeOffset returns the byte offset just past the first n runes of s.
func runeOffset(s string, n int) int {
	offset := 0
	for i := 0; i < n && offset < len(s); i++ {
		_, size := utf8.DecodeRuneInString(s[offset:])
		offset += size
	}
	return offset
}
