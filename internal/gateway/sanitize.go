package gateway

import (
	"io"
	"strings"

	"github.com/dvloznov/finance-insights/internal/domain"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	// MaxPromptRunes is the longest prompt forwarded to a completer. Longer
	// prompts are clipped, not rejected.
	MaxPromptRunes = 2000

	// MaxHistory is the number of most recent history messages forwarded.
	MaxHistory = 10
)

// maxStripPasses bounds how many layers of entity-encoded markup are peeled.
const maxStripPasses = 8

// Sanitize removes markup from prompt, drops script and style bodies and
// collapses whitespace. Entity-encoded markup is decoded and stripped as
// well. A '<' that does not open a known HTML name is kept as text. It
// reports whether the result was clipped to MaxPromptRunes and returns
// domain.ErrEmptyPrompt when nothing is left.
func Sanitize(prompt string) (string, bool, error) {
	text := prompt
	for pass := 0; ; pass++ {
		if pass == maxStripPasses {
			return "", false, domain.ValidationError("prompt markup is nested too deeply")
		}
		next, err := stripMarkup(text)
		if err != nil {
			return "", false, err
		}
		if next == text {
			break
		}
		text = next
	}

	clean := strings.Join(strings.Fields(text), " ")
	if clean == "" {
		return "", false, domain.ErrEmptyPrompt
	}

	r := []rune(clean)
	if len(r) <= MaxPromptRunes {
		return clean, false, nil
	}
	return strings.TrimSpace(string(r[:MaxPromptRunes])), true, nil
}

// stripMarkup runs one tokenizer pass over s. Text is entity-decoded, so the
// output may hold markup that was encoded in s.
func stripMarkup(s string) (string, error) {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(escapeStrayLT(s)))
	skip := 0

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if z.Err() != io.EOF {
				return "", domain.ValidationError("unreadable prompt: %v", z.Err())
			}
			return b.String(), nil
		}

		switch tt {
		case html.StartTagToken:
			if isRawText(z) {
				skip++
			}
			b.WriteByte(' ')
		case html.EndTagToken:
			if isRawText(z) && skip > 0 {
				skip--
			}
			b.WriteByte(' ')
		case html.SelfClosingTagToken:
			b.WriteByte(' ')
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

// escapeStrayLT encodes every '<' that does not start a comment or a known
// HTML name, so "5<x reais" survives tokenizing.
func escapeStrayLT(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '<' && !opensTag(s[i+1:]) {
			b.WriteString("&lt;")
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func opensTag(rest string) bool {
	if strings.HasPrefix(rest, "!") {
		return true
	}
	rest = strings.TrimPrefix(rest, "/")
	if rest == "" || !isASCIILetter(rest[0]) {
		return false
	}
	n := 1
	for n < len(rest) && (isASCIILetter(rest[n]) || (rest[n] >= '0' && rest[n] <= '9')) {
		n++
	}
	return atom.Lookup([]byte(strings.ToLower(rest[:n]))) != 0
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isRawText(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	switch atom.Lookup(name) {
	case atom.Script, atom.Style:
		return true
	}
	return false
}

// BoundHistory keeps the last MaxHistory user and assistant messages in their
// original order. Any other role is never forwarded.
func BoundHistory(history []domain.ChatMessage) []domain.ChatMessage {
	out := make([]domain.ChatMessage, 0, len(history))
	for _, m := range history {
		if m.Role != domain.RoleUser && m.Role != domain.RoleAssistant {
			continue
		}
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		out = append(out, m)
	}
	if len(out) > MaxHistory {
		out = out[len(out)-MaxHistory:]
	}
	return out
}
