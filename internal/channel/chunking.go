package channel

import (
	"strings"

	"github.com/vestnik-bot/vestnik/pkg/message"
)

// ChunkConfig controls how outbound messages are split when they exceed
// a platform's maximum message length.
type ChunkConfig struct {
	// MaxLength is the maximum number of bytes per chunk.
	// A value <= 0 means no splitting.
	MaxLength int
}

// SplitMessage splits an outbound message into multiple messages that each
// respect cfg.MaxLength. The photo (if any) travels with the first chunk and
// the inline keyboard (if any) with the last, so button presses always refer
// to the end of the text. If the message already fits, a single-element slice
// is returned.
func SplitMessage(msg message.OutboundMessage, cfg ChunkConfig) []message.OutboundMessage {
	if cfg.MaxLength <= 0 || len(msg.Text) <= cfg.MaxLength {
		return []message.OutboundMessage{msg}
	}

	chunks := splitText(msg.Text, cfg.MaxLength)

	result := make([]message.OutboundMessage, 0, len(chunks))
	for i, chunk := range chunks {
		out := message.OutboundMessage{
			Chat:  msg.Chat,
			Text:  chunk,
			Hints: msg.Hints,
		}
		if i == 0 {
			out.PhotoID = msg.PhotoID
		}
		if i == len(chunks)-1 {
			out.Keyboard = msg.Keyboard
		}
		result = append(result, out)
	}

	return result
}

// splitText breaks text into chunks of at most maxLen bytes, preferring
// line boundaries.
func splitText(text string, maxLen int) []string {
	lines := strings.Split(text, "\n")

	var chunks []string
	var current strings.Builder

	for _, line := range lines {
		lineWithNewline := line + "\n"

		if current.Len()+len(lineWithNewline) > maxLen {
			if current.Len() > 0 {
				chunks = append(chunks, strings.TrimRight(current.String(), "\n"))
				current.Reset()
			}

			// If a single line exceeds maxLen, force-split it.
			if len(lineWithNewline) > maxLen {
				chunks = append(chunks, forceSplit(line, maxLen)...)
				continue
			}
		}

		current.WriteString(lineWithNewline)
	}

	if current.Len() > 0 {
		chunks = append(chunks, strings.TrimRight(current.String(), "\n"))
	}

	return chunks
}

// forceSplit breaks a single long line into chunks of at most maxLen bytes,
// backing off to a rune boundary so multi-byte characters stay intact.
func forceSplit(line string, maxLen int) []string {
	var parts []string
	for len(line) > maxLen {
		cut := maxLen
		for cut > 0 && !isRuneStart(line[cut]) {
			cut--
		}
		if cut == 0 {
			cut = maxLen
		}
		parts = append(parts, line[:cut])
		line = line[cut:]
	}
	if len(line) > 0 {
		parts = append(parts, line)
	}
	return parts
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
