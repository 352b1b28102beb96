// Package telegram implements the Telegram Bot API channel for vestnik.
//
// It provides a bidirectional bridge between Telegram and vestnik's
// platform-agnostic message model, supporting:
//
//   - Inbound conversion of text messages, photos, and callback queries
//   - Outbound message dispatch with automatic chunking via channel.SplitMessage
//   - Inline keyboards for moderation and form confirmation buttons
//   - Two delivery modes: long-polling (default) and webhook
//
// The module registers itself as "channel.telegram" via init() and implements
// the full module lifecycle: Configure → Provision → Validate → Start → Stop.
//
// No external Telegram library is used — the module communicates with the
// Bot API via raw net/http + encoding/json.
package telegram
