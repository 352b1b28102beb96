package config

import (
	"slices"
	"strings"
)

// Load order by module kind: stores first so their services exist when the
// gateway and bot provision, channels before the bot that binds to them.
var kindOrder = map[string]int{
	"store":   0,
	"gateway": 1,
	"channel": 2,
	"bot":     3,
}

// Resolve returns the module IDs from the configuration in load order.
// Modules are grouped by kind prefix ("store.", "gateway.", "channel.",
// "bot."), alphabetical within a group, unknown kinds last.
func Resolve(cfg *Config) []string {
	ids := make([]string, 0, len(cfg.Modules))
	for id := range cfg.Modules {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b string) int {
		if d := kindRank(a) - kindRank(b); d != 0 {
			return d
		}
		return strings.Compare(a, b)
	})
	return ids
}

func kindRank(id string) int {
	kind, _, _ := strings.Cut(id, ".")
	if rank, ok := kindOrder[kind]; ok {
		return rank
	}
	return len(kindOrder)
}
