package commands

import (
	"context"
	"strings"
)

// CommandSay echoes the text after the command, spacing preserved.
func (r *Router) CommandSay(_ context.Context, _ Message, args []string) (Reply, error) {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return Reply{}, r.usage("say Hello")
	}
	return Reply{Text: text}, nil
}
