package console

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/stockroom/internal/session"
)

var kindTags = map[session.MessageKind]string{
	session.KindInfo:    "*",
	session.KindSuccess: "+",
	session.KindWarning: "!",
	session.KindError:   "x",
}

// render prints msg as plain text.
func (c *Console) render(msg *session.Message) {
	var b strings.Builder
	tag := kindTags[msg.Kind]
	if tag == "" {
		tag = "*"
	}
	fmt.Fprintf(&b, "[%s] %s\n", tag, msg.Title)
	if msg.Body != "" {
		fmt.Fprintf(&b, "    %s\n", msg.Body)
	}
	for _, f := range msg.Fields {
		fmt.Fprintf(&b, "    %s: %s\n", f.Name, strings.ReplaceAll(f.Value, "\n", " / "))
	}
	for _, sel := range msg.Components {
		for i, ch := range sel.Options {
			if ch.Description != "" {
				fmt.Fprintf(&b, "    %d) %s (%s)\n", i+1, ch.Label, ch.Description)
			} else {
				fmt.Fprintf(&b, "    %d) %s\n", i+1, ch.Label)
			}
		}
		fmt.Fprintf(&b, "  %s > ", sel.Placeholder)
	}
	c.printf("%s", b.String())
}
