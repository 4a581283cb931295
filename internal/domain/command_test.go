package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    Command
	}{
		{name: "topic", message: "/topic Foo", want: TopicChange{Content: "Foo"}},
		{name: "topic trimmed", message: "/topic   Foo bar \n", want: TopicChange{Content: "Foo bar"}},
		{name: "topic only whitespace", message: "/topic   ", want: TopicChange{Content: ""}},
		{name: "topic without space is a post", message: "/topic", want: OrdinaryPost{Text: "/topic"}},
		{name: "topic prefix not at start", message: " /topic Foo", want: OrdinaryPost{Text: " /topic Foo"}},
		{name: "clear", message: "/clear", want: Clear{}},
		{name: "clear with suffix is a post", message: "/clear now", want: OrdinaryPost{Text: "/clear now"}},
		{name: "clear with trailing space is a post", message: "/clear ", want: OrdinaryPost{Text: "/clear "}},
		{name: "ordinary kept verbatim", message: "  hello\nworld  ", want: OrdinaryPost{Text: "  hello\nworld  "}},
		{name: "empty", message: "", want: OrdinaryPost{Text: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCommand(tt.message))
		})
	}
}
