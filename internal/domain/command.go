package domain

import "strings"

const (
	topicCommandPrefix = "/topic "
	clearCommand       = "/clear"
)

// Command is the interpretation of a submitted message.
// It is one of TopicChange, Clear or OrdinaryPost.
type Command interface {
	command()
}

// TopicChange replaces the board topic. Content is already trimmed and may be empty.
type TopicChange struct {
	Content string
}

// Clear deletes every post.
type Clear struct{}

// OrdinaryPost is stored verbatim.
type OrdinaryPost struct {
	Text string
}

func (TopicChange) command()  {}
func (Clear) command()        {}
func (OrdinaryPost) command() {}

// ParseCommand classifies message. A "/topic " prefix wins over an exact
// "/clear"; everything else is an ordinary post.
func ParseCommand(message string) Command {
	if strings.HasPrefix(message, topicCommandPrefix) {
		return TopicChange{Content: strings.TrimSpace(message[len(topicCommandPrefix):])}
	}
	if message == clearCommand {
		return Clear{}
	}
	return OrdinaryPost{Text: message}
}
