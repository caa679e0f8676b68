package storygen

import (
	"fmt"
	"strings"
)

// StorySystemPrompt frames the model as a graded-reader author.
func StorySystemPrompt() string {
	return `You are a language-learning content writer. You write short, natural
practice stories for vocabulary reinforcement. Rules:
- 120 to 180 words.
- Use every requested vocabulary word at least once, in a natural context.
- When grammar concepts are listed, build sentences that exercise them.
- Keep the register simple and concrete; no wordplay that obscures meaning.
- Return only the story text, no preamble or commentary.`
}

// BuildStoryPrompt lists the vocabulary to weave in and the grammar concepts
// to favor. Words appear one per line prefixed with "- " so the mock client
// can echo them back.
func BuildStoryPrompt(words []string, concepts []string) string {
	var b strings.Builder

	b.WriteString("Write one practice story using these vocabulary words:\n")
	for _, w := range words {
		fmt.Fprintf(&b, "- %s\n", w)
	}

	if len(concepts) > 0 {
		b.WriteString("\nWork in sentences that exercise these grammar concepts the learner is weak on:\n")
		for _, c := range concepts {
			fmt.Fprintf(&b, "* %s\n", c)
		}
	}

	return b.String()
}
