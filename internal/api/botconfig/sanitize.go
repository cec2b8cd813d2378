package botconfig

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/vipogroup/vipo-api/internal/types"
)

// textPolicy strips every tag. Bot strings are rendered as plain text.
var textPolicy = bluemonday.StrictPolicy()

// maxDecodeRounds bounds entity decoding of nested encodings.
const maxDecodeRounds = 4

// clean decodes entities until the text is stable, then strips every tag.
// The policy always runs last, so the result is escaped text that is safe to
// place inside HTML. Cleaning an already clean string returns it unchanged.
func clean(s string) string {
	for i := 0; i < maxDecodeRounds; i++ {
		decoded := html.UnescapeString(s)
		if decoded == s {
			break
		}
		s = decoded
	}
	return strings.TrimSpace(textPolicy.Sanitize(s))
}

func sanitizeTexts(t *types.BotTexts) {
	for _, f := range []*string{&t.Title, &t.Subtitle, &t.Welcome1, &t.Welcome2, &t.HappyHelp,
		&t.WriteMessage, &t.WhatKnow, &t.AnythingElse, &t.NoAnswer, &t.WhatDo, &t.Goodbye,
		&t.SentSuccess, &t.TeamReply, &t.SendError, &t.MoreHelp, &t.ChooseTopic} {
		*f = clean(*f)
	}
}

func sanitizeButtons(b *types.BotButtons) {
	for _, f := range []*string{&b.OtherTopic, &b.TalkAgent, &b.Thanks, &b.BackTopics, &b.Send, &b.Sending, &b.Cancel} {
		*f = clean(*f)
	}
}

func sanitizePlaceholders(p *types.BotPlaceholders) {
	p.Message = clean(p.Message)
	p.Agent = clean(p.Agent)
	p.Question = clean(p.Question)
}

func sanitizeCategories(categories []types.BotCategory) {
	for i := range categories {
		c := &categories[i]
		c.ID = clean(c.ID)
		c.Name = clean(c.Name)
		if c.Questions == nil {
			c.Questions = []types.BotQuestion{}
		}
		for j := range c.Questions {
			q := &c.Questions[j]
			q.ID = clean(q.ID)
			q.Question = clean(q.Question)
			q.Answer = clean(q.Answer)
		}
	}
}
