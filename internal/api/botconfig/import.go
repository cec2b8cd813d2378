package botconfig

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/document/transformer/splitter/markdown"
	"github.com/cloudwego/eino-ext/components/document/transformer/splitter/recursive"
	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/schema"

	"github.com/vipogroup/vipo-api/internal/types"
)

// maxAnswerLength is the longest answer the widget shows in one bubble.
const maxAnswerLength = 1000

// ParseFAQMarkdown turns a markdown FAQ into categories: every "#" header is
// a category, every "##" header below it a question, and the section body
// its answer. Text before the first header is ignored. Answers longer than
// maxAnswerLength become numbered follow-up questions.
func ParseFAQMarkdown(ctx context.Context, source string) ([]types.BotCategory, error) {
	splitter, err := markdown.NewHeaderSplitter(ctx, &markdown.HeaderConfig{
		Headers: map[string]string{
			"#":  "category",
			"##": "question",
		},
		TrimHeaders: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown splitter: %w", err)
	}

	parts, err := recursive.NewSplitter(ctx, &recursive.Config{
		ChunkSize:  maxAnswerLength,
		Separators: []string{"\n\n", "\n", ". ", "? ", "! ", " "},
		KeepType:   recursive.KeepTypeNone,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create answer splitter: %w", err)
	}

	sections, err := splitter.Transform(ctx, []*schema.Document{{ID: "faq", Content: source, MetaData: map[string]any{}}})
	if err != nil {
		return nil, fmt.Errorf("failed to split markdown: %w", err)
	}

	var categories []types.BotCategory
	index := map[string]int{}
	for _, section := range sections {
		categoryName := metaString(section.MetaData, "category")
		if categoryName == "" {
			continue
		}
		pos, ok := index[categoryName]
		if !ok {
			pos = len(categories)
			index[categoryName] = pos
			categories = append(categories, types.BotCategory{
				Name:      categoryName,
				Order:     pos + 1,
				IsActive:  true,
				Questions: []types.BotQuestion{},
			})
		}

		question := metaString(section.MetaData, "question")
		if question == "" {
			continue
		}
		answer := sectionBody(section.Content)
		if answer == "" {
			continue
		}
		answers, err := splitAnswer(ctx, parts, answer)
		if err != nil {
			return nil, err
		}
		cat := &categories[pos]
		for i, a := range answers {
			q := question
			if i > 0 {
				q = fmt.Sprintf("%s (%d)", question, i+1)
			}
			cat.Questions = append(cat.Questions, types.BotQuestion{
				Question: q,
				Answer:   a,
				Order:    len(cat.Questions) + 1,
				IsActive: true,
			})
		}
	}
	return categories, nil
}

func splitAnswer(ctx context.Context, splitter document.Transformer, answer string) ([]string, error) {
	if len(answer) <= maxAnswerLength {
		return []string{answer}, nil
	}
	docs, err := splitter.Transform(ctx, []*schema.Document{{Content: answer}})
	if err != nil {
		return nil, fmt.Errorf("failed to split answer: %w", err)
	}
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		if text := strings.TrimSpace(d.Content); text != "" {
			out = append(out, text)
		}
	}
	if len(out) == 0 {
		return []string{answer}, nil
	}
	return out, nil
}

func metaString(meta map[string]any, key string) string {
	if v, ok := meta[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// sectionBody drops the header line the splitter keeps at the top of a section.
func sectionBody(content string) string {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[0]), "#") {
		lines = lines[1:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
