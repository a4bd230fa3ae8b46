package prompts

import (
	"fmt"
	"strings"

	"github.com/tarotlab/tarot-engine/pkg/models"
)

// topicLabels are the human phrasing for each topic inside prompts.
var topicLabels = map[models.Topic]string{
	models.TopicGeneral: "general life guidance",
	models.TopicLove:    "love and relationships",
	models.TopicCareer:  "career and work",
	models.TopicFinance: "money and finances",
	models.TopicHealth:  "health and well-being",
}

// CardContext is one drawn card as presented to the model.
type CardContext struct {
	Position     int
	PositionName string
	CardName     string
	Arcana       string
	Suit         string
	Orientation  string
	Keywords     []string
}

// PatternContext is a detected pattern passed as background.
type PatternContext struct {
	Name        string
	Description string
}

// PromptInput is everything the interpretation prompt embeds.
type PromptInput struct {
	Topic      models.Topic
	SpreadName string
	Cards      []CardContext
	Patterns   []PatternContext
	Question   string
}

// NewPromptInput converts drawn cards and patterns into prompt context.
// Cards keep their draw order.
func NewPromptInput(cards []models.DrawnCard, patterns []models.Pattern, topic models.Topic, spreadName, question string) PromptInput {
	in := PromptInput{
		Topic:      topic,
		SpreadName: spreadName,
		Question:   strings.TrimSpace(question),
	}
	for _, c := range cards {
		in.Cards = append(in.Cards, CardContext{
			Position:     c.Position.Position,
			PositionName: c.Position.Name,
			CardName:     c.Card.DisplayName(),
			Arcana:       string(c.Card.Arcana),
			Suit:         string(c.Card.Suit),
			Orientation:  string(c.Orientation),
			Keywords:     c.Card.Keywords[c.Orientation],
		})
	}
	for _, p := range patterns {
		in.Patterns = append(in.Patterns, PatternContext{Name: p.Name, Description: p.Description})
	}
	return in
}

// TopicLabel returns the prompt phrasing for a topic.
func TopicLabel(topic models.Topic) string {
	if label, ok := topicLabels[topic]; ok {
		return label
	}
	return topicLabels[models.TopicGeneral]
}

// BuildInterpretationPrompt creates the user prompt for a tarot reading. It
// restricts the answer to the requested topic, lists the cards in position
// order, adds detected patterns as bullets and asks for a JSON response.
func BuildInterpretationPrompt(in PromptInput) string {
	var prompt strings.Builder
	label := TopicLabel(in.Topic)

	prompt.WriteString("# Tarot Reading\n\n")
	if in.SpreadName != "" {
		prompt.WriteString(fmt.Sprintf("Spread: %s\n", in.SpreadName))
	}
	prompt.WriteString(fmt.Sprintf("Topic: %s\n\n", label))

	prompt.WriteString("## Topic Boundary\n\n")
	prompt.WriteString(fmt.Sprintf("Interpret every card strictly in the context of %s.\n", label))
	prompt.WriteString("Do NOT bring in other life areas. If a card traditionally speaks to another area, ")
	prompt.WriteString(fmt.Sprintf("translate its meaning into %s instead of mentioning that area.\n\n", label))

	prompt.WriteString("## Cards\n\n")
	for _, c := range in.Cards {
		name := c.PositionName
		if name == "" {
			name = fmt.Sprintf("Position %d", c.Position)
		}
		prompt.WriteString(fmt.Sprintf("%d. %s: %s (%s", c.Position, name, c.CardName, c.Orientation))
		if c.Suit != "" {
			prompt.WriteString(fmt.Sprintf(", %s", c.Suit))
		} else if c.Arcana != "" {
			prompt.WriteString(fmt.Sprintf(", %s arcana", c.Arcana))
		}
		prompt.WriteString(")")
		if len(c.Keywords) > 0 {
			prompt.WriteString(fmt.Sprintf(" - %s", strings.Join(c.Keywords, ", ")))
		}
		prompt.WriteString("\n")
	}
	prompt.WriteString("\n")

	if len(in.Patterns) > 0 {
		prompt.WriteString("## Detected Patterns\n\n")
		for _, p := range in.Patterns {
			prompt.WriteString(fmt.Sprintf("- **%s**: %s\n", p.Name, p.Description))
		}
		prompt.WriteString("\n")
	}

	if in.Question != "" {
		prompt.WriteString("## Question\n\n")
		prompt.WriteString(fmt.Sprintf("The querent asks: %q\n", in.Question))
		prompt.WriteString("Answer this question directly, using the cards above as evidence.\n\n")
	}

	prompt.WriteString("## Output Format\n\n")
	prompt.WriteString("Write a warm, grounded reading of 3-5 paragraphs. Refer to cards by name and position.\n")
	prompt.WriteString("Respond in JSON with a single field:\n")
	prompt.WriteString("- `interpretation`: the full reading as plain text, paragraphs separated by blank lines\n\n")
	prompt.WriteString("Example:\n")
	prompt.WriteString("```json\n")
	prompt.WriteString(`{"interpretation": "The Star in your present position..."}`)
	prompt.WriteString("\n```\n\n")
	prompt.WriteString("Return ONLY the JSON, no additional text.\n")

	return prompt.String()
}

// InterpretationSystemMessage returns the system message for a reading on topic.
func InterpretationSystemMessage(topic models.Topic) string {
	return fmt.Sprintf(`You are an experienced, compassionate tarot reader. You give thoughtful readings focused only on %s. You never predict death, illness diagnoses, or legal outcomes, and you never give medical or financial instructions.`, TopicLabel(topic))
}
