package conversation

import (
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/dohr-michael/colloquy/internal/config"
)

// ContextBuilder assembles the per-turn prompt for a participant: scenario
// system prompt, persona, long-term memory notes, and a bounded window of the
// transcript with chain-of-thought visibility applied.
type ContextBuilder struct {
	SystemPrompt string
	Config       config.ConversationConfig
}

// Build produces the ordered message sequence for the given participant's
// turn over the current transcript.
func (b *ContextBuilder) Build(p *Participant, transcript *Transcript, memoryNotes string) []*schema.Message {
	out := []*schema.Message{{
		Role:    schema.System,
		Content: b.systemContent(p, memoryNotes),
	}}

	keepReasoning := b.Config.KeepReasoningEnabled()

	for _, msg := range transcript.Window(b.Config.WindowSize) {
		switch msg.Role {
		case RoleSystem:
			// Scenario system content is already folded into the head message.
			continue
		case RoleUser:
			out = append(out, b.convertParts(msg, schema.User, ""))
		case RoleAssistant:
			own := msg.Author == p.Name
			text := msg.Text()

			if !keepReasoning {
				text = StripReasoning(text)
			} else if !b.Config.ShareReasoning && !own {
				// Reasoning stays private to its author.
				text = StripReasoning(text)
			}

			if own {
				out = append(out, b.convertTextParts(msg, schema.Assistant, text))
			} else {
				prefixed := msg.Author + ": " + text
				out = append(out, b.convertTextParts(msg, schema.User, prefixed))
			}
		}
	}

	return out
}

// systemContent joins the scenario prompt, the persona fragment, and memory
// notes into the head system message.
func (b *ContextBuilder) systemContent(p *Participant, memoryNotes string) string {
	var sections []string
	if b.SystemPrompt != "" {
		sections = append(sections, b.SystemPrompt)
	}
	if p.Persona != "" {
		sections = append(sections, "Your persona: "+p.Persona)
	}
	sections = append(sections, "You are "+p.Name+" in this conversation. Other participants see your messages under that name.")
	if memoryNotes != "" {
		sections = append(sections, "Your notes from previous conversations:\n"+memoryNotes)
	}
	return strings.Join(sections, "\n\n")
}

// convertParts maps a transcript message to a schema message, preserving
// image parts as structured references.
func (b *ContextBuilder) convertParts(msg *Message, role schema.RoleType, prefix string) *schema.Message {
	return b.convert(msg, role, prefix+msg.Text())
}

// convertTextParts is convertParts with the text content already filtered.
func (b *ContextBuilder) convertTextParts(msg *Message, role schema.RoleType, text string) *schema.Message {
	return b.convert(msg, role, text)
}

func (b *ContextBuilder) convert(msg *Message, role schema.RoleType, text string) *schema.Message {
	if !msg.HasImage() {
		return &schema.Message{Role: role, Content: text}
	}

	var parts []schema.ChatMessagePart
	if text != "" {
		parts = append(parts, schema.ChatMessagePart{
			Type: schema.ChatMessagePartTypeText,
			Text: text,
		})
	}
	for _, p := range msg.Parts {
		if p.Kind != PartImage {
			continue
		}
		url := p.ImageURL
		if url == "" {
			url = "file://" + p.ImagePath
		}
		parts = append(parts, schema.ChatMessagePart{
			Type: schema.ChatMessagePartTypeImageURL,
			ImageURL: &schema.ChatMessageImageURL{
				URL: url,
			},
		})
	}

	return &schema.Message{Role: role, MultiContent: parts}
}
