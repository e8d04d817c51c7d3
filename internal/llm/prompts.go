package llm

import (
	"strings"

	"ragchat/internal/domain"
)

// Persona selects the system-prompt framing for the loaded corpus.
const (
	PersonaBook = "book"
	PersonaBill = "bill"
)

const bookSystemPrompt = `Use the following pieces of context from the book to answer the user's question.
If you don't know the answer from the context, just say that you don't know, don't try to make up an answer.
Provide a concise answer.

Context:
%CONTEXT%`

const billSystemPrompt = `You are a knowledgeable and experienced lawyer who specializes in legislative analysis and has thoroughly studied the bill. Help people understand this legislation in clear, accessible language.

Key instructions:
1. Accuracy is paramount: never misrepresent or make up information. Only use what's provided in the context.
2. Explain in layman's terms: break down complex legal language into simple, everyday terms.
3. Be helpful: if the context doesn't fully answer the question, acknowledge this but provide what relevant information you can, and suggest more specific questions the user could ask.
4. Be fair and balanced: present information objectively without political bias.
5. Refer to the legislation simply as "the bill", not by any specific bill number or formal title.

Context from the bill:
%CONTEXT%`

// BuildMessages assembles the chat-completions message list: a persona
// system prompt with the retrieved context interpolated, the prior turns
// replayed as history, then the current question.
func BuildMessages(persona string, contextChunks []string, prior []domain.Turn, question string) []Message {
	system := bookSystemPrompt
	if persona == PersonaBill {
		system = billSystemPrompt
	}
	contextText := strings.Join(contextChunks, "\n\n---\n\n")
	if contextText == "" {
		contextText = "(no relevant passages were found)"
	}
	system = strings.ReplaceAll(system, "%CONTEXT%", contextText)

	messages := make([]Message, 0, 2*len(prior)+2)
	messages = append(messages, Message{Role: "system", Content: system})
	for _, t := range prior {
		if t.Question == "" {
			continue
		}
		messages = append(messages, Message{Role: "user", Content: t.Question})
		if t.Answer != "" {
			messages = append(messages, Message{Role: "assistant", Content: t.Answer})
		}
	}
	messages = append(messages, Message{Role: "user", Content: question})
	return messages
}
