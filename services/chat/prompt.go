package chat

import (
	"fmt"
	"strings"

	"ragdesk/models"
)

func answerPrompt(question string, results []models.RankedResult, history []models.ChatMessage) string {
	var b strings.Builder
	b.WriteString("You are a helpful AI assistant. Answer the user's question based on the provided context.\n\n")
	b.WriteString("Context Information:\n")
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if src := r.Metadata["source"]; src != "" {
			fmt.Fprintf(&b, "[%d] (%s)\n", i+1, src)
		} else {
			fmt.Fprintf(&b, "[%d]\n", i+1)
		}
		b.WriteString(r.Content)
	}

	if len(history) > 0 {
		b.WriteString("\n\nConversation so far:\n")
		for _, m := range history {
			who := "User"
			if m.Role == models.RoleAssistant {
				who = "Assistant"
			}
			fmt.Fprintf(&b, "%s: %s\n", who, m.Content)
		}
	}

	fmt.Fprintf(&b, "\nUser Question: %s\n\n", question)
	b.WriteString(`Instructions:
- Answer the question using only the information provided in the context
- If the context doesn't contain enough information to answer the question, say so clearly
- Be concise and accurate
- If you need to make assumptions, state them clearly
- Provide specific examples from the context when relevant

Answer:`)
	return b.String()
}
