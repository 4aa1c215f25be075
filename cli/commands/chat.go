package commands

import (
	"github.com/spf13/cobra"

	"github.com/petal-labs/bloom/services/text"
)

func (a *App) newChatCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Send a conversation to the chat endpoint",
		Long: `Send a conversation to the OpenAI-compatible chat endpoint.

The chat endpoint accepts full message histories and falls back to the
plain completion endpoint when it is unavailable.

Examples:
  bloom chat --prompt "Hello"
  bloom chat --prompt "Summarize this repo" --system "You are terse."
  bloom chat --prompt "Hello" --stream`,
		RunE: a.runChat,
	}

	cmd.Flags().StringVar(&a.chatPrompt, "prompt", "", "User message (required)")
	cmd.Flags().StringVar(&a.chatSystem, "system", "", "System message")
	cmd.Flags().BoolVar(&a.chatJSON, "json-mode", false, "Ask for a JSON-shaped completion")
	cmd.Flags().BoolVar(&a.chatStream, "stream", false, "Stream the response as it is generated")

	_ = cmd.MarkFlagRequired("prompt")

	return cmd
}

func (a *App) runChat(cmd *cobra.Command, args []string) error {
	client, err := a.client()
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}
	defer client.Close()

	var messages []text.Message
	if a.chatSystem != "" {
		messages = append(messages, text.Message{Role: text.RoleSystem, Content: a.chatSystem})
	}
	messages = append(messages, text.Message{Role: text.RoleUser, Content: a.chatPrompt})

	req := &text.ChatRequest{
		Messages: messages,
		Model:    a.modelOrDefault(a.cfg.DefaultTextModel),
		JSONMode: a.chatJSON,
	}

	ctx := cmd.Context()
	if a.chatStream {
		stream, err := client.ChatStream(ctx, req)
		if err != nil {
			return a.handleServiceError(err)
		}
		return a.printStream(ctx, stream)
	}

	resp, err := client.Chat(ctx, req)
	if err != nil {
		return a.handleServiceError(err)
	}
	return a.printTextResponse(resp)
}
