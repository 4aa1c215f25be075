package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/petal-labs/bloom/core"
	"github.com/petal-labs/bloom/services/text"
)

func (a *App) newTextCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "text",
		Short: "Complete a prompt",
		Long: `Complete a text prompt and print the response.

Examples:
  bloom text --prompt "Write a haiku about spring"
  bloom text --prompt "Explain quicksort" --reasoning high
  bloom text --prompt "Tell me a story" --stream`,
		RunE: a.runText,
	}

	cmd.Flags().StringVar(&a.textPrompt, "prompt", "", "Input prompt (required)")
	cmd.Flags().StringVar(&a.textSystem, "system", "", "System prompt")
	cmd.Flags().IntVar(&a.textSeed, "seed", 0, "Generation seed (0 = random)")
	cmd.Flags().Float64Var(&a.textTemp, "temperature", 0, "Sampling temperature (0 = default)")
	cmd.Flags().BoolVar(&a.textJSON, "json-mode", false, "Ask for a JSON-shaped completion")
	cmd.Flags().BoolVar(&a.textStream, "stream", false, "Stream the response as it is generated")
	cmd.Flags().StringVar(&a.textReason, "reasoning", "", "Reasoning level: low, medium, high, or adaptive")
	cmd.Flags().BoolVar(&a.textPrivate, "private", false, "Keep the result off the public feed")

	_ = cmd.MarkFlagRequired("prompt")

	return cmd
}

func (a *App) runText(cmd *cobra.Command, args []string) error {
	prompt := a.textPrompt
	if a.textReason != "" {
		level := text.ReasoningLevel(a.textReason)
		switch level {
		case text.ReasoningLow, text.ReasoningMedium, text.ReasoningHigh, text.ReasoningAdaptive:
		default:
			return exitWithCode(ExitValidation,
				fmt.Errorf("invalid reasoning level %q: use low, medium, high, or adaptive", a.textReason))
		}
		prompt = text.Enhance(prompt, level)
	}

	client, err := a.client()
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}
	defer client.Close()

	req := &text.Request{
		Prompt:      prompt,
		Model:       a.modelOrDefault(a.cfg.DefaultTextModel),
		System:      a.textSystem,
		Seed:        a.textSeed,
		Temperature: a.textTemp,
		JSONMode:    a.textJSON,
		Private:     a.textPrivate,
	}

	ctx := cmd.Context()
	if a.textStream {
		stream, err := client.StreamText(ctx, req)
		if err != nil {
			return a.handleServiceError(err)
		}
		return a.printStream(ctx, stream)
	}

	resp, err := client.GenerateText(ctx, req)
	if err != nil {
		return a.handleServiceError(err)
	}
	return a.printTextResponse(resp)
}

// printStream drains a stream to stdout, event by event.
func (a *App) printStream(ctx context.Context, stream *core.Stream) error {
	defer stream.Close()

	if a.jsonOutput {
		// Accumulate for JSON output.
		full, err := stream.Text(ctx)
		if err != nil {
			return a.handleServiceError(err)
		}
		return a.outputJSON(map[string]interface{}{"text": full})
	}

	for evt := range stream.Events {
		if evt.Kind == core.EventContent {
			fmt.Fprint(a.stdout, evt.Text)
		}
	}
	fmt.Fprintln(a.stdout)

	if err, ok := <-stream.Err; ok && err != nil {
		return a.handleServiceError(err)
	}
	return nil
}

func (a *App) printTextResponse(resp *text.Response) error {
	if resp.Ignored {
		fmt.Fprintln(a.stderr, "Payment required; the response was ignored.")
		return nil
	}

	if a.jsonOutput {
		return a.outputJSON(map[string]interface{}{
			"text":       resp.Text,
			"request_id": resp.RequestID,
		})
	}

	fmt.Fprintln(a.stdout, resp.Text)
	return nil
}
