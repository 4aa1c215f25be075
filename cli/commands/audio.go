package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/petal-labs/bloom/services/audio"
)

func (a *App) newAudioCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audio",
		Short: "Synthesize speech from text",
		Long: `Synthesize speech from text and save it to a file.

Examples:
  bloom audio --text "Hello, world" --output hello.mp3
  bloom audio --text "Good morning" --voice nova -o morning.mp3`,
		RunE: a.runAudio,
	}

	cmd.Flags().StringVar(&a.audioText, "text", "", "Text to speak (required)")
	cmd.Flags().StringVar(&a.audioVoice, "voice", "", "Speaking voice (default alloy)")
	cmd.Flags().StringVarP(&a.audioOut, "output", "o", "", "Output file (required)")

	_ = cmd.MarkFlagRequired("text")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func (a *App) runAudio(cmd *cobra.Command, args []string) error {
	client, err := a.client()
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}
	defer client.Close()

	voice := a.audioVoice
	if voice == "" && a.cfg != nil {
		voice = a.cfg.DefaultVoice
	}

	req := &audio.Request{
		Text:  a.audioText,
		Voice: voice,
	}

	speech, err := client.GenerateAudio(cmd.Context(), req)
	if err != nil {
		return a.handleServiceError(err)
	}

	if speech.Ignored {
		fmt.Fprintln(a.stderr, "Payment required; the response was ignored and nothing was saved.")
		return nil
	}

	if err := speech.Save(a.audioOut); err != nil {
		return exitWithCode(ExitValidation, fmt.Errorf("failed to write %s: %w", a.audioOut, err))
	}

	if a.jsonOutput {
		return a.outputJSON(map[string]interface{}{
			"file":         a.audioOut,
			"bytes":        len(speech.Data),
			"content_type": speech.ContentType,
			"request_id":   speech.RequestID,
		})
	}

	fmt.Fprintf(a.stdout, "Saved %s (%d bytes)\n", a.audioOut, len(speech.Data))
	return nil
}
