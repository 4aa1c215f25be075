package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/petal-labs/bloom/services/image"
)

func (a *App) newImageCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "image",
		Short: "Generate an image from a prompt",
		Long: `Generate an image from a text prompt and save it to a file.

Examples:
  bloom image --prompt "a field of tulips at dawn" --output tulips.png
  bloom image --prompt "low poly fox" --model turbo --width 512 --height 512 -o fox.png
  bloom image --prompt "corporate logo" --nologo --private -o logo.png`,
		RunE: a.runImage,
	}

	cmd.Flags().StringVar(&a.imagePrompt, "prompt", "", "Image description (required)")
	cmd.Flags().StringVarP(&a.imageOut, "output", "o", "", "Output file (required)")
	cmd.Flags().IntVar(&a.imageWidth, "width", 0, "Image width in pixels (0 = default)")
	cmd.Flags().IntVar(&a.imageHeight, "height", 0, "Image height in pixels (0 = default)")
	cmd.Flags().IntVar(&a.imageSeed, "seed", 0, "Generation seed (0 = random)")
	cmd.Flags().BoolVar(&a.imageNoLogo, "nologo", false, "Remove the service watermark")
	cmd.Flags().BoolVar(&a.imagePrivate, "private", false, "Keep the result off the public feed")
	cmd.Flags().BoolVar(&a.imageEnhance, "enhance", false, "Let the service embellish the prompt")
	cmd.Flags().BoolVar(&a.imageSafe, "safe", false, "Enable the strict safety filter")

	_ = cmd.MarkFlagRequired("prompt")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func (a *App) runImage(cmd *cobra.Command, args []string) error {
	client, err := a.client()
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}
	defer client.Close()

	req := &image.Request{
		Prompt:  a.imagePrompt,
		Model:   a.modelOrDefault(a.cfg.DefaultImageModel),
		Width:   a.imageWidth,
		Height:  a.imageHeight,
		Seed:    a.imageSeed,
		NoLogo:  a.imageNoLogo,
		Private: a.imagePrivate,
		Enhance: a.imageEnhance,
		Safe:    a.imageSafe,
	}

	img, err := client.GenerateImage(cmd.Context(), req)
	if err != nil {
		return a.handleServiceError(err)
	}

	if img.Ignored {
		fmt.Fprintln(a.stderr, "Payment required; the response was ignored and nothing was saved.")
		return nil
	}

	if err := img.Save(a.imageOut); err != nil {
		return exitWithCode(ExitValidation, fmt.Errorf("failed to write %s: %w", a.imageOut, err))
	}

	if a.jsonOutput {
		return a.outputJSON(map[string]interface{}{
			"file":         a.imageOut,
			"bytes":        len(img.Data),
			"content_type": img.ContentType,
			"request_id":   img.RequestID,
		})
	}

	fmt.Fprintf(a.stdout, "Saved %s (%d bytes)\n", a.imageOut, len(img.Data))
	return nil
}
