package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/petal-labs/bloom"
)

func (a *App) newModelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "models [image|text|voices]",
		Short: "List available models and voices",
		Long: `List the models and voices the services currently offer.

Without an argument every family is listed. Results are fetched live and
fall back to the compiled defaults when the service is unreachable.

Examples:
  bloom models
  bloom models image
  bloom models voices`,
		Args: cobra.MaximumNArgs(1),
		RunE: a.runModels,
	}
}

var modelFamilies = map[string]bloom.Family{
	"image":  bloom.FamilyImage,
	"text":   bloom.FamilyText,
	"voices": bloom.FamilyVoices,
}

func (a *App) runModels(cmd *cobra.Command, args []string) error {
	client, err := a.client()
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}
	defer client.Close()

	names := []string{"image", "text", "voices"}
	if len(args) == 1 {
		if _, ok := modelFamilies[args[0]]; !ok {
			return exitWithCode(ExitValidation,
				fmt.Errorf("unknown family %q: use image, text, or voices", args[0]))
		}
		names = args[:1]
	}

	inventories := make(map[string][]string, len(names))
	for _, name := range names {
		models, err := client.Models(cmd.Context(), modelFamilies[name])
		if err != nil {
			return a.handleServiceError(err)
		}
		inventories[name] = models
	}

	if a.jsonOutput {
		return a.outputJSON(inventories)
	}

	for _, name := range names {
		fmt.Fprintf(a.stdout, "%s:\n", name)
		for _, model := range inventories[name] {
			fmt.Fprintf(a.stdout, "  - %s\n", model)
		}
	}
	return nil
}
