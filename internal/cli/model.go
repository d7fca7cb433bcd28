package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/pipeline"
)

var modelJSON bool

// modelCmd represents the model command
var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Show the loaded model and table versions",
	Long: `Model loads the configured model artifact, rule table and lexicon and
prints their versions and the feature schema. A model that fails to load
or does not match the feature schema is reported as an error.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		analyzer, err := pipeline.NewAnalyzerFromConfig(appConfig)
		if err != nil {
			return err
		}
		info := analyzer.ModelInfo()
		out := cmd.OutOrStdout()

		if modelJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		}
		data, err := yaml.Marshal(info)
		if err != nil {
			return fmt.Errorf("marshal model info: %w", err)
		}
		fmt.Fprintf(out, "Fingerprint: %s\n\n", analyzer.Fingerprint())
		_, err = out.Write(data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(modelCmd)
	modelCmd.Flags().BoolVar(&modelJSON, "json", false, "print as JSON")
}

func newRendererFor(cfg *model.Config) *pipeline.Renderer {
	return pipeline.NewRenderer(cfg.Output.IncludeFooter)
}
