package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mercator-hq/callisto/pkg/cli"
	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/prompt"
	"mercator-hq/callisto/pkg/proxy/types"
)

var validateFlags struct {
	format  string
	preview bool
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and chat template",
	Long: `Load the configuration the same way serve does (file, then environment),
validate every field and compile the chat template.

With --preview the template is also rendered against a short sample
conversation so the resulting prompt can be inspected.

Examples:
  # Validate a config file
  callisto validate --config config.yaml

  # Show the prompt the template produces
  callisto validate --config config.yaml --preview

  # Machine-readable report
  callisto validate --config config.yaml --format json`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateFlags.format, "format", "text", "output format: text, json")
	validateCmd.Flags().BoolVar(&validateFlags.preview, "preview", false, "render the template against a sample conversation")
}

var sampleConversation = []types.Message{
	{Role: "system", Content: "You are a helpful assistant."},
	{Role: "user", Content: "Hello!"},
	{Role: "assistant", Content: "Hi! How can I help?"},
	{Role: "user", Content: "Tell me a joke."},
}

// validationReport is the result printed by validate.
type validationReport struct {
	Config   string   `json:"config"`
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Template string   `json:"template,omitempty"`
	Preview  string   `json:"preview,omitempty"`
}

func (r *validationReport) RenderText(w io.Writer) error {
	fmt.Fprintf(w, "Configuration: %s\n", r.Config)
	if r.Template != "" {
		fmt.Fprintf(w, "Template: %s\n", r.Template)
	}
	if r.Valid {
		fmt.Fprintln(w, "✓ Configuration valid")
	} else {
		fmt.Fprintf(w, "✗ %d problem(s) found:\n", len(r.Errors))
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  - %s\n", e)
		}
	}
	if r.Preview != "" {
		fmt.Fprintln(w, "\nPrompt preview:")
		fmt.Fprintln(w, "---")
		fmt.Fprint(w, r.Preview)
		if r.Preview[len(r.Preview)-1] != '\n' {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, "---")
	}
	return nil
}

// buildReport never fails; every problem ends up in the report.
func buildReport(path string, preview bool) *validationReport {
	report := &validationReport{Config: path}
	if path == "" {
		report.Config = "(defaults and environment)"
	}

	cfg, err := config.LoadUnvalidated(path)
	if err != nil {
		report.Errors = append(report.Errors, err.Error())
		return report
	}
	report.Template = templateOrigin(cfg.Template)

	if err := resolveSecrets(context.Background(), cfg); err != nil {
		report.Errors = append(report.Errors, err.Error())
	}

	var verr config.ValidationError
	if err := config.Validate(cfg); err != nil {
		if errors.As(err, &verr) {
			for _, fe := range verr.Errors {
				report.Errors = append(report.Errors, fe.Error())
			}
		} else {
			report.Errors = append(report.Errors, err.Error())
		}
	}

	source, err := cfg.Template.Source()
	if err != nil {
		report.Errors = append(report.Errors, err.Error())
	} else if source != "" {
		renderer, err := prompt.New(source)
		if err != nil {
			report.Errors = append(report.Errors, err.Error())
		} else if preview {
			rendered, err := renderer.Render(sampleConversation)
			if err != nil {
				report.Errors = append(report.Errors, err.Error())
			} else {
				report.Preview = rendered
			}
		}
	}

	report.Valid = len(report.Errors) == 0
	return report
}

func runValidate(cmd *cobra.Command, args []string) error {
	formatter, err := cli.NewFormatter(cli.OutputFormat(validateFlags.format))
	if err != nil {
		return err
	}

	report := buildReport(cfgFile, validateFlags.preview)
	if err := formatter.FormatTo(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	if !report.Valid {
		return cli.NewCommandError("validate", fmt.Errorf("%d problem(s) found", len(report.Errors)))
	}
	return nil
}
