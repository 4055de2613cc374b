package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yuanying/manuscript/internal/assist"
)

var errNoText = errors.New("no text to send")

func newSuggestCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest [text|-]",
		Short: "Ask the language model for a writing suggestion",
		Long: `Suggest sends text to the configured model and prints its suggestion.
The text is read from the argument, or from stdin when the argument is "-" or
missing. Tasks: grammar-fix, expand, summarize, continue.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("task")
			task, err := assist.ParseTask(name)
			if err != nil {
				return fmt.Errorf("invalid --task: %w", err)
			}

			text, err := suggestInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			c := a.cfg.Assist
			client, err := assist.NewClient(assist.Config{
				APIKey:            c.APIKey,
				BaseURL:           c.BaseURL,
				Model:             c.Model,
				MaxTokens:         c.MaxTokens,
				Timeout:           c.Timeout(),
				RequestsPerMinute: c.RequestsPerMinute,
			})
			if err != nil {
				return err
			}

			a.logger.Debug("requesting suggestion",
				zap.String("task", string(task)),
				zap.String("model", client.Model()),
				zap.Int("chars", len(text)),
			)
			out, err := client.Suggest(cmd.Context(), task, text)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().String("task", string(assist.TaskGrammarFix), "Task: grammar-fix, expand, summarize, continue")
	return cmd
}

func suggestInput(stdin io.Reader, args []string) (string, error) {
	var text string
	if len(args) == 1 && args[0] != "-" {
		text = args[0]
	} else {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return "", errNoText
	}
	return text, nil
}
