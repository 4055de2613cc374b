package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yuanying/manuscript/internal/book"
	"github.com/yuanying/manuscript/internal/epub"
)

func newImportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.epub>",
		Short: "Import an EPUB into a project",
		Long: `Import reads an EPUB and converts each spine document back into a Markdown
chapter. The project is written as JSON to --output, saved as the current
project with --save, or printed to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			save, _ := cmd.Flags().GetBool("save")

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read epub: %w", err)
			}
			res, err := epub.Read(data)
			if err != nil {
				return fmt.Errorf("import %s: %w", args[0], err)
			}
			for _, e := range res.Skipped() {
				a.logger.Warn("spine item skipped",
					zap.Int("index", e.Index),
					zap.String("idref", e.IDRef),
					zap.String("href", e.Href),
					zap.Error(e.Skip),
				)
			}
			a.logger.Info("epub imported",
				zap.String("title", res.Metadata.Title),
				zap.Int("chapters", len(res.Chapters)),
				zap.Int("skipped", len(res.Skipped())),
			)

			project := book.Project{Metadata: res.Metadata, Chapters: res.Chapters}

			if save {
				s, err := a.openStore()
				if err != nil {
					return err
				}
				defer s.Close()
				savedAt, err := s.PutProject(cmd.Context(), project)
				if err != nil {
					return err
				}
				project.SavedAt = savedAt
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %q (%d chapters) as the current project\n", project.Metadata.Title, len(project.Chapters))
			}

			if output != "" {
				return writeProjectFile(output, project)
			}
			if !save {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(project)
			}
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "Write the project JSON to this file")
	cmd.Flags().Bool("save", false, "Save the import as the current project")
	return cmd
}
