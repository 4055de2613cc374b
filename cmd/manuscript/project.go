package main

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/yuanying/manuscript/internal/book"
	"github.com/yuanying/manuscript/internal/store"
)

func newProjectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Inspect and manage the saved project",
	}
	cmd.AddCommand(
		newProjectShowCmd(a),
		newProjectSaveCmd(a),
		newProjectHistoryCmd(a),
		newProjectClearCmd(a),
	)
	return cmd
}

func newProjectShowCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the saved project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, _ := cmd.Flags().GetString("input")
			p, err := a.loadProject(cmd.Context(), input)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			m := p.Metadata
			fmt.Fprintf(out, "Title:     %s\n", m.Title)
			fmt.Fprintf(out, "Author:    %s\n", m.Author)
			fmt.Fprintf(out, "Publisher: %s\n", m.PublisherOrDefault())
			fmt.Fprintf(out, "Language:  %s\n", m.LanguageOrDefault())
			if m.ISBN != "" {
				fmt.Fprintf(out, "ISBN:      %s\n", m.ISBN)
			}
			if m.Cover.Valid() {
				fmt.Fprintf(out, "Cover:     %s, %s\n", m.Cover.MediaType, humanize.Bytes(uint64(len(m.Cover.Data))))
			}
			if !p.SavedAt.IsZero() {
				fmt.Fprintf(out, "Saved:     %s\n", humanize.Time(p.SavedAt))
			}
			fmt.Fprintln(out, chapterTable(book.SortByOrder(p.Chapters)))
			return nil
		},
	}
	cmd.Flags().String("input", "", "Show a project JSON file instead of the saved project")
	return cmd
}

func chapterTable(chapters []book.Chapter) string {
	rows := make([][]string, 0, len(chapters))
	for i, ch := range chapters {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			ch.Title,
			humanize.Comma(int64(utf8.RuneCountInString(ch.Content))),
		})
	}
	return renderTable([]string{"#", "Title", "Characters"}, rows, []columnAlignment{alignRight, alignLeft, alignRight})
}

func newProjectSaveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "save <project.json>",
		Short: "Save a project file as the current project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := readProjectFile(args[0])
			if err != nil {
				return err
			}
			p.Chapters = book.SortByOrder(p.Chapters)
			book.Renumber(p.Chapters)
			for i := range p.Chapters {
				if p.Chapters[i].ID == "" {
					p.Chapters[i].ID = book.NewChapterID()
				}
			}
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()
			if _, err := s.PutProject(cmd.Context(), p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %q (%d chapters)\n", p.Metadata.Title, len(p.Chapters))
			return nil
		},
	}
}

func newProjectHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List exported files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			if limit < 0 {
				return fmt.Errorf("invalid --limit %d: must not be negative", limit)
			}
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			records, err := s.ListHistory(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No exports recorded.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), historyTable(records))
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "Maximum number of entries (0 for all)")
	return cmd
}

func historyTable(records []store.HistoryRecord) string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.Filename,
			r.Format,
			humanize.Bytes(uint64(r.Size)),
			humanize.Time(r.CreatedAt),
		})
	}
	return renderTable([]string{"File", "Format", "Size", "Exported"}, rows, []columnAlignment{alignLeft, alignLeft, alignRight, alignLeft})
}

func newProjectClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the saved project, editor state and file history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", s.Path())
			return nil
		},
	}
}
