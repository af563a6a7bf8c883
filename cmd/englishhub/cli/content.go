package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/englishhub/englishhub/internal/content"
	"github.com/englishhub/englishhub/internal/model"
)

func newContentCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "content",
		Short: "List and curate catalog items",
		Long:  "Inspect and edit the content catalog directly against storage, without going through the HTTP API.",
	}

	cmd.AddCommand(newContentListCmd(a))
	cmd.AddCommand(newContentAddCmd(a))
	cmd.AddCommand(newContentRemoveCmd(a))
	cmd.AddCommand(newContentPurgeCmd(a))

	return cmd
}

// withRepository opens initialized storage, runs fn against a repository and
// closes storage again.
func (a *app) withRepository(cmd *cobra.Command, fn func(repo *content.Repository) error) error {
	cfg, logger, err := a.setup(cmd)
	if err != nil {
		return err
	}
	backend, _, err := openInitialized(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer backend.Close()
	return fn(content.NewRepository(backend))
}

// ---------- content list ----------

func newContentListCmd(a *app) *cobra.Command {
	var (
		category   string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List catalog items, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRepository(cmd, func(repo *content.Repository) error {
				var (
					items []model.Content
					err   error
				)
				if category == "" {
					items, err = repo.List(cmd.Context())
				} else {
					cat, perr := model.ParseCategory(category)
					if perr != nil {
						return perr
					}
					items, err = repo.ListByCategory(cmd.Context(), cat)
				}
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if jsonOutput {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(items)
				}
				if len(items) == 0 {
					fmt.Fprintln(out, "No content found.")
					return nil
				}

				fmt.Fprintf(out, "%-36s %-10s %-12s %-20s %s\n", "ID", "CATEGORY", "DIFFICULTY", "CREATED", "TITLE")
				fmt.Fprintf(out, "%-36s %-10s %-12s %-20s %s\n", "--", "--------", "----------", "-------", "-----")
				for _, c := range items {
					fmt.Fprintf(out, "%-36s %-10s %-12s %-20s %s\n",
						c.ID, c.Category, c.Difficulty, c.CreatedAt.Format("2006-01-02 15:04:05"), truncate(c.Title, 60))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "only list one category: listening, speaking or reading")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	return cmd
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

// ---------- content add ----------

func newContentAddCmd(a *app) *cobra.Command {
	var in model.NewContent

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a catalog item",
		Example: `  englishhub content add --title "Ordering coffee" --description "Everyday phrases" \
    --url https://www.youtube.com/watch?v=dQw4w9WgXcQ --category speaking --difficulty beginner`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRepository(cmd, func(repo *content.Repository) error {
				if in.CreatedBy == "" {
					in.CreatedBy = a.cfg.Auth.AdminUsername
				}
				item, err := repo.Insert(cmd.Context(), in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", item.ID, item.Category)
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.Title, "title", "", "item title (required)")
	f.StringVar(&in.Description, "description", "", "item description (required)")
	f.StringVar(&in.YouTubeURL, "url", "", "YouTube video URL (required)")
	f.StringVar((*string)(&in.Category), "category", "", "listening, speaking or reading (required)")
	f.StringVar((*string)(&in.Difficulty), "difficulty", "", "beginner, intermediate or advanced (required)")
	f.StringVar(&in.CreatedBy, "created-by", "", "author recorded on the item (default the admin username)")

	return cmd
}

// ---------- content rm ----------

func newContentRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"remove"},
		Short:   "Remove catalog items by id",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRepository(cmd, func(repo *content.Repository) error {
				for _, id := range args {
					if err := repo.Delete(cmd.Context(), id); err != nil {
						return fmt.Errorf("remove %s: %w", id, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", id)
				}
				return nil
			})
		},
	}
}

// ---------- content purge ----------

func newContentPurgeCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Remove every catalog item",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to remove all content without --yes")
			}
			return a.withRepository(cmd, func(repo *content.Repository) error {
				if err := repo.DeleteAll(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "All content removed.")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm removal of all content")

	return cmd
}
