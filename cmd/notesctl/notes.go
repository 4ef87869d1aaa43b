package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"intelliprep-notes-be/internal/auth"
	"intelliprep-notes-be/internal/notestore"
	"intelliprep-notes-be/internal/repository/factory"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	notesUser  string
	notesQuery string
	notesTags  []string
	notesSort  string
	notesJSON  bool
)

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Inspect a user's notes in the configured backend",
}

var notesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a user's notes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(notesUser) == "" {
			return fmt.Errorf("--user is required")
		}
		sort := notestore.SortKey(notesSort)
		if sort != notestore.SortByDate && sort != notestore.SortByTitle {
			return fmt.Errorf("unknown sort %q", notesSort)
		}

		backend, err := factory.NewNoteBackend(cmd.Context(), cfg, cliLog)
		if err != nil {
			return err
		}
		defer backend.Close()

		session := auth.StaticSession{UserId: notesUser, IsAuthenticated: true}
		store := notestore.New(backend.Repository, session, nil, notestore.WithLogger(cliLog))
		if err := store.Load(cmd.Context()); err != nil {
			return err
		}
		store.SetSearchQuery(notesQuery)
		store.SetSelectedTags(notesTags)
		notes := store.SortedBy(sort)

		if notesJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(notes)
		}

		out := cmd.OutOrStdout()
		for _, n := range notes {
			star := " "
			if n.IsFavorite {
				star = color.YellowString("*")
			}
			fmt.Fprintf(out, "%s %s  %s  %s\n", star, color.CyanString(n.Id), n.Title, color.HiBlackString(strings.Join(n.Tags, ",")))
		}
		color.Green("%d note(s) from %s", len(notes), backend.Name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(notesCmd)
	notesCmd.AddCommand(notesListCmd)

	notesListCmd.Flags().StringVarP(&notesUser, "user", "u", "", "Owner user id")
	notesListCmd.Flags().StringVarP(&notesQuery, "query", "q", "", "Case-insensitive search over title, content and tags")
	notesListCmd.Flags().StringSliceVarP(&notesTags, "tag", "t", nil, "Only notes carrying any of these tags")
	notesListCmd.Flags().StringVar(&notesSort, "sort", string(notestore.SortByDate), "date or title")
	notesListCmd.Flags().BoolVar(&notesJSON, "json", false, "Output in JSON format")
}
