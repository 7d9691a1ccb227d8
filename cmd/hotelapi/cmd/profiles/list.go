package profiles

import (
	"fmt"
	"text/tabwriter"

	"github.com/crawdale/hotel/internal/config"
	"github.com/crawdale/hotel/internal/db/bunx"
	"github.com/crawdale/hotel/internal/repository"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles with their email and role",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, err := bunx.NewDB(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer bunx.Close(db)

		summaries, err := repository.NewBunProfileRepository(db).List(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list profiles: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "EMAIL\tROLE\tID")
		for _, p := range summaries {
			fmt.Fprintf(w, "%s\t%s\t%s\n", p.Email, p.Role, p.ID)
		}
		return w.Flush()
	},
}
