package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/celestiaorg/gcpiac/internal/db/models"
	"github.com/celestiaorg/gcpiac/internal/db/repos"
	"github.com/celestiaorg/gcpiac/internal/workspace"
)

func (c *cli) newWorkspacesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "workspaces",
		Short: "List the workspaces of provisioned instances",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				list []workspace.Workspace
				err  error
			)
			if c.remote() {
				api, cerr := c.newClient()
				if cerr != nil {
					return cerr
				}
				list, err = api.ListWorkspaces(cmd.Context())
			} else {
				manager, merr := c.newWorkspaceManager()
				if merr != nil {
					return merr
				}
				list, err = manager.List()
			}
			if err != nil {
				return fmt.Errorf("failed to list workspaces: %w", err)
			}

			if len(list) == 0 {
				c.display.Info("No workspaces")
				return nil
			}
			rows := make([][]interface{}, 0, len(list))
			for _, ws := range list {
				rows = append(rows, []interface{}{ws.Name, ws.Host(), ws.Dir})
			}
			c.display.Table([]interface{}{"Name", "Host", "Directory"}, rows)
			return nil
		},
	}
}

func (c *cli) newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded workflow runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}

			var (
				runs []models.Run
				err  error
			)
			if c.remote() {
				api, cerr := c.newClient()
				if cerr != nil {
					return cerr
				}
				runs, err = api.ListRuns(cmd.Context(), limit)
			} else {
				gdb, derr := c.openDB()
				if derr != nil {
					return derr
				}
				if gdb == nil {
					return fmt.Errorf("run history is disabled")
				}
				rt := &runtime{db: gdb}
				defer rt.close()
				runs, err = repos.NewRunRepository(gdb).List(cmd.Context(), &models.ListOptions{Limit: limit})
			}
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}

			if len(runs) == 0 {
				c.display.Info("No runs recorded")
				return nil
			}
			rows := make([][]interface{}, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []interface{}{
					run.ID.String(),
					run.Action,
					run.State,
					run.Instance,
					run.IP,
					run.StartedAt.Format(time.RFC3339),
					run.Duration().Round(time.Second),
				})
			}
			c.display.Table([]interface{}{"ID", "Action", "State", "Instance", "IP", "Started", "Duration"}, rows)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", models.DefaultLimit, "Maximum number of runs to show")
	return cmd
}
