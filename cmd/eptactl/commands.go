package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/backend"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/blob"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/bootstrap"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/config"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/envelope"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/query"
)

// open builds a backend with no simulated latency and no external queue.
func (c *cli) open(cmd *cobra.Command) (*backend.Backend, error) {
	cfg := config.Load()
	for _, w := range cfg.Warnings {
		c.logger.Warn("config", zap.String("warning", w))
	}
	if c.fixtures != "" {
		cfg.FixtureSource = c.fixtures
	}
	cfg.QueueBackend = "memory"
	cfg.Blob = blob.Config{Driver: string(blob.DriverMemory)}
	cfg.Latency = config.Latency{}

	app, err := bootstrap.Build(cmd.Context(), cfg, c.logger, nil)
	if err != nil {
		return nil, err
	}
	return app.Backend, nil
}

func printJSON[T any](cmd *cobra.Command, resp envelope.Response[T]) error {
	if err := resp.Err(); err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(resp.Data)
}

func (c *cli) usersCmd() *cobra.Command {
	users := &cobra.Command{
		Use:   "users",
		Short: "Inspect user accounts",
	}

	var p query.Params
	list := &cobra.Command{
		Use:   "list",
		Short: "List users with filtering, search, sorting and pagination",
		Long: `Lists user accounts one page at a time.

Example:
  eptactl users list --filter role=PARENT --sort lastName --limit 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := c.open(cmd)
			if err != nil {
				return err
			}
			return printJSON(cmd, b.GetAllUsers(cmd.Context(), p))
		},
	}
	list.Flags().IntVar(&p.Page, "page", 1, "Page number")
	list.Flags().IntVar(&p.Limit, "limit", 10, "Page size")
	list.Flags().StringVar(&p.Search, "search", "", "Case-insensitive search over name, email and phone")
	list.Flags().StringVar(&p.SortBy, "sort", "", "Field to sort by")
	list.Flags().StringVar(&p.SortOrder, "order", "asc", "Sort order: asc or desc")
	list.Flags().StringToStringVar(&p.Filters, "filter", nil, "Exact-match filter as field=value (repeatable)")

	users.AddCommand(list)
	return users
}

func (c *cli) clearanceCmd() *cobra.Command {
	clearance := &cobra.Command{
		Use:   "clearance",
		Short: "Clearance eligibility",
	}
	status := &cobra.Command{
		Use:   "status [parent-id]",
		Short: "Show a parent's attendance, balance and clearance eligibility",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := c.open(cmd)
			if err != nil {
				return err
			}
			return printJSON(cmd, b.GetMyClearanceStatus(cmd.Context(), args[0]))
		},
	}
	clearance.AddCommand(status)
	return clearance
}

func (c *cli) dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Print the administrator dashboard statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := c.open(cmd)
			if err != nil {
				return err
			}
			return printJSON(cmd, b.GetDashboardStats(cmd.Context()))
		},
	}
}

func (c *cli) exportCmd() *cobra.Command {
	var output string
	export := &cobra.Command{
		Use:       "export [attendance|contributions]",
		Short:     "Export a CSV report",
		Long:      "Writes the CSV report to --output, or to stdout when no file is given.",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"attendance", "contributions"},
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := c.open(cmd)
			if err != nil {
				return err
			}
			var resp envelope.Response[envelope.Binary]
			switch args[0] {
			case "attendance":
				resp = b.ExportAttendanceReport(cmd.Context())
			default:
				resp = b.ExportContributionReport(cmd.Context())
			}
			if err := resp.Err(); err != nil {
				return err
			}
			if output == "" {
				_, err := cmd.OutOrStdout().Write(resp.Data.Data)
				return err
			}
			if err := os.WriteFile(output, resp.Data.Data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			c.logger.Info("report written", zap.String("path", output), zap.Int("bytes", len(resp.Data.Data)))
			return nil
		},
	}
	export.Flags().StringVarP(&output, "output", "o", "", "Destination file")
	return export
}
