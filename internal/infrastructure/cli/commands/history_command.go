package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/orbit-go/internal/infrastructure/cli/helpers"
	"github.com/doeshing/orbit-go/internal/ports"
)

// NewHistoryCommand creates the history command with all subcommands
func NewHistoryCommand(provider ContainerFunc) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect invocation history",
	}

	historyCmd.AddCommand(
		newHistoryListCommand(provider),
		newHistorySearchCommand(provider),
		newHistoryClearCommand(provider),
		newHistoryExportCommand(provider),
		newHistoryStatsCommand(provider),
		newHistoryPruneCommand(provider),
	)

	return historyCmd
}

func newHistoryListCommand(provider ContainerFunc) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent invocations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := historyStore(cmd.Context(), provider)
			if err != nil {
				return err
			}
			records, err := store.Records(limit, "")
			if err != nil {
				return fmt.Errorf("failed to retrieve history records: %w", err)
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), records)
			}
			helpers.RenderHistory(cmd.OutOrStdout(), records)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", DefaultHistoryLimit, "Max entries to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print records as JSON")
	return cmd
}

func newHistorySearchCommand(provider ContainerFunc) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Search history by action, category or error text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := historyStore(cmd.Context(), provider)
			if err != nil {
				return err
			}
			records, err := store.Records(limit, args[0])
			if err != nil {
				return fmt.Errorf("failed to search history: %w", err)
			}
			helpers.RenderHistory(cmd.OutOrStdout(), records)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", DefaultHistorySearchLimit, "Limit search results")
	return cmd
}

func newHistoryClearCommand(provider ContainerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all history entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := historyStore(cmd.Context(), provider)
			if err != nil {
				return err
			}
			if err := store.Clear(); err != nil {
				return fmt.Errorf("failed to clear history: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
			return nil
		},
	}
}

func newHistoryExportCommand(provider ContainerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "export <path>",
		Short: "Export history to a JSONL file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := historyStore(cmd.Context(), provider)
			if err != nil {
				return err
			}
			if err := store.ExportJSON(args[0]); err != nil {
				return fmt.Errorf("failed to export history to %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "History exported to %s\n", args[0])
			return nil
		},
	}
}

func newHistoryStatsCommand(provider ContainerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show success rate and most used actions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := historyStore(cmd.Context(), provider)
			if err != nil {
				return err
			}
			records, err := store.Records(MaxHistoryAnalysisRecords, "")
			if err != nil {
				return fmt.Errorf("failed to retrieve history for analysis: %w", err)
			}
			helpers.RenderHistorySummary(cmd.OutOrStdout(), helpers.SummarizeHistory(records))
			return nil
		},
	}
}

func newHistoryPruneCommand(provider ContainerFunc) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete history older than N days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days <= 0 {
				return errors.New(ErrInvalidRetainDays)
			}
			store, err := historyStore(cmd.Context(), provider)
			if err != nil {
				return err
			}
			removed, err := store.Prune(time.Now().AddDate(0, 0, -days))
			if err != nil {
				return fmt.Errorf("failed to prune old history: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries older than %d days.\n", removed, days)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", DefaultHistoryPruneDays, "Keep entries from the last N days")
	return cmd
}

func historyStore(ctx context.Context, provider ContainerFunc) (ports.HistoryRepository, error) {
	container, err := provider(ctx)
	if err != nil {
		return nil, err
	}
	if container.HistoryStore == nil {
		return nil, errors.New(ErrHistoryStoreUnavailable)
	}
	return container.HistoryStore, nil
}
