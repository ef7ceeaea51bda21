package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"belegsort/internal/accounts"
)

func newAccountsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "Show the configured accounting table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Analyzer.AccountsPath == "" {
				return errors.New("no accounts table configured (set analyzer.accounts_path)")
			}
			table, err := accounts.Load(cfg.Analyzer.AccountsPath)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, table.Len())
			for _, account := range table.All() {
				rows = append(rows, []string{account.Code, account.Description, account.Type})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Code", "Description", "Type"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft},
			))
			fmt.Fprintf(out, "%d account(s) from %s\n", table.Len(), cfg.Analyzer.AccountsPath)
			return nil
		},
	}
}
