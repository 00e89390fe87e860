package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/celerix-dev/celerix-gestao/internal/app"
	"github.com/celerix-dev/celerix-gestao/internal/database"
)

var errBackupsDisabled = errors.New("backups não configurados")

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Grava um backup do banco de dados",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(a *app.App) error {
			if a.Backups == nil {
				return errBackupsDisabled
			}
			ctx := database.WithActor(cmd.Context(), database.SystemActor)
			info, err := a.Backups.Create(ctx)
			if err != nil {
				return err
			}
			success.Printf("Backup %s gravado (%d bytes)\n", info.Name, info.Size)
			return nil
		})
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lista os backups, do mais recente ao mais antigo",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(a *app.App) error {
			if a.Backups == nil {
				return errBackupsDisabled
			}
			list, err := a.Backups.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, b := range list {
				fmt.Printf("%s  %8d  %s\n", label.Sprint(b.CreatedAt.Format("02/01/2006 15:04:05")), b.Size, b.Name)
			}
			return nil
		})
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <nome>",
	Short: "Substitui o banco de dados pelo backup indicado",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			if a.Backups == nil {
				return errBackupsDisabled
			}
			ctx := database.WithActor(cmd.Context(), database.SystemActor)
			if err := a.Backups.Restore(ctx, args[0]); err != nil {
				return err
			}
			success.Printf("Backup %s restaurado\n", args[0])
			return nil
		})
	},
}

func init() {
	backupCmd.AddCommand(backupListCmd, backupRestoreCmd)
}
