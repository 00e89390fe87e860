package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/celerix-dev/celerix-gestao/internal/app"
	"github.com/celerix-dev/celerix-gestao/internal/engine"
)

var migrateFrom string

var migrateCmd = &cobra.Command{
	Use:   "migrate <driver>",
	Short: "Copia os dados persistidos para outro driver (file, sqlite, postgres)",
	Long: `Copia todas as áreas persistentes do driver de origem (padrão:
CELERIX_STORAGE_DRIVER) para o driver de destino. Chaves já existentes no
destino são sobrescritas; as demais são mantidas.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		from := migrateFrom
		if from == "" {
			from = cfg.Storage.Driver
		}
		to := args[0]
		if from == to {
			return errors.New("origem e destino são o mesmo driver")
		}

		src, closeSrc, err := app.OpenStore(cmd.Context(), cfg.Storage, from, log)
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, closeSrc()) }()

		dst, closeDst, err := app.OpenStore(cmd.Context(), cfg.Storage, to, log)
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, closeDst()) }()

		if err := engine.Migrate(src, dst); err != nil {
			return err
		}
		success.Printf("Dados copiados de %s para %s\n", from, to)
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrateFrom, "from", "", "driver de origem")
}
