package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/celerix-dev/celerix-gestao/internal/config"
	"github.com/celerix-dev/celerix-gestao/internal/logger"
)

var (
	cfg        *config.Config
	log        *slog.Logger
	remoteAddr string
	disableTLS bool

	success = color.New(color.FgGreen, color.Bold)
	failure = color.New(color.FgRed, color.Bold)
	label   = color.New(color.FgCyan)
)

var rootCmd = &cobra.Command{
	Use:   "gestao",
	Short: "Gestão - linha de comando do sistema de gestão de frota",
	Long: `Gestão administra o armazenamento do sistema de gestão de frota:
leitura e escrita de chaves, cadastro de administradores, estatísticas
do painel, backups e migração entre drivers de persistência.

Sem CELERIX_STORE_ADDR (ou --addr) os comandos abrem o armazenamento local.`,
	PersistentPreRunE: setup,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		failure.Fprintf(os.Stderr, "Erro: %v\n", err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("configuração inválida: %w", err)
	}
	if cmd.Flags().Changed("addr") {
		cfg.Storage.RemoteAddr = remoteAddr
	}
	if disableTLS {
		cfg.Server.DisableTLS = true
	}
	log = logger.New(cfg.Env)
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&remoteAddr, "addr", "", "endereço do daemon (padrão: CELERIX_STORE_ADDR)")
	rootCmd.PersistentFlags().BoolVar(&disableTLS, "no-tls", false, "conectar ao daemon sem TLS")

	rootCmd.AddCommand(getCmd, setCmd, delCmd, keysCmd, dumpCmd, pingCmd)
	rootCmd.AddCommand(usersCmd, statsCmd, backupCmd, migrateCmd)
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Println(v)
		return
	}
	fmt.Println(string(b))
}
