package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/celerix-dev/celerix-gestao/internal/app"
	"github.com/celerix-dev/celerix-gestao/internal/database"
	"github.com/celerix-dev/celerix-gestao/internal/services"
	"github.com/celerix-dev/celerix-gestao/pkg/engine"
	"github.com/celerix-dev/celerix-gestao/pkg/schema"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Administração de usuários",
}

var (
	userName string
	userRole string
)

var usersAddCmd = &cobra.Command{
	Use:   "add <usuario>",
	Short: "Cadastra um usuário; a senha é lida do terminal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword()
		if err != nil {
			return err
		}
		return withApp(cmd, func(a *app.App) error {
			ctx := database.WithActor(cmd.Context(), database.SystemActor)
			u, err := a.Services.Users.Create(ctx, services.UserInput{
				Name:     userName,
				Login:    args[0],
				Role:     userRole,
				Password: password,
			})
			if err != nil {
				return err
			}
			success.Printf("Usuário %s cadastrado (id %s, perfil %s)\n", u.Login, u.ID, u.Role)
			return nil
		})
	},
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lista os usuários",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(a *app.App) error {
			page, err := a.Services.Users.List(cmd.Context(), services.ListParams{PageSize: services.MaxPageSize})
			if err != nil {
				return err
			}
			for _, u := range page.Items {
				status := success.Sprint("ativo")
				if !u.Active {
					status = failure.Sprint("inativo")
				}
				fmt.Printf("%s  %-20s %-10s %s\n", label.Sprint(u.ID), u.Login, u.Role, status)
			}
			return nil
		})
	},
}

// readPassword prompts twice on a terminal and reads one line otherwise.
func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("ler senha: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Print("Senha: ")
	first, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("ler senha: %w", err)
	}
	fmt.Print("Repita a senha: ")
	second, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("ler senha: %w", err)
	}
	if string(first) != string(second) {
		return "", fmt.Errorf("as senhas não coincidem")
	}
	return string(first), nil
}

// withApp builds the services on the configured store for fn.
func withApp(cmd *cobra.Command, fn func(a *app.App) error) error {
	return withStore(cmd, func(s engine.Store) error {
		a, err := app.New(cmd.Context(), cfg, s, log)
		if err != nil {
			return err
		}
		return fn(a)
	})
}

func init() {
	usersAddCmd.Flags().StringVar(&userName, "nome", "", "nome completo")
	usersAddCmd.Flags().StringVar(&userRole, "perfil", schema.RoleAdmin, "perfil: admin ou operador")
	_ = usersAddCmd.MarkFlagRequired("nome")
	usersCmd.AddCommand(usersAddCmd, usersListCmd)
}
