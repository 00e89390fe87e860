package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/celerix-dev/celerix-gestao/internal/app"
	"github.com/celerix-dev/celerix-gestao/internal/stats"
	"github.com/celerix-dev/celerix-gestao/internal/validation"
)

var (
	statsDate string
	statsJSON bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Mostra o painel de abastecimentos do mês",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var ref time.Time
		if statsDate != "" {
			t, err := time.Parse(validation.DateLayout, statsDate)
			if err != nil {
				return fmt.Errorf("data deve estar no formato DD/MM/AAAA")
			}
			ref = t
		}
		return withApp(cmd, func(a *app.App) error {
			d, err := a.Services.Dashboard.Get(cmd.Context(), ref)
			if err != nil {
				return err
			}
			if statsJSON {
				printJSON(d)
				return nil
			}
			if ref.IsZero() {
				ref = time.Now()
			}
			fmt.Printf("Referência: %s\n\n", stats.FormatDate(ref))
			printDashboard(d)
			return nil
		})
	},
}

func printDashboard(d stats.Dashboard) {
	row := func(name string, cur, prev, change float64, unit string) {
		c := success
		if change < 0 {
			c = failure
		}
		fmt.Printf("%-14s %12.2f %12.2f  %s %s\n", label.Sprint(name), cur, prev, c.Sprintf("%+.1f%%", change), unit)
	}
	fmt.Printf("%-14s %12s %12s\n", "", d.Current.Month, d.Previous.Month)
	row("Registros", float64(d.Current.Records), float64(d.Previous.Records), d.Change.Records, "")
	row("Litros", d.Current.Liters, d.Previous.Liters, d.Change.Liters, "L")
	row("Valor", d.Current.Value, d.Previous.Value, d.Change.Value, "R$")
	fmt.Println()
	fmt.Printf("Veículos: %d (%d ativos, %d em manutenção)\n", d.Vehicles, d.ActiveVehicles, d.MaintenanceVehicles)
	fmt.Printf("Funcionários: %d  Departamentos: %d  Solicitações pendentes: %d\n",
		d.Employees, d.Departments, d.PendingRequests)
}

func init() {
	statsCmd.Flags().StringVar(&statsDate, "data", "", "data de referência DD/MM/AAAA (padrão: hoje)")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "saída em JSON")
}
