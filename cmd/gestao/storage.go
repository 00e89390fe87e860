package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/celerix-dev/celerix-gestao/internal/app"
	"github.com/celerix-dev/celerix-gestao/pkg/engine"
	"github.com/celerix-dev/celerix-gestao/pkg/sdk"
)

// withStore opens the configured store for the duration of fn.
func withStore(cmd *cobra.Command, fn func(s engine.Store) error) (err error) {
	store, closeStore, err := app.Connect(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeStore(); err == nil {
			err = cerr
		}
	}()
	return fn(store)
}

var getCmd = &cobra.Command{
	Use:   "get <area> <chave>",
	Short: "Mostra o valor de uma chave",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(s engine.Store) error {
			val, err := s.GetItem(args[0], args[1])
			if err != nil {
				return err
			}
			var v any
			if err := json.Unmarshal([]byte(val), &v); err != nil {
				fmt.Println(val)
				return nil
			}
			printJSON(v)
			return nil
		})
	},
}

var setCmd = &cobra.Command{
	Use:   "set <area> <chave> <valor>",
	Short: "Grava um valor; texto que não for JSON é gravado como string",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		val := args[2]
		if !json.Valid([]byte(val)) {
			b, _ := json.Marshal(val)
			val = string(b)
		}
		return withStore(cmd, func(s engine.Store) error {
			if err := s.SetItem(args[0], args[1], val); err != nil {
				return err
			}
			success.Println("OK")
			return nil
		})
	},
}

var delCmd = &cobra.Command{
	Use:   "del <area> <chave>",
	Short: "Remove uma chave",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(s engine.Store) error {
			if err := s.RemoveItem(args[0], args[1]); err != nil {
				return err
			}
			success.Println("OK")
			return nil
		})
	},
}

var keysCmd = &cobra.Command{
	Use:   "keys [area]",
	Short: "Lista as áreas, ou as chaves de uma área",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(s engine.Store) error {
			var (
				list []string
				err  error
			)
			if len(args) == 0 {
				list, err = s.Areas()
			} else {
				list, err = s.Keys(args[0])
			}
			if err != nil {
				return err
			}
			for _, k := range list {
				fmt.Println(k)
			}
			return nil
		})
	},
}

var dumpCmd = &cobra.Command{
	Use:   "dump <area>",
	Short: "Mostra todas as chaves e valores de uma área",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(s engine.Store) error {
			data, err := s.Dump(args[0])
			if err != nil {
				return err
			}
			out := make(map[string]json.RawMessage, len(data))
			for k, v := range data {
				out[k] = json.RawMessage(v)
			}
			printJSON(out)
			return nil
		})
	},
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Verifica a conexão com o daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cfg.Storage.RemoteAddr == "" {
			return fmt.Errorf("nenhum daemon configurado (CELERIX_STORE_ADDR ou --addr)")
		}
		c, err := sdk.Connect(cfg.Storage.RemoteAddr, sdk.WithTLS(!cfg.Server.DisableTLS), sdk.WithLogger(log))
		if err != nil {
			return err
		}
		defer c.Close()
		if err := c.Ping(); err != nil {
			return err
		}
		success.Println("PONG")
		return nil
	},
}
