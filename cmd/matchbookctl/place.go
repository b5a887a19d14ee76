package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

func newPlaceCmd(addr *string) *cobra.Command {
	var (
		id       uint64
		symbol   string
		side     string
		kind     string
		price    int64
		quantity int64
		display  int64
		trigger  int64
	)

	cmd := &cobra.Command{
		Use:   "place",
		Short: "Submit a new order",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := json.Marshal(map[string]any{
				"id": id, "symbol": symbol, "side": side, "kind": kind,
				"price": price, "quantity": quantity, "display": display, "trigger": trigger,
			})
			if err != nil {
				return err
			}
			resp, err := http.Post(*addr+"/orders", "application/json", bytes.NewReader(body))
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			fmt.Println(resp.Status)
			return nil
		},
	}

	cmd.Flags().Uint64Var(&id, "id", 0, "order id (required, externally assigned)")
	cmd.Flags().StringVar(&symbol, "symbol", "", "trading symbol (required)")
	cmd.Flags().StringVar(&side, "side", "buy", "buy or sell")
	cmd.Flags().StringVar(&kind, "kind", "limit", "limit|market|ioc|fok|iceberg|stop")
	cmd.Flags().Int64Var(&price, "price", 0, "limit price in ticks")
	cmd.Flags().Int64Var(&quantity, "quantity", 0, "order quantity in lots (required)")
	cmd.Flags().Int64Var(&display, "display", 0, "iceberg display slice size")
	cmd.Flags().Int64Var(&trigger, "trigger", 0, "stop trigger price in ticks")
	cmd.MarkFlagRequired("id")
	cmd.MarkFlagRequired("symbol")
	cmd.MarkFlagRequired("quantity")
	return cmd
}
