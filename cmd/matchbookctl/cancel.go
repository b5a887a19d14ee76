package main

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

func newCancelCmd(addr *string) *cobra.Command {
	var (
		symbol string
		id     uint64
	)

	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel a resting order by id",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			q.Set("symbol", symbol)
			q.Set("id", fmt.Sprintf("%d", id))
			resp, err := http.Post(*addr+"/orders/cancel?"+q.Encode(), "application/json", nil)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			fmt.Println(resp.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "", "trading symbol (required)")
	cmd.Flags().Uint64Var(&id, "id", 0, "order id to cancel (required)")
	cmd.MarkFlagRequired("symbol")
	cmd.MarkFlagRequired("id")
	return cmd
}
