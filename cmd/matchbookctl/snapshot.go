package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

func newSnapshotCmd(addr *string) *cobra.Command {
	var symbol string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Print the top-of-book depth for a symbol",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			q.Set("symbol", symbol)
			resp, err := http.Get(*addr + "/snapshot?" + q.Encode())
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				fmt.Println(resp.Status)
				return nil
			}
			var out map[string]any
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				return err
			}
			pretty, _ := json.MarshalIndent(out, "", "  ")
			fmt.Println(string(pretty))
			return nil
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "", "trading symbol (required)")
	cmd.MarkFlagRequired("symbol")
	return cmd
}
