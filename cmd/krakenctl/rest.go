package main

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	tokenCmd.Flags().Bool("reveal", false, "print the token in clear text")
	RootCmd.AddCommand(timeCmd, statusCmd, tickerCmd, balanceCmd, tokenCmd)
}

var timeCmd = &cobra.Command{
	Use:   "time",
	Short: "Show the server time",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnvironment()
		if err != nil {
			return err
		}
		defer env.Close()

		ctx, cancel := commandContext(cmd)
		defer cancel()

		t, err := env.client.GetServerTime(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%d)\n", t.RFC1123, t.UnixTime)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the system status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnvironment()
		if err != nil {
			return err
		}
		defer env.Close()

		ctx, cancel := commandContext(cmd)
		defer cancel()

		s, err := env.client.GetSystemStatus(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s since %s\n", s.Status, s.Timestamp)
		return nil
	},
}

// krakenctl ticker XBTUSD ETHUSD
var tickerCmd = &cobra.Command{
	Use:   "ticker PAIR...",
	Short: "Show ticker information",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnvironment()
		if err != nil {
			return err
		}
		defer env.Close()

		ctx, cancel := commandContext(cmd)
		defer cancel()

		tickers, err := env.client.GetTicker(ctx, args...)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, pair := range slices.Sorted(maps.Keys(tickers)) {
			t := tickers[pair]
			fmt.Fprintf(out, "%-12s bid %s  ask %s  last %s  vol24h %s\n",
				pair, t.Bid.Price, t.Ask.Price, t.Last.Price, t.Volume.Last24h)
		}
		return nil
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show account balances",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnvironment()
		if err != nil {
			return err
		}
		defer env.Close()

		ctx, cancel := commandContext(cmd)
		defer cancel()

		balances, err := env.client.GetAccountBalance(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, asset := range slices.Sorted(maps.Keys(balances)) {
			fmt.Fprintf(out, "%-8s %s\n", asset, balances[asset])
		}
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Request a WebSocket authentication token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnvironment()
		if err != nil {
			return err
		}
		defer env.Close()

		ctx, cancel := commandContext(cmd)
		defer cancel()

		tok, err := env.client.GetWebSocketsToken(ctx)
		if err != nil {
			return err
		}

		reveal, err := cmd.Flags().GetBool("reveal")
		if err != nil {
			return err
		}
		value := tok.Token.String()
		if reveal {
			value = tok.Token.Expose()
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s expires in %s\n", value, time.Duration(tok.Expires)*time.Second)
		return nil
	},
}
