package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"krakenkit/pkg/core"
	"krakenkit/pkg/stream"
	"krakenkit/pkg/wsv1"
	"krakenkit/pkg/wsv2"
)

func init() {
	streamCmd.Flags().String("version", "v2", "protocol version: v1 or v2")
	streamCmd.Flags().String("channel", "ticker", "channel: ticker, book, trade, ohlc or spread (v1)")
	streamCmd.Flags().Int("depth", 10, "book depth")
	streamCmd.Flags().Int("interval", 1, "ohlc interval in minutes")
	streamCmd.Flags().Int("count", 0, "stop after this many messages (0 runs until interrupted)")
	RootCmd.AddCommand(streamCmd)
}

// krakenctl stream --channel book --depth 10 XBT/USD
var streamCmd = &cobra.Command{
	Use:   "stream SYMBOL...",
	Short: "Print messages from a public WebSocket channel",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		version, _ := flags.GetString("version")
		channel, _ := flags.GetString("channel")
		depth, _ := flags.GetInt("depth")
		interval, _ := flags.GetInt("interval")
		count, _ := flags.GetInt("count")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		switch version {
		case "v1":
			sub, err := v1Subscription(channel, depth, interval)
			if err != nil {
				return err
			}
			s, err := stream.ConnectV1(ctx, cfg, stream.WithLogger(logger))
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.Subscribe(ctx, wsv1.NewSubscribeMessage(1, args, sub)); err != nil {
				return err
			}
			return pump(ctx, s, out, count)

		case "v2":
			params, err := v2Subscription(channel, depth, interval, args)
			if err != nil {
				return err
			}
			s, err := stream.ConnectV2(ctx, cfg, stream.WithLogger(logger))
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.Subscribe(ctx, wsv2.NewSubscribe(1, params)); err != nil {
				return err
			}
			return pump(ctx, s, out, count)
		}
		return fmt.Errorf("unknown version %q", version)
	},
}

func v1Subscription(channel string, depth, interval int) (wsv1.Subscription, error) {
	switch channel {
	case wsv1.ChannelTicker:
		return wsv1.TickerSubscription(), nil
	case wsv1.ChannelBook:
		return wsv1.BookSubscription(depth), nil
	case wsv1.ChannelTrade:
		return wsv1.TradeSubscription(), nil
	case wsv1.ChannelOHLC:
		return wsv1.OHLCSubscription(interval), nil
	case wsv1.ChannelSpread:
		return wsv1.SpreadSubscription(), nil
	}
	return wsv1.Subscription{}, fmt.Errorf("unsupported v1 channel %q", channel)
}

func v2Subscription(channel string, depth, interval int, symbols []string) (wsv2.SubscriptionParams, error) {
	switch channel {
	case "ticker":
		return wsv2.TickerSubscription(symbols...), nil
	case "book":
		return wsv2.BookSubscription(depth, symbols...), nil
	case "trade":
		return wsv2.TradeSubscription(symbols...), nil
	case "ohlc":
		return wsv2.OHLCSubscription(interval, symbols...), nil
	}
	return wsv2.SubscriptionParams{}, fmt.Errorf("unsupported v2 channel %q", channel)
}

// pump prints messages as JSON lines. Frames that fail to classify are
// reported and skipped.
func pump[M any](ctx context.Context, s *stream.Stream[M], out io.Writer, count int) error {
	for n := 0; count == 0 || n < count; n++ {
		msg, err := s.Next(ctx)
		var ce *core.ClassificationError
		switch {
		case errors.As(err, &ce):
			fmt.Fprintf(out, "# %v\n", ce)
			continue
		case errors.Is(err, context.Canceled):
			return nil
		case err != nil:
			return err
		}

		line, err := sonic.Marshal(msg)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%T %s\n", msg, line)
	}
	return nil
}
