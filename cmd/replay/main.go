// Command replay drives the drowsiness pipeline from scripted landmark
// streams.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/somiljain2006/EverWake/internal/config"
	"github.com/somiljain2006/EverWake/internal/domain"
	"github.com/somiljain2006/EverWake/internal/drowsiness"
	"github.com/somiljain2006/EverWake/internal/eye"
	"github.com/somiljain2006/EverWake/internal/replay"
)

var errExpectation = errors.New("expectation not met")

type options struct {
	logLevel string
	env      string
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if errors.Is(err, errExpectation) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "replay",
		Short:         "Replay scripted landmark streams through EverWake",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&opts.env, "env", "development", "logging environment (production logs JSON)")

	root.AddCommand(
		newCheckCmd(opts),
		newSynthCmd(),
		newStreamCmd(opts),
		newWatchCmd(opts),
	)
	return root
}

func (o *options) logger() *slog.Logger {
	return config.NewLogger(o.env, o.logLevel)
}

func newCheckCmd(opts *options) *cobra.Command {
	var (
		threshold  float64
		profile    string
		alertAfter time.Duration
	)

	cmd := &cobra.Command{
		Use:   "check <script>",
		Short: "Run a script through the classifier and alert machine offline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := replay.Load(args[0])
			if err != nil {
				return err
			}

			cfg, err := drowsiness.ProfileConfig(profile)
			if err != nil {
				return err
			}
			if alertAfter > 0 {
				cfg.AlertAfter = alertAfter
			}

			report, err := replay.Check(script.Synthesize(), threshold, cfg)
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(report); err != nil {
				return fmt.Errorf("encode report: %w", err)
			}
			if err := enc.Close(); err != nil {
				return err
			}

			if err := script.Verify(report); err != nil {
				opts.logger().Error("script check failed", "script", args[0], "error", err)
				return fmt.Errorf("%w: %v", errExpectation, err)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&threshold, "threshold", eye.DefaultThreshold, "openness threshold")
	cmd.Flags().StringVar(&profile, "profile", "ambient", "alert profile: ambient or simple")
	cmd.Flags().DurationVar(&alertAfter, "alert-after", 0, "override the profile's closure threshold")
	return cmd
}

func newSynthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "synth <script>",
		Short: "Expand a segment script into explicit frames",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := replay.Load(args[0])
			if err != nil {
				return err
			}

			out := replay.Script{
				Name:   script.Name,
				FPS:    script.FPS,
				Frames: script.Synthesize(),
				Expect: script.Expect,
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(out); err != nil {
				return fmt.Errorf("encode frames: %w", err)
			}
			return enc.Close()
		},
	}
}

func newStreamCmd(opts *options) *cobra.Command {
	var (
		server string
		rawURL string
		token  string
		speed  float64
	)

	cmd := &cobra.Command{
		Use:   "stream <script>",
		Short: "Stream a script to a running server over the frame socket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := opts.logger()

			script, err := replay.Load(args[0])
			if err != nil {
				return err
			}

			target := rawURL
			if target == "" {
				if target, err = replay.FramesURL(server); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			frames := script.Synthesize()
			logger.Info("streaming script",
				"script", args[0],
				"frames", len(frames),
				"url", target,
				"speed", speed,
			)

			result, err := replay.Stream(ctx, replay.StreamConfig{
				URL:   target,
				Token: token,
				Speed: speed,
			}, frames, logger)
			if err != nil {
				return err
			}

			logger.Info("stream finished", "sent", result.Sent, "rejected", result.Rejected)
			if result.Rejected > 0 {
				return fmt.Errorf("server rejected %d frames", result.Rejected)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "http://localhost:3000", "server base URL")
	cmd.Flags().StringVar(&rawURL, "url", "", "frame socket URL, overrides --server")
	cmd.Flags().StringVar(&token, "token", os.Getenv("API_TOKEN"), "bearer token (defaults to $API_TOKEN)")
	cmd.Flags().Float64Var(&speed, "speed", 1, "playback speed, 0 sends as fast as possible")
	return cmd
}

func newWatchCmd(opts *options) *cobra.Command {
	var (
		server string
		token  string
		types  []string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print events from a running server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := opts.logger()

			target, err := replay.EventsURL(server)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("watching events", "url", target, "types", strings.Join(types, ","))

			out := cmd.OutOrStdout()
			return replay.Watch(ctx, target, token, types, func(m replay.EventMessage) {
				if m.Type == domain.EventStateChanged {
					fmt.Fprintf(out, "%s %s\n", m.Timestamp.Format(time.RFC3339), m.Type)
					return
				}
				fmt.Fprintf(out, "%s %s %s\n", m.Timestamp.Format(time.RFC3339), m.Type, m.Data)
			})
		},
	}

	cmd.Flags().StringVar(&server, "server", "http://localhost:3000", "server base URL")
	cmd.Flags().StringVar(&token, "token", os.Getenv("API_TOKEN"), "bearer token (defaults to $API_TOKEN)")
	cmd.Flags().StringSliceVar(&types, "types", nil, "event types to subscribe to (default all)")
	return cmd
}
