package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/worldland/spark-gateway/internal/domain"
)

// Exit codes
const (
	ExitOK           = 0
	ExitError        = 1
	ExitNotAvailable = 3
)

const defaultGatewayURL = "http://localhost:8787"

type options struct {
	url     string
	timeout time.Duration
	json    bool
	mode    string
}

// gatewayURL returns the URL from flag, env, or default (in priority order)
func (o *options) gatewayURL() string {
	if o.url != "" {
		return o.url
	}
	if envURL := os.Getenv("SPARK_GATEWAY_URL"); envURL != "" {
		return envURL
	}
	return defaultGatewayURL
}

func (o *options) client() *GatewayClient {
	return NewGatewayClient(o.gatewayURL(), o.timeout)
}

// Execute runs sparkctl and returns the process exit code
func Execute() int {
	code := ExitOK
	root := NewRootCommand(os.Stdout, &code)
	if err := root.Execute(); err != nil {
		return ExitError
	}
	return code
}

// NewRootCommand builds the sparkctl command tree. Subcommands store their
// exit code in exitCode.
func NewRootCommand(w io.Writer, exitCode *int) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "sparkctl",
		Short: "Query a local GPU status gateway",
		Long: `sparkctl queries the GPU status gateway running on this machine.

Exit codes:
  0 - Success
  1 - Gateway unreachable or returned an error
  3 - available: the capability should not be served locally

Environment Variables:
  SPARK_GATEWAY_URL  Gateway URL (default: http://localhost:8787)`,
		SilenceUsage: true,
	}
	root.SetOut(w)
	root.PersistentFlags().StringVar(&opts.url, "url", "", "Gateway URL (overrides SPARK_GATEWAY_URL)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	root.PersistentFlags().BoolVar(&opts.json, "json", false, "Output JSON instead of human-readable text")

	run := func(fn func(ctx context.Context, w io.Writer, opts *options, args []string) int) func(*cobra.Command, []string) {
		return func(cmd *cobra.Command, args []string) {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			*exitCode = fn(ctx, w, opts, args)
		}
	}

	root.AddCommand(&cobra.Command{
		Use:   "gpu",
		Short: "Show GPU telemetry",
		Args:  cobra.NoArgs,
		Run:   run(runGPU),
	})

	root.AddCommand(&cobra.Command{
		Use:   "services [name]",
		Short: "Show service status",
		Long:  `Show the status of every registered service, or of one service by name.`,
		Args:  cobra.MaximumNArgs(1),
		Run:   run(runServices),
	})

	availableCmd := &cobra.Command{
		Use:   "available <capability-type>",
		Short: "Ask whether a capability can be served locally",
		Long: `Ask the gateway whether a service of the given capability type
(llm, image-generation, code-runner, image-processing) is healthy.

Exits 3 when the recommendation is not use_local.`,
		Args: cobra.ExactArgs(1),
		Run:  run(runAvailable),
	}
	availableCmd.Flags().StringVar(&opts.mode, "mode", string(domain.ModeWaterfall), "Decision mode: waterfall or queue")
	root.AddCommand(availableCmd)

	root.AddCommand(&cobra.Command{
		Use:   "health",
		Short: "Check gateway liveness",
		Args:  cobra.NoArgs,
		Run:   run(runHealth),
	})

	return root
}

func runGPU(ctx context.Context, w io.Writer, opts *options, args []string) int {
	snap, err := opts.client().GPU(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return ExitError
	}

	if opts.json {
		return writeJSON(w, snap)
	}
	PrintGPU(w, snap)
	return ExitOK
}

func runServices(ctx context.Context, w io.Writer, opts *options, args []string) int {
	c := opts.client()

	if len(args) == 1 {
		status, err := c.Service(ctx, args[0])
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return ExitError
		}
		if opts.json {
			return writeJSON(w, status)
		}
		PrintService(w, status)
		return ExitOK
	}

	fleet, err := c.Services(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return ExitError
	}
	if opts.json {
		return writeJSON(w, fleet)
	}
	PrintServicesTable(w, fleet)
	return ExitOK
}

func runAvailable(ctx context.Context, w io.Writer, opts *options, args []string) int {
	decision, err := opts.client().Available(ctx, args[0], opts.mode)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return ExitError
	}

	if opts.json {
		if code := writeJSON(w, decision); code != ExitOK {
			return code
		}
	} else {
		PrintDecision(w, decision)
	}

	if decision.Recommendation != domain.RecommendUseLocal {
		return ExitNotAvailable
	}
	return ExitOK
}

func runHealth(ctx context.Context, w io.Writer, opts *options, args []string) int {
	resp, err := opts.client().Health(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return ExitError
	}

	if opts.json {
		return writeJSON(w, resp)
	}
	PrintHealth(w, opts.gatewayURL(), resp)
	return ExitOK
}

func writeJSON(w io.Writer, v interface{}) int {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return ExitError
	}
	fmt.Fprintln(w, string(data))
	return ExitOK
}
