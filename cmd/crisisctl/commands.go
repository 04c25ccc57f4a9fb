package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rahul4469/crisis-analyzer/internal/analysis"
	"github.com/rahul4469/crisis-analyzer/internal/classify"
	"github.com/rahul4469/crisis-analyzer/internal/models"
	"github.com/rahul4469/crisis-analyzer/internal/overlay"
	"github.com/rahul4469/crisis-analyzer/internal/scenario"
	"github.com/rahul4469/crisis-analyzer/internal/sequence"
	"github.com/rahul4469/crisis-analyzer/internal/services"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <report...>",
		Short: "Print the emergency type of a report",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(classify.Classify(strings.Join(args, " ")))
		},
	}
}

type analyzeOptions struct {
	location   string
	timeout    time.Duration
	step       time.Duration
	finalDelay time.Duration
	noHold     bool
}

func newAnalyzeCmd() *cobra.Command {
	opts := analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze <report...>",
		Short: "Run one live analysis against the backend",
		Long: `analyze classifies the report, posts it to the backend once and shows
the agents while the call is in flight. The result is printed after the full
agent animation has played, as on the analysis page.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runAnalyze(ctx, cmd, strings.Join(args, " "), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.location, "location", "l", "", "Where the situation is (required)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", services.DefaultBackendTimeout, "Backend request timeout")
	cmd.Flags().DurationVar(&opts.step, "step", analysis.DefaultAgentStep, "Delay between agents")
	cmd.Flags().DurationVar(&opts.finalDelay, "final-delay", analysis.DefaultFinalDelay, "Delay after the last agent")
	cmd.Flags().BoolVar(&opts.noHold, "no-hold", false, "Print the result as soon as it arrives")
	cmd.MarkFlagRequired("location")
	return cmd
}

func runAnalyze(ctx context.Context, cmd *cobra.Command, report string, opts analyzeOptions) error {
	req := models.AnalysisRequest{
		Scenario:      report,
		Location:      opts.location,
		EmergencyType: classify.Classify(report),
	}
	if err := req.Validate(); err != nil {
		return err
	}

	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "Emergency type: %s\n", req.EmergencyType)

	plan := analysis.NewPlan(opts.step, opts.finalDelay)
	runner := sequence.Run(ctx, plan, func(st sequence.State) {
		printProgress(out, plan.Stages, st)
	})
	defer runner.Stop()

	client := services.NewBackendClient(backendURL, opts.timeout, logger)
	result, err := client.Analyze(ctx, req)
	if err != nil {
		runner.Stop()
		logger.Sugar().Debugw("analysis failed", "error", err)
		return fmt.Errorf("%s (%w)", services.FailureMessage, err)
	}

	if !opts.noHold {
		hold := time.NewTimer(plan.Duration())
		select {
		case <-hold.C:
		case <-ctx.Done():
			hold.Stop()
			return ctx.Err()
		}
	}
	runner.Stop()

	fmt.Fprintf(out, "Severity: %s\n", result.SeverityLabel())
	return encode(cmd.OutOrStdout(), result)
}

func printProgress(w io.Writer, stages []sequence.Stage, st sequence.State) {
	parts := make([]string, len(stages))
	for i, s := range stages {
		parts[i] = fmt.Sprintf("%s:%s", s.ID, st.Statuses[i])
	}
	fmt.Fprintf(w, "[%6s] %s\n", st.Elapsed.Round(10*time.Millisecond), strings.Join(parts, " "))
}

func newScenarioCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenario",
		Short: "List and replay the canned walkthroughs",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List walkthroughs",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := scenario.Load()
			if err != nil {
				return err
			}
			for _, name := range catalog.Names() {
				s, _ := catalog.Get(name)
				cmd.Printf("%-16s %s (%s)\n", name, s.Title, s.Plan().Duration())
			}
			return nil
		},
	})

	var speed float64
	play := &cobra.Command{
		Use:   "play <name>",
		Short: "Replay a walkthrough's pipeline and print its result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(); err != nil {
				return err
			}
			if speed <= 0 {
				return fmt.Errorf("speed must be positive")
			}
			catalog, err := scenario.Load()
			if err != nil {
				return err
			}
			s, err := catalog.Get(args[0])
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			plan := scalePlan(s.Plan(), speed)
			out := cmd.ErrOrStderr()
			runner := sequence.Run(ctx, plan, func(st sequence.State) {
				fmt.Fprintf(out, "%-10s ", s.Phase(st))
				printProgress(out, plan.Stages, st)
			})
			select {
			case <-runner.Done():
			case <-ctx.Done():
				runner.Stop()
				return ctx.Err()
			}
			return encode(cmd.OutOrStdout(), s.Result)
		},
	}
	play.Flags().Float64Var(&speed, "speed", 1, "Playback speed factor")
	cmd.AddCommand(play)
	return cmd
}

// scalePlan divides every delay of plan by factor.
func scalePlan(plan sequence.Plan, factor float64) sequence.Plan {
	scale := func(d time.Duration) time.Duration {
		return time.Duration(float64(d) / factor)
	}
	stages := make([]sequence.Stage, len(plan.Stages))
	for i, st := range plan.Stages {
		st.Delay = scale(st.Delay)
		stages[i] = st
	}
	return sequence.Plan{
		Stages:     stages,
		Step:       scale(plan.Step),
		FinalDelay: scale(plan.FinalDelay),
	}
}

func newOverlayCmd() *cobra.Command {
	var name string
	var step int
	cmd := &cobra.Command{
		Use:   "overlay",
		Short: "Print the GeoJSON map for a walkthrough's evacuation step",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := scenario.Load()
			if err != nil {
				return err
			}
			s, err := catalog.Get(name)
			if err != nil {
				return err
			}
			req, err := s.StepOverlay(step)
			if err != nil {
				return err
			}
			view, err := overlay.NewMap(nil).Render(req)
			if err != nil {
				return err
			}

			// GeoJSON is JSON whatever --output says
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(view.Overlay)
		},
	}
	cmd.Flags().StringVar(&name, "scenario", scenario.RealEmergency, "Walkthrough name")
	cmd.Flags().IntVar(&step, "step", 0, "Evacuation step index")
	return cmd
}

func encode(w io.Writer, v any) error {
	if output == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
