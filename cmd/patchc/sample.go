package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"patchc/internal/artifact"
	"patchc/internal/driver"
	"patchc/internal/program"
	"patchc/internal/value"
)

var sampleCmd = &cobra.Command{
	Use:   "sample [flags] <patch>",
	Short: "Compile a patch and print its output over time",
	Long: `Sample compiles a patch and evaluates frames from --from to --to every --step
milliseconds. External events are injected with --event name@t or
name@t=value; each is delivered on the first frame at or after t.`,
	Args: cobra.ExactArgs(1),
	RunE: runSample,
}

func init() {
	addDiagnosticFlags(sampleCmd)
	sampleCmd.Flags().Float64("from", 0, "first frame time in ms")
	sampleCmd.Flags().Float64("to", 1000, "last frame time in ms")
	sampleCmd.Flags().Float64("step", 100, "frame step in ms")
	sampleCmd.Flags().String("viewport", "640x480", "viewport size WxH")
	sampleCmd.Flags().StringArray("event", nil, "inject an event (name@t or name@t=value)")
	sampleCmd.Flags().Bool("json", false, "print frames as JSON lines")
}

type sampleFrame struct {
	T       float64        `json:"t"`
	Value   string         `json:"value"`
	Circles []value.Circle `json:"circles,omitempty"`
}

type samplePlan struct {
	From, To, Step float64
	Viewport       artifact.Viewport
	Events         []value.Event
}

func runSample(cmd *cobra.Command, args []string) error {
	flags, err := readDiagnosticFlags(cmd)
	if err != nil {
		return err
	}
	settings, err := resolveCompileSettings(cmd)
	if err != nil {
		return err
	}
	plan, err := readSamplePlan(cmd)
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return fmt.Errorf("failed to get json flag: %w", err)
	}

	fr := driver.CompileFile(cmd.Context(), args[0], driverOptions(cmd, settings))
	failed, err := renderDiagnostics(cmd.ErrOrStderr(), []*driver.FileResult{fr}, flags, true)
	if err != nil {
		return err
	}
	if failed || !fr.OK() {
		exitWith(1)
		return nil
	}
	return writeSamples(cmd.OutOrStdout(), fr.Result.Program, plan, asJSON)
}

func readSamplePlan(cmd *cobra.Command) (samplePlan, error) {
	var plan samplePlan
	var err error
	if plan.From, err = cmd.Flags().GetFloat64("from"); err != nil {
		return plan, fmt.Errorf("failed to get from flag: %w", err)
	}
	if plan.To, err = cmd.Flags().GetFloat64("to"); err != nil {
		return plan, fmt.Errorf("failed to get to flag: %w", err)
	}
	if plan.Step, err = cmd.Flags().GetFloat64("step"); err != nil {
		return plan, fmt.Errorf("failed to get step flag: %w", err)
	}
	if plan.Step <= 0 {
		return plan, fmt.Errorf("--step must be positive, got %g", plan.Step)
	}
	if plan.To < plan.From {
		return plan, fmt.Errorf("--to %g is before --from %g", plan.To, plan.From)
	}
	vp, err := cmd.Flags().GetString("viewport")
	if err != nil {
		return plan, fmt.Errorf("failed to get viewport flag: %w", err)
	}
	if plan.Viewport, err = parseViewport(vp); err != nil {
		return plan, err
	}
	specs, err := cmd.Flags().GetStringArray("event")
	if err != nil {
		return plan, fmt.Errorf("failed to get event flag: %w", err)
	}
	for _, s := range specs {
		ev, err := parseEventSpec(s)
		if err != nil {
			return plan, err
		}
		plan.Events = append(plan.Events, ev)
	}
	sort.SliceStable(plan.Events, func(i, j int) bool { return plan.Events[i].TimeMs < plan.Events[j].TimeMs })
	return plan, nil
}

func parseViewport(s string) (artifact.Viewport, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return artifact.Viewport{}, fmt.Errorf("invalid viewport %q (expected WxH)", s)
	}
	width, err := strconv.ParseFloat(w, 64)
	if err != nil || width <= 0 {
		return artifact.Viewport{}, fmt.Errorf("invalid viewport width %q", w)
	}
	height, err := strconv.ParseFloat(h, 64)
	if err != nil || height <= 0 {
		return artifact.Viewport{}, fmt.Errorf("invalid viewport height %q", h)
	}
	return artifact.Viewport{Width: width, Height: height}, nil
}

// parseEventSpec reads name@t or name@t=value. Without a value the payload
// is unit.
func parseEventSpec(s string) (value.Event, error) {
	name, rest, ok := strings.Cut(s, "@")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return value.Event{}, fmt.Errorf("invalid event %q (expected name@t[=value])", s)
	}
	at, payload, hasPayload := strings.Cut(rest, "=")
	t, err := strconv.ParseFloat(strings.TrimSpace(at), 64)
	if err != nil {
		return value.Event{}, fmt.Errorf("invalid event time in %q: %w", s, err)
	}
	ev := value.Event{Name: name, TimeMs: t, Payload: value.Unit()}
	if hasPayload {
		x, err := strconv.ParseFloat(strings.TrimSpace(payload), 64)
		if err != nil {
			return value.Event{}, fmt.Errorf("invalid event value in %q: %w", s, err)
		}
		ev.Payload = value.Num(x)
	}
	return ev, nil
}

// writeSamples evaluates the frames of plan in order. Events with
// TimeMs <= t that were not yet delivered go into the frame's inbox.
func writeSamples(w io.Writer, p *program.Program, plan samplePlan, asJSON bool) error {
	enc := json.NewEncoder(w)
	next := 0
	for i := 0; ; i++ {
		t := plan.From + float64(i)*plan.Step
		if t > plan.To {
			break
		}
		rc := &artifact.RuntimeCtx{Viewport: plan.Viewport}
		for next < len(plan.Events) && plan.Events[next].TimeMs <= t {
			rc.Inbox = append(rc.Inbox, plan.Events[next])
			next++
		}
		out := p.Signal(t, rc)
		if !asJSON {
			if _, err := fmt.Fprintf(w, "%g\t%s\n", t, out); err != nil {
				return err
			}
			continue
		}
		frame := sampleFrame{T: t, Value: out.String()}
		if out.Kind == value.KindRender && out.Render != nil {
			frame.Circles = out.Render.Circles
		}
		if err := enc.Encode(frame); err != nil {
			return err
		}
	}
	return nil
}
