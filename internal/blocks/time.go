package blocks

import (
	"slices"

	"patchc/internal/ir"
	"patchc/internal/types"
)

const (
	defaultWindowMs   = 10000
	defaultDurationMs = 10000
	defaultPeriodMs   = 1000
)

func infiniteTimeModel(cfg Config) (ir.TimeModel, error) {
	window, err := cfg.Positive("windowMs", defaultWindowMs)
	if err != nil {
		return ir.TimeModel{}, err
	}
	return ir.TimeModel{Kind: ir.TimeInfinite, WindowMs: window}, nil
}

func finiteTimeModel(cfg Config) (ir.TimeModel, error) {
	dur, err := cfg.Positive("durationMs", defaultDurationMs)
	if err != nil {
		return ir.TimeModel{}, err
	}
	cues, err := cfg.Numbers("cues")
	if err != nil {
		return ir.TimeModel{}, err
	}
	for _, c := range cues {
		if c < 0 || c > dur {
			return ir.TimeModel{}, configErr("cues", "cue %g outside [0, %g]", c, dur)
		}
	}
	slices.Sort(cues)
	return ir.TimeModel{Kind: ir.TimeFinite, DurationMs: dur, Cues: cues}, nil
}

func cycleTimeModel(cfg Config) (ir.TimeModel, error) {
	period, err := cfg.Positive("periodMs", defaultPeriodMs)
	if err != nil {
		return ir.TimeModel{}, err
	}
	mode, err := cfg.String("mode", "loop", "loop", "pingpong")
	if err != nil {
		return ir.TimeModel{}, err
	}
	return ir.TimeModel{Kind: ir.TimeCyclic, PeriodMs: period, Mode: mode}, nil
}

func lowerInfiniteTime(_ *LowerCtx, b *ir.FragmentBuilder, cfg Config) error {
	if _, err := infiniteTimeModel(cfg); err != nil {
		return err
	}
	b.Output("time", b.Emit(ir.Node{Op: ir.OpTime, Type: types.SignalTime}))
	return nil
}

func lowerFiniteTime(_ *LowerCtx, b *ir.FragmentBuilder, cfg Config) error {
	tm, err := finiteTimeModel(cfg)
	if err != nil {
		return err
	}
	params := []float64{tm.DurationMs}
	b.Output("time", b.Emit(ir.Node{Op: ir.OpFiniteTime, Type: types.SignalTime, Params: params}))
	b.Output("progress", b.Emit(ir.Node{Op: ir.OpProgress, Type: types.SignalPhase, Params: params}))
	b.Output("end", b.Emit(ir.Node{Op: ir.OpEndEvent, Type: types.EventTrigger, Params: params}))
	return nil
}

func lowerCycleTime(_ *LowerCtx, b *ir.FragmentBuilder, cfg Config) error {
	tm, err := cycleTimeModel(cfg)
	if err != nil {
		return err
	}
	params := []float64{tm.PeriodMs}
	b.Output("time", b.Emit(ir.Node{Op: ir.OpCycleTime, Type: types.SignalTime, Params: params, Str: tm.Mode}))
	b.Output("phase", b.Emit(ir.Node{Op: ir.OpCyclePhase, Type: types.SignalPhase, Params: params, Str: tm.Mode}))
	b.Output("wrap", b.Emit(ir.Node{Op: ir.OpWrapEvent, Type: types.EventTrigger, Params: params}))
	return nil
}
