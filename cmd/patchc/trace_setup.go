package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"patchc/internal/trace"
	"patchc/internal/version"
)

var traceCleanup func()

func runTraceCleanup() {
	if traceCleanup != nil {
		traceCleanup()
		traceCleanup = nil
	}
}

// setupTracing inspects trace-related flags and attaches a tracer to the
// command context. With --otlp-endpoint the spans are also exported over
// OTLP; the OTel tracer then runs at phase level unless --trace-level asks
// for more.
func setupTracing(cmd *cobra.Command) (func(), error) {
	root := cmd.Root()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	traceOutput, err := root.PersistentFlags().GetString("trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := root.PersistentFlags().GetString("trace-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	modeStr, err := root.PersistentFlags().GetString("trace-mode")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	endpoint, err := root.PersistentFlags().GetString("otlp-endpoint")
	if err != nil {
		return nil, fmt.Errorf("failed to get otlp-endpoint flag: %w", err)
	}
	insecure, err := root.PersistentFlags().GetBool("otlp-insecure")
	if err != nil {
		return nil, fmt.Errorf("failed to get otlp-insecure flag: %w", err)
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trace level: %w", err)
	}
	// --trace без уровня включает phase
	if level == trace.LevelOff && traceOutput != "" {
		level = trace.LevelPhase
	}

	var tracers []trace.Tracer
	var closers []func()

	if level > trace.LevelOff {
		mode, err := trace.ParseMode(modeStr)
		if err != nil {
			return nil, fmt.Errorf("invalid trace mode: %w", err)
		}
		local, err := trace.New(trace.Config{Level: level, Mode: mode, OutputPath: traceOutput})
		if err != nil {
			return nil, fmt.Errorf("failed to create tracer: %w", err)
		}
		tracers = append(tracers, local)
	}

	if endpoint != "" {
		provider, err := trace.InitOTel(ctx, trace.OTelConfig{
			Endpoint:       endpoint,
			ServiceName:    "patchc",
			ServiceVersion: version.Version,
			Insecure:       insecure,
		})
		if err != nil {
			return nil, err
		}
		otelLevel := max(level, trace.LevelPhase)
		tracers = append(tracers, trace.NewOTelTracer(ctx, provider.Tracer(), otelLevel))
		closers = append(closers, func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := provider.Shutdown(shutdownCtx); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "trace: otlp shutdown: %v\n", err)
			}
		})
		if level < otelLevel {
			level = otelLevel
		}
	}

	var tracer trace.Tracer
	switch len(tracers) {
	case 0:
		ctx = trace.WithTracer(ctx, trace.Nop)
		cmd.SetContext(ctx)
		return func() {}, nil
	case 1:
		tracer = tracers[0]
	default:
		tracer = trace.NewMultiTracer(level, tracers...)
	}

	ctx = trace.WithTracer(ctx, tracer)
	cmd.SetContext(ctx)
	root.SetContext(ctx)

	cleanup := func() {
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
		// провайдер закрываем после трейсера: он дописывает открытые спаны
		for _, c := range closers {
			c()
		}
	}
	return cleanup, nil
}
