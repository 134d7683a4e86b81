package fuzztests

import (
	"context"
	"testing"
	"time"

	"patchc/internal/artifact"
	"patchc/internal/compiler"
	"patchc/internal/patchfile"
	"patchc/internal/testkit"
)

// compileTimeout is the maximum time allowed for one input. Longer runs
// point at an unbounded loop in a pass.
const compileTimeout = 5 * time.Second

func FuzzCompileHCL(f *testing.F) {
	addCorpusSeeds(f)
	cc := compiler.NewContext(1)
	f.Fuzz(func(t *testing.T, input []byte) {
		if len(input) > maxFuzzInput {
			input = input[:maxFuzzInput]
		}
		p, diags := patchfile.ParseHCL(input, "fuzz.hcl")
		if diags.HasErrors() {
			if p != nil {
				t.Fatal("patch returned together with parse errors")
			}
			return
		}

		done := make(chan *compiler.Result, 1)
		go func() {
			done <- compiler.Compile(context.Background(), p, cc, compiler.Options{MaxDiagnostics: 64})
		}()
		var res *compiler.Result
		select {
		case res = <-done:
		case <-time.After(compileTimeout):
			t.Fatalf("compile did not finish within %v", compileTimeout)
		}

		if !res.OK {
			if len(res.Errors) == 0 || res.Program != nil {
				t.Fatalf("failed compile: %d errors, program %v", len(res.Errors), res.Program != nil)
			}
			return
		}
		if err := testkit.CheckProgramInvariants(res.IR); err != nil {
			t.Fatalf("invariants: %v", err)
		}
		rc := &artifact.RuntimeCtx{Viewport: artifact.Viewport{Width: 64, Height: 64}}
		for i := range 4 {
			res.Program.Signal(float64(i)*16, rc)
		}
	})
}
