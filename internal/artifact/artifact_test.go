package artifact

import (
	"testing"

	"patchc/internal/types"
	"patchc/internal/value"
)

func TestConstantMatchesWorld(t *testing.T) {
	for _, td := range []types.TypeDesc{types.ScalarNumber, types.SignalNumber, types.FieldNumber, types.EventTrigger} {
		a, err := Constant(td, value.Num(3))
		if err != nil {
			t.Fatalf("%s: %v", td.Key(), err)
		}
		if err := CheckType(a, td); err != nil {
			t.Fatalf("%s: %v", td.Key(), err)
		}
	}
	f, _ := Constant(types.FieldNumber, value.Num(3))
	if got := f.(Field).Eval(0, nil); len(got) != 1 || got[0].Float() != 3 {
		t.Fatalf("field constant = %v", got)
	}
}

func TestCheckTypeRejectsMismatch(t *testing.T) {
	sig := Signal{T: types.SignalNumber, Eval: func(float64, *RuntimeCtx) value.Value { return value.Num(1) }}
	if err := CheckType(sig, types.FieldNumber); err == nil {
		t.Fatalf("signal accepted for field port")
	}
	lying := Field{T: types.SignalNumber}
	if err := CheckType(lying, types.SignalNumber); err == nil {
		t.Fatalf("field tagged as signal accepted")
	}
	if err := CheckType(Error{T: types.SignalNumber, Err: errBoom{}}, types.SignalNumber); err == nil {
		t.Fatalf("error artifact accepted")
	}
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }
