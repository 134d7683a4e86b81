package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Структурные ошибки патча
	StructInfo      Code = 1000
	EmptyPatch      Code = 1001
	BlockMissing    Code = 1002
	CompilerMissing Code = 1003
	PortMissing     Code = 1004
	DuplicateBlock  Code = 1005
	BusMissing      Code = 1006
	InvalidEdge     Code = 1007
	DuplicateBus    Code = 1008
	DuplicateEdge   Code = 1009

	// Типизация
	TypeInfo                    Code = 2000
	PortTypeMismatch            Code = 2001
	UnsupportedCombineMode      Code = 2002
	UnknownBusWorld             Code = 2003
	BusIneligibleType           Code = 2004
	AdapterSuggested            Code = 2005 // auto path missing, suggestion exists
	AdapterRequiresConfirmation Code = 2006 // only explicit-tier chains exist
	UnknownAdapter              Code = 2007
	InvalidAdapterChain         Code = 2008
	InvalidLens                 Code = 2009
	InvalidDefaultSource        Code = 2010
	UnknownType                 Code = 2011

	// Граф
	GraphInfo          Code = 3000
	CycleDetected      Code = 3001
	MultipleWriters    Code = 3002
	DanglingConnection Code = 3003
	UnresolvedPort     Code = 3004
	AmbiguousOutput    Code = 3005
	NoOutput           Code = 3006

	// Время
	TimeInfo                Code = 4000
	MissingTimeRoot         Code = 4001
	MultipleTimeRoots       Code = 4002
	ConflictingTimeTopology Code = 4003
	InvalidTimeRootConfig   Code = 4004

	// Lowering и чистота блоков
	LowerInfo            Code = 5000
	PureBlockViolation   Code = 5001
	LoweringFailed       Code = 5002
	InvalidBlockConfig   Code = 5003
	ArtifactTypeMismatch Code = 5004
	ScheduleFailed       Code = 5005

	// Ошибки I/O
	IOLoadFileError Code = 6001
	IOParseError    Code = 6002

	// Observability
	ObsInfo    Code = 7000
	ObsTimings Code = 7001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:                 "Unknown error",
		StructInfo:                  "Patch structure information",
		EmptyPatch:                  "Patch has no blocks",
		BlockMissing:                "Referenced block does not exist",
		CompilerMissing:             "No compiler registered for block type",
		PortMissing:                 "Referenced port does not exist",
		DuplicateBlock:              "Duplicate block id",
		BusMissing:                  "Referenced bus does not exist",
		InvalidEdge:                 "Invalid edge shape",
		DuplicateBus:                "Duplicate bus id",
		DuplicateEdge:               "Duplicate edge id",
		TypeInfo:                    "Type information",
		PortTypeMismatch:            "Port type mismatch",
		UnsupportedCombineMode:      "Combine mode not supported for bus world",
		UnknownBusWorld:             "Bus world cannot carry a bus",
		BusIneligibleType:           "Type is not bus-eligible",
		AdapterSuggested:            "Conversion needs a suggested adapter",
		AdapterRequiresConfirmation: "Conversion needs a confirmed adapter",
		UnknownAdapter:              "Unknown adapter",
		InvalidAdapterChain:         "Adapter chain does not connect the endpoint types",
		InvalidLens:                 "Invalid lens",
		InvalidDefaultSource:        "Invalid default source value",
		UnknownType:                 "Unknown type",
		GraphInfo:                   "Graph information",
		CycleDetected:               "Combinational cycle detected",
		MultipleWriters:             "Input port has multiple writers",
		DanglingConnection:          "Dangling connection",
		UnresolvedPort:              "Required input is not connected",
		AmbiguousOutput:             "Program output is ambiguous",
		NoOutput:                    "Patch has no program output",
		TimeInfo:                    "Time topology information",
		MissingTimeRoot:             "Patch has no time root",
		MultipleTimeRoots:           "Patch has multiple time roots",
		ConflictingTimeTopology:     "Conflicting time topology",
		InvalidTimeRootConfig:       "Invalid time root configuration",
		LowerInfo:                   "Lowering information",
		PureBlockViolation:          "Pure block emits capability-gated operation",
		LoweringFailed:              "Block lowering failed",
		InvalidBlockConfig:          "Invalid block configuration",
		ArtifactTypeMismatch:        "Artifact does not match port type",
		ScheduleFailed:              "Schedule construction failed",
		IOLoadFileError:             "I/O load file error",
		IOParseError:                "Patch file parse error",
		ObsInfo:                     "Observability information",
		ObsTimings:                  "Pipeline timings",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("STR%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("TYP%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("GRF%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("TIM%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("LOW%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 7000 && ic < 8000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
