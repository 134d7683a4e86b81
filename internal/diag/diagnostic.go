package diag

import "strings"

// Location points a diagnostic at a patch element. Any subset of fields may be
// set; an empty Location refers to the patch as a whole.
type Location struct {
	Block string
	Port  string
	Edge  string
	Bus   string
}

// IsZero reports whether the location names nothing.
func (l Location) IsZero() bool {
	return l == Location{}
}

func (l Location) String() string {
	if l.IsZero() {
		return "<patch>"
	}
	parts := make([]string, 0, 3)
	if l.Block != "" {
		if l.Port != "" {
			parts = append(parts, "block "+l.Block+"."+l.Port)
		} else {
			parts = append(parts, "block "+l.Block)
		}
	}
	if l.Bus != "" {
		parts = append(parts, "bus "+l.Bus)
	}
	if l.Edge != "" {
		parts = append(parts, "edge "+l.Edge)
	}
	return strings.Join(parts, ", ")
}

// AtBlock, AtPort, AtEdge and AtBus are shorthands for common locations.
func AtBlock(block string) Location      { return Location{Block: block} }
func AtPort(block, port string) Location { return Location{Block: block, Port: port} }
func AtEdge(edge string) Location        { return Location{Edge: edge} }
func AtBus(bus string) Location          { return Location{Bus: bus} }

type Note struct {
	Loc Location
	Msg string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Location Location
	Notes    []Note
}

func (d Diagnostic) Error() string {
	return d.Code.ID() + " " + d.Location.String() + ": " + d.Message
}
