// Package patch is the compiler's input model: blocks, edges and buses as
// the editor or a patch file describes them.
package patch

import (
	"errors"
	"fmt"
	"strings"
)

// Block is one instance of a block type.
type Block struct {
	ID     string         `msgpack:"id"`
	Type   string         `msgpack:"type"`
	Config map[string]any `msgpack:"config,omitempty"`
}

// PortRef names a port on a block.
type PortRef struct {
	Block string `msgpack:"block"`
	Port  string `msgpack:"port"`
}

func (r PortRef) String() string { return r.Block + "." + r.Port }

// ParsePortRef parses "block.port". The block id may itself contain dots;
// the port is the part after the last one.
func ParsePortRef(s string) (PortRef, error) {
	i := strings.LastIndexByte(s, '.')
	if i <= 0 || i == len(s)-1 {
		return PortRef{}, fmt.Errorf("invalid port reference %q (expected block.port)", s)
	}
	return PortRef{Block: s[:i], Port: s[i+1:]}, nil
}

// Endpoint is one side of an edge: a port or a bus, never both.
type Endpoint struct {
	Port *PortRef `msgpack:"port,omitempty"`
	Bus  string   `msgpack:"bus,omitempty"`
}

// AtPort and AtBus build endpoints.
func AtPort(block, port string) Endpoint { return Endpoint{Port: &PortRef{Block: block, Port: port}} }
func AtBus(bus string) Endpoint          { return Endpoint{Bus: bus} }

func (e Endpoint) IsPort() bool { return e.Port != nil && e.Bus == "" }
func (e Endpoint) IsBus() bool  { return e.Port == nil && e.Bus != "" }

func (e Endpoint) String() string {
	switch {
	case e.IsPort():
		return e.Port.String()
	case e.IsBus():
		return "bus:" + e.Bus
	}
	return "<invalid>"
}

// Lens is a value-shaping step applied along an edge after its adapters.
type Lens struct {
	Kind   string             `msgpack:"kind"`
	Params map[string]float64 `msgpack:"params,omitempty"`
}

// EdgeKind is the shape of an edge.
type EdgeKind uint8

const (
	EdgeInvalid EdgeKind = iota
	EdgeWire             // port -> port
	EdgePublish          // port -> bus
	EdgeListen           // bus -> port
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeWire:
		return "wire"
	case EdgePublish:
		return "publish"
	case EdgeListen:
		return "listen"
	}
	return "invalid"
}

// Edge is a directed connection.
type Edge struct {
	ID       string   `msgpack:"id"`
	From     Endpoint `msgpack:"from"`
	To       Endpoint `msgpack:"to"`
	SortKey  int      `msgpack:"sort_key,omitempty"`
	Adapters []string `msgpack:"adapters,omitempty"`
	Lenses   []Lens   `msgpack:"lenses,omitempty"`
}

// Kind classifies the edge; EdgeInvalid for bus->bus or malformed endpoints.
func (e Edge) Kind() EdgeKind {
	switch {
	case e.From.IsPort() && e.To.IsPort():
		return EdgeWire
	case e.From.IsPort() && e.To.IsBus():
		return EdgePublish
	case e.From.IsBus() && e.To.IsPort():
		return EdgeListen
	}
	return EdgeInvalid
}

// ErrBusToBus is returned for edges that connect two buses.
var ErrBusToBus = errors.New("bus-to-bus edges are not allowed")

// ValidateShape reports why an edge has no legal shape.
func (e Edge) ValidateShape() error {
	if e.From.IsBus() && e.To.IsBus() {
		return ErrBusToBus
	}
	for _, ep := range []struct {
		side string
		ep   Endpoint
	}{{"from", e.From}, {"to", e.To}} {
		if !ep.ep.IsPort() && !ep.ep.IsBus() {
			return fmt.Errorf("%s endpoint must be exactly one of a port or a bus", ep.side)
		}
		if ep.ep.IsPort() && (ep.ep.Port.Block == "" || ep.ep.Port.Port == "") {
			return fmt.Errorf("%s endpoint has an empty block or port", ep.side)
		}
	}
	return nil
}

// NewEdge builds an edge and rejects illegal shapes.
func NewEdge(id string, from, to Endpoint) (Edge, error) {
	e := Edge{ID: id, From: from, To: to}
	if id == "" {
		return Edge{}, errors.New("edge id must not be empty")
	}
	if err := e.ValidateShape(); err != nil {
		return Edge{}, fmt.Errorf("edge %s: %w", id, err)
	}
	return e, nil
}

// Wire, Publish and Listen build the three legal edge shapes.
func Wire(id string, from, to PortRef) Edge {
	return Edge{ID: id, From: Endpoint{Port: &from}, To: Endpoint{Port: &to}}
}

func Publish(id string, from PortRef, bus string, sortKey int) Edge {
	return Edge{ID: id, From: Endpoint{Port: &from}, To: AtBus(bus), SortKey: sortKey}
}

func Listen(id, bus string, to PortRef) Edge {
	return Edge{ID: id, From: AtBus(bus), To: Endpoint{Port: &to}}
}

// WithAdapters returns e with a confirmed adapter chain.
func (e Edge) WithAdapters(ids ...string) Edge {
	e.Adapters = append([]string(nil), ids...)
	return e
}

// WithLens returns e with one more lens.
func (e Edge) WithLens(kind string, params map[string]float64) Edge {
	e.Lenses = append(append([]Lens(nil), e.Lenses...), Lens{Kind: kind, Params: params})
	return e
}

// Bus is a named shared channel.
type Bus struct {
	ID      string `msgpack:"id"`
	Type    string `msgpack:"type"`
	Combine string `msgpack:"combine,omitempty"`
	Default any    `msgpack:"default,omitempty"`
}

// CompilerPatch is the whole compiler input.
type CompilerPatch struct {
	Blocks         []Block        `msgpack:"blocks"`
	Edges          []Edge         `msgpack:"edges,omitempty"`
	Buses          []Bus          `msgpack:"buses,omitempty"`
	DefaultSources map[string]any `msgpack:"default_sources,omitempty"`
	Output         *PortRef       `msgpack:"output,omitempty"`
}

// Block returns the block with id, if present.
func (p *CompilerPatch) Block(id string) (Block, bool) {
	for _, b := range p.Blocks {
		if b.ID == id {
			return b, true
		}
	}
	return Block{}, false
}
