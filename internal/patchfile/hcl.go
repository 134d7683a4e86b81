package patchfile

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"

	"patchc/internal/patch"
)

// hclFile is the top level of a .hcl patch.
type hclFile struct {
	Output   *string        `hcl:"output,optional"`
	Defaults hcl.Expression `hcl:"defaults,optional"`
	Blocks   []*hclBlock    `hcl:"block,block"`
	Buses    []*hclBus      `hcl:"bus,block"`
	Wires    []*hclWire     `hcl:"wire,block"`
	Pubs     []*hclPublish  `hcl:"publish,block"`
	Listens  []*hclListen   `hcl:"listen,block"`
}

type hclBlock struct {
	ID     string         `hcl:"id,label"`
	Type   string         `hcl:"type"`
	Config hcl.Expression `hcl:"config,optional"`
}

type hclBus struct {
	ID      string         `hcl:"id,label"`
	Type    string         `hcl:"type"`
	Combine string         `hcl:"combine,optional"`
	Default hcl.Expression `hcl:"default,optional"`
}

type hclLens struct {
	Kind   string   `hcl:"kind,label"`
	Params hcl.Body `hcl:",remain"`
}

type hclWire struct {
	ID       string     `hcl:"id,label"`
	From     string     `hcl:"from"`
	To       string     `hcl:"to"`
	Adapters []string   `hcl:"adapters,optional"`
	Lenses   []*hclLens `hcl:"lens,block"`
}

type hclPublish struct {
	ID       string     `hcl:"id,label"`
	From     string     `hcl:"from"`
	Bus      string     `hcl:"bus"`
	SortKey  int        `hcl:"sort_key,optional"`
	Adapters []string   `hcl:"adapters,optional"`
	Lenses   []*hclLens `hcl:"lens,block"`
}

type hclListen struct {
	ID       string     `hcl:"id,label"`
	Bus      string     `hcl:"bus"`
	To       string     `hcl:"to"`
	Adapters []string   `hcl:"adapters,optional"`
	Lenses   []*hclLens `hcl:"lens,block"`
}

// ParseHCL decodes an HCL patch. Diagnostics carry source ranges; any error
// diagnostic means the patch is nil.
func ParseHCL(src []byte, filename string) (*patch.CompilerPatch, hcl.Diagnostics) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diags
	}
	var root hclFile
	if d := gohcl.DecodeBody(f.Body, nil, &root); d.HasErrors() {
		return nil, append(diags, d...)
	}

	p := &patch.CompilerPatch{}
	for _, b := range root.Blocks {
		cfg, d := evalMap(b.Config, "config of block "+b.ID)
		diags = append(diags, d...)
		p.Blocks = append(p.Blocks, patch.Block{ID: b.ID, Type: b.Type, Config: cfg})
	}
	for _, b := range root.Buses {
		def, d := evalAny(b.Default)
		diags = append(diags, d...)
		p.Buses = append(p.Buses, patch.Bus{ID: b.ID, Type: b.Type, Combine: b.Combine, Default: def})
	}

	rng := f.Body.MissingItemRange()
	portRef := func(owner, s string) (patch.PortRef, bool) {
		ref, err := patch.ParsePortRef(s)
		if err != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid port reference",
				Detail:   fmt.Sprintf("%s: %v", owner, err),
				Subject:  rng.Ptr(),
			})
			return patch.PortRef{}, false
		}
		return ref, true
	}

	for _, w := range root.Wires {
		from, ok1 := portRef("wire "+w.ID, w.From)
		to, ok2 := portRef("wire "+w.ID, w.To)
		if !ok1 || !ok2 {
			continue
		}
		e, d := decorate(patch.Wire(w.ID, from, to), w.Adapters, w.Lenses)
		diags = append(diags, d...)
		p.Edges = append(p.Edges, e)
	}
	for _, pub := range root.Pubs {
		from, ok := portRef("publish "+pub.ID, pub.From)
		if !ok {
			continue
		}
		e, d := decorate(patch.Publish(pub.ID, from, pub.Bus, pub.SortKey), pub.Adapters, pub.Lenses)
		diags = append(diags, d...)
		p.Edges = append(p.Edges, e)
	}
	for _, l := range root.Listens {
		to, ok := portRef("listen "+l.ID, l.To)
		if !ok {
			continue
		}
		e, d := decorate(patch.Listen(l.ID, l.Bus, to), l.Adapters, l.Lenses)
		diags = append(diags, d...)
		p.Edges = append(p.Edges, e)
	}

	defaults, d := evalMap(root.Defaults, "defaults")
	diags = append(diags, d...)
	if len(defaults) > 0 {
		p.DefaultSources = defaults
	}
	if root.Output != nil {
		if ref, ok := portRef("output", *root.Output); ok {
			p.Output = &ref
		}
	}

	if diags.HasErrors() {
		return nil, diags
	}
	return p, diags
}

// decorate attaches the confirmed adapters and lenses of an edge block.
func decorate(e patch.Edge, adapters []string, lenses []*hclLens) (patch.Edge, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	if len(adapters) > 0 {
		e = e.WithAdapters(adapters...)
	}
	for _, l := range lenses {
		attrs, d := l.Params.JustAttributes()
		diags = append(diags, d...)
		params := make(map[string]float64, len(attrs))
		names := make([]string, 0, len(attrs))
		for name := range attrs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			attr := attrs[name]
			x, d := evalNumber(attr.Expr)
			diags = append(diags, d...)
			params[name] = x
		}
		e = e.WithLens(l.Kind, params)
	}
	return e, diags
}

func evalNumber(expr hcl.Expression) (float64, hcl.Diagnostics) {
	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return 0, diags
	}
	n, err := convert.Convert(v, cty.Number)
	if err != nil || n.IsNull() {
		return 0, append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Number required",
			Detail:   fmt.Sprintf("lens parameters are numbers, got %s", v.Type().FriendlyName()),
			Subject:  expr.Range().Ptr(),
		})
	}
	var x float64
	if err := gocty.FromCtyValue(n, &x); err != nil {
		return 0, append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid number",
			Detail:   err.Error(),
			Subject:  expr.Range().Ptr(),
		})
	}
	return x, diags
}

func evalAny(expr hcl.Expression) (any, hcl.Diagnostics) {
	if expr == nil {
		return nil, nil
	}
	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	out, err := ctyToNative(v)
	if err != nil {
		return nil, append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Unsupported value",
			Detail:   err.Error(),
			Subject:  expr.Range().Ptr(),
		})
	}
	return out, diags
}

func evalMap(expr hcl.Expression, what string) (map[string]any, hcl.Diagnostics) {
	raw, diags := evalAny(expr)
	if raw == nil || diags.HasErrors() {
		return nil, diags
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Object required",
			Detail:   fmt.Sprintf("%s must be an object", what),
			Subject:  expr.Range().Ptr(),
		})
	}
	return m, diags
}

// ctyToNative turns a known cty value into plain Go values: numbers become
// float64, lists and tuples []any, objects and maps map[string]any.
func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}
	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil
	case ty == cty.Number:
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, fmt.Errorf("number: %w", err)
		}
		return f, nil
	case ty == cty.Bool:
		return v.True(), nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		var out []any
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			x, err := ctyToNative(ev)
			if err != nil {
				return nil, err
			}
			out = append(out, x)
		}
		return out, nil
	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any)
		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			x, err := ctyToNative(ev)
			if err != nil {
				return nil, fmt.Errorf("in attribute %q: %w", k.AsString(), err)
			}
			out[k.AsString()] = x
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported value of type %s", ty.FriendlyName())
}
