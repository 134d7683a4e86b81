// Package blocks is the block library: the port declarations, capabilities
// and lowering functions of every block type a patch may instantiate.
//
// Lowering is pure. A block sees only its own configuration, which inputs
// are connected, and the compile seed; it emits IR nodes through an
// ir.FragmentBuilder and binds its output ports to them.
package blocks
