// Tool-server resolution: which MCP servers a given user's chat run
// should connect to.

package mcp

// Resolver merges the globally configured built-in tool servers with a
// user's own registrations.
type Resolver struct {
	builtins []Descriptor
}

// NewResolver creates a resolver over the built-in server descriptors.
func NewResolver(builtins []Descriptor) *Resolver {
	return &Resolver{builtins: builtins}
}

// Resolve returns the descriptors for a run: built-ins first, then the
// user's servers in registration order. Duplicate names are kept as-is;
// the manager's first-wins tool map makes later duplicates inert.
func (r *Resolver) Resolve(userServers []Descriptor) []Descriptor {
	out := make([]Descriptor, 0, len(r.builtins)+len(userServers))
	out = append(out, r.builtins...)
	out = append(out, userServers...)
	return out
}
