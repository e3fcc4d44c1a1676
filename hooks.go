package semantic

// Hooks observe the traversal as the bundle is built. Scope ids passed to
// EnterScope are already allocated; LeaveScope runs after the scope's
// pending references have been resolved or merged outward.
//
// The *Node passed to EnterNode and LeaveNode is only valid during the call.
// Embed NopHooks to implement only the callbacks you need.
type Hooks interface {
	EnterNode(n *Node)
	LeaveNode(n *Node)
	EnterScope(id ScopeID, flags ScopeFlags)
	LeaveScope(id ScopeID)
}

// NopHooks ignores every callback.
type NopHooks struct{}

func (NopHooks) EnterNode(*Node)                {}
func (NopHooks) LeaveNode(*Node)                {}
func (NopHooks) EnterScope(ScopeID, ScopeFlags) {}
func (NopHooks) LeaveScope(ScopeID)             {}
