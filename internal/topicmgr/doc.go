// Package topicmgr keeps the catalogue of pub/sub topics the router and its
// collaborators exchange events on.
//
// Framework topics belong to the routing engine itself:
//
//	var StateChanged = topicmgr.DefineFramework(topicmgr.TopicConfig{
//		Name:        "routing.state.changed",
//		Description: "Asks the routed component to persist its state into the hash",
//		Pattern:     "routing.state.changed",
//		Example:     `{"source":"items.filter"}`,
//	})
//
// Module topics belong to applications built on it and carry their module
// name. Topics are registered once, usually from package-level variables, and
// can then be listed (see `routerctl topics list`).
package topicmgr
