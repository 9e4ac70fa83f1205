// Package nodes implements the travel assistant's processing steps and wires them into a graph.
//
// Every node appends its own identifier to the task history. A node that hits a capability
// or domain fault sets the state's error and routes straight to the generator, which is the
// only node allowed to reach the terminal marker.
package nodes
