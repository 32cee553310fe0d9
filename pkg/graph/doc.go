// Package graph models a solid as a DAG of modeling operations:
// primitives, file loads, exact transforms, and boolean combines.
// Scripts and the CLI build the graph, validate it, and then evaluate
// a root bottom-up; a subtree shared by several parents is built once.
package graph
