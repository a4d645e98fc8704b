// Package columns maps free-form CSV headers onto the semantic roles the
// burn engine needs: time, one or more thrust channels, chamber pressure
// and the two propellant tank weights.
//
// Resolution runs in two stages. Resolve applies a name heuristic and
// reports whether the result is complete; when it is not, the caller
// collects an explicit Assignment from the operator and passes it to
// Manual, which validates it against the header set and replaces the
// heuristic result wholesale.
package columns
