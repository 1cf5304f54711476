// Package patch reconciles virtual trees from package vdom against a
// concrete output tree through a pluggable NodeOps backend.
//
// The engine patches matching nodes in place, diffs keyed child lists with
// a two-ended sweep that reuses and moves existing elements, and drives
// module lifecycle hooks at fixed phases (create, activate, update, remove,
// destroy). Renderer connects the engine to package reactive so a render
// function re-runs whenever state it read changes.
package patch
