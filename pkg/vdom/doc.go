// Package vdom defines the virtual tree node model: a lightweight,
// immutable-style description of one output-tree node, plus construction
// and cloning helpers. All diffing logic lives in the patch package; vdom
// is pure data.
package vdom
