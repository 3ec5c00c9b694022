// Package render produces the plain-text reports written after each cycle:
// the readable log digest and the run summary.
//
// Both reports are rendered with text/template from plain input structs and
// are fully regenerated every cycle.
package render
