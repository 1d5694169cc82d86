// Package insight implements the Insight Engine.
//
// The engine has two modes with deliberately different costs. CheckInline
// runs at reconciliation checkpoints and reads nothing but the Surface's
// running Stats, so each call is O(1) however many synapses exist. Analyze
// runs once after the batch and combines those Stats with a caller-supplied
// calculation summary.
//
// Every insight, alert, coaching action, governance flag and growth signal
// must cite at least one data source. Candidates without one are dropped
// before Analyze returns.
//
// RouteToPersona filters a finished analysis for one audience. It never
// computes anything new.
package insight
