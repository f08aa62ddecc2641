// Package match scores candidate boundary elements against template
// patterns and resolves the best start/end boundary inside a bounded
// search window.
//
// Scoring combines four normalized components (text similarity,
// typography, spatial position, reference weight) into one composite.
// Resolution applies an explicit fallback ladder of strategies,
// composed by first-success short-circuit, and fails with typed errors
// that carry the failing pattern, the strategies attempted, and the
// ancestor label chain.
package match
