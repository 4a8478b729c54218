// Package processor orchestrates the execution of a parsed tool-call batch:
// strictly sequential execution, per-call confirmation and panic isolation,
// output truncation before persistence, and the follow-up directive that
// tells the surrounding loop whether to re-invoke the model.
//
// The processor owns no tool logic and no conversation storage; both arrive
// as narrow interfaces so callers can plug their own implementations.
package processor
