// Package engine runs the three passes of a report run.
//
// ARCHITECTURE:
//
// A run is strictly sequential. Each pass consumes the output of the
// previous one and nothing is persisted until every pass has succeeded:
//
//  1. Synchronize: walk the outline, classify every question wording as
//     known or unknown, ask the operator about each unknown wording once,
//     register the confirmed ones and produce the resolved outline.
//  2. Bind: rename dataset columns from wordings to identifiers and record
//     the wording each question was asked with in this run.
//  3. Assemble: walk the resolved outline once per area, compute every
//     aggregate and emit headings, charts and comments into a Document.
//
// The Runner works on a clone of the question store. The caller receives
// the mutated clone in RunResult and decides whether to save it; a failed
// run leaves the persisted store untouched.
//
// COLLABORATORS:
//
// Confirmer, ChartRenderer, Document and SnapshotSource are declared here and
// implemented elsewhere (prompt, render, store, dataroot). Tests use
// recording fakes.
//
// ERRORS:
//
// Every fatal condition is a *RuntimeError carrying a RuntimeErrorCode.
// Declining a registration is not an error.
package engine
