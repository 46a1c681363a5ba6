// Package harness provides conformance testing for report generation runs.
//
// A scenario names a configuration, a doctree, a survey export and the
// operator's answers, runs the full pipeline against an in-memory archive and
// checks the outcome.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure. Paths are
// relative to the scenario file.
//
//	name: scenario_name
//	description: "What this scenario validates"
//	run: 2024-05
//	config: ../fixtures/config.yml
//	doctree: ../fixtures/doctree.yml
//	survey: ../fixtures/survey.csv
//	store: ../fixtures/store.yml        # optional, empty store otherwise
//	snapshots:                           # optional earlier bound surveys
//	  2023-05: ../fixtures/snapshot-2023-05.csv
//	answers: [true, false]               # confirmations, in question order
//	default_answer: false                # once answers run out
//	expect_error: UNRECOGNIZED_CATEGORY  # optional
//	assertions:
//	  - type: registered
//	    ids: [AAA]
//	  - type: document_contains
//	    area: North
//	    text: "Crispy crust"
//
// # Assertion Types
//
//   - registered: identifiers allocated by the run, in order
//   - declined: wordings left out of the run, in order
//   - columns: the bound survey's columns, in order
//   - document_contains / document_lacks: substring of an area's document
//   - chart_count: number of charts rendered for an area
//   - history: the wording a question was recorded with for a run
//   - archived: the archive holds the run with the given response count
//
// # Deterministic Testing
//
// Every scenario runs with a fixed run id, a stepping clock and a fresh
// in-memory SQLite archive, so documents can be compared against golden
// files byte for byte.
package harness
