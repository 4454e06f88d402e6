// Package models defines the entities persisted in the local run journal.
//
// The journal is an operator-facing audit trail, not application state:
// every importer invocation writes one [ImportRun] plus its [Problem] rows
// so past runs can be listed and inspected after the fact. The content
// store documents themselves are defined in the store package; nothing in
// the journal is required for the directory to function.
package models
