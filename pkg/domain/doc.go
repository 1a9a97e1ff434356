/*
Package domain contains the core domain models for the Blade intent engine.

It defines what a voice or text command becomes once it has been understood
(an Intent), how a phrase matched it (MatchResult) and what happened when the
host application was asked to carry it out (ExecutionResult). This package is
kept pure and free of I/O so that every other layer can depend on it.

# Key Entities

  - Intent: a named, configured command with its phrases, operator and params.
  - Params: the free-form arguments attached to an intent.
  - MatchResult: the outcome of matching a phrase against the configuration.
  - ExecutionResult: the outcome of executing an intent, tagged with the tier that succeeded.
  - BatchResult: aggregate of several executions.
  - EnrichedRecord: the flattened view of a dispatched intent kept for history.
*/
package domain
