/*
Package runtime carries intents out against the host.

It holds the three layers below the orchestrator:

  - Preparer repairs the host context (active object, material, material slot)
    before a command that needs it.
  - Resolver dispatches an intent's operator, either as a host command
    (poll, repair once, re-poll, invoke) or as a state-path assignment.
  - Executor wraps the resolver with the intent's own fallbacks (op, direct)
    and bounded retries, reporting which tier succeeded.

None of these types panics or returns an error to its caller: host failures
are logged and surface as a false result or a failed ExecutionResult.
*/
package runtime
