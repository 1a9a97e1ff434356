/*
Package runner feeds phrases to the engine from long-lived producers.

Every run goes through a Queue, whose single worker goroutine is the only
place that touches the host, so requests arriving concurrently (speech
capture, HTTP, MCP, a terminal) execute one at a time in arrival order.

A Listener reads requests from a Handler (plain text lines or JSON lines),
passes them through Interceptors, submits them to the Queue and writes the
reports back through the same Handler.

	q := runner.NewQueue(engine)
	defer q.Close()

	l := runner.NewListener(q, runner.NewTextHandler(os.Stdin, os.Stdout))
	if err := l.Listen(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
