// promptpoll project doc.go

/*
Package promptpoll sends the same chat-completion request to an OpenAI-compatible endpoint many times in parallel and collects every answer in request order.

A Poller fans a single RequestSpec out to a bounded pool of workers. Each call is isolated: a timeout, a non-200 status or a malformed body is recorded on that call's CallResult and never aborts the batch. Results are stored by their 1-based index, so the returned ResultSet is ordered no matter which call finished first.

The package also derives a descriptive output filename from the prompt with a single call, tolerating truncated structured output, and persists a ResultSet as CSV.
*/
package promptpoll
