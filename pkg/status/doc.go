/*
Package status aggregates the outcome of a batch run.

	            +-------------+
	            |    Tally    |
	            | (log.Sink)  |
	            +------+------+
	                   |
	      +-----------+-----------+
	      |                       |
	+-----+-----+           +----+-----+
	|  Summary  |           | Formatter|
	|  (data)   |           |  (UI/UX) |
	+-----------+           +----------+

🎯 Purpose:
- Collects archive outcomes and per-rule match counts from run events
- Keeps "matched 0 times" apart from "never ran"
- Renders the final tally for the console and as a JSON report

🔄 Flow:
1. The batch driver emits events to a log.Sink
2. Tally records each ArchiveDone and merges its MatchReport
3. Summary() takes a snapshot once the run is finished
4. A Formatter renders it, or WriteReport stores it

Only written archives contribute to rule counts. A failed archive keeps its
error and attempt count but no report.

🔍 Example:

	tally := status.NewTally(cfg.Rules)
	runner := operation.NewRunner(cfg, log.Multi{console, tally})

	if _, err := runner.Run(ctx); err != nil {
		return err
	}

	out, err := status.NewTableFormatter().Format(tally.Summary())
*/
package status
