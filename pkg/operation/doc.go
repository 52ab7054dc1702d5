/*
Package operation implements the batch run: every archive in the input folder
is unpacked, edited and repacked under a new name.

	+-------------+
	|   Runner    |
	| (Batch Run) |
	+------+------+
	       |
	+------+------+      +-------------+
	|  Workspace  |----->|   Replacer  |
	| (Archive)   |<-----| (pkg/text)  |
	+-------------+      +-------------+

🎯 Purpose:
- Scans the input folder for archives
- Gives each archive its own scratch directory
- Applies the rule set to every text member of an archive
- Reports progress and results through a log.Sink

🔄 Flow:
1. Validate the configuration before touching any archive
2. Scan the input folder (regular files, sorted)
3. Process archives on a bounded worker pool
4. Retry a failed archive as a whole, if retries are configured
5. Return the status.Summary of the run

⚡ Failure isolation:
- A broken archive fails alone; the batch continues
- An undecodable member is skipped; its archive is still written
- A configuration error aborts the run before any output is written

🔍 Example:

	cfg, err := config.Load(ctx, "config.json")
	if err != nil {
		return err
	}

	summary, err := operation.NewRunner(cfg, log.NewConsole(os.Stdout)).Run(ctx)
	if err != nil {
		return err
	}
	if !summary.OK() {
		os.Exit(1)
	}
*/
package operation
