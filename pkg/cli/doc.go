/*
Package cli provides the helpers shared by the callisto subcommands.

Errors:

ConfigError reports a problem in the loaded configuration and CommandError
wraps a failure of a whole subcommand, so that main can print one line and
exit non-zero:

	if err := config.Validate(cfg); err != nil {
		return cli.NewConfigError("", err.Error())
	}

Output Formatting:

Commands that print a result support text and JSON output:

	formatter, err := cli.NewFormatter(cli.FormatJSON)
	if err != nil {
		return err
	}
	return formatter.FormatTo(cmd.OutOrStdout(), report)

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()
	return srv.Run(ctx)
*/
package cli
