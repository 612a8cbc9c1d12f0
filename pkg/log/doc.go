// Package log provides the structured logging abstraction used by the
// amaribridge packages.
//
// Components accept a [Logger] and never construct one themselves. The CLI
// wraps a zerolog logger with [NewZerologAdapter]; tests and embedders that do
// not care about output pass nil, which every constructor replaces with
// [NewNoopLogger].
//
//	logger := log.NewZerologAdapter(zerolog.New(os.Stderr))
//	logger.Info("command executed", log.String("entity", "enb"), log.Int("exit_code", 0))
package log
