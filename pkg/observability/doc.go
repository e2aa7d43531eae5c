/*
Package observability turns the bot's lifecycle hooks into Prometheus metrics
and structured log lines.

Both are plain domain.LifecycleHooks values, so they compose:

	metrics := observability.NewMetrics()
	metrics.MustRegister(prometheus.DefaultRegisterer)

	bot, err := colloquy.New("voc.yaml",
		colloquy.WithLifecycleHooks(metrics.Hooks()),
		colloquy.WithLifecycleHooks(observability.LoggingHooks(logger)),
	)
*/
package observability
