package sched

var std = New(nil)

// PostTask enqueues t on the process-wide scheduler.
func PostTask(t Task) {
	std.PostTask(t)
}

// Configure reconfigures the process-wide scheduler.
func Configure(cfg *Config) {
	std.Configure(cfg)
}

// StdMetrics reports the process-wide scheduler's metrics.
func StdMetrics() Metrics {
	return std.Metrics()
}

// Drain waits for the process-wide queue to empty.
func Drain() {
	std.Wait()
}
