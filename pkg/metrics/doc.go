/*
Package metrics exposes Prometheus metrics for volume lifecycle operations.

All metrics are registered with the default registry at init time.

# Metrics

	vordr_volumes_total{state}                          gauge
	vordr_volume_operations_total{operation,result}     counter
	vordr_volume_operation_duration_seconds{operation}  histogram
	vordr_validation_failures_total{reason}             counter

operation is one of create, remove, inspect, list. result is success or
error. reason is the validation sentinel that rejected the input, for
example "symlink" or "escaped".

# Recording

	timer := metrics.NewTimer()
	err := doCreate()
	metrics.RecordOperation("create", timer, err)

Collector refreshes the inventory gauge from the record store:

	metrics.NewCollector(store).Collect()

# Export

The CLI is short-lived, so instead of serving /metrics it can drop a file for
node_exporter's textfile collector:

	metrics.WriteTextfile("/var/lib/node_exporter/textfile/vordr.prom")

Handler is still available for processes that embed the volume manager and
serve HTTP.
*/
package metrics
