// Package stats collects the statistics of the dynamic cache controller.
//
// Every type in this package implements dyncachectrl.StatsSink. Summary keeps
// the numbers in memory, PrometheusSink exports them as metrics, RecorderSink
// writes one row per event with a datarecording.DataRecorder, and MultiSink
// fans out to several sinks.
package stats
