package ports

type TimerMetrics interface {
	RecordApplied(event string)
	RecordIgnored(event string)
	RecordPersistFailure()
}
