package interfaces

type SchedulerInterface interface {
	Init()
	Stop()
	Restore() error
	Persist() error
}

type WatcherInterface interface {
	Start() error
	Stop()
}
