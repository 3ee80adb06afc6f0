package mem

// A FlushListener is told when a cache has finished a flush requested with a
// FlushReq.
type FlushListener interface {
	NotifyFlushComplete()
}
