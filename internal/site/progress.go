package site

// ProgressEvent is a synchronous notification emitted at fixed points during
// a build. Stage carries one of the five canonical progress tags.
type ProgressEvent struct {
	Stage   StageName
	Current int
	Total   int
	Message string
}

// ProgressFunc receives progress events. The callback runs on the build
// goroutine: it must not block and must not panic.
type ProgressFunc func(ProgressEvent)
