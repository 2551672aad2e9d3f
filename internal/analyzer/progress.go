package analyzer

// ProgressReporter provides callbacks for reporting analysis progress.
// Callbacks may be invoked from worker goroutines.
type ProgressReporter interface {
	// OnStart is called once with the number of files that will be analysed.
	OnStart(totalFiles int)

	// OnFileAnalyzed is called after each file, whatever its outcome.
	OnFileAnalyzed(path string)

	// OnComplete is called when the run finishes successfully.
	OnComplete(result *Result)
}

// NoOpProgressReporter is a progress reporter that does nothing.
type NoOpProgressReporter struct{}

func (n *NoOpProgressReporter) OnStart(totalFiles int)     {}
func (n *NoOpProgressReporter) OnFileAnalyzed(path string) {}
func (n *NoOpProgressReporter) OnComplete(result *Result)  {}
