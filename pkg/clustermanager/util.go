package clustermanager

// waitOrError blocks until numProcs goroutines have reported on tc or ec and
// returns the first error seen. It never returns early, so the caller gets a
// barrier over every started goroutine.
func waitOrError(tc chan bool, ec chan error, numProcPtr *int) error {
	var firstErr error
	numProcs := *numProcPtr
	for numProcs > 0 {
		select {
		case err := <-ec:
			if firstErr == nil {
				firstErr = err
			}
		case <-tc:
		}
		numProcs--
	}

	return firstErr
}
