package probe

// DefaultSuites returns every built-in suite. Backend suites come first so
// a single readiness wait covers the bulk of the run.
func DefaultSuites() []Suite {
	return []Suite{
		healthSuite(),
		tasksCRUDSuite(),
		filteringSuite(),
		searchSuite(),
		statsSuite(),
		bulkImportSuite(),
		exportSuite(),
		statusTransitionsSuite(),
		archiveSuite(),
		dueDatesSuite(),
		labelsSuite(),
		commentsSuite(),
		requestIDSuite(),
		corsSuite(),
		authSuite(),
		authValidationSuite(),
		loginRateLimitSuite(),
		sessionSuite(),
	}
}

// DefaultRegistry wraps DefaultSuites. The ids are static, so a duplicate
// is a programming error.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultSuites()...)
	if err != nil {
		panic(err)
	}
	return r
}
