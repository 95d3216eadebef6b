// Package preflight checks that lexdebate can start with a given
// configuration: the config validates, the corpus loads, the embedder
// answers with vectors of the configured size, and the data directories
// are writable.
//
//	checker := preflight.New(preflight.WithOutput(os.Stdout))
//	results := checker.RunAll(ctx, preflight.Target{Config: cfg, Embedder: emb})
//	if checker.HasCriticalFailures(results) {
//	    // refuse to start
//	}
package preflight
