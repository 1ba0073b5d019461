// Package pipeline chains the dataset, clustering and report packages
// into the four dashboard views.
//
// Prepare runs once per session (load, preprocess, scale). Elbow, Cluster
// and Evaluate are then called afresh for every k the user picks; they
// never mutate the Prepared dataset, so they are safe for concurrent use.
//
//	p := pipeline.New(pipeline.ConfigFrom(cfg), providers.Tracer, metrics, logger)
//	prep, err := p.Prepare(ctx)
//	if err != nil {
//	    return err
//	}
//	view, err := p.Cluster(ctx, prep, 3)
package pipeline
