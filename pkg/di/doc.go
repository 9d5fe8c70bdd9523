// Package di wires the response cache, the orchestrator and the feature
// services into a Container. Each container owns exactly one cache; there is
// no package level state.
//
//	repos := di.FromStore(store.NewRepositories(db))
//	container, err := di.NewContainer(ctx, cfg.Cache, cfg.Orchestrator, repos,
//		di.WithLogger(logger),
//		di.WithObserver(metrics.NewObserver()),
//	)
//	server := api.NewServer(container.APIServices(), logger)
package di
