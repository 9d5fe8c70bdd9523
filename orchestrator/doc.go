// Package orchestrator runs feature operations through one seam that applies
// validation, a response cache pre-check, a single remote attempt and timing.
//
// A typical operation:
//
//	env, err := orchestrator.Run(ctx, orch, orchestrator.Operation[User]{
//		Context:  "auth",
//		Name:     "getCurrentUser",
//		Key:      orch.Key("auth", "user", id),
//		Validate: func() error { return validation.Validate(id, validation.Required) },
//		Fetch:    func(ctx context.Context) (User, error) { return users.GetByID(ctx, id) },
//	})
//
// Failures are always returned as *envelope.ErrorEnvelope. Concurrent calls
// sharing a cache key share one in-flight remote call.
package orchestrator
