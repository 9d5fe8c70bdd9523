// Package envelope defines the uniform result shapes of orchestrated
// operations and the normalizer that turns any failure into an ErrorEnvelope.
//
// Codes follow the "<CONTEXT>_<OPERATION>_FAILED" convention:
//
//	envelope.Normalize(err, "auth", "getCurrentUser").Code // AUTH_GETCURRENTUSER_FAILED
//
// Callers branch on Code or Kind, never on Message. The raw error is kept in
// Details and is reachable through errors.Is / errors.As.
package envelope
