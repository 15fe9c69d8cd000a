package agent

import (
	"context"

	"byteme-assistant-be/pkg/agent/reflection"
)

// GenerateFunc produces one draft. Guidance is empty on the first attempt
// and carries the previous verdict's failure reason on regenerations.
type GenerateFunc func(ctx context.Context, guidance string) (string, error)

// VerifyFunc checks a draft against the retrieval context.
type VerifyFunc func(ctx context.Context, draft string) reflection.Verdict

// Attempt runs the bounded generate/verify loop: one initial generation,
// then at most maxRetries regenerations while verification keeps failing.
//
// Returns the last draft, whether it passed, and the number of retries
// consumed. A generation error before any draft exists is terminal; an error
// on a regeneration keeps the previous draft as the (unverified) best
// effort. Context expiry mid-loop stops retrying and hands back the current
// draft rather than nothing.
func Attempt(ctx context.Context, generate GenerateFunc, verify VerifyFunc, maxRetries int) (string, bool, int, error) {
	draft, err := generate(ctx, "")
	if err != nil {
		return "", false, 0, err
	}

	verdict := verify(ctx, draft)
	retries := 0
	for !verdict.Pass && retries < maxRetries {
		if ctx.Err() != nil {
			return draft, false, retries, nil
		}
		retries++
		next, regenErr := generate(ctx, verdict.Reason)
		if regenErr != nil {
			return draft, false, retries, nil
		}
		draft = next
		verdict = verify(ctx, draft)
	}
	return draft, verdict.Pass, retries, nil
}
