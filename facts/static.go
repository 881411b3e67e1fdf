package facts

import "context"

// StaticFetcher resolves a fact from a fixed, pre-loaded value map keyed by
// fact name — the fetcher axiomctl's "eval" subcommand registers for every
// key referenced in a rule tree when facts are supplied as a flat JSON
// document rather than a live data source.
type StaticFetcher struct {
	Key    string
	Values map[string]any
}

// FetchResponse implements Fetcher.
func (f StaticFetcher) FetchResponse(context.Context, Context) (FetchResponse, error) {
	return FetchResponse{Data: f.Values[f.Key]}, nil
}

// CalculateRequestKey implements Fetcher. The key is deterministic per
// evaluation (EvalID+Key), so a fact referenced by more than one leaf is
// fetched only once per evaluation (spec.md section 3's "fetched at most
// once" invariant).
func (f StaticFetcher) CalculateRequestKey(fctx Context) string {
	return fctx.EvalID + ":" + f.Key
}
