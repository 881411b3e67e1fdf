package facts_test

import (
	"context"
	"testing"

	"github.com/axiomrules/axiom/facts"
)

func TestBaseFetcherKeyIsRandomPerCall(t *testing.T) {
	var f facts.BaseFetcher
	k1 := f.CalculateRequestKey(facts.Context{})
	k2 := f.CalculateRequestKey(facts.Context{})
	if k1 == k2 {
		t.Errorf("BaseFetcher.CalculateRequestKey returned the same key twice: %q", k1)
	}
}

func TestStaticFetcherResolvesFromMap(t *testing.T) {
	f := facts.StaticFetcher{Key: "name", Values: map[string]any{"name": "ada"}}
	resp, err := f.FetchResponse(context.Background(), facts.Context{})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Data != "ada" {
		t.Errorf("Data = %v, want %q", resp.Data, "ada")
	}
}

func TestStaticFetcherKeyIsDeterministicPerEvaluation(t *testing.T) {
	f := facts.StaticFetcher{Key: "name", Values: map[string]any{"name": "ada"}}
	fctx := facts.Context{EvalID: "eval-1"}
	k1 := f.CalculateRequestKey(fctx)
	k2 := f.CalculateRequestKey(fctx)
	if k1 != k2 {
		t.Errorf("key differs across calls within the same evaluation: %q != %q", k1, k2)
	}

	other := facts.Context{EvalID: "eval-2"}
	if k3 := f.CalculateRequestKey(other); k3 == k1 {
		t.Errorf("key collided across different evaluations: %q", k3)
	}
}
