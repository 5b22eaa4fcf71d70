package catalog

import "testing"

func TestLookupKnownBundle(t *testing.T) {
	cat := Default()

	bundle, ok := cat.Lookup("mtn-5-express")
	if !ok {
		t.Fatal("expected mtn-5-express to exist")
	}
	if bundle.Network != "mtn" || bundle.OfferSlug != "mtn_express_bundle" {
		t.Fatalf("unexpected provider params: %+v", bundle)
	}
	if bundle.VolumeGB != 5 || bundle.CostPrice != 22.00 {
		t.Fatalf("unexpected volume/cost: %+v", bundle)
	}
}

func TestLookupUnknownBundle(t *testing.T) {
	if _, ok := Default().Lookup("mtn-999-express"); ok {
		t.Fatal("expected unknown bundle id to miss")
	}
}

func TestBundleSizeLabel(t *testing.T) {
	bundle, _ := Default().Lookup("mtn-100-beneficiary")
	if got := bundle.Size(); got != "100GB" {
		t.Fatalf("Size() = %q, want 100GB", got)
	}
}

func TestEveryBundleHasProviderParams(t *testing.T) {
	for id, bundle := range Default() {
		if bundle.Network == "" || bundle.OfferSlug == "" || bundle.VolumeGB <= 0 || bundle.CostPrice <= 0 {
			t.Errorf("bundle %s has incomplete config: %+v", id, bundle)
		}
	}
}
