package family

import (
	"math"
	"testing"

	"goglam/domain/series"

	"gonum.org/v1/gonum/stat/distuv"
)

func TestLookupKnownFamilies(t *testing.T) {
	for _, name := range []string{"normal", "poisson", "gamma", "beta", "negbinomial", "betabinomial", "binomial"} {
		f, err := Lookup(name)
		if err != nil {
			t.Fatalf("Lookup(%q) failed: %v", name, err)
		}
		if f.Name() != name {
			t.Errorf("Lookup(%q).Name() = %q", name, f.Name())
		}
	}
}

func TestLookupUnknownFamily(t *testing.T) {
	if _, err := Lookup("weibull"); err == nil {
		t.Fatal("expected error for unregistered family")
	}
}

func TestNamesSortedAndComplete(t *testing.T) {
	names := Names()
	if len(names) != 7 {
		t.Fatalf("expected 7 registered families, got %d: %v", len(names), names)
	}
	for i := 1; i < len(names); i++ {
		if names[i] < names[i-1] {
			t.Fatalf("names not sorted: %v", names)
		}
	}
}

func TestLinkInvLinkRoundTrip(t *testing.T) {
	cases := []struct {
		fam Family
		mu  float64
	}{
		{Normal{}, -3.5},
		{Poisson{}, 12},
		{Gamma{}, 4.2},
		{Beta{}, 0.3},
		{NegativeBinomial{}, 9},
		{Binomial{}, 0.6},
		{BetaBinomial{}, 0.25},
	}
	for _, tc := range cases {
		got := tc.fam.InvLink(tc.fam.Link(tc.mu))
		if math.Abs(got-tc.mu) > 1e-6 {
			t.Errorf("%s: InvLink(Link(%v)) = %v", tc.fam.Name(), tc.mu, got)
		}
	}
}

// quantileCase gives each family a representative parameterization.
type quantileCase struct {
	fam         Family
	etaLinked   float64
	kappa       float64
	capacity    float64
	varianceMax float64
}

func quantileCases() []quantileCase {
	return []quantileCase{
		{Normal{}, 10, 0.5, 0, 4},
		{Poisson{}, math.Log(20), 0, 0, 0},
		{Gamma{}, math.Log(5), 0.3, 0, 0},
		{Beta{}, logit(0.3), 0.4, 0, 0.25},
		{NegativeBinomial{}, math.Log(10), 0.5, 0, 100},
		{Binomial{}, logit(0.4), 0, 20, 0},
		{BetaBinomial{}, logit(0.4), 0.3, 20, 0},
	}
}

func TestQuantileMonotoneInProbability(t *testing.T) {
	probs := []float64{0.05, 0.25, 0.5, 0.75, 0.95}
	for _, tc := range quantileCases() {
		prev := math.Inf(-1)
		for _, p := range probs {
			q := tc.fam.Quantile(p, tc.etaLinked, tc.kappa, tc.capacity, tc.varianceMax)
			if math.IsNaN(q) {
				t.Fatalf("%s: quantile(%v) is NaN", tc.fam.Name(), p)
			}
			if q < prev {
				t.Errorf("%s: quantile(%v) = %v decreased below %v", tc.fam.Name(), p, q, prev)
			}
			prev = q
		}
	}
}

func TestQuantileRespectsSupport(t *testing.T) {
	for _, tc := range quantileCases() {
		lo := tc.fam.Quantile(0.01, tc.etaLinked, tc.kappa, tc.capacity, tc.varianceMax)
		hi := tc.fam.Quantile(0.99, tc.etaLinked, tc.kappa, tc.capacity, tc.varianceMax)
		switch tc.fam.Domain() {
		case series.DomainPositiveReal:
			if lo <= 0 {
				t.Errorf("%s: lower quantile %v not positive", tc.fam.Name(), lo)
			}
		case series.DomainNonNegativeInt:
			if lo < 0 || lo != math.Trunc(lo) || hi != math.Trunc(hi) {
				t.Errorf("%s: quantiles (%v, %v) are not counts", tc.fam.Name(), lo, hi)
			}
		case series.DomainUnitInterval:
			if lo < 0 || hi > 1 {
				t.Errorf("%s: quantiles (%v, %v) escape [0,1]", tc.fam.Name(), lo, hi)
			}
		case series.DomainBoundedInt:
			if lo < 0 || hi > tc.capacity {
				t.Errorf("%s: quantiles (%v, %v) escape [0, %v]", tc.fam.Name(), lo, hi, tc.capacity)
			}
		}
	}
}

func TestNormalQuantileMatchesSigmaMapping(t *testing.T) {
	// sigma = sqrt(varianceMax)*kappa, so the median sits at the mean and
	// the 97.7th percentile roughly two sigmas above it
	f := Normal{}
	med := f.Quantile(0.5, 10, 0.5, 0, 4)
	if math.Abs(med-10) > 1e-9 {
		t.Errorf("median = %v, want 10", med)
	}
	hi := f.Quantile(0.9772, 10, 0.5, 0, 4)
	if math.Abs(hi-12) > 0.01 {
		t.Errorf("97.7th percentile = %v, want about 12", hi)
	}
}

func TestPoissonQuantileMatchesScan(t *testing.T) {
	lambda := 4.0
	dist := distuv.Poisson{Lambda: lambda}
	for _, p := range []float64{0.1, 0.5, 0.9, 0.99} {
		want := 0.0
		for dist.CDF(want) < p {
			want++
		}
		got := Poisson{}.Quantile(p, math.Log(lambda), 0, 0, 0)
		if got != want {
			t.Errorf("quantile(%v) = %v, want %v", p, got, want)
		}
	}
}

func TestBinomialQuantileMatchesScan(t *testing.T) {
	n, prob := 10.0, 0.5
	dist := distuv.Binomial{N: n, P: prob}
	for _, p := range []float64{0.1, 0.5, 0.9} {
		want := 0.0
		for want < n && dist.CDF(want) < p {
			want++
		}
		got := Binomial{}.Quantile(p, logit(prob), 0, n, 0)
		if got != want {
			t.Errorf("quantile(%v) = %v, want %v", p, got, want)
		}
	}
}

func TestGammaDispersionIsCoefficientOfVariation(t *testing.T) {
	// alpha = 1/kappa^2 implies sd/mean = kappa; check via wide quantiles
	f := Gamma{}
	mu := 5.0
	kappa := 0.1
	lo := f.Quantile(0.001, math.Log(mu), kappa, 0, 0)
	hi := f.Quantile(0.999, math.Log(mu), kappa, 0, 0)
	if lo < mu-5*kappa*mu || hi > mu+6*kappa*mu {
		t.Errorf("quantiles (%v, %v) inconsistent with cv %v around mean %v", lo, hi, kappa, mu)
	}
}

func TestBetaVarianceClampKeepsDistributionProper(t *testing.T) {
	// kappa = 1 with the default ceiling would exceed mu*(1-mu); the clamp
	// must keep quantiles finite and ordered
	f := Beta{}
	lo := f.Quantile(0.1, logit(0.9), 1, 0, 0.25)
	hi := f.Quantile(0.9, logit(0.9), 1, 0, 0.25)
	if math.IsNaN(lo) || math.IsNaN(hi) || lo > hi {
		t.Fatalf("clamped beta quantiles broken: (%v, %v)", lo, hi)
	}
	if lo < 0 || hi > 1 {
		t.Fatalf("clamped beta quantiles escape [0,1]: (%v, %v)", lo, hi)
	}
}

func TestNegativeBinomialVarianceFloor(t *testing.T) {
	// tiny kappa pushes the implied variance below the mean; the floor keeps
	// the size parameter positive and the quantiles usable
	f := NegativeBinomial{}
	q := f.Quantile(0.5, math.Log(10), 0.01, 0, 100)
	if q < 0 || math.IsNaN(q) {
		t.Fatalf("floored negbinomial median broken: %v", q)
	}
	if math.Abs(q-10) > 5 {
		t.Errorf("median %v too far from mean 10", q)
	}
}

func TestBetaBinomialWidensWithDispersion(t *testing.T) {
	f := BetaBinomial{}
	eta := logit(0.5)
	narrowLo := f.Quantile(0.05, eta, 0.05, 40, 0)
	narrowHi := f.Quantile(0.95, eta, 0.05, 40, 0)
	wideLo := f.Quantile(0.05, eta, 0.8, 40, 0)
	wideHi := f.Quantile(0.95, eta, 0.8, 40, 0)
	if wideHi-wideLo < narrowHi-narrowLo {
		t.Errorf("dispersion did not widen the band: narrow (%v, %v), wide (%v, %v)",
			narrowLo, narrowHi, wideLo, wideHi)
	}
}

func TestMeanUsesCapacityForBoundedFamilies(t *testing.T) {
	eta := logit(0.25)
	if got := (Binomial{}).Mean(eta, 40); math.Abs(got-10) > 1e-6 {
		t.Errorf("binomial mean = %v, want 10", got)
	}
	if got := (BetaBinomial{}).Mean(eta, 40); math.Abs(got-10) > 1e-6 {
		t.Errorf("betabinomial mean = %v, want 10", got)
	}
}

func TestLinkedScaling(t *testing.T) {
	values := []float64{2, 5, 11}

	off, scale := (Normal{}).LinkedScaling(values)
	if off != 2 || scale != 9 {
		t.Errorf("normal scaling = (%v, %v), want (2, 9)", off, scale)
	}

	off, scale = (Poisson{}).LinkedScaling(values)
	if off != 0 || math.Abs(scale-math.Log1p(11)) > 1e-12 {
		t.Errorf("poisson scaling = (%v, %v), want (0, log1p(11))", off, scale)
	}

	off, scale = (Beta{}).LinkedScaling([]float64{0.1, 0.9})
	if off != 0 || scale != 1 {
		t.Errorf("beta scaling = (%v, %v), want (0, 1)", off, scale)
	}
}

func TestLinkedScalingDegenerateValues(t *testing.T) {
	// constant series must still produce a usable positive scale
	for _, f := range []Family{Normal{}, Poisson{}, Gamma{}, NegativeBinomial{}} {
		_, scale := f.LinkedScaling([]float64{0, 0, 0})
		if scale <= 0 {
			t.Errorf("%s: degenerate scale %v", f.Name(), scale)
		}
	}
}

func TestCountQuantileExtremes(t *testing.T) {
	cdf := distuv.Poisson{Lambda: 3}.CDF
	if q := countQuantile(0, 3, cdf); q != 0 {
		t.Errorf("quantile(0) = %v, want 0", q)
	}
	q := countQuantile(0.999999, 3, cdf)
	if q < 3 {
		t.Errorf("extreme upper quantile %v below the mean", q)
	}
}
