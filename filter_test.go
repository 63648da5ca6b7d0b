package shrike

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// stubFilter returns a fixed verdict and counts its invocations.
type stubFilter struct {
	verdict Verdict
	calls   *int
}

func (f stubFilter) CanAcceptFrom(context.Context, *SessionContext, Mailbox, int) Verdict {
	*f.calls++
	return f.verdict
}

func (f stubFilter) CanDeliverTo(context.Context, *SessionContext, Mailbox, Mailbox) Verdict {
	*f.calls++
	return f.verdict
}

func TestCompositeFilterMostRestrictiveWins(t *testing.T) {
	tests := []struct {
		name     string
		verdicts []Verdict
		expected Verdict
	}{
		{name: "no filters accepts", verdicts: nil, expected: VerdictYes},
		{name: "single yes", verdicts: []Verdict{VerdictYes}, expected: VerdictYes},
		{name: "yes and temporary", verdicts: []Verdict{VerdictYes, VerdictNoTemporarily}, expected: VerdictNoTemporarily},
		{name: "temporary and permanent", verdicts: []Verdict{VerdictNoTemporarily, VerdictNoPermanently}, expected: VerdictNoPermanently},
		{name: "size limit outranks permanent", verdicts: []Verdict{VerdictYes, VerdictSizeLimitExceeded, VerdictNoPermanently}, expected: VerdictSizeLimitExceeded},
		{name: "order does not matter", verdicts: []Verdict{VerdictNoPermanently, VerdictYes, VerdictNoTemporarily, VerdictYes, VerdictYes}, expected: VerdictNoPermanently},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			filters := make([]MailboxFilter, len(tt.verdicts))
			for i, v := range tt.verdicts {
				filters[i] = stubFilter{verdict: v, calls: &calls}
			}
			composite := NewCompositeFilter(filters...)

			got := composite.CanAcceptFrom(context.Background(), nil, Mailbox{User: "a", Host: "b"}, 0)
			assert.Equal(t, tt.expected, got, "CanAcceptFrom verdict")
			assert.Equal(t, len(tt.verdicts), calls, "every filter must run")

			calls = 0
			got = composite.CanDeliverTo(context.Background(), nil, Mailbox{User: "to", Host: "b"}, Mailbox{User: "from", Host: "b"})
			assert.Equal(t, tt.expected, got, "CanDeliverTo verdict")
			assert.Equal(t, len(tt.verdicts), calls, "every filter must run")
		})
	}
}

func TestCompositeFilterExhaustive(t *testing.T) {
	verdicts := []Verdict{VerdictYes, VerdictNoTemporarily, VerdictNoPermanently, VerdictSizeLimitExceeded}

	// Every verdict combination for one to five filters.
	for n := 1; n <= 5; n++ {
		combos := 1
		for i := 0; i < n; i++ {
			combos *= len(verdicts)
		}
		for c := 0; c < combos; c++ {
			calls := 0
			assigned := make([]Verdict, n)
			filters := make([]MailboxFilter, n)
			expected := VerdictYes
			for i, rest := 0, c; i < n; i, rest = i+1, rest/len(verdicts) {
				v := verdicts[rest%len(verdicts)]
				assigned[i] = v
				filters[i] = stubFilter{verdict: v, calls: &calls}
				if v > expected {
					expected = v
				}
			}
			composite := NewCompositeFilter(filters...)

			got := composite.CanAcceptFrom(context.Background(), nil, Mailbox{User: "a", Host: "b"}, 0)
			assert.Equal(t, expected, got, "CanAcceptFrom over %v", assigned)
			assert.Equal(t, n, calls, "every filter must run for %v", assigned)

			calls = 0
			got = composite.CanDeliverTo(context.Background(), nil, Mailbox{User: "to", Host: "b"}, Mailbox{User: "from", Host: "b"})
			assert.Equal(t, expected, got, "CanDeliverTo over %v", assigned)
			assert.Equal(t, n, calls, "every filter must run for %v", assigned)
		}
	}
}

func TestCompositeFilterNoShortCircuit(t *testing.T) {
	calls := 0
	composite := NewCompositeFilter(
		stubFilter{verdict: VerdictSizeLimitExceeded, calls: &calls},
		stubFilter{verdict: VerdictYes, calls: &calls},
		stubFilter{verdict: VerdictYes, calls: &calls},
	)

	got := composite.CanAcceptFrom(context.Background(), nil, Mailbox{User: "a", Host: "b"}, 0)
	assert.Equal(t, VerdictSizeLimitExceeded, got)
	assert.Equal(t, 3, calls, "a rejecting filter must not stop the rest")
}

func TestAllowAllFilter(t *testing.T) {
	f := AllowAllFilter()
	assert.Equal(t, VerdictYes, f.CanAcceptFrom(context.Background(), nil, Mailbox{}, 1<<30))
	assert.Equal(t, VerdictYes, f.CanDeliverTo(context.Background(), nil, Mailbox{}, Mailbox{}))
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "yes", VerdictYes.String())
	assert.Equal(t, "no-temporarily", VerdictNoTemporarily.String())
	assert.Equal(t, "no-permanently", VerdictNoPermanently.String())
	assert.Equal(t, "size-limit-exceeded", VerdictSizeLimitExceeded.String())
	assert.Equal(t, "invalid", Verdict(99).String())
}
