package gate

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

/* ---------------- fakes ---------------- */

type fakePayments struct {
	paid  bool
	err   error
	delay time.Duration
	calls []string
}

func (f *fakePayments) VerifyPayment(ctx context.Context, id string) (bool, error) {
	f.calls = append(f.calls, id)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	return f.paid, f.err
}

type fakeFree struct {
	valid bool
	err   error
	calls []string
}

func (f *fakeFree) VerifyFreeCode(_ context.Context, code string) (bool, error) {
	f.calls = append(f.calls, code)
	return f.valid, f.err
}

type renderCall struct{ Code, Sub string }

type fakeReports struct {
	html  string
	err   error
	calls []renderCall
}

func (f *fakeReports) RenderReport(_ context.Context, code, sub string) (string, error) {
	f.calls = append(f.calls, renderCall{code, sub})
	return f.html, f.err
}

type fakeSession struct {
	paid  bool
	err   error
	calls int
}

func (f *fakeSession) SessionPaid(context.Context) (bool, error) {
	f.calls++
	return f.paid, f.err
}

func newFakes() (*fakePayments, *fakeFree, *fakeReports) {
	return &fakePayments{}, &fakeFree{}, &fakeReports{html: "<article>report</article>"}
}

func mustURL(t *testing.T, s string) *url.URL {
	t.Helper()
	u, err := url.Parse(s)
	require.NoError(t, err)
	return u
}

/* ---------------- request parsing ---------------- */

func TestFromURL(t *testing.T) {
	req := FromURL(mustURL(t, "/report?session_id=cs_1&code=High-Low-Low-Low-High&sub=HLLLH&free=abc"), "https://x/subtype")
	want := Request{SessionID: "cs_1", Code: "High-Low-Low-Low-High", Sub: "HLLLH", Free: "abc", Referrer: "https://x/subtype"}
	if diff := cmp.Diff(want, req); diff != "" {
		t.Fatalf("request mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, req.FromSubtype())

	req = FromURL(mustURL(t, "/report"), "")
	assert.Equal(t, "Medium-Medium-Medium-Medium-Medium", req.Code)
	assert.False(t, req.FromSubtype())
}

func TestFromSubtypeChecksPath(t *testing.T) {
	assert.True(t, Request{Referrer: "http://localhost:8080/subtype"}.FromSubtype())
	assert.True(t, Request{Referrer: "/quiz/subtype?x=1"}.FromSubtype())
	assert.False(t, Request{Referrer: "http://evil.example/?next=/subtype"}.FromSubtype())
	assert.False(t, Request{Referrer: "http://localhost:8080/quiz"}.FromSubtype())
	assert.False(t, Request{Referrer: "::not a url"}.FromSubtype())
}

/* ---------------- state machine ---------------- */

func TestNoParamsNonSubtypeReferrerIsDenied(t *testing.T) {
	p, f, r := newFakes()
	out := New(p, f, r).Run(context.Background(), FromURL(mustURL(t, "/report"), "http://localhost/quiz"))

	assert.Equal(t, StateDenied, out.State)
	assert.Equal(t, DeniedHTML, out.HTML)
	assert.Contains(t, out.HTML, `href="/"`)
	assert.Empty(t, p.calls)
	assert.Empty(t, f.calls)
	assert.Empty(t, r.calls, "no report fetch on denial")
}

func TestPaidSessionShowsReport(t *testing.T) {
	p, f, r := newFakes()
	p.paid = true
	out := New(p, f, r).Run(context.Background(), Request{SessionID: "cs_1", Code: "Low-Low-Low-Low-Low", Free: "ABC"})

	assert.Equal(t, StateShown, out.State)
	assert.Equal(t, ViaPayment, out.Via)
	assert.True(t, out.Verified)
	assert.Equal(t, "<article>report</article>", out.HTML)
	assert.Equal(t, []string{"cs_1"}, p.calls)
	assert.Empty(t, f.calls, "free code is only tried when payment did not verify")
	assert.Equal(t, []renderCall{{"Low-Low-Low-Low-Low", ""}}, r.calls)
}

func TestUnpaidSessionFallsBackToFreeCode(t *testing.T) {
	p, f, r := newFakes()
	f.valid = true
	out := New(p, f, r).Run(context.Background(), Request{SessionID: "cs_1", Code: "Low-Low-Low-Low-Low", Sub: "LLLLL", Free: "ABC"})

	assert.Equal(t, StateShown, out.State)
	assert.Equal(t, ViaFreeCode, out.Via)
	assert.Equal(t, []string{"cs_1"}, p.calls)
	assert.Equal(t, []string{"ABC"}, f.calls)
	assert.Equal(t, []renderCall{{"Low-Low-Low-Low-Low", "LLLLL"}}, r.calls)
}

func TestPaymentErrorNeverGrantsAccess(t *testing.T) {
	p, f, r := newFakes()
	p.paid = true // a broken verifier may return garbage alongside the error
	p.err = errors.New("malformed json")
	out := New(p, f, r).Run(context.Background(), Request{SessionID: "cs_1", Code: "Low-Low-Low-Low-Low"})

	assert.Equal(t, StateDenied, out.State)
	assert.False(t, out.Verified)
	assert.Empty(t, r.calls)
}

func TestPaymentErrorFreeCodeStillVerifies(t *testing.T) {
	p, f, r := newFakes()
	p.err = errors.New("connection refused")
	f.valid = true
	out := New(p, f, r).Run(context.Background(), Request{SessionID: "cs_1", Free: "ABC", Code: "Low-Low-Low-Low-Low"})

	assert.Equal(t, StateShown, out.State)
	assert.Equal(t, ViaFreeCode, out.Via)
}

func TestPaymentErrorSubtypeBypass(t *testing.T) {
	p, f, r := newFakes()
	p.err = errors.New("boom")
	f.err = errors.New("boom")
	out := New(p, f, r).Run(context.Background(), Request{SessionID: "cs_1", Free: "x", Code: "Low-Low-Low-Low-Low", Referrer: "/subtype"})

	assert.Equal(t, StateShown, out.State)
	assert.Equal(t, ViaSubtype, out.Via)
	assert.False(t, out.Verified)
}

func TestFreeCodeErrorIsUnverified(t *testing.T) {
	p, f, r := newFakes()
	f.err = errors.New("timeout")
	f.valid = true
	out := New(p, f, r).Run(context.Background(), Request{Free: "ABC", Code: "Low-Low-Low-Low-Low"})
	assert.Equal(t, StateDenied, out.State)
	assert.Empty(t, r.calls)
}

func TestSlowPaymentTimesOut(t *testing.T) {
	p, f, r := newFakes()
	p.paid = true
	p.delay = time.Second
	g := New(p, f, r, WithTimeout(20*time.Millisecond))

	start := time.Now()
	out := g.Run(context.Background(), Request{SessionID: "cs_1", Code: "Low-Low-Low-Low-Low"})
	assert.Equal(t, StateDenied, out.State)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestNilCollaboratorsAreUnverified(t *testing.T) {
	r := &fakeReports{html: "ok"}
	out := New(nil, nil, r).Run(context.Background(), Request{SessionID: "a", Free: "b", Code: "Low-Low-Low-Low-Low"})
	assert.Equal(t, StateDenied, out.State)
}

func TestReportLoadFailureIsErrorState(t *testing.T) {
	p, f, r := newFakes()
	p.paid = true
	r.err = errors.New("502 bad gateway: upstream trace id 1234")
	out := New(p, f, r).Run(context.Background(), Request{SessionID: "cs_1", Code: "Low-Low-Low-Low-Low"})

	assert.Equal(t, StateError, out.State)
	assert.Equal(t, ErrorHTML, out.HTML)
	assert.NotContains(t, out.HTML, "upstream", "no internal detail reaches the visitor")
	var le *ReportLoadError
	require.ErrorAs(t, out.Err, &le)
	assert.Len(t, r.calls, 1, "no automatic retry")
}

func TestVerificationTransportErrorUnwraps(t *testing.T) {
	base := context.DeadlineExceeded
	err := &VerificationTransportError{Kind: "payment", Err: base}
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "payment verification")
}

func TestUnlockedSessionSkipsURLChecks(t *testing.T) {
	p, f, r := newFakes()
	s := &fakeSession{paid: true}
	out := New(p, f, r, WithSession(s)).Run(context.Background(), FromURL(mustURL(t, "/report?free=USEDCODE"), ""))

	assert.Equal(t, StateShown, out.State)
	assert.Equal(t, ViaSession, out.Via)
	assert.Equal(t, 1, s.calls)
	assert.Empty(t, p.calls)
	assert.Empty(t, f.calls, "a used free code is not redeemed again")
	require.Len(t, r.calls, 1)
}

func TestLockedSessionFallsThroughToURLChecks(t *testing.T) {
	p, f, r := newFakes()
	f.valid = true
	s := &fakeSession{err: errors.New("db down")}
	out := New(p, f, r, WithSession(s)).Run(context.Background(), Request{Code: "High-High-High-High-High", Free: "ABCD1234"})

	assert.Equal(t, StateShown, out.State)
	assert.Equal(t, ViaFreeCode, out.Via)
	assert.Equal(t, []string{"ABCD1234"}, f.calls)

	s = &fakeSession{}
	out = New(p, f, r, WithSession(s)).Run(context.Background(), FromURL(mustURL(t, "/report"), ""))
	assert.Equal(t, StateDenied, out.State)
	assert.Equal(t, 1, s.calls)
}
