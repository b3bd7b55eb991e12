package gate

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/quickserve/dispatch/internal/agent/api"
)

type verifierStub struct {
	result *api.VerifyResult
	err    error
}

func (v *verifierStub) VerifyPayment(context.Context, float64) (*api.VerifyResult, error) {
	return v.result, v.err
}

func TestGateStartsLocked(t *testing.T) {
	g := NewVerificationGate(&verifierStub{})
	if g.Verified() {
		t.Fatal("new gate must be locked")
	}
}

func TestGateUnlocksOnlyOnStrictShape(t *testing.T) {
	amount := 450.0
	tests := []struct {
		name   string
		result *api.VerifyResult
		err    error
		want   bool
	}{
		{"success and verified", &api.VerifyResult{Success: true, Verified: true, Amount: &amount}, nil, true},
		{"success without verified", &api.VerifyResult{Success: true, Verified: false}, nil, false},
		{"verified without success", &api.VerifyResult{Success: false, Verified: true}, nil, false},
		{"neither", &api.VerifyResult{}, nil, false},
		{"nil result", nil, nil, false},
		{"transport error", nil, errors.New("connection refused"), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := NewVerificationGate(&verifierStub{result: tc.result, err: tc.err})
			ok, err := g.Verify(context.Background(), 450)
			if tc.err != nil && err == nil {
				t.Fatal("expected transport error surfaced")
			}
			if ok != tc.want || g.Verified() != tc.want {
				t.Fatalf("expected verified=%v, got ok=%v state=%v", tc.want, ok, g.Verified())
			}
		})
	}
}

func TestGateServerErrorThenSuccess(t *testing.T) {
	// First call fails with 500 and keeps the gate locked; the retry returns
	// a matched amount of 450 and unlocks it.
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "internal", http.StatusInternalServerError)
			return
		}
		amount := 450.0
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "verified": true, "amount": amount})
	}))
	defer srv.Close()

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	client, err := api.NewHTTPClient(srv.URL, logger)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	g := NewVerificationGate(client)

	ok, err := g.Verify(context.Background(), 450)
	if err == nil {
		t.Fatal("expected error from 500 response")
	}
	if ok || g.Verified() {
		t.Fatal("gate must stay locked after server error")
	}

	ok, err = g.Verify(context.Background(), 450)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !ok || !g.Verified() {
		t.Fatal("gate must unlock on verified retry")
	}
	if matched := g.MatchedAmount(); matched == nil || *matched != 450 {
		t.Fatalf("expected matched amount 450, got %v", matched)
	}
}

func TestGateSlipUploadRelocks(t *testing.T) {
	g := NewVerificationGate(&verifierStub{result: &api.VerifyResult{Success: true, Verified: true}})
	if ok, _ := g.Verify(context.Background(), 450); !ok {
		t.Fatal("expected unlock")
	}

	g.SlipUploaded()
	if g.Verified() {
		t.Fatal("a new slip must invalidate prior verification")
	}
}

func TestGateResetRelocks(t *testing.T) {
	g := NewVerificationGate(&verifierStub{result: &api.VerifyResult{Success: true, Verified: true}})
	if ok, _ := g.Verify(context.Background(), 450); !ok {
		t.Fatal("expected unlock")
	}

	g.Reset()
	if g.Verified() {
		t.Fatal("reopening the checkout must not carry a stale verified flag")
	}
}
