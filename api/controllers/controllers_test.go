package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tracklock/tracklock-backend/internal/intents"
	"github.com/tracklock/tracklock-backend/internal/settlement"
	"github.com/tracklock/tracklock-backend/pkg/db/models"
	pkgerrors "github.com/tracklock/tracklock-backend/pkg/errors"
	"github.com/tracklock/tracklock-backend/pkg/types"
)

type stubSettlementService struct {
	finalize func(ctx context.Context, intentID uuid.UUID) (*settlement.FinalizeResult, error)
}

func (s *stubSettlementService) FinalizePurchase(ctx context.Context, intentID uuid.UUID) (*settlement.FinalizeResult, error) {
	if s.finalize != nil {
		return s.finalize(ctx, intentID)
	}
	return nil, nil
}

type stubIntentsRepo struct {
	findByID func(ctx context.Context, id uuid.UUID) (*models.PaymentIntent, error)
	create   func(ctx context.Context, intent *models.PaymentIntent) error
}

func (s *stubIntentsRepo) WithTx(tx *gorm.DB) intents.Repository { return s }

func (s *stubIntentsRepo) Create(ctx context.Context, intent *models.PaymentIntent) error {
	if s.create != nil {
		return s.create(ctx, intent)
	}
	return nil
}

func (s *stubIntentsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentIntent, error) {
	if s.findByID != nil {
		return s.findByID(ctx, id)
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment intent not found")
}

func (s *stubIntentsRepo) AttachReceiptToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	panic("not implemented")
}

type stubSettlementRepo struct {
	hasEntitlement  func(ctx context.Context, buyerRef string, contentID uuid.UUID) (bool, error)
	findProofByHash func(ctx context.Context, proofHash string) (*models.ProofRecord, error)
}

func (s *stubSettlementRepo) WithTx(tx *gorm.DB) settlement.Repository { return s }

func (s *stubSettlementRepo) CreateSettlement(ctx context.Context, st *models.Settlement) error {
	panic("not implemented")
}

func (s *stubSettlementRepo) FindByIntentID(ctx context.Context, intentID uuid.UUID) (*models.Settlement, error) {
	panic("not implemented")
}

func (s *stubSettlementRepo) CreateEntitlementIfAbsent(ctx context.Context, entitlement *models.Entitlement) (*models.Entitlement, error) {
	panic("not implemented")
}

func (s *stubSettlementRepo) FindEntitlement(ctx context.Context, buyerRef string, contentID uuid.UUID, manifestHash string) (*models.Entitlement, error) {
	panic("not implemented")
}

func (s *stubSettlementRepo) HasEntitlement(ctx context.Context, buyerRef string, contentID uuid.UUID) (bool, error) {
	if s.hasEntitlement != nil {
		return s.hasEntitlement(ctx, buyerRef, contentID)
	}
	return false, nil
}

func (s *stubSettlementRepo) CreateProofIfAbsent(ctx context.Context, record *models.ProofRecord) error {
	panic("not implemented")
}

func (s *stubSettlementRepo) FindProofByHash(ctx context.Context, proofHash string) (*models.ProofRecord, error) {
	if s.findProofByHash != nil {
		return s.findProofByHash(ctx, proofHash)
	}
	return nil, nil
}

func serve(t *testing.T, register func(r chi.Router), req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	register(r)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestFinalizeSettlementSuccess(t *testing.T) {
	intentID := uuid.New()
	token := "ab12"
	svc := &stubSettlementService{
		finalize: func(_ context.Context, got uuid.UUID) (*settlement.FinalizeResult, error) {
			if got != intentID {
				t.Fatalf("expected intent %s, got %s", intentID, got)
			}
			return &settlement.FinalizeResult{
				Settlement: &models.Settlement{
					ID:         uuid.New(),
					IntentID:   intentID,
					ContentID:  uuid.New(),
					AmountSats: 101,
					ProofHash:  strings.Repeat("a", 64),
					Allocations: []models.SettlementAllocation{
						{ParticipantRef: "alice", Bps: 10000, AmountSats: 101},
					},
				},
				ReceiptToken: &token,
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/settlements/"+intentID.String()+"/finalize", nil)
	w := serve(t, func(r chi.Router) {
		r.Post("/api/v1/settlements/{intentId}/finalize", FinalizeSettlement(svc, nil))
	}, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Data finalizeResponse `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Data.IntentID != intentID.String() {
		t.Fatalf("unexpected intent id %s", body.Data.IntentID)
	}
	if body.Data.ReceiptToken == nil || *body.Data.ReceiptToken != token {
		t.Fatalf("expected receipt token in response")
	}
	if len(body.Data.Allocations) != 1 || body.Data.Allocations[0].AmountSats != 101 {
		t.Fatalf("unexpected allocations %+v", body.Data.Allocations)
	}
}

func TestFinalizeSettlementBadIntentID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/settlements/not-a-uuid/finalize", nil)
	w := serve(t, func(r chi.Router) {
		r.Post("/api/v1/settlements/{intentId}/finalize", FinalizeSettlement(&stubSettlementService{}, nil))
	}, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Code)
	}
}

func TestFinalizeSettlementStateConflictPassesThrough(t *testing.T) {
	svc := &stubSettlementService{
		finalize: func(context.Context, uuid.UUID) (*settlement.FinalizeResult, error) {
			return nil, settlement.ErrNotPaid
		},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/settlements/"+uuid.NewString()+"/finalize", nil)
	w := serve(t, func(r chi.Router) {
		r.Post("/api/v1/settlements/{intentId}/finalize", FinalizeSettlement(svc, nil))
	}, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", w.Code)
	}
}

func TestContentAccessBuyerEntitled(t *testing.T) {
	contentID := uuid.New()
	buyerID := uuid.New()
	repo := &stubSettlementRepo{
		hasEntitlement: func(_ context.Context, buyerRef string, gotContent uuid.UUID) (bool, error) {
			return buyerRef == buyerID.String() && gotContent == contentID, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/content/"+contentID.String()+"/access", nil)
	req.Header.Set(buyerIDHeader, buyerID.String())
	w := serve(t, func(r chi.Router) {
		r.Get("/api/v1/content/{contentId}/access", ContentAccess(&stubIntentsRepo{}, repo, nil))
	}, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", w.Code, w.Body.String())
	}
}

func TestContentAccessDenialIsGeneric(t *testing.T) {
	contentID := uuid.New()
	otherContent := uuid.New()
	token := strings.Repeat("ab", 32)
	expires := time.Now().Add(time.Hour)
	intent := &models.PaymentIntent{
		ID:                    uuid.New(),
		ContentID:             otherContent,
		ReceiptToken:          &token,
		ReceiptTokenExpiresAt: &expires,
	}
	intentsRepo := &stubIntentsRepo{
		findByID: func(_ context.Context, id uuid.UUID) (*models.PaymentIntent, error) {
			if id == intent.ID {
				return intent, nil
			}
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment intent not found")
		},
	}
	repo := &stubSettlementRepo{}

	cases := []struct {
		name  string
		build func(r *http.Request)
	}{
		{"no credentials", func(r *http.Request) {}},
		{"unknown buyer", func(r *http.Request) {
			r.Header.Set(buyerIDHeader, uuid.NewString())
		}},
		{"malformed buyer", func(r *http.Request) {
			r.Header.Set(buyerIDHeader, "not-a-uuid")
		}},
		{"unknown intent", func(r *http.Request) {
			q := r.URL.Query()
			q.Set("intent_id", uuid.NewString())
			q.Set("receipt_token", token)
			r.URL.RawQuery = q.Encode()
		}},
		{"wrong content for intent", func(r *http.Request) {
			q := r.URL.Query()
			q.Set("intent_id", intent.ID.String())
			q.Set("receipt_token", token)
			r.URL.RawQuery = q.Encode()
		}},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/content/"+contentID.String()+"/access", nil)
		tc.build(req)
		w := serve(t, func(r chi.Router) {
			r.Get("/api/v1/content/{contentId}/access", ContentAccess(intentsRepo, repo, nil))
		}, req)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 got %d", tc.name, w.Code)
		}
		var body types.ErrorEnvelope
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("%s: decode error envelope: %v", tc.name, err)
		}
		if body.Error.Message != "not authorized" {
			t.Fatalf("%s: denial message must not vary, got %q", tc.name, body.Error.Message)
		}
	}
}

func TestContentAccessReceiptTokenGranted(t *testing.T) {
	contentID := uuid.New()
	token := strings.Repeat("cd", 32)
	expires := time.Now().Add(time.Hour)
	intent := &models.PaymentIntent{
		ID:                    uuid.New(),
		ContentID:             contentID,
		ReceiptToken:          &token,
		ReceiptTokenExpiresAt: &expires,
	}
	intentsRepo := &stubIntentsRepo{
		findByID: func(_ context.Context, id uuid.UUID) (*models.PaymentIntent, error) {
			return intent, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/content/"+contentID.String()+"/access?intent_id="+intent.ID.String(), nil)
	req.Header.Set("X-Receipt-Token", token)
	w := serve(t, func(r chi.Router) {
		r.Get("/api/v1/content/{contentId}/access", ContentAccess(intentsRepo, &stubSettlementRepo{}, nil))
	}, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", w.Code, w.Body.String())
	}
}

func TestProofDetail(t *testing.T) {
	record := &models.ProofRecord{
		ID:             uuid.New(),
		ContentID:      uuid.New(),
		SplitVersionID: uuid.New(),
		ProofHash:      strings.Repeat("e", 64),
		SplitsHash:     strings.Repeat("f", 64),
		ManifestHash:   strings.Repeat("0", 64),
		PayloadJSON:    `{"version":"v1"}`,
	}
	repo := &stubSettlementRepo{
		findProofByHash: func(_ context.Context, proofHash string) (*models.ProofRecord, error) {
			if proofHash == record.ProofHash {
				return record, nil
			}
			return nil, nil
		},
	}

	w := serve(t, func(r chi.Router) {
		r.Get("/api/v1/proofs/{proofHash}", ProofDetail(repo, nil))
	}, httptest.NewRequest(http.MethodGet, "/api/v1/proofs/"+record.ProofHash, nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	var body struct {
		Data proofResponse `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if string(body.Data.Payload) != record.PayloadJSON {
		t.Fatalf("payload must round-trip untouched, got %s", body.Data.Payload)
	}

	w = serve(t, func(r chi.Router) {
		r.Get("/api/v1/proofs/{proofHash}", ProofDetail(repo, nil))
	}, httptest.NewRequest(http.MethodGet, "/api/v1/proofs/"+strings.Repeat("9", 64), nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", w.Code)
	}

	w = serve(t, func(r chi.Router) {
		r.Get("/api/v1/proofs/{proofHash}", ProofDetail(repo, nil))
	}, httptest.NewRequest(http.MethodGet, "/api/v1/proofs/short", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Code)
	}
}

func TestCreateIntentValidation(t *testing.T) {
	repo := &stubIntentsRepo{}

	cases := []struct {
		name string
		body string
		want int
	}{
		{"valid", `{"content_id":"` + uuid.NewString() + `","amount_sats":101,"manifest_hash":"` + strings.Repeat("a", 64) + `"}`, http.StatusCreated},
		{"missing content", `{"amount_sats":101,"manifest_hash":"` + strings.Repeat("a", 64) + `"}`, http.StatusBadRequest},
		{"zero amount", `{"content_id":"` + uuid.NewString() + `","amount_sats":0,"manifest_hash":"` + strings.Repeat("a", 64) + `"}`, http.StatusBadRequest},
		{"short manifest", `{"content_id":"` + uuid.NewString() + `","amount_sats":1,"manifest_hash":"abc"}`, http.StatusBadRequest},
		{"unknown field", `{"content_id":"` + uuid.NewString() + `","amount_sats":1,"manifest_hash":"` + strings.Repeat("a", 64) + `","extra":true}`, http.StatusBadRequest},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/intents", strings.NewReader(tc.body))
		req.Header.Set("Content-Type", "application/json")
		w := serve(t, func(r chi.Router) {
			r.Post("/api/v1/intents", CreateIntent(repo, nil))
		}, req)

		if w.Code != tc.want {
			t.Fatalf("%s: expected %d got %d: %s", tc.name, tc.want, w.Code, w.Body.String())
		}
	}
}
