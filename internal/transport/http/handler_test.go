package httptransport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reserveguard/internal/compliance"
	jwttoken "reserveguard/internal/jwt_token"
	"reserveguard/internal/platform/logger"
	"reserveguard/internal/storage"
	"reserveguard/pkg/testutil"
)

const signingKey = "handler-test-key"

type testServer struct {
	router http.Handler
	admin  string
	viewer string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logger.Discard()
	svc, err := compliance.New(storage.NewInMemoryStore(), compliance.WithLogger(log))
	require.NoError(t, err)

	tokens := jwttoken.NewJWTService(signingKey, "reserveguard")
	admin, err := tokens.Issue("ops", jwttoken.RoleAdmin, time.Hour)
	require.NoError(t, err)
	viewer, err := tokens.Issue("intern", "viewer", time.Hour)
	require.NoError(t, err)

	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})
	router := NewRouter(NewHandler(svc, log), jwttoken.NewJWTServiceAdapter(tokens), metrics, log)
	return &testServer{router: router, admin: admin, viewer: viewer}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if raw, ok := body.(string); ok {
		req = testutil.NewRequestWithBody(t, method, path, raw)
	} else {
		req = testutil.NewJSONRequest(t, method, path, body)
	}
	return testutil.DoRequest(s.router, testutil.WithBearer(req, token))
}

const failingAttestation = `{
	"bank_id": "bankA",
	"reserve_operator": "bankA",
	"assets": [{"asset": "btc", "balances": [40, 50], "threshold": 100}],
	"liabilities": null
}`

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = srv.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# metrics", rec.Body.String())
}

func TestEvaluateAttestation(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/attestations", "", failingAttestation)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Evaluation struct {
			Verdict string `json:"verdict"`
			CID     string `json:"attestation_cid"`
		} `json:"evaluation"`
		Outcome struct {
			Result      string `json:"result"`
			Participant struct {
				Strikes uint32 `json:"strikes"`
			} `json:"participant"`
		} `json:"outcome"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "threshold_fail", resp.Evaluation.Verdict)
	assert.NotEmpty(t, resp.Evaluation.CID)
	assert.Equal(t, "Penalized", resp.Outcome.Result)
	assert.Equal(t, uint32(1), resp.Outcome.Participant.Strikes)
}

func TestEvaluateAttestationBlacklistedOmitsEvaluation(t *testing.T) {
	srv := newTestServer(t)

	testutil.Given(t, "a blacklisted participant", func(t *testing.T) {
		for range 3 {
			testutil.AssertStatus(t, srv.do(t, http.MethodPost, "/attestations", "", failingAttestation), http.StatusOK)
		}
	})

	testutil.Then(t, "a further attestation is rejected unevaluated", func(t *testing.T) {
		rec := srv.do(t, http.MethodPost, "/attestations", "", failingAttestation)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.NotContains(t, resp, "evaluation")
		assert.Contains(t, string(resp["outcome"]), `"result":"Rejected"`)
	})
}

func TestEvaluateAttestationRejectsBadInput(t *testing.T) {
	srv := newTestServer(t)

	for name, body := range map[string]string{
		"malformed":       `{"bank_id":`,
		"unknown field":   `{"bank_id":"a","reserve_operator":"a","assets":[{"asset":"btc","balances":[1],"threshold":1}],"extra":true}`,
		"negative amount": `{"bank_id":"a","reserve_operator":"a","assets":[{"asset":"btc","balances":[-1],"threshold":1}]}`,
		"no assets":       `{"bank_id":"a","reserve_operator":"a","assets":[]}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := srv.do(t, http.MethodPost, "/attestations", "", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCheckBlacklist(t *testing.T) {
	srv := newTestServer(t)

	testutil.Given(t, "an unknown participant", func(t *testing.T) {
		rec := srv.do(t, http.MethodGet, "/participants/bankA/blacklist", "", nil)
		testutil.AssertStatusAndError(t, rec, http.StatusNotFound, "not_found")
	})

	testutil.When(t, "three threshold failures are submitted", func(t *testing.T) {
		for range 3 {
			testutil.AssertStatus(t, srv.do(t, http.MethodPost, "/attestations", "", failingAttestation), http.StatusOK)
		}
	})

	testutil.Then(t, "the participant is blacklisted with the reason", func(t *testing.T) {
		rec := srv.do(t, http.MethodGet, "/participants/bankA/blacklist", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		resp := testutil.UnmarshalResponse[ParticipantResponse](t, rec)
		assert.True(t, resp.Blacklisted)
		assert.Equal(t, "Too many threshold failures", resp.BlacklistReason)
		assert.Equal(t, uint32(3), resp.Strikes)
	})
}

func TestAppealFlow(t *testing.T) {
	srv := newTestServer(t)
	for range 3 {
		require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/attestations", "", failingAttestation).Code)
	}

	rec := srv.do(t, http.MethodPost, "/appeals", "", SubmitAppealRequest{ParticipantID: "bankA", Reason: "custody fixed"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = srv.do(t, http.MethodGet, "/appeals?pending=true", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list AppealsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list.Appeals, 1)

	approve := true
	review := ReviewAppealRequest{Approve: &approve}

	t.Run("review requires a token", func(t *testing.T) {
		rec := srv.do(t, http.MethodPost, "/appeals/0/review", "", review)
		testutil.AssertStatusAndError(t, rec, http.StatusUnauthorized, "unauthorized")
	})

	t.Run("review requires the admin role", func(t *testing.T) {
		rec := srv.do(t, http.MethodPost, "/appeals/0/review", srv.viewer, review)
		testutil.AssertStatusAndError(t, rec, http.StatusForbidden, "forbidden")
	})

	t.Run("admin approval reinstates", func(t *testing.T) {
		rec := srv.do(t, http.MethodPost, "/appeals/0/review", srv.admin, review)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = srv.do(t, http.MethodGet, "/participants/bankA/blacklist", "", nil)
		var resp ParticipantResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.False(t, resp.Blacklisted)
		assert.Zero(t, resp.Strikes)
	})

	t.Run("second review conflicts", func(t *testing.T) {
		rec := srv.do(t, http.MethodPost, "/appeals/0/review", srv.admin, review)
		testutil.AssertStatusAndError(t, rec, http.StatusConflict, "conflict")
	})

	t.Run("bad index", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, srv.do(t, http.MethodPost, "/appeals/x/review", srv.admin, review).Code)
		assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodPost, "/appeals/9/review", srv.admin, review).Code)
	})

	t.Run("missing approve flag", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, srv.do(t, http.MethodPost, "/appeals/0/review", srv.admin, `{}`).Code)
	})
}

func TestResetStrikesAndLogs(t *testing.T) {
	srv := newTestServer(t)
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/attestations", "", failingAttestation).Code)

	assert.Equal(t, http.StatusUnauthorized, srv.do(t, http.MethodPost, "/participants/bankA/reset-strikes", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodPost, "/participants/ghost/reset-strikes", srv.admin, nil).Code)

	rec := srv.do(t, http.MethodPost, "/participants/bankA/reset-strikes", srv.admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var p ParticipantResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))
	assert.Zero(t, p.Strikes)

	rec = srv.do(t, http.MethodGet, "/logs?participant=bankA", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var logs LogsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&logs))
	require.Len(t, logs.Entries, 2)
	assert.Equal(t, "threshold_fail", string(logs.Entries[0].Action))
	assert.Equal(t, "strikes_reset", string(logs.Entries[1].Action))

	rec = srv.do(t, http.MethodGet, "/logs?participant=ghost", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"entries":[]}`, rec.Body.String())
}

func TestReloadPolicy(t *testing.T) {
	srv := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, srv.do(t, http.MethodPost, "/policy/reload", "", nil).Code)

	rec := srv.do(t, http.MethodPost, "/policy/reload", srv.admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp PolicyResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Found)
	assert.Equal(t, uint32(3), resp.Policy.MaxStrikes)
}
