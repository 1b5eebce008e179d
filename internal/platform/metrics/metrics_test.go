package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ogurasousui/personnel-core/internal/core/account"
	"github.com/ogurasousui/personnel-core/internal/core/policy"
	"github.com/ogurasousui/personnel-core/internal/core/resource"
)

func TestObserveDecision(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.ObserveDecision(account.RoleStandard, resource.Trainings, policy.AllowNarrowedToSelf)
	r.ObserveDecision(account.RoleStandard, resource.Trainings, policy.AllowNarrowedToSelf)
	r.ObserveDecision(account.RoleStandard, resource.Accounts, policy.Deny)

	tests := []struct {
		kind   string
		effect string
		want   float64
	}{
		{kind: "trainings", effect: "allow_narrowed", want: 2},
		{kind: "accounts", effect: "deny", want: 1},
	}
	for _, tt := range tests {
		got := testutil.ToFloat64(r.decisions.WithLabelValues("Funcionario", tt.kind, tt.effect))
		if got != tt.want {
			t.Fatalf("decisions{%s,%s} = %v, want %v", tt.kind, tt.effect, got, tt.want)
		}
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.ObserveRequest(http.MethodGet, "/records/{kind}", http.StatusOK, 20*time.Millisecond)
	r.IncRateLimited()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	text := string(body)
	for _, want := range []string{
		`personnel_http_request_duration_seconds_count{method="GET",route="/records/{kind}",status="200"} 1`,
		"personnel_rate_limited_total 1",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("metrics output missing %q:\n%s", want, text)
		}
	}
}
