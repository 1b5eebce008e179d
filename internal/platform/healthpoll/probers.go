package healthpoll

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/ogurasousui/personnel-core/internal/platform/telemetry"
)

// HTTPProber は /health 形式の JSON エンドポイントを確認します。
type HTTPProber struct {
	client *http.Client
}

// NewHTTPProber は HTTPProber を生成します。client が nil なら既定のクライアントを使います。
func NewHTTPProber(client *http.Client) *HTTPProber {
	return &HTTPProber{client: telemetry.InstrumentClient(client)}
}

type healthBody struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Probe は 2xx かつ database が ok なら up、応答はあるが不健全なら degraded を返します。
func (p *HTTPProber) Probe(ctx context.Context, url string) (Status, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return StatusDown, false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return StatusDown, false
	}
	defer resp.Body.Close()

	var body healthBody
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body)

	dbOK := body.Database == "ok"
	if resp.StatusCode >= 200 && resp.StatusCode < 300 && dbOK {
		return StatusUp, true
	}
	return StatusDegraded, dbOK
}

// GRPCProber は grpc.health.v1 で確認します。SERVING はデータベース疎通を含みます。
type GRPCProber struct {
	service string
	opts    []grpc.DialOption
}

// NewGRPCProber は GRPCProber を生成します。service は確認対象のサービス名です。
func NewGRPCProber(service string, opts ...grpc.DialOption) *GRPCProber {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	return &GRPCProber{service: service, opts: opts}
}

func (p *GRPCProber) Probe(ctx context.Context, target string) (Status, bool) {
	conn, err := grpc.NewClient(target, p.opts...)
	if err != nil {
		return StatusDown, false
	}
	defer conn.Close()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: p.service})
	if err != nil {
		return StatusDown, false
	}
	if resp.GetStatus() == healthpb.HealthCheckResponse_SERVING {
		return StatusUp, true
	}
	return StatusDegraded, false
}
