package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/idextract/constants"
	"github.com/joseph-ayodele/idextract/internal/common"
	"github.com/joseph-ayodele/idextract/internal/entity"
	"github.com/joseph-ayodele/idextract/internal/metrics"
	"github.com/joseph-ayodele/idextract/internal/pipeline"
	"github.com/joseph-ayodele/idextract/internal/repository"
)

type fakeExtractor struct {
	last pipeline.Input
}

func (f *fakeExtractor) Extract(_ context.Context, in pipeline.Input) (*entity.ExtractionResult, error) {
	f.last = in
	if strings.Contains(in.ImagePath, "blank") {
		return nil, common.NoExtractableData("ocr produced no text", nil)
	}
	if strings.Contains(in.Text, "explode") {
		return nil, errors.New("boom")
	}
	res := entity.NewExtractionResult()
	res.DocumentType = constants.DocCNI
	res.Country = constants.CountryFR
	res.DocumentNumber = entity.Str("X4RTBPFW4")
	return res, nil
}

type fakePinger struct{ err error }

func (f fakePinger) HealthCheck(context.Context, time.Duration) error { return f.err }

func newJobs(t *testing.T) repository.ExtractJobRepository {
	t.Helper()
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{DSN: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(ctx))
	return repository.NewExtractJobRepository(db, nil)
}

func seedJob(t *testing.T, jobs repository.ExtractJobRepository) *entity.ExtractJob {
	t.Helper()
	ctx := context.Background()
	job, err := jobs.Start(ctx, "/inbox/cni.png", "abc", constants.IMAGE)
	require.NoError(t, err)
	res := entity.NewExtractionResult()
	res.DocumentType = constants.DocCNI
	res.Country = constants.CountryFR
	require.NoError(t, jobs.FinishExtraction(ctx, job.ID, res))
	return job
}

func dialBufconn(t *testing.T, svc ExtractorServer) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	gs, _ := NewGRPCServer(svc, nil)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestGRPC_Extract(t *testing.T) {
	fe := &fakeExtractor{}
	conn := dialBufconn(t, NewExtractorService(fe, nil, WithImageRoot("/tmp")))
	client := NewExtractorClient(conn)
	ctx := context.Background()

	req, err := structpb.NewStruct(map[string]any{"text": "CARTE NATIONALE D'IDENTITE", "image_path": " /tmp/a.png "})
	require.NoError(t, err)
	out, err := client.Extract(ctx, req)
	require.NoError(t, err)
	m := out.AsMap()
	assert.Equal(t, "cni", m["document_type"])
	assert.Equal(t, "fr", m["country"])
	assert.Equal(t, "X4RTBPFW4", m["document_number"])
	assert.Equal(t, "/tmp/a.png", fe.last.ImagePath)

	cases := []struct {
		name string
		in   map[string]any
		code codes.Code
	}{
		{"empty request", map[string]any{}, codes.InvalidArgument},
		{"no extractable data", map[string]any{"image_path": "/tmp/blank.png"}, codes.FailedPrecondition},
		{"internal", map[string]any{"text": "explode"}, codes.Internal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := structpb.NewStruct(tc.in)
			require.NoError(t, err)
			_, err = client.Extract(ctx, req)
			assert.Equal(t, tc.code, status.Code(err))
		})
	}
}

func TestImagePathConfinedToRoot(t *testing.T) {
	ctx := context.Background()
	text := "CARTE NATIONALE D'IDENTITE"

	t.Run("rejected without a root", func(t *testing.T) {
		fe := &fakeExtractor{}
		_, err := NewExtractorService(fe, nil).extract(ctx, ExtractRequest{Text: text, ImagePath: "/tmp/a.png"})
		require.ErrorIs(t, err, common.ErrInvalidInput)
		assert.Empty(t, fe.last.Text, "extractor must not be called")
	})

	svc := NewExtractorService(&fakeExtractor{}, nil, WithImageRoot("/srv/inbox/"))
	tests := []struct {
		name string
		path string
		want string
	}{
		{"relative", "scans/a.png", "/srv/inbox/scans/a.png"},
		{"absolute inside", "/srv/inbox/a.png", "/srv/inbox/a.png"},
		{"dot segments inside", "/srv/inbox/x/../a.png", "/srv/inbox/a.png"},
		{"absolute outside", "/etc/passwd", ""},
		{"parent escape", "../../etc/passwd", ""},
		{"absolute escape", "/srv/inbox/../secret.png", ""},
		{"sibling prefix", "/srv/inbox2/a.png", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.resolveImage(tt.path)
			if tt.want == "" {
				require.ErrorIs(t, err, common.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("grpc caller gets invalid argument", func(t *testing.T) {
		client := NewExtractorClient(dialBufconn(t, NewExtractorService(&fakeExtractor{}, nil, WithImageRoot("/srv/inbox"))))
		req, err := structpb.NewStruct(map[string]any{"text": text, "image_path": "/etc/passwd"})
		require.NoError(t, err)
		_, err = client.Extract(ctx, req)
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})
}

func TestGRPC_JobsAndExport(t *testing.T) {
	jobs := newJobs(t)
	job := seedJob(t, jobs)
	conn := dialBufconn(t, NewExtractorService(&fakeExtractor{}, nil, WithJobs(jobs)))
	client := NewExtractorClient(conn)
	ctx := context.Background()

	req, _ := structpb.NewStruct(map[string]any{"id": job.ID.String()})
	out, err := client.GetJob(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, job.ID.String(), out.AsMap()["id"])
	assert.Equal(t, string(constants.JobStatusExtracted), out.AsMap()["status"])

	req, _ = structpb.NewStruct(map[string]any{"id": "not-a-uuid"})
	_, err = client.GetJob(ctx, req)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	req, _ = structpb.NewStruct(map[string]any{"country": "fr", "limit": 10})
	out, err = client.ExportJobs(ctx, req)
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(out.AsMap()["xlsx"].(string))
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Documents")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	req, _ = structpb.NewStruct(map[string]any{"country": "atlantis"})
	_, err = client.ExportJobs(ctx, req)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGRPC_JobsNotConfigured(t *testing.T) {
	client := NewExtractorClient(dialBufconn(t, NewExtractorService(&fakeExtractor{}, nil)))
	_, err := client.GetJob(context.Background(), &structpb.Struct{})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestGRPC_Health(t *testing.T) {
	conn := dialBufconn(t, NewExtractorService(&fakeExtractor{}, nil))
	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestMonitorDatabase(t *testing.T) {
	_, hs := NewGRPCServer(NewExtractorService(&fakeExtractor{}, nil), nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		MonitorDatabase(ctx, fakePinger{err: errors.New("down")}, hs, time.Hour, time.Second, nil)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		resp, err := hs.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
		return err == nil && resp.GetStatus() == healthpb.HealthCheckResponse_NOT_SERVING
	}, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done
}

func TestHTTP_Extract(t *testing.T) {
	m := metrics.New()
	h := NewHTTPHandler(NewExtractorService(&fakeExtractor{}, nil, WithImageRoot("/tmp")), nil, m.Registry())

	cases := []struct {
		name string
		body string
		code int
		kind string
	}{
		{"ok", `{"text":"CARTE NATIONALE D'IDENTITE"}`, http.StatusOK, ""},
		{"malformed", `{"text":`, http.StatusBadRequest, "bad_request"},
		{"empty", `{}`, http.StatusBadRequest, "bad_request"},
		{"no data", `{"image_path":"/tmp/blank.png"}`, http.StatusUnprocessableEntity, "no_extractable_data"},
		{"image outside root", `{"image_path":"/etc/passwd"}`, http.StatusBadRequest, "bad_request"},
		{"internal", `{"text":"explode"}`, http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/extract", strings.NewReader(tc.body)))
			assert.Equal(t, tc.code, rec.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			if tc.kind == "" {
				assert.Equal(t, "cni", body["document_type"])
				return
			}
			assert.Equal(t, tc.kind, body["error"])
			if tc.code == http.StatusInternalServerError {
				assert.NotContains(t, body, "error_description")
			}
		})
	}
}

func TestHTTP_JobsExportHealthMetrics(t *testing.T) {
	jobs := newJobs(t)
	job := seedJob(t, jobs)
	m := metrics.New()
	m.IncrementExtraction("ok", "cni", "fr")
	h := NewHTTPHandler(NewExtractorService(&fakeExtractor{}, nil, WithJobs(jobs)), fakePinger{}, m.Registry())

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	rec := get("/v1/jobs/" + job.ID.String())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), job.ID.String())

	assert.Equal(t, http.StatusNotFound, get("/v1/jobs/00000000-0000-0000-0000-000000000001").Code)
	assert.Equal(t, http.StatusBadRequest, get("/v1/export.xlsx?limit=-1").Code)

	rec = get("/v1/export.xlsx?document_type=cni")
	require.Equal(t, http.StatusOK, rec.Code)
	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Documents")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	assert.Equal(t, http.StatusOK, get("/healthz").Code)
	rec = get("/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "idextract_extractions_total")

	down := NewHTTPHandler(NewExtractorService(&fakeExtractor{}, nil), fakePinger{err: errors.New("refused")}, nil)
	rec = httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
