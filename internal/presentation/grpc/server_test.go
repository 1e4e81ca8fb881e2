package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/pawnline/loanengine/internal/application/dto"
	"github.com/pawnline/loanengine/internal/domain/model"
	"github.com/pawnline/loanengine/pkg/testutil"
)

func startServer(t *testing.T, uc UseCases) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := NewServer(NewAdminHandler(uc, discardLogger()), discardLogger(), ServerOptions{})
	go func() { _ = srv.ServeListener(lis) }()
	t.Cleanup(srv.GracefulStop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype("json")),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestServer_ReconcileLoanOverTheWire(t *testing.T) {
	uc := returns[dto.ReconcileLoanRequest, dto.ReconcileLoanResponse](dto.ReconcileLoanResponse{
		LoanID:           testutil.TestLoanID,
		AmountPaid:       testutil.Dec("300.35"),
		BalanceRemaining: testutil.Dec("799.65"),
		PreviousStatus:   "active",
		Status:           "active",
	}, nil)
	conn := startServer(t, UseCases{ReconcileLoan: uc})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var resp ReconcileLoanResponse
	err := conn.Invoke(ctx, "/"+serviceName+"/ReconcileLoan", &ReconcileLoanRequest{LoanID: testutil.TestLoanID}, &resp)
	require.NoError(t, err)
	assert.Equal(t, "799.65", resp.BalanceRemaining)
	assert.Equal(t, testutil.TestLoanID, uc.last.LoanID)
}

func TestServer_MapsNotFound(t *testing.T) {
	uc := returns[dto.ForfeitLoanRequest, dto.LoanResponse](dto.LoanResponse{}, model.ErrNotFound)
	conn := startServer(t, UseCases{ForfeitLoan: uc})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var resp LoanMsg
	err := conn.Invoke(ctx, "/"+serviceName+"/ForfeitLoan", &ForfeitLoanRequest{LoanID: "missing"}, &resp)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestServer_RecoversFromPanic(t *testing.T) {
	uc := &fakeUseCase[dto.ForfeitLoanRequest, dto.LoanResponse]{
		fn: func(context.Context, dto.ForfeitLoanRequest) (dto.LoanResponse, error) { panic("boom") },
	}
	conn := startServer(t, UseCases{ForfeitLoan: uc})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var resp LoanMsg
	err := conn.Invoke(ctx, "/"+serviceName+"/ForfeitLoan", &ForfeitLoanRequest{LoanID: "x"}, &resp)
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestServer_Health(t *testing.T) {
	conn := startServer(t, UseCases{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: serviceName},
		grpc.CallContentSubtype("proto"))
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}
