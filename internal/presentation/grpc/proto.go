package grpc

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const serviceName = "loanengine.admin.v1.LoanEngineAdmin"

// LoanEngineAdminServer is the server API of the admin service.
type LoanEngineAdminServer interface {
	RunJob(context.Context, *RunJobRequest) (*RunJobResponse, error)
	ListJobRuns(context.Context, *ListJobRunsRequest) (*ListJobRunsResponse, error)
	OpenLoan(context.Context, *OpenLoanRequest) (*LoanMsg, error)
	ReconcileLoan(context.Context, *ReconcileLoanRequest) (*ReconcileLoanResponse, error)
	GetCreditProfile(context.Context, *GetCreditProfileRequest) (*CreditProfileMsg, error)
	RecordMinimumPayment(context.Context, *RecordMinimumPaymentRequest) (*LoanMsg, error)
	ForfeitLoan(context.Context, *ForfeitLoanRequest) (*LoanMsg, error)
	mustEmbedUnimplementedLoanEngineAdminServer()
}

// UnimplementedLoanEngineAdminServer provides forward-compatible default implementations.
type UnimplementedLoanEngineAdminServer struct{}

func (UnimplementedLoanEngineAdminServer) RunJob(context.Context, *RunJobRequest) (*RunJobResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method RunJob not implemented")
}
func (UnimplementedLoanEngineAdminServer) ListJobRuns(context.Context, *ListJobRunsRequest) (*ListJobRunsResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListJobRuns not implemented")
}
func (UnimplementedLoanEngineAdminServer) OpenLoan(context.Context, *OpenLoanRequest) (*LoanMsg, error) {
	return nil, status.Errorf(codes.Unimplemented, "method OpenLoan not implemented")
}
func (UnimplementedLoanEngineAdminServer) ReconcileLoan(context.Context, *ReconcileLoanRequest) (*ReconcileLoanResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ReconcileLoan not implemented")
}
func (UnimplementedLoanEngineAdminServer) GetCreditProfile(context.Context, *GetCreditProfileRequest) (*CreditProfileMsg, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetCreditProfile not implemented")
}
func (UnimplementedLoanEngineAdminServer) RecordMinimumPayment(context.Context, *RecordMinimumPaymentRequest) (*LoanMsg, error) {
	return nil, status.Errorf(codes.Unimplemented, "method RecordMinimumPayment not implemented")
}
func (UnimplementedLoanEngineAdminServer) ForfeitLoan(context.Context, *ForfeitLoanRequest) (*LoanMsg, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ForfeitLoan not implemented")
}
func (UnimplementedLoanEngineAdminServer) mustEmbedUnimplementedLoanEngineAdminServer() {}

// RegisterLoanEngineAdminServer registers srv with the gRPC server.
func RegisterLoanEngineAdminServer(s grpclib.ServiceRegistrar, srv LoanEngineAdminServer) {
	s.RegisterService(&loanEngineAdminServiceDesc, srv)
}

var loanEngineAdminServiceDesc = grpclib.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*LoanEngineAdminServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "RunJob", Handler: unaryHandler(LoanEngineAdminServer.RunJob, "RunJob")},
		{MethodName: "ListJobRuns", Handler: unaryHandler(LoanEngineAdminServer.ListJobRuns, "ListJobRuns")},
		{MethodName: "OpenLoan", Handler: unaryHandler(LoanEngineAdminServer.OpenLoan, "OpenLoan")},
		{MethodName: "ReconcileLoan", Handler: unaryHandler(LoanEngineAdminServer.ReconcileLoan, "ReconcileLoan")},
		{MethodName: "GetCreditProfile", Handler: unaryHandler(LoanEngineAdminServer.GetCreditProfile, "GetCreditProfile")},
		{MethodName: "RecordMinimumPayment", Handler: unaryHandler(LoanEngineAdminServer.RecordMinimumPayment, "RecordMinimumPayment")},
		{MethodName: "ForfeitLoan", Handler: unaryHandler(LoanEngineAdminServer.ForfeitLoan, "ForfeitLoan")},
	},
	Streams: []grpclib.StreamDesc{},
}

// unaryHandler builds the method handler for one RPC. It replaces the
// per-method functions protoc would otherwise generate.
func unaryHandler[Req, Resp any](
	call func(LoanEngineAdminServer, context.Context, *Req) (*Resp, error),
	method string,
) grpclib.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LoanEngineAdminServer), ctx, in)
		}
		info := &grpclib.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + serviceName + "/" + method,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(LoanEngineAdminServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}
