package grpc

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/pawnline/loanengine/internal/application/dto"
	"github.com/pawnline/loanengine/internal/domain/model"
	"github.com/pawnline/loanengine/internal/domain/valueobject"
)

// UseCase is the shape every application use case has.
type UseCase[Req, Resp any] interface {
	Execute(ctx context.Context, req Req) (Resp, error)
}

// JobRunner runs batch jobs by name.
type JobRunner interface {
	Run(ctx context.Context, name string, req dto.JobRequest) (dto.JobSummary, error)
}

// UseCases groups the application operations the admin service exposes.
type UseCases struct {
	Jobs                 JobRunner
	ListJobRuns          UseCase[dto.ListJobRunsRequest, []dto.JobSummary]
	OpenLoan             UseCase[dto.OpenLoanRequest, dto.LoanResponse]
	ReconcileLoan        UseCase[dto.ReconcileLoanRequest, dto.ReconcileLoanResponse]
	GetCreditProfile     UseCase[dto.GetCreditProfileRequest, dto.CreditProfileResponse]
	RecordMinimumPayment UseCase[dto.RecordMinimumPaymentRequest, dto.LoanResponse]
	ForfeitLoan          UseCase[dto.ForfeitLoanRequest, dto.LoanResponse]
}

var _ LoanEngineAdminServer = (*AdminHandler)(nil)

// AdminHandler implements LoanEngineAdminServer on top of the use cases.
type AdminHandler struct {
	UnimplementedLoanEngineAdminServer
	uc     UseCases
	logger *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(uc UseCases, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{uc: uc, logger: logger}
}

// RunJob runs one batch job synchronously and returns its summary.
func (h *AdminHandler) RunJob(ctx context.Context, req *RunJobRequest) (*RunJobResponse, error) {
	if req == nil || req.Job == "" {
		return nil, status.Error(codes.InvalidArgument, "job is required")
	}
	asOf, err := parseDate("as_of", req.AsOf)
	if err != nil {
		return nil, err
	}

	summary, err := h.uc.Jobs.Run(ctx, req.Job, dto.JobRequest{BranchID: req.BranchID, AsOf: asOf})
	if err != nil {
		return nil, h.toStatus(ctx, "RunJob", err)
	}
	return &RunJobResponse{Summary: toJobSummaryMsg(summary)}, nil
}

func (h *AdminHandler) ListJobRuns(ctx context.Context, req *ListJobRunsRequest) (*ListJobRunsResponse, error) {
	if req == nil || req.Job == "" {
		return nil, status.Error(codes.InvalidArgument, "job is required")
	}
	runs, err := h.uc.ListJobRuns.Execute(ctx, dto.ListJobRunsRequest{Job: req.Job, Limit: req.Limit})
	if err != nil {
		return nil, h.toStatus(ctx, "ListJobRuns", err)
	}
	out := &ListJobRunsResponse{Runs: make([]*JobSummaryMsg, 0, len(runs))}
	for _, r := range runs {
		out.Runs = append(out.Runs, toJobSummaryMsg(r))
	}
	return out, nil
}

func (h *AdminHandler) OpenLoan(ctx context.Context, req *OpenLoanRequest) (*LoanMsg, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	amount, err := parseAmount("loan_amount", req.LoanAmount, true)
	if err != nil {
		return nil, err
	}
	rate, err := parseAmount("interest_rate", req.InterestRate, true)
	if err != nil {
		return nil, err
	}
	minimum, err := parseAmount("minimum_monthly_payment", req.MinimumMonthlyPayment, false)
	if err != nil {
		return nil, err
	}
	loanDate, err := parseDate("loan_date", req.LoanDate)
	if err != nil {
		return nil, err
	}

	in := dto.OpenLoanRequest{
		BranchID:               req.BranchID,
		CustomerID:             req.CustomerID,
		ItemID:                 req.ItemID,
		LoanAmount:             amount,
		InterestRate:           rate,
		TermMonths:             req.TermMonths,
		LoanDate:               loanDate,
		RequiresMinimumPayment: req.RequiresMinimumPayment,
		MinimumMonthlyPayment:  minimum,
		GracePeriodDays:        req.GracePeriodDays,
		WithInstallments:       req.WithInstallments,
	}
	if req.InterestRateOverdue != "" {
		overdue, err := parseAmount("interest_rate_overdue", req.InterestRateOverdue, true)
		if err != nil {
			return nil, err
		}
		in.InterestRateOverdue = &overdue
	}

	resp, err := h.uc.OpenLoan.Execute(ctx, in)
	if err != nil {
		return nil, h.toStatus(ctx, "OpenLoan", err)
	}
	return toLoanMsg(resp), nil
}

func (h *AdminHandler) ReconcileLoan(ctx context.Context, req *ReconcileLoanRequest) (*ReconcileLoanResponse, error) {
	if req == nil || req.LoanID == "" {
		return nil, status.Error(codes.InvalidArgument, "loan_id is required")
	}
	resp, err := h.uc.ReconcileLoan.Execute(ctx, dto.ReconcileLoanRequest{LoanID: req.LoanID})
	if err != nil {
		return nil, h.toStatus(ctx, "ReconcileLoan", err)
	}
	return &ReconcileLoanResponse{
		LoanID:           resp.LoanID,
		AmountPaid:       resp.AmountPaid.StringFixed(2),
		BalanceRemaining: resp.BalanceRemaining.StringFixed(2),
		PreviousStatus:   resp.PreviousStatus,
		Status:           resp.Status,
		ItemStatus:       resp.ItemStatus,
	}, nil
}

func (h *AdminHandler) GetCreditProfile(ctx context.Context, req *GetCreditProfileRequest) (*CreditProfileMsg, error) {
	if req == nil || req.CustomerID == "" {
		return nil, status.Error(codes.InvalidArgument, "customer_id is required")
	}
	asOf, err := parseDate("as_of", req.AsOf)
	if err != nil {
		return nil, err
	}
	resp, err := h.uc.GetCreditProfile.Execute(ctx, dto.GetCreditProfileRequest{CustomerID: req.CustomerID, AsOf: asOf})
	if err != nil {
		return nil, h.toStatus(ctx, "GetCreditProfile", err)
	}

	out := &CreditProfileMsg{
		CustomerID:             resp.CustomerID,
		Score:                  resp.Score,
		Rating:                 resp.Rating,
		StoredScore:            resp.StoredScore,
		CreditLimit:            resp.CreditLimit.StringFixed(2),
		RecommendedCreditLimit: resp.RecommendedCreditLimit.StringFixed(2),
	}
	for _, f := range resp.Factors {
		out.Factors = append(out.Factors, &ScoreFactorMsg{Name: f.Name, Points: f.Points.StringFixed(2)})
	}
	return out, nil
}

func (h *AdminHandler) RecordMinimumPayment(ctx context.Context, req *RecordMinimumPaymentRequest) (*LoanMsg, error) {
	if req == nil || req.LoanID == "" {
		return nil, status.Error(codes.InvalidArgument, "loan_id is required")
	}
	paidOn, err := parseDate("paid_on", req.PaidOn)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount("amount", req.Amount, false)
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.RecordMinimumPayment.Execute(ctx, dto.RecordMinimumPaymentRequest{
		LoanID: req.LoanID,
		PaidOn: paidOn,
		Amount: amount,
	})
	if err != nil {
		return nil, h.toStatus(ctx, "RecordMinimumPayment", err)
	}
	return toLoanMsg(resp), nil
}

func (h *AdminHandler) ForfeitLoan(ctx context.Context, req *ForfeitLoanRequest) (*LoanMsg, error) {
	if req == nil || req.LoanID == "" {
		return nil, status.Error(codes.InvalidArgument, "loan_id is required")
	}
	resp, err := h.uc.ForfeitLoan.Execute(ctx, dto.ForfeitLoanRequest{LoanID: req.LoanID})
	if err != nil {
		return nil, h.toStatus(ctx, "ForfeitLoan", err)
	}
	return toLoanMsg(resp), nil
}

// toStatus maps domain errors onto gRPC codes. Unexpected errors are logged
// and hidden behind codes.Internal.
func (h *AdminHandler) toStatus(ctx context.Context, method string, err error) error {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		return status.Error(codes.InvalidArgument, ve.Error())
	case errors.Is(err, model.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, valueobject.ErrInvalidStatusTransition):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, model.ErrConcurrentUpdate):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	h.logger.ErrorContext(ctx, "admin call failed", "method", method, "error", err)
	return status.Error(codes.Internal, "internal error")
}

func parseAmount(field, s string, required bool) (decimal.Decimal, error) {
	if s == "" {
		if required {
			return decimal.Zero, status.Errorf(codes.InvalidArgument, "%s is required", field)
		}
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, status.Errorf(codes.InvalidArgument, "invalid %s: %v", field, err)
	}
	return d, nil
}

// parseDate parses YYYY-MM-DD. An empty string yields the zero time, which
// the use cases read as "today".
func parseDate(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, status.Errorf(codes.InvalidArgument, "invalid %s: %v", field, err)
	}
	return t, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.DateOnly)
}

func toJobSummaryMsg(s dto.JobSummary) *JobSummaryMsg {
	return &JobSummaryMsg{
		Job:        s.Job,
		BranchID:   s.BranchID,
		AsOf:       s.AsOf.Format(time.DateOnly),
		Processed:  s.Processed,
		Skipped:    s.Skipped,
		Failed:     s.Failed,
		StartedAt:  s.StartedAt.Format(time.RFC3339),
		FinishedAt: s.FinishedAt.Format(time.RFC3339),
	}
}

func toLoanMsg(l dto.LoanResponse) *LoanMsg {
	msg := &LoanMsg{
		ID:                        l.ID,
		BranchID:                  l.BranchID,
		CustomerID:                l.CustomerID,
		ItemID:                    l.ItemID,
		LoanAmount:                l.LoanAmount.StringFixed(2),
		InterestAmount:            l.InterestAmount.StringFixed(2),
		TotalAmount:               l.TotalAmount.StringFixed(2),
		AmountPaid:                l.AmountPaid.StringFixed(2),
		BalanceRemaining:          l.BalanceRemaining.StringFixed(2),
		Status:                    l.Status,
		DueDate:                   l.DueDate.Format(time.DateOnly),
		NextMinimumPaymentDate:    formatDate(l.NextMinimumPaymentDate),
		IsAtRisk:                  l.IsAtRisk,
		ConsecutiveMissedPayments: l.ConsecutiveMissedPayments,
		Installments:              l.Installments,
	}
	if l.PaidDate != nil {
		msg.PaidDate = l.PaidDate.Format(time.RFC3339)
	}
	return msg
}
