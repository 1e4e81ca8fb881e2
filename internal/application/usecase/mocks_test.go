package usecase_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pawnline/loanengine/internal/domain/event"
	"github.com/pawnline/loanengine/internal/domain/model"
	"github.com/pawnline/loanengine/internal/domain/port"
	"github.com/pawnline/loanengine/internal/domain/valueobject"
	"github.com/pawnline/loanengine/pkg/money"
	"github.com/pawnline/loanengine/pkg/testutil"
)

// --- Mock implementations ---
//
// Batch jobs call the mocks from several goroutines, so every recorder is
// guarded by a mutex.

type mockLoanRepository struct {
	mu sync.Mutex

	saveFunc           func(ctx context.Context, loan model.Loan) error
	saveWithItemFunc   func(ctx context.Context, loan model.Loan, item model.Item) error
	findByIDFunc       func(ctx context.Context, id string) (model.Loan, error)
	findByCustomerFunc func(ctx context.Context, customerID string) ([]model.Loan, error)
	findAccrualFunc    func(ctx context.Context, scope port.Scope, asOf time.Time, includeOverdue bool) ([]model.Loan, error)
	findMinimumFunc    func(ctx context.Context, scope port.Scope) ([]model.Loan, error)

	loans      map[string]model.Loan
	savedLoans []model.Loan
	savedItems []model.Item
}

func newLoanRepo(loans ...model.Loan) *mockLoanRepository {
	m := &mockLoanRepository{loans: make(map[string]model.Loan)}
	for _, l := range loans {
		m.loans[l.ID()] = l
	}
	return m
}

func (m *mockLoanRepository) Save(ctx context.Context, loan model.Loan) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, loan)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.savedLoans = append(m.savedLoans, loan)
	if m.loans != nil {
		m.loans[loan.ID()] = loan.ClearEvents()
	}
	return nil
}

func (m *mockLoanRepository) SaveWithItem(ctx context.Context, loan model.Loan, item model.Item) error {
	if m.saveWithItemFunc != nil {
		return m.saveWithItemFunc(ctx, loan, item)
	}
	m.mu.Lock()
	m.savedItems = append(m.savedItems, item)
	m.mu.Unlock()
	return m.Save(ctx, loan)
}

func (m *mockLoanRepository) FindByID(ctx context.Context, id string) (model.Loan, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.loans[id]; ok {
		return l, nil
	}
	return model.Loan{}, fmt.Errorf("loan %s: %w", id, model.ErrNotFound)
}

func (m *mockLoanRepository) FindByCustomerID(ctx context.Context, customerID string) ([]model.Loan, error) {
	if m.findByCustomerFunc != nil {
		return m.findByCustomerFunc(ctx, customerID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Loan
	for _, l := range m.loans {
		if l.CustomerID() == customerID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *mockLoanRepository) FindAccrualCandidates(ctx context.Context, scope port.Scope, asOf time.Time, includeOverdue bool) ([]model.Loan, error) {
	if m.findAccrualFunc != nil {
		return m.findAccrualFunc(ctx, scope, asOf, includeOverdue)
	}
	return nil, nil
}

func (m *mockLoanRepository) FindMinimumPaymentCandidates(ctx context.Context, scope port.Scope) ([]model.Loan, error) {
	if m.findMinimumFunc != nil {
		return m.findMinimumFunc(ctx, scope)
	}
	return nil, nil
}

func (m *mockLoanRepository) saved() []model.Loan {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Loan, len(m.savedLoans))
	copy(out, m.savedLoans)
	return out
}

// mockAccrualStore keeps charges keyed by (loan, date) the way the unique
// constraint does.
type mockAccrualStore struct {
	mu sync.Mutex

	existsFunc func(ctx context.Context, loanID string, date time.Time) (bool, error)
	postFunc   func(ctx context.Context, loan model.Loan, charge model.InterestCharge) (bool, error)

	charges map[string]model.InterestCharge
	loans   []model.Loan
}

func newAccrualStore() *mockAccrualStore {
	return &mockAccrualStore{charges: make(map[string]model.InterestCharge)}
}

func chargeKey(loanID string, date time.Time) string {
	return loanID + "/" + money.Date(date).Format(time.DateOnly)
}

func (m *mockAccrualStore) ExistsForDate(ctx context.Context, loanID string, date time.Time) (bool, error) {
	if m.existsFunc != nil {
		return m.existsFunc(ctx, loanID, date)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.charges[chargeKey(loanID, date)]
	return ok, nil
}

func (m *mockAccrualStore) PostInterestCharge(ctx context.Context, loan model.Loan, charge model.InterestCharge) (bool, error) {
	if m.postFunc != nil {
		return m.postFunc(ctx, loan, charge)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := chargeKey(charge.LoanID, charge.ChargeDate)
	if _, ok := m.charges[key]; ok {
		return false, nil
	}
	m.charges[key] = charge
	m.loans = append(m.loans, loan)
	return true, nil
}

type mockPaymentRepository struct {
	byLoanFunc func(ctx context.Context, loanID string) ([]model.Payment, error)
	payments   []model.Payment
}

func (m *mockPaymentRepository) FindByLoanID(ctx context.Context, loanID string) ([]model.Payment, error) {
	if m.byLoanFunc != nil {
		return m.byLoanFunc(ctx, loanID)
	}
	var out []model.Payment
	for _, p := range m.payments {
		if p.LoanID == loanID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockPaymentRepository) FindByCustomerID(_ context.Context, customerID string) ([]model.Payment, error) {
	var out []model.Payment
	for _, p := range m.payments {
		if p.CustomerID == customerID {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockInstallmentRepository struct {
	mu sync.Mutex

	findFunc func(ctx context.Context, scope port.Scope, asOf time.Time) ([]model.Installment, error)
	saveFunc func(ctx context.Context, inst model.Installment) error

	installments []model.Installment
	saved        []model.Installment
}

func (m *mockInstallmentRepository) FindUnpaidPastDue(ctx context.Context, scope port.Scope, asOf time.Time) ([]model.Installment, error) {
	if m.findFunc != nil {
		return m.findFunc(ctx, scope, asOf)
	}
	return m.installments, nil
}

func (m *mockInstallmentRepository) FindByLoanID(_ context.Context, loanID string) ([]model.Installment, error) {
	var out []model.Installment
	for _, i := range m.installments {
		if i.LoanID == loanID {
			out = append(out, i)
		}
	}
	return out, nil
}

func (m *mockInstallmentRepository) Save(ctx context.Context, inst model.Installment) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, inst)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, inst)
	return nil
}

type mockCustomerRepository struct {
	mu sync.Mutex

	saveFunc  func(ctx context.Context, c model.Customer) error
	customers map[string]model.Customer
	saved     []model.Customer
}

func newCustomerRepo(cs ...model.Customer) *mockCustomerRepository {
	m := &mockCustomerRepository{customers: make(map[string]model.Customer)}
	for _, c := range cs {
		m.customers[c.ID()] = c
	}
	return m
}

func (m *mockCustomerRepository) Save(ctx context.Context, c model.Customer) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, c)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, c)
	return nil
}

func (m *mockCustomerRepository) FindByID(_ context.Context, id string) (model.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.customers[id]; ok {
		return c, nil
	}
	return model.Customer{}, fmt.Errorf("customer %s: %w", id, model.ErrNotFound)
}

func (m *mockCustomerRepository) FindAll(_ context.Context, scope port.Scope) ([]model.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Customer
	for _, c := range m.customers {
		if scope.All() || c.BranchID() == scope.BranchID {
			out = append(out, c)
		}
	}
	return out, nil
}

type mockItemRepository struct {
	items map[string]model.Item
}

func newItemRepo(items ...model.Item) *mockItemRepository {
	m := &mockItemRepository{items: make(map[string]model.Item)}
	for _, i := range items {
		m.items[i.ID] = i
	}
	return m
}

func (m *mockItemRepository) FindByID(_ context.Context, id string) (model.Item, error) {
	if i, ok := m.items[id]; ok {
		return i, nil
	}
	return model.Item{}, fmt.Errorf("item %s: %w", id, model.ErrNotFound)
}

type mockEventPublisher struct {
	mu sync.Mutex

	publishFunc     func(ctx context.Context, events ...event.DomainEvent) error
	publishedEvents []event.DomainEvent
}

func (m *mockEventPublisher) Publish(ctx context.Context, evts ...event.DomainEvent) error {
	if m.publishFunc != nil {
		return m.publishFunc(ctx, evts...)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishedEvents = append(m.publishedEvents, evts...)
	return nil
}

func (m *mockEventPublisher) eventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.publishedEvents))
	for _, e := range m.publishedEvents {
		out = append(out, e.EventType())
	}
	return out
}

type mockNotifier struct {
	mu sync.Mutex

	notifyFunc func(ctx context.Context, intents ...model.NotificationIntent) error
	intents    []model.NotificationIntent
}

func (m *mockNotifier) Notify(ctx context.Context, intents ...model.NotificationIntent) error {
	if m.notifyFunc != nil {
		return m.notifyFunc(ctx, intents...)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intents = append(m.intents, intents...)
	return nil
}

type mockJobRunRepository struct {
	mu   sync.Mutex
	runs []model.JobRun
}

func (m *mockJobRunRepository) Save(_ context.Context, run model.JobRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func (m *mockJobRunRepository) FindRecent(_ context.Context, job string, limit int) ([]model.JobRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.JobRun
	for i := len(m.runs) - 1; i >= 0 && len(out) < limit; i-- {
		if m.runs[i].Job == job {
			out = append(out, m.runs[i])
		}
	}
	return out, nil
}

type mockJobMetrics struct {
	mu     sync.Mutex
	counts map[string]int
}

func (m *mockJobMetrics) RecordItem(_ context.Context, job, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = make(map[string]int)
	}
	m.counts[job+"/"+outcome]++
}

// --- Fixtures ---

var today = testutil.TestToday

func ptr[T any](v T) *T { return &v }

// overdueLoan is a 1000 loan at 15% whose due date passed ten days ago.
func overdueLoan(id string, mut func(a *model.LoanAttributes)) model.Loan {
	a := model.LoanAttributes{
		ID:               id,
		BranchID:         testutil.TestBranchID,
		CustomerID:       testutil.TestCustomerID,
		ItemID:           testutil.TestItemID,
		LoanAmount:       testutil.Dec("1000"),
		InterestRate:     testutil.Dec("15"),
		InterestAmount:   decimal.Zero,
		TotalAmount:      testutil.Dec("1000"),
		AmountPaid:       decimal.Zero,
		BalanceRemaining: testutil.Dec("1000"),
		Status:           valueobject.LoanStatusActive,
		LoanDate:         testutil.MonthsAgo(1).AddDate(0, 0, -10),
		DueDate:          testutil.DaysAgo(10),
		GracePeriodDays:  7,
		Version:          1,
		CreatedAt:        testutil.MonthsAgo(2),
	}
	if mut != nil {
		mut(&a)
	}
	return model.ReconstructLoan(a)
}

func item(status valueobject.ItemStatus) model.Item {
	return model.Item{ID: testutil.TestItemID, BranchID: testutil.TestBranchID, Name: "Gold ring", Status: status, Version: 1}
}

func payment(id, loanID, amount string, status valueobject.PaymentStatus) model.Payment {
	return model.Payment{
		ID:          id,
		LoanID:      loanID,
		CustomerID:  testutil.TestCustomerID,
		Amount:      testutil.Dec(amount),
		PaymentDate: testutil.DaysAgo(1),
		Status:      status,
	}
}

func customer(income, limit string) model.Customer {
	created := testutil.MonthsAgo(30)
	return model.ReconstructCustomer(
		testutil.TestCustomerID, testutil.TestBranchID, "Alex",
		testutil.Dec(income), testutil.Dec(limit),
		nil, valueobject.CreditRating{}, nil, 1, created, created,
	)
}
