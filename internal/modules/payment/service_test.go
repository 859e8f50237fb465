package payment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"clinicbook/internal/domain"
)

type MockPaymentStore struct {
	mock.Mock
}

func (m *MockPaymentStore) Create(ctx context.Context, p *domain.Payment) error {
	args := m.Called(ctx, p)
	if p != nil {
		p.ID = 555 // simulate DB insert
	}
	return args.Error(0)
}

func (m *MockPaymentStore) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentStore) GetByProviderRef(ctx context.Context, ref string) (*domain.Payment, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentStore) GetLatestForAppointment(ctx context.Context, appointmentID int64) (*domain.Payment, error) {
	args := m.Called(ctx, appointmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentStore) GetPendingForAppointment(ctx context.Context, appointmentID int64) (*domain.Payment, error) {
	args := m.Called(ctx, appointmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentStore) GetCompletedForAppointment(ctx context.Context, appointmentID int64) (*domain.Payment, error) {
	args := m.Called(ctx, appointmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentStore) MarkPaidIdempotent(ctx context.Context, id int64, rawBody string, paidAt time.Time) (bool, error) {
	args := m.Called(ctx, id, rawBody, paidAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentStore) MarkFailed(ctx context.Context, id int64, reason string) (bool, error) {
	args := m.Called(ctx, id, reason)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentStore) ListExpiredPending(ctx context.Context, now time.Time) ([]domain.Payment, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Payment), args.Error(1)
}

func (m *MockPaymentStore) CreateRefund(ctx context.Context, rf *domain.Refund) error {
	args := m.Called(ctx, rf)
	return args.Error(0)
}

func (m *MockPaymentStore) GetRefundByID(ctx context.Context, id int64) (*domain.Refund, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Refund), args.Error(1)
}

func (m *MockPaymentStore) GetPendingRefundForPayment(ctx context.Context, paymentID int64) (*domain.Refund, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Refund), args.Error(1)
}

func (m *MockPaymentStore) UpdateRefundStatus(ctx context.Context, id int64, status domain.RefundStatus, settledAt *time.Time) error {
	args := m.Called(ctx, id, status, settledAt)
	return args.Error(0)
}

func (m *MockPaymentStore) ListPendingRefunds(ctx context.Context) ([]domain.Refund, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Refund), args.Error(1)
}

type MockAppointmentStore struct {
	mock.Mock
}

func (m *MockAppointmentStore) GetByID(ctx context.Context, id int64) (*domain.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Appointment), args.Error(1)
}

func (m *MockAppointmentStore) UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

type MockGateway struct {
	mock.Mock
	method domain.PaymentMethod
}

func (m *MockGateway) Method() domain.PaymentMethod { return m.method }

func (m *MockGateway) CreateIntent(amount float64, providerRef, callbackURL string) (string, error) {
	args := m.Called(amount, providerRef, callbackURL)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) VerifyCallback(providerRef string, amount float64, signature string) bool {
	args := m.Called(providerRef, amount, signature)
	return args.Bool(0)
}

type MockSink struct {
	mock.Mock
}

func (m *MockSink) AppointmentBooked(ctx context.Context, a *domain.Appointment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockSink) AppointmentCancelled(ctx context.Context, a *domain.Appointment, reason string) error {
	args := m.Called(ctx, a, reason)
	return args.Error(0)
}

func (m *MockSink) PaymentCompleted(ctx context.Context, p *domain.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func newPaymentService(now time.Time) (*Service, *MockPaymentStore, *MockAppointmentStore, *MockGateway, *MockSink) {
	payments := new(MockPaymentStore)
	appointments := new(MockAppointmentStore)
	gw := &MockGateway{method: domain.MethodMomo}
	sink := new(MockSink)
	svc := NewService(payments, appointments, []Gateway{gw}, sink, "http://localhost:8080/api/v1/payments/callback")
	svc.now = func() time.Time { return now }
	return svc, payments, appointments, gw, sink
}

var testNow = time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

func activeAppointment() *domain.Appointment {
	return &domain.Appointment{
		ID:              1,
		Status:          domain.AppointmentConfirmed,
		PaymentStatus:   domain.PaymentUnpaid,
		ConsultationFee: 250000,
	}
}

func TestCreatePayment_Momo(t *testing.T) {
	svc, payments, appointments, gw, _ := newPaymentService(testNow)

	appointments.On("GetByID", mock.Anything, int64(1)).Return(activeAppointment(), nil)
	payments.On("GetPendingForAppointment", mock.Anything, int64(1)).Return(nil, nil)
	gw.On("CreateIntent", 250000.0, mock.Anything, mock.Anything).
		Return("https://test-payment.momo.vn/v2/gateway/pay?ref=abc", nil)
	payments.On("Create", mock.Anything, mock.Anything).Return(nil)
	appointments.On("UpdatePaymentStatus", mock.Anything, int64(1), domain.PaymentPending).Return(nil)

	resp, err := svc.CreatePayment(context.Background(), 1, domain.MethodMomo)

	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentStatePending, resp.Status)
	assert.NotEmpty(t, resp.RedirectURL)
	assert.Equal(t, testNow.Add(PendingTTL), *resp.ExpiresAt)
}

// CASH never goes through a provider: recorded as COMPLETED on the spot.
func TestCreatePayment_CashImmediate(t *testing.T) {
	svc, payments, appointments, _, sink := newPaymentService(testNow)

	appointments.On("GetByID", mock.Anything, int64(1)).Return(activeAppointment(), nil)
	payments.On("GetPendingForAppointment", mock.Anything, int64(1)).Return(nil, nil)
	payments.On("Create", mock.Anything, mock.MatchedBy(func(p *domain.Payment) bool {
		return p.Status == domain.PaymentStateCompleted && p.PaidAt != nil
	})).Return(nil)
	appointments.On("UpdatePaymentStatus", mock.Anything, int64(1), domain.PaymentPaid).Return(nil)
	sink.On("PaymentCompleted", mock.Anything, mock.Anything).Return(nil)

	resp, err := svc.CreatePayment(context.Background(), 1, domain.MethodCash)

	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentStateCompleted, resp.Status)
	assert.Empty(t, resp.RedirectURL)
	sink.AssertCalled(t, "PaymentCompleted", mock.Anything, mock.Anything)
}

func TestCreatePayment_AlreadyPending(t *testing.T) {
	svc, payments, appointments, _, _ := newPaymentService(testNow)

	appointments.On("GetByID", mock.Anything, int64(1)).Return(activeAppointment(), nil)
	expiry := testNow.Add(10 * time.Minute)
	payments.On("GetPendingForAppointment", mock.Anything, int64(1)).Return(&domain.Payment{
		ID: 55, AppointmentID: 1, Status: domain.PaymentStatePending, ExpiresAt: &expiry,
	}, nil)

	_, err := svc.CreatePayment(context.Background(), 1, domain.MethodMomo)

	assert.ErrorIs(t, err, ErrAlreadyPending)
}

// An expired pending attempt is failed lazily and a new one opened.
func TestCreatePayment_ExpiredPendingReplaced(t *testing.T) {
	svc, payments, appointments, gw, _ := newPaymentService(testNow)

	appointments.On("GetByID", mock.Anything, int64(1)).Return(activeAppointment(), nil)
	expiry := testNow.Add(-1 * time.Minute)
	stale := &domain.Payment{ID: 55, AppointmentID: 1, Status: domain.PaymentStatePending, ExpiresAt: &expiry}
	payments.On("GetPendingForAppointment", mock.Anything, int64(1)).Return(stale, nil)
	payments.On("GetByID", mock.Anything, int64(55)).Return(stale, nil)
	payments.On("MarkFailed", mock.Anything, int64(55), "expired").Return(true, nil)
	payments.On("GetCompletedForAppointment", mock.Anything, int64(1)).Return(nil, nil)
	appointments.On("UpdatePaymentStatus", mock.Anything, int64(1), domain.PaymentUnpaid).Return(nil)

	gw.On("CreateIntent", 250000.0, mock.Anything, mock.Anything).Return("https://pay", nil)
	payments.On("Create", mock.Anything, mock.Anything).Return(nil)
	appointments.On("UpdatePaymentStatus", mock.Anything, int64(1), domain.PaymentPending).Return(nil)

	resp, err := svc.CreatePayment(context.Background(), 1, domain.MethodMomo)

	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentStatePending, resp.Status)
	payments.AssertCalled(t, "MarkFailed", mock.Anything, int64(55), "expired")
}

func TestCreatePayment_CancelledAppointment(t *testing.T) {
	svc, _, appointments, _, _ := newPaymentService(testNow)

	appointments.On("GetByID", mock.Anything, int64(1)).Return(&domain.Appointment{
		ID: 1, Status: domain.AppointmentCancelled,
	}, nil)

	_, err := svc.CreatePayment(context.Background(), 1, domain.MethodMomo)

	assert.ErrorIs(t, err, ErrNotPayable)
}

func TestCreatePayment_UnknownMethod(t *testing.T) {
	svc, _, _, _, _ := newPaymentService(testNow)

	_, err := svc.CreatePayment(context.Background(), 1, domain.PaymentMethod("PAYPAL"))

	assert.ErrorIs(t, err, ErrInvalidMethod)
}

// Reading the status of an overdue attempt fails it on that very read.
func TestGetPaymentStatus_LazyExpiry(t *testing.T) {
	svc, payments, appointments, _, _ := newPaymentService(testNow)

	expiry := testNow.Add(-1 * time.Minute)
	stale := &domain.Payment{ID: 55, AppointmentID: 1, Method: domain.MethodMomo, Status: domain.PaymentStatePending, ExpiresAt: &expiry}
	failed := &domain.Payment{ID: 55, AppointmentID: 1, Method: domain.MethodMomo, Status: domain.PaymentStateFailed, ExpiresAt: &expiry}

	payments.On("GetLatestForAppointment", mock.Anything, int64(1)).Return(stale, nil)
	payments.On("GetByID", mock.Anything, int64(55)).Return(stale, nil).Once()
	payments.On("MarkFailed", mock.Anything, int64(55), "expired").Return(true, nil)
	payments.On("GetCompletedForAppointment", mock.Anything, int64(1)).Return(nil, nil)
	payments.On("GetPendingForAppointment", mock.Anything, int64(1)).Return(nil, nil)
	appointments.On("UpdatePaymentStatus", mock.Anything, int64(1), domain.PaymentUnpaid).Return(nil)
	payments.On("GetByID", mock.Anything, int64(55)).Return(failed, nil)

	resp, err := svc.GetPaymentStatus(context.Background(), 1)

	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentStateFailed, resp.Status)
}

func TestGetPaymentStatus_NoAttempts(t *testing.T) {
	svc, payments, _, _, _ := newPaymentService(testNow)

	payments.On("GetLatestForAppointment", mock.Anything, int64(1)).Return(nil, nil)

	_, err := svc.GetPaymentStatus(context.Background(), 1)

	assert.ErrorIs(t, err, ErrNoPaymentFound)
}

func TestHandleProviderResult_Success(t *testing.T) {
	svc, payments, appointments, _, sink := newPaymentService(testNow)

	p := &domain.Payment{ID: 55, AppointmentID: 1, Amount: 250000, Status: domain.PaymentStatePending, ProviderRef: "1-123"}
	payments.On("GetByProviderRef", mock.Anything, "1-123").Return(p, nil)
	payments.On("MarkPaidIdempotent", mock.Anything, int64(55), `{"result":"0"}`, mock.Anything).Return(true, nil)
	appointments.On("UpdatePaymentStatus", mock.Anything, int64(1), domain.PaymentPaid).Return(nil)
	payments.On("GetByID", mock.Anything, int64(55)).Return(p, nil)
	sink.On("PaymentCompleted", mock.Anything, mock.Anything).Return(nil)

	err := svc.HandleProviderResult(context.Background(), "1-123", true, 250000, `{"result":"0"}`)

	assert.NoError(t, err)
	appointments.AssertCalled(t, "UpdatePaymentStatus", mock.Anything, int64(1), domain.PaymentPaid)
}

// A duplicate success callback changes nothing and reports no error.
func TestHandleProviderResult_IdempotentDuplicate(t *testing.T) {
	svc, payments, appointments, _, _ := newPaymentService(testNow)

	p := &domain.Payment{ID: 55, AppointmentID: 1, Amount: 250000, Status: domain.PaymentStateCompleted, ProviderRef: "1-123"}
	payments.On("GetByProviderRef", mock.Anything, "1-123").Return(p, nil)
	payments.On("MarkPaidIdempotent", mock.Anything, int64(55), mock.Anything, mock.Anything).Return(false, nil)

	err := svc.HandleProviderResult(context.Background(), "1-123", true, 250000, "{}")

	assert.NoError(t, err)
	appointments.AssertNotCalled(t, "UpdatePaymentStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleProviderResult_UnknownRef(t *testing.T) {
	svc, payments, _, _, _ := newPaymentService(testNow)

	payments.On("GetByProviderRef", mock.Anything, "bogus").Return(nil, assert.AnError)

	err := svc.HandleProviderResult(context.Background(), "bogus", true, 100, "{}")

	assert.ErrorIs(t, err, ErrUnknownProviderRef)
}

func TestHandleProviderResult_AmountMismatch(t *testing.T) {
	svc, payments, appointments, _, _ := newPaymentService(testNow)

	p := &domain.Payment{ID: 55, AppointmentID: 1, Amount: 250000, Status: domain.PaymentStatePending, ProviderRef: "1-123"}
	payments.On("GetByProviderRef", mock.Anything, "1-123").Return(p, nil)
	payments.On("MarkFailed", mock.Anything, int64(55), mock.Anything).Return(true, nil)
	payments.On("GetCompletedForAppointment", mock.Anything, int64(1)).Return(nil, nil)
	payments.On("GetPendingForAppointment", mock.Anything, int64(1)).Return(nil, nil)
	appointments.On("UpdatePaymentStatus", mock.Anything, int64(1), domain.PaymentUnpaid).Return(nil)

	err := svc.HandleProviderResult(context.Background(), "1-123", true, 9999, "{}")

	assert.ErrorIs(t, err, ErrAmountMismatch)
}

// A callback that omits the amount is not an amount mismatch; the signature
// already covers the expected value.
func TestHandleProviderResult_OmittedAmount(t *testing.T) {
	svc, payments, appointments, _, sink := newPaymentService(testNow)

	p := &domain.Payment{ID: 55, AppointmentID: 1, Amount: 250000, Status: domain.PaymentStatePending, ProviderRef: "1-123"}
	payments.On("GetByProviderRef", mock.Anything, "1-123").Return(p, nil)
	payments.On("MarkPaidIdempotent", mock.Anything, int64(55), mock.Anything, mock.Anything).Return(true, nil)
	appointments.On("UpdatePaymentStatus", mock.Anything, int64(1), domain.PaymentPaid).Return(nil)
	payments.On("GetByID", mock.Anything, int64(55)).Return(p, nil)
	sink.On("PaymentCompleted", mock.Anything, mock.Anything).Return(nil)

	err := svc.HandleProviderResult(context.Background(), "1-123", true, 0, "{}")

	assert.NoError(t, err)
	payments.AssertNotCalled(t, "MarkFailed", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleProviderResult_Failure(t *testing.T) {
	svc, payments, appointments, _, _ := newPaymentService(testNow)

	p := &domain.Payment{ID: 55, AppointmentID: 1, Amount: 250000, Status: domain.PaymentStatePending, ProviderRef: "1-123"}
	payments.On("GetByProviderRef", mock.Anything, "1-123").Return(p, nil)
	payments.On("MarkFailed", mock.Anything, int64(55), "provider reported failure").Return(true, nil)
	payments.On("GetCompletedForAppointment", mock.Anything, int64(1)).Return(nil, nil)
	payments.On("GetPendingForAppointment", mock.Anything, int64(1)).Return(nil, nil)
	appointments.On("UpdatePaymentStatus", mock.Anything, int64(1), domain.PaymentUnpaid).Return(nil)

	err := svc.HandleProviderResult(context.Background(), "1-123", false, 250000, "{}")

	assert.NoError(t, err)
	appointments.AssertCalled(t, "UpdatePaymentStatus", mock.Anything, int64(1), domain.PaymentUnpaid)
}

func TestRequestRefund_CreatesPending(t *testing.T) {
	svc, payments, _, _, _ := newPaymentService(testNow)

	p := &domain.Payment{ID: 55, AppointmentID: 1, Amount: 250000, Status: domain.PaymentStateCompleted}
	payments.On("GetCompletedForAppointment", mock.Anything, int64(1)).Return(p, nil)
	payments.On("GetPendingRefundForPayment", mock.Anything, int64(55)).Return(nil, nil)
	payments.On("CreateRefund", mock.Anything, mock.MatchedBy(func(rf *domain.Refund) bool {
		return rf.PaymentID == 55 && rf.Amount == 250000 && rf.Reason == "doctor unavailable"
	})).Return(nil)

	err := svc.RequestRefund(context.Background(), 1, "doctor unavailable")

	assert.NoError(t, err)
}

func TestRequestRefund_DedupesPending(t *testing.T) {
	svc, payments, _, _, _ := newPaymentService(testNow)

	p := &domain.Payment{ID: 55, AppointmentID: 1, Amount: 250000, Status: domain.PaymentStateCompleted}
	payments.On("GetCompletedForAppointment", mock.Anything, int64(1)).Return(p, nil)
	payments.On("GetPendingRefundForPayment", mock.Anything, int64(55)).
		Return(&domain.Refund{ID: 9, PaymentID: 55, Status: domain.RefundPending}, nil)

	err := svc.RequestRefund(context.Background(), 1, "again")

	assert.NoError(t, err)
	payments.AssertNotCalled(t, "CreateRefund", mock.Anything, mock.Anything)
}

func TestRequestRefund_NothingSettled(t *testing.T) {
	svc, payments, _, _, _ := newPaymentService(testNow)

	payments.On("GetCompletedForAppointment", mock.Anything, int64(1)).Return(nil, nil)

	err := svc.RequestRefund(context.Background(), 1, "reason")

	assert.ErrorIs(t, err, ErrNoPaymentFound)
}

// Settling flips the refund and the appointment aggregate; the completed
// payment row itself is never rewritten.
func TestSettleRefund(t *testing.T) {
	svc, payments, appointments, _, _ := newPaymentService(testNow)

	rf := &domain.Refund{ID: 9, PaymentID: 55, Status: domain.RefundPending}
	p := &domain.Payment{ID: 55, AppointmentID: 1, Status: domain.PaymentStateCompleted}

	payments.On("GetRefundByID", mock.Anything, int64(9)).Return(rf, nil)
	payments.On("GetByID", mock.Anything, int64(55)).Return(p, nil)
	payments.On("UpdateRefundStatus", mock.Anything, int64(9), domain.RefundSettled, mock.Anything).Return(nil)
	appointments.On("UpdatePaymentStatus", mock.Anything, int64(1), domain.PaymentRefunded).Return(nil)

	err := svc.SettleRefund(context.Background(), 9)

	assert.NoError(t, err)
	appointments.AssertCalled(t, "UpdatePaymentStatus", mock.Anything, int64(1), domain.PaymentRefunded)
}

func TestSettleRefund_AlreadySettled(t *testing.T) {
	svc, payments, appointments, _, _ := newPaymentService(testNow)

	payments.On("GetRefundByID", mock.Anything, int64(9)).
		Return(&domain.Refund{ID: 9, PaymentID: 55, Status: domain.RefundSettled}, nil)

	err := svc.SettleRefund(context.Background(), 9)

	assert.NoError(t, err)
	appointments.AssertNotCalled(t, "UpdatePaymentStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyCallbackSignature(t *testing.T) {
	svc, _, _, gw, _ := newPaymentService(testNow)

	gw.On("VerifyCallback", "1-123", 250000.0, "deadbeef").Return(true)
	gw.On("VerifyCallback", "1-123", 250000.0, "wrong").Return(false)

	ok := svc.VerifyCallbackSignature(context.Background(), domain.MethodMomo, CallbackRequest{
		ProviderRef: "1-123", Amount: 250000, Signature: "deadbeef",
	})
	assert.True(t, ok)

	ok = svc.VerifyCallbackSignature(context.Background(), domain.MethodMomo, CallbackRequest{
		ProviderRef: "1-123", Amount: 250000, Signature: "wrong",
	})
	assert.False(t, ok)

	// unknown method has no gateway
	ok = svc.VerifyCallbackSignature(context.Background(), domain.MethodVNPay, CallbackRequest{})
	assert.False(t, ok)
}
