package payment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"clinicbook/internal/domain"
)

type MockReclaimer struct {
	mock.Mock
}

func (m *MockReclaimer) ReclaimAbandoned(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func TestSweeper_RunOnce(t *testing.T) {
	svc, payments, appointments, _, _ := newPaymentService(testNow)
	reclaimer := new(MockReclaimer)
	sw := NewSweeper(svc, reclaimer, time.Minute)

	expiry := testNow.Add(-5 * time.Minute)
	due := []domain.Payment{
		{ID: 55, AppointmentID: 1, Status: domain.PaymentStatePending, ExpiresAt: &expiry},
	}
	payments.On("ListExpiredPending", mock.Anything, testNow).Return(due, nil)
	payments.On("GetByID", mock.Anything, int64(55)).Return(&due[0], nil)
	payments.On("MarkFailed", mock.Anything, int64(55), "expired").Return(true, nil)
	payments.On("GetCompletedForAppointment", mock.Anything, int64(1)).Return(nil, nil)
	payments.On("GetPendingForAppointment", mock.Anything, int64(1)).Return(nil, nil)
	appointments.On("UpdatePaymentStatus", mock.Anything, int64(1), domain.PaymentUnpaid).Return(nil)
	reclaimer.On("ReclaimAbandoned", mock.Anything).Return(2, nil)

	err := sw.RunOnce(context.Background())

	assert.NoError(t, err)
	payments.AssertCalled(t, "MarkFailed", mock.Anything, int64(55), "expired")
	reclaimer.AssertCalled(t, "ReclaimAbandoned", mock.Anything)
}

// A sweep finding nothing due still runs the reclaim pass.
func TestSweeper_RunOnce_NothingDue(t *testing.T) {
	svc, payments, _, _, _ := newPaymentService(testNow)
	reclaimer := new(MockReclaimer)
	sw := NewSweeper(svc, reclaimer, time.Minute)

	payments.On("ListExpiredPending", mock.Anything, testNow).Return([]domain.Payment{}, nil)
	reclaimer.On("ReclaimAbandoned", mock.Anything).Return(0, nil)

	err := sw.RunOnce(context.Background())

	assert.NoError(t, err)
	reclaimer.AssertCalled(t, "ReclaimAbandoned", mock.Anything)
}

func TestSweeper_StartStop(t *testing.T) {
	svc, _, _, _, _ := newPaymentService(testNow)
	sw := NewSweeper(svc, nil, time.Hour)

	stop := sw.Start(context.Background())
	close(stop)
}
