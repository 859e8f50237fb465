package payment

import (
	"context"
	"log"
	"time"
)

// Reclaimer cascades the slot-freeing side of an expired payment; the booking
// service implements it.
type Reclaimer interface {
	ReclaimAbandoned(ctx context.Context) (int, error)
}

// Sweeper is the periodic reconciliation pass. Lazy expiry already keeps
// reads correct; the sweeper only exists so abandoned slots are freed even
// when nobody polls them.
type Sweeper struct {
	service  *Service
	reclaims Reclaimer
	interval time.Duration
}

func NewSweeper(service *Service, reclaims Reclaimer, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Sweeper{service: service, reclaims: reclaims, interval: interval}
}

// RunOnce expires overdue attempts and reclaims the slots they held.
func (sw *Sweeper) RunOnce(ctx context.Context) error {
	start := time.Now()

	due, err := sw.service.payments.ListExpiredPending(ctx, sw.service.now())
	if err != nil {
		log.Printf("payment sweep list failed: %v", err)
		return err
	}

	expired := 0
	for _, p := range due {
		changed, err := sw.service.ExpireIfDue(ctx, p.ID)
		if err != nil {
			log.Printf("payment sweep expire failed payment_id=%d err=%v", p.ID, err)
			continue
		}
		if changed {
			expired++
		}
	}

	reclaimed := 0
	if sw.reclaims != nil {
		reclaimed, err = sw.reclaims.ReclaimAbandoned(ctx)
		if err != nil {
			log.Printf("payment sweep reclaim failed: %v", err)
		}
	}

	log.Printf("payment sweep completed expired=%d reclaimed=%d in %v", expired, reclaimed, time.Since(start))
	return nil
}

// Start launches the background loop and returns a stop channel.
func (sw *Sweeper) Start(ctx context.Context) chan struct{} {
	stopCh := make(chan struct{})

	go func() {
		ticker := time.NewTicker(sw.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := sw.RunOnce(ctx); err != nil {
					log.Printf("payment sweep error: %v", err)
				}
			case <-stopCh:
				log.Println("payment sweep stopped")
				return
			case <-ctx.Done():
				log.Println("payment sweep stopped (context done)")
				return
			}
		}
	}()

	log.Printf("payment sweep started with interval %v", sw.interval)
	return stopCh
}
