package engine

import (
	"context"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"stratsim/internal/broker"
	"stratsim/internal/state"
)

// driftTolerance is how far the paper account may wander from the local
// ledger before reconciliation complains. Mirrored market orders fill at
// whatever the venue gives them, so small drift is expected.
const driftTolerance = 1e-6

// ReconcileLoop periodically compares the checkpointed ledger against the
// paper broker account in live mode. The ledger stays authoritative; drift
// is logged, never corrected automatically.
func ReconcileLoop(ctx context.Context, client *broker.Client, store *state.Store, symbol string, interval time.Duration, log logrus.FieldLogger) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("component", "reconciler")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reconcileOnce(ctx, client, store, symbol, log)
		}
	}
}

func reconcileOnce(ctx context.Context, client *broker.Client, store *state.Store, symbol string, log logrus.FieldLogger) {
	snap := store.Snapshot()

	position, err := client.Position(ctx, symbol)
	if err != nil {
		log.Warnf("reconcile position failed: %v", err)
	} else if drift := position.Qty - snap.Unit; math.Abs(drift) > driftTolerance {
		log.Warnf("position drift: broker=%v ledger=%v drift=%v", position.Qty, snap.Unit, drift)
	}

	account, err := client.Account(ctx)
	if err != nil {
		log.Warnf("reconcile account failed: %v", err)
		return
	}
	ledgerEquity := snap.Baseline + snap.Gain
	log.Infof("account equity=%.2f buying_power=%.2f ledger_equity=%.2f", account.Equity, account.BuyingPower, ledgerEquity)
}
