package service

import (
	"log"
	"time"

	"traderefer/internal/domain"
	"traderefer/internal/repository"
)

// VelocityGuard limits how many leads a submitter IP can create inside a
// trailing window. It counts persisted lead rows, so the limit holds across
// process restarts and multiple instances.
//
// The literal IP value "unknown" (no client address resolvable) bypasses the
// check. This mirrors the behavior the product shipped with; it is trivially
// spoofable behind a proxy that strips addresses and real deployments should
// pair it with a device-hash or account-level limit.
type VelocityGuard struct {
	leads  *repository.LeadRepository
	limit  int
	window time.Duration
}

func NewVelocityGuard(leads *repository.LeadRepository, limit int, window time.Duration) *VelocityGuard {
	return &VelocityGuard{leads: leads, limit: limit, window: window}
}

// Check fails with ErrRateLimited once the IP has hit the limit; the rejected
// lead is never persisted.
func (g *VelocityGuard) Check(ip string) error {
	if ip == "unknown" || ip == "" {
		return nil
	}
	count, err := g.leads.CountRecentByIP(ip, g.window)
	if err != nil {
		return err
	}
	if count >= int64(g.limit) {
		log.Printf("[fraud] ip %s blocked (velocity: %d leads in %s)", ip, count, g.window)
		return domain.ErrRateLimited
	}
	return nil
}
