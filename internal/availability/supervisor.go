package availability

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bestcode/printer-fleet-core/internal/transport"
	"github.com/bestcode/printer-fleet-core/pkg/log"
	"github.com/bestcode/printer-fleet-core/pkg/model"
	"github.com/bestcode/printer-fleet-core/pkg/protocol"
)

// IdentityLister supplies the configured printer set each tick. It is
// a thin read seam onto the externally owned printer list (§6).
type IdentityLister interface {
	Identities() []model.PrinterIdentity
}

// ConnectedIdentifier reports which identity (if any) currently holds
// the live session, so the Supervisor can exclude it from mirror
// writes and route its offline streak to auto-disconnect instead.
type ConnectedIdentifier interface {
	ConnectedID() (int64, bool)
}

// OfflineNotifier is called at most once per offline transition of the
// connected identity's reachability streak.
type OfflineNotifier interface {
	ConnectedWentOffline(id int64)
}

// Supervisor is the Availability Supervisor of §4.3.
type Supervisor struct {
	lister    IdentityLister
	connected ConnectedIdentifier
	notifier  OfflineNotifier
	prober    ReachabilityProber
	mirrors   *model.MirrorStore
	counters  *model.FleetReachabilityCounter
	logger    log.Logger

	offlineThreshold int
	interval         time.Duration
	probeGap         time.Duration
	probeTransportCfg transport.Config

	enabled  atomic.Bool
	running  atomic.Bool
	notified map[int64]bool
	mu       sync.Mutex

	stop chan struct{}
	done chan struct{}
}

// New returns a Supervisor ready to Start. Call SetEnabled(true) (or
// rely on the default enabled state) before Start to begin ticking.
func New(
	lister IdentityLister,
	connected ConnectedIdentifier,
	notifier OfflineNotifier,
	prober ReachabilityProber,
	mirrors *model.MirrorStore,
	interval time.Duration,
	offlineThreshold int,
	probeGap time.Duration,
	probeTransportCfg transport.Config,
	logger log.Logger,
) *Supervisor {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	s := &Supervisor{
		lister:            lister,
		connected:         connected,
		notifier:          notifier,
		prober:            prober,
		mirrors:           mirrors,
		counters:          model.NewFleetReachabilityCounter(),
		logger:            logger,
		offlineThreshold:  offlineThreshold,
		interval:          interval,
		probeGap:          probeGap,
		probeTransportCfg: probeTransportCfg,
		notified:          make(map[int64]bool),
	}
	s.enabled.Store(true)
	return s
}

// SetEnabled pauses or resumes the loop; a paused loop still runs its
// timer but skips the sweep body.
func (s *Supervisor) SetEnabled(v bool) { s.enabled.Store(v) }

// MarkAllNotReady pauses polling and forces every known mirror to
// ¬available, not_ready, per §4.3's control-flag pair.
func (s *Supervisor) MarkAllNotReady() {
	s.enabled.Store(false)
	for _, m := range s.mirrors.All() {
		id := m.Identity.ID
		s.mirrors.Update(id, func(mirror *model.PrinterMirror) {
			mirror.Availability = model.Offline
			mirror.Status = model.StatusNotReady
		})
	}
}

// Start launches the ticking loop; Stop ends it.
func (s *Supervisor) Start(ctx context.Context) {
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(ctx)
}

// Stop ends the loop and waits for the in-flight sweep, if any, to finish.
func (s *Supervisor) Stop() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	<-s.done
}

func (s *Supervisor) loop(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick runs one sweep, dropping itself entirely if a previous sweep is
// still in flight (single in-flight flag; pending iterations dropped).
func (s *Supervisor) tick(ctx context.Context) {
	if !s.enabled.Load() {
		return
	}
	if !s.running.CompareAndSwap(false, true) {
		return
	}
	defer s.running.Store(false)

	identities := s.lister.Identities()
	connectedID, hasConnected := s.connected.ConnectedID()

	results, err := s.prober.CheckStatus(ctx, identities)
	if err != nil {
		s.logError("check_status batch failed", err)
		return
	}

	var freshlyReachable []model.PrinterIdentity
	for _, id := range identities {
		reachable := results[id.ID]
		isConnected := hasConnected && id.ID == connectedID

		if reachable {
			wasOffline := s.counters.Streak(id.ID) >= s.offlineThreshold
			s.counters.Reset(id.ID)
			s.clearNotified(id.ID)

			if isConnected {
				continue // mirror pinned available by the manager
			}
			s.mirrors.Upsert(id)
			s.mirrors.Update(id.ID, func(m *model.PrinterMirror) {
				m.Availability = model.Available
				m.HasActiveErrors = false
				if m.Status == model.StatusOffline {
					m.Status = model.StatusNotReady
				}
			})
			if wasOffline {
				freshlyReachable = append(freshlyReachable, id)
			}
			continue
		}

		streak := s.counters.Increment(id.ID)
		if streak < s.offlineThreshold {
			continue
		}
		if isConnected {
			if !s.alreadyNotified(id.ID) {
				s.notifier.ConnectedWentOffline(id.ID)
				s.markNotified(id.ID)
			}
			continue
		}
		s.mirrors.Upsert(id)
		s.mirrors.Update(id.ID, func(m *model.PrinterMirror) {
			m.Availability = model.Offline
			m.Status = model.StatusOffline
		})
	}

	s.refreshFreshlyReachable(ctx, freshlyReachable)
}

// refreshFreshlyReachable issues one ^SU probe per printer in order,
// with at least probeGap between them, via an ephemeral transport that
// never touches the connected session's socket.
func (s *Supervisor) refreshFreshlyReachable(ctx context.Context, identities []model.PrinterIdentity) {
	for i, id := range identities {
		if i > 0 {
			select {
			case <-time.After(s.probeGap):
			case <-ctx.Done():
				return
			}
		}
		s.probeOne(ctx, id)
	}
}

func (s *Supervisor) probeOne(ctx context.Context, id model.PrinterIdentity) {
	tr := transport.New(s.probeTransportCfg, s.logger)
	tr.SetMeta(id)
	if err := tr.Connect(ctx); err != nil {
		// Failure of a probe does not change availability; levels
		// stay at their last known value.
		return
	}
	defer tr.Disconnect()

	resp, err := tr.SendCommand(ctx, "^SU")
	if err != nil {
		return
	}
	frame, ok := protocol.ParseStatus(resp)
	if !ok {
		return
	}
	s.mirrors.Update(id.ID, func(m *model.PrinterMirror) {
		if frame.InkLevel != nil {
			m.InkLevel = model.ParseFluidLevel(*frame.InkLevel)
		}
		if frame.MakeupLevel != nil {
			m.MakeupLevel = model.ParseFluidLevel(*frame.MakeupLevel)
		}
		if frame.CurrentMessage != nil {
			m.CurrentMsg = *frame.CurrentMessage
		}
		if frame.IsReady() {
			m.Status = model.StatusReady
		} else {
			m.Status = model.StatusNotReady
		}
	})
}

func (s *Supervisor) alreadyNotified(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notified[id]
}

func (s *Supervisor) markNotified(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notified[id] = true
}

func (s *Supervisor) clearNotified(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.notified, id)
}

func (s *Supervisor) logError(msg string, err error) {
	s.logger.Log(log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerManager,
		Category:  log.CategoryError,
		Error: &log.ErrorEventData{
			Layer:   log.LayerManager,
			Message: msg,
			Context: err.Error(),
		},
	})
}
