// Package app assembles the three cooperating background components
// (§2) a host HMI would otherwise wire up itself: the Connection
// Manager, its Serialized Poller, and the Availability Supervisor.
// Bare construction of a Manager leaves the poller unattached and no
// supervisor running; New here is the single call site a binary needs.
package app

import (
	"context"

	"github.com/bestcode/printer-fleet-core/internal/availability"
	"github.com/bestcode/printer-fleet-core/internal/manager"
	"github.com/bestcode/printer-fleet-core/internal/poller"
	"github.com/bestcode/printer-fleet-core/pkg/config"
	"github.com/bestcode/printer-fleet-core/pkg/log"
	"github.com/bestcode/printer-fleet-core/pkg/model"
)

// StaticFleet is the simplest availability.IdentityLister: the fixed
// set of printer identities a binary knows about at startup.
type StaticFleet []model.PrinterIdentity

func (f StaticFleet) Identities() []model.PrinterIdentity { return []model.PrinterIdentity(f) }

// App bundles a Manager with its Poller attached and an Availability
// Supervisor sweeping fleet, all timed from one shared Config.
type App struct {
	Manager    *manager.Manager
	Supervisor *availability.Supervisor

	poller *poller.Poller
}

// New wires a Manager, builds its Serialized Poller from the Manager's
// own apply methods, and constructs an Availability Supervisor over
// fleet using the Manager as both ConnectedIdentifier and
// OfflineNotifier. Start begins the supervisor's sweep loop and the
// poller's scheduling loop; the poller stays idle until Manager.Connect
// has opened the printer's socket.
func New(fleet StaticFleet, mirrors *model.MirrorStore, cfg *config.Config, logger log.Logger) *App {
	mgr := manager.New(mirrors, cfg, logger)

	pollerCfg := poller.Config{
		Interval:         cfg.PollingInterval(),
		ClockInterval:    cfg.ClockPollingInterval(),
		CheckGranularity: poller.DefaultConfig().CheckGranularity,
	}
	p := mgr.NewPoller(pollerCfg, logger)
	mgr.AttachPoller(p)

	sup := availability.New(
		fleet,
		mgr,
		mgr,
		availability.NewTCPProbeReachabilityProber(),
		mirrors,
		cfg.AvailabilityInterval(),
		cfg.OfflineThreshold(),
		cfg.ProbeInterGap(),
		mgr.ProbeTransportConfig(),
		logger,
	)

	return &App{Manager: mgr, Supervisor: sup, poller: p}
}

// Start launches the Availability Supervisor's sweep loop and the
// Serialized Poller's scheduling loop.
func (a *App) Start(ctx context.Context) {
	a.Supervisor.Start(ctx)
	a.poller.Start(ctx)
}

// Stop ends the supervisor and poller loops and disconnects the manager.
func (a *App) Stop() {
	a.Supervisor.Stop()
	a.poller.Stop()
	a.Manager.Disconnect()
}
