// Package cron hosts the background reconciliation job that keeps scheduled
// services, camera online records and OS stream processes in agreement.
package cron

import (
	"fmt"
	"log"
	"time"

	"sedecam/clock"
	"sedecam/database"
	"sedecam/mailer"
	"sedecam/streamproc"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

// StreamingReconciler flips services in and out of their time windows and
// drives the per-camera stream processes accordingly. A tick that fails
// notifies support and leaves the next tick to run independently; there is
// no carry-over retry queue.
type StreamingReconciler struct {
	db           database.Database
	generator    *streamproc.Generator
	mail         mailer.Sender
	clk          *clock.Clock
	supportEmail string
	interval     time.Duration
}

// NewStreamingReconciler wires the reconciler's collaborators.
func NewStreamingReconciler(db database.Database, generator *streamproc.Generator, mail mailer.Sender, clk *clock.Clock, supportEmail string, interval time.Duration) *StreamingReconciler {
	return &StreamingReconciler{
		db:           db,
		generator:    generator,
		mail:         mail,
		clk:          clk,
		supportEmail: supportEmail,
		interval:     interval,
	}
}

// Start schedules the reconcile tick. SkipIfStillRunning guarantees ticks
// never overlap: a camera must not receive a second start/stop while the
// previous tick is still issuing them.
func (r *StreamingReconciler) Start() (*cron.Cron, error) {
	schedule := cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)

	spec := fmt.Sprintf("@every %ds", int(r.interval.Seconds()))
	if _, err := schedule.AddFunc(spec, r.Tick); err != nil {
		return nil, fmt.Errorf("error scheduling streaming reconcile cron: %v", err)
	}

	schedule.Start()
	log.Printf("reconcile : streaming reconcile cron started - will run every %s", r.interval)
	return schedule, nil
}

// Tick runs one reconcile pass. Every error is caught here: a failed tick
// emails support and returns, it never stops the schedule.
func (r *StreamingReconciler) Tick() {
	if err := r.runTick(); err != nil {
		log.Printf("reconcile : tick failed: %v", err)
		r.notifyFailure(err)
	}
}

func (r *StreamingReconciler) runTick() error {
	now := r.clk.Now()

	if err := r.activate(now); err != nil {
		return err
	}
	if err := r.deactivate(now); err != nil {
		return err
	}
	return r.reconcileProcessState()
}

// activate flips services whose start window has been reached: the service
// becomes current and every camera of its room goes ONLINE, all in one
// transaction, then the stream processes are started.
func (r *StreamingReconciler) activate(now time.Time) error {
	services, err := r.db.ListActivatableServices(now)
	if err != nil {
		return fmt.Errorf("error querying activatable services: %v", err)
	}
	if len(services) == 0 {
		return nil
	}

	log.Printf("reconcile : activating %d service(s)", len(services))

	if err := r.db.ActivateServices(services); err != nil {
		return fmt.Errorf("error activating services: %v", err)
	}

	return r.fanOut(services, r.generator.Start, "start")
}

// deactivate flips services whose end window has passed.
func (r *StreamingReconciler) deactivate(now time.Time) error {
	services, err := r.db.ListDeactivatableServices(now)
	if err != nil {
		return fmt.Errorf("error querying deactivatable services: %v", err)
	}
	if len(services) == 0 {
		return nil
	}

	log.Printf("reconcile : deactivating %d service(s)", len(services))

	if err := r.db.DeactivateServices(services); err != nil {
		return fmt.Errorf("error deactivating services: %v", err)
	}

	return r.fanOut(services, r.generator.Stop, "stop")
}

// fanOut issues the generator call for every camera of every service
// concurrently. Cameras are independent; no ordering is guaranteed across
// them within a tick.
func (r *StreamingReconciler) fanOut(services []database.ServiceWithCameras, op func(string) error, opName string) error {
	var g errgroup.Group
	for _, svc := range services {
		for _, camera := range svc.Cameras {
			cameraID := camera.ID
			g.Go(func() error {
				if err := op(cameraID); err != nil {
					return fmt.Errorf("error issuing %s for camera %s: %v", opName, cameraID, err)
				}
				return nil
			})
		}
	}
	return g.Wait()
}

// reconcileProcessState compares desired stream state (derived from current
// services) against the observed supervisor state and re-issues start/stop
// for mismatches. A DB commit that outlived a failed OS call on an earlier
// tick converges here instead of staying diverged forever.
func (r *StreamingReconciler) reconcileProcessState() error {
	currentServices, err := r.db.ListCurrentStreamingServices()
	if err != nil {
		return fmt.Errorf("error querying current streaming services: %v", err)
	}

	desired := make(map[string]bool)
	for _, svc := range currentServices {
		for _, camera := range svc.Cameras {
			desired[camera.ID] = true
		}
	}

	cameraIDs, err := r.db.ListCameraIDs()
	if err != nil {
		return fmt.Errorf("error listing cameras: %v", err)
	}

	var g errgroup.Group
	for _, id := range cameraIDs {
		cameraID := id
		g.Go(func() error {
			active := r.generator.IsActive(cameraID)
			switch {
			case desired[cameraID] && !active:
				log.Printf("reconcile : camera %s should be streaming but is not, starting", cameraID)
				return r.generator.Start(cameraID)
			case !desired[cameraID] && active:
				log.Printf("reconcile : camera %s is streaming without a current service, stopping", cameraID)
				return r.generator.Stop(cameraID)
			}
			return nil
		})
	}
	return g.Wait()
}

// notifyFailure emails support about a failed tick. Send failures are
// logged and swallowed; notification must never take the scheduler down.
func (r *StreamingReconciler) notifyFailure(tickErr error) {
	if r.mail == nil || r.supportEmail == "" {
		return
	}

	html := r.mail.RenderTemplate(mailer.TemplateData{
		Title:       "Fallo en la Cámara",
		Subtitle:    "El servicio en segundo plano de los online ha fallado",
		Description: fmt.Sprintf("Mensaje: %v", tickErr),
		Footer:      "Por favor, revisa el sistema.",
	})

	if err := r.mail.Send(r.supportEmail, "Notificación de Fallo del segundo plano de activar o bajar servicios online", html); err != nil {
		log.Printf("reconcile : error sending failure notification: %v", err)
	}
}
