package storage

import (
	"context"
	"fsd/internal/providers"
	"fsd/internal/services"
	"fsd/internal/storage/interfaces"
	"fsd/internal/structures"
	"sync"
	"time"

	"github.com/roylee0704/gron"
)

// Scheduler drives the periodic alarm refresh and owns the startup/shutdown
// persistence of the live cache.
type Scheduler struct {
	config        *structures.Config
	logger        providers.Logger
	service       services.SyncServiceInterface
	fileManager   *FileManager
	cron          *gron.Cron
	opsMu         sync.Mutex
	initialReason services.Reason
	wg            sync.WaitGroup
}

func (s *Scheduler) Init() {
	s.cron = gron.New()
	interval := s.config.Sync.RefreshInterval
	if interval <= 0 {
		interval = time.Minute
	}

	s.cron.AddFunc(gron.Every(interval), func() {
		s.refresh(services.ReasonAlarm)
	})
	s.cron.Start()

	reason := s.InitialReason()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.refresh(reason)
	}()
}

func (s *Scheduler) refresh(reason services.Reason) {
	s.logger.Debugf(providers.TypeSync, "Scheduled refresh (%s)", reason)
	if _, err := s.service.GetSnapshot(context.Background(), true, reason); err != nil {
		s.logger.Errorf(providers.TypeSync, "Scheduled refresh (%s) failed: %s", reason, err)
	}
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	s.wg.Wait()
}

// Restore seeds the sync engine with the last persisted live cache and decides
// whether the first refresh counts as an install or a regular startup. A
// missing state document is created with defaults.
func (s *Scheduler) Restore() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	if !s.fileManager.StateExists() {
		state, err := s.fileManager.LoadState()
		if err != nil {
			return err
		}
		if err := s.fileManager.SaveState(state); err != nil {
			return err
		}
		s.logger.Infof(providers.TypeApp, "Created default state at %s", s.config.Persistence.StatePath)
	}

	record, err := s.fileManager.LoadLiveCache()
	if err != nil {
		s.logger.Warnf(providers.TypeApp, "Live cache unreadable, starting cold: %s", err)
		s.initialReason = services.ReasonStartup
		return nil
	}
	if record == nil {
		s.initialReason = services.ReasonInstall
		return nil
	}

	s.service.Seed(record)
	s.initialReason = services.ReasonStartup
	s.logger.Infof(providers.TypeApp, "Restored live cache with %d entries from %s", len(record.LiveData), record.Timestamp.Format(time.RFC3339))
	return nil
}

func (s *Scheduler) InitialReason() services.Reason {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()
	if s.initialReason == "" {
		return services.ReasonStartup
	}
	return s.initialReason
}

func (s *Scheduler) Persist() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	record := s.service.LiveCache()
	if record == nil {
		return nil
	}

	s.logger.Infof(providers.TypeApp, "Persisting live cache to file...")
	if err := s.fileManager.SaveLiveCache(record); err != nil {
		s.logger.Errorf(providers.TypeApp, "Error while persisting live cache: %s", err)
		return err
	}
	return nil
}

func NewScheduler(config *structures.Config, logger providers.Logger, service services.SyncServiceInterface, fileManager *FileManager) interfaces.SchedulerInterface {
	return &Scheduler{
		config:      config,
		logger:      logger,
		service:     service,
		fileManager: fileManager,
	}
}
