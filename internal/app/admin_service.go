package app

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/bpbot/internal/core/effects"
	"github.com/example/bpbot/internal/core/identity"
	"github.com/example/bpbot/internal/ports/primary"
	"github.com/example/bpbot/internal/ports/secondary"
)

// Chat commands reserved for allow-listed identities.
const (
	CmdUpdateInterface = "update_interface"
	CmdBackup          = "backup"
	CmdExportCSV       = "export_csv"
	CmdSendLastRecords = "send_last_records"
)

var adminCommands = []string{CmdUpdateInterface, CmdBackup, CmdExportCSV, CmdSendLastRecords}

// lastRecordsLimit is how many readings /send_last_records shows.
const lastRecordsLimit = 5

// broadcastConcurrency bounds in-flight notices during a broadcast.
const broadcastConcurrency = 8

// IsAdminCommand reports whether name is one of the administrative commands.
func IsAdminCommand(name string) bool {
	return slices.Contains(adminCommands, name)
}

// AdminServiceImpl implements the AdminService interface.
type AdminServiceImpl struct {
	identities   secondary.IdentityRepository
	measurements secondary.MeasurementRepository
	renderer     secondary.ReportRenderer
	backups      secondary.BackupStore
	executor     EffectExecutor
	current      string
	allowList    []int64
	logger       *zap.Logger
	now          func() time.Time

	// background tracks broadcasts started from chat.
	background sync.WaitGroup
}

// AdminDeps groups the collaborators of the admin service.
type AdminDeps struct {
	Identities   secondary.IdentityRepository
	Measurements secondary.MeasurementRepository
	Renderer     secondary.ReportRenderer
	Backups      secondary.BackupStore
	Executor     EffectExecutor
}

// NewAdminService creates a new AdminService.
func NewAdminService(deps AdminDeps, current string, allowList []int64, logger *zap.Logger) *AdminServiceImpl {
	return &AdminServiceImpl{
		identities:   deps.Identities,
		measurements: deps.Measurements,
		renderer:     deps.Renderer,
		backups:      deps.Backups,
		executor:     deps.Executor,
		current:      current,
		allowList:    allowList,
		logger:       logger,
		now:          time.Now,
	}
}

// SetInterfaceVersion stamps version on one identity, or on all when identityID is 0.
func (s *AdminServiceImpl) SetInterfaceVersion(ctx context.Context, version string, identityID int64) (int64, error) {
	if version == "" {
		return 0, fmt.Errorf("interface version must not be empty")
	}

	if identityID == 0 {
		n, err := s.identities.BulkSetInterfaceVersion(ctx, version)
		if err != nil {
			return 0, fmt.Errorf("failed to set interface version: %w", err)
		}
		s.logger.Info("interface version set for all identities",
			zap.String("version", version),
			zap.Int64("updated", n))
		return n, nil
	}

	if err := s.identities.SetInterfaceVersion(ctx, identityID, version); err != nil {
		return 0, fmt.Errorf("failed to set interface version: %w", err)
	}
	s.logger.Info("interface version set",
		zap.String("version", version),
		zap.Int64("identity_id", identityID))
	return 1, nil
}

// Backup reuses or creates a database snapshot.
func (s *AdminServiceImpl) Backup(ctx context.Context) (*primary.BackupResult, error) {
	file, err := s.backups.LatestOrCreate(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to back up database: %w", err)
	}
	return &primary.BackupResult{Path: file.Path, Name: file.Name, Reused: file.Reused}, nil
}

// ExportCSV renders every stored measurement as CSV.
func (s *AdminServiceImpl) ExportCSV(ctx context.Context) ([]byte, error) {
	records, err := s.measurements.Dump(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to dump measurements: %w", err)
	}
	content, err := s.renderer.CSV(records)
	if err != nil {
		return nil, fmt.Errorf("failed to render csv: %w", err)
	}
	return content, nil
}

// Broadcast sets the current interface version on every identity and sends
// each one the upgrade notice. A failed delivery is counted, never retried.
func (s *AdminServiceImpl) Broadcast(ctx context.Context) (*primary.BroadcastResult, error) {
	updated, err := s.SetInterfaceVersion(ctx, s.current, 0)
	if err != nil {
		return nil, err
	}
	ids, err := s.identities.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list identities: %w", err)
	}

	result := &primary.BroadcastResult{Updated: updated}
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(broadcastConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			err := s.executor.Execute(ctx, upgradeNotice(id, s.current))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.Warn("upgrade notice not delivered",
					zap.Int64("identity_id", id),
					zap.Error(err))
				result.Failed++
				return nil
			}
			result.Delivered++
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info("upgrade notice broadcast",
		zap.String("version", s.current),
		zap.Int("delivered", result.Delivered),
		zap.Int("failed", result.Failed))
	return result, nil
}

// broadcastInBackground runs Broadcast off the caller's dispatch lane and
// reports the outcome to the requesting admin.
func (s *AdminServiceImpl) broadcastInBackground(ctx context.Context, adminID int64) {
	ctx = context.WithoutCancel(ctx)
	s.background.Add(1)
	go func() {
		defer s.background.Done()

		reply := text(adminID, msgSomethingWrong, nil)
		res, err := s.Broadcast(ctx)
		if err != nil {
			s.logger.Error("broadcast failed", zap.Error(err))
		} else {
			reply = text(adminID, msgBroadcastDone(s.current, res.Updated, res.Delivered, res.Failed), nil)
		}
		if err := s.executor.Execute(ctx, []effects.Effect{reply}); err != nil {
			s.logger.Warn("broadcast report not delivered", zap.Error(err))
		}
	}()
}

// Wait blocks until broadcasts started from chat have finished.
func (s *AdminServiceImpl) Wait() {
	s.background.Wait()
}

// HandleCommand runs an administrative chat command for identityID.
// Identities outside the allow-list get a permission error message.
func (s *AdminServiceImpl) HandleCommand(ctx context.Context, identityID int64, command string) ([]effects.Effect, error) {
	guard := identity.CanAdminister(identity.AdminContext{
		IdentityID: identityID,
		Command:    "/" + command,
		AllowList:  s.allowList,
	})
	if !guard.Allowed {
		s.logger.Warn("admin command denied",
			zap.Int64("identity_id", identityID),
			zap.Error(guard.Error()))
		return []effects.Effect{text(identityID, msgPermissionDenied, nil)}, nil
	}

	switch command {
	case CmdUpdateInterface:
		s.broadcastInBackground(ctx, identityID)
		return []effects.Effect{text(identityID, msgBroadcastStarted(s.current), nil)}, nil

	case CmdBackup:
		res, err := s.Backup(ctx)
		if err != nil {
			return nil, err
		}
		content, err := s.backups.Read(ctx, &secondary.BackupFile{Path: res.Path, Name: res.Name})
		if err != nil {
			return nil, fmt.Errorf("failed to read backup: %w", err)
		}
		return []effects.Effect{effects.SendDocumentEffect{
			ChatID:   identityID,
			Content:  content,
			Filename: res.Name,
			Caption:  msgBackupCaption,
		}}, nil

	case CmdExportCSV:
		content, err := s.ExportCSV(ctx)
		if err != nil {
			return nil, err
		}
		return []effects.Effect{effects.SendDocumentEffect{
			ChatID:   identityID,
			Content:  content,
			Filename: "measurements.csv",
			Caption:  msgCSVCaption,
		}}, nil

	case CmdSendLastRecords:
		records, err := s.measurements.Recent(ctx, identityID, lastRecordsLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to list recent readings: %w", err)
		}
		if len(records) == 0 {
			return []effects.Effect{text(identityID, msgNoReadings, nil)}, nil
		}
		total, err := s.measurements.Count(ctx, identityID)
		if err != nil {
			return nil, fmt.Errorf("failed to count readings: %w", err)
		}
		return []effects.Effect{text(identityID, msgLastRecords(len(records), total, formatCompact(records)), nil)}, nil

	default:
		return []effects.Effect{text(identityID, msgUnrecognized, nil)}, nil
	}
}

// Ensure AdminServiceImpl implements the interface
var _ primary.AdminService = (*AdminServiceImpl)(nil)
