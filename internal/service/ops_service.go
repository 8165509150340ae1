package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Anthonyboth/agriroute-connect-sub007/internal/matrix"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/model"
)

type OpsStore interface {
	CountFreightsByStatus(ctx context.Context) ([]model.StatusCount, error)
	ListStaleFreights(ctx context.Context, before time.Time, limit int) ([]model.StaleFreight, error)
}

type WorkbookGenerator interface {
	Generate(report model.ConsistencyReport) ([]byte, error)
}

const (
	staleAfter = 72 * time.Hour
	staleLimit = 200
)

// OpsService reports on the health of the action table and of the freights
// it governs. Admin only.
type OpsService struct {
	store  OpsStore
	matrix *matrix.Matrix
	excel  WorkbookGenerator
	now    func() time.Time
}

func NewOpsService(store OpsStore, m *matrix.Matrix, excel WorkbookGenerator) *OpsService {
	return &OpsService{store: store, matrix: m, excel: excel, now: time.Now}
}

func (s *OpsService) ConsistencyReport(ctx context.Context, principal model.Principal) (*model.ConsistencyReport, error) {
	if !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}

	now := s.now()
	report := &model.ConsistencyReport{GeneratedAt: now}

	for _, d := range s.matrix.Reconcile() {
		report.Issues = append(report.Issues, model.ConsistencyIssue{
			Status:  d.Status,
			Role:    d.Role,
			Action:  d.Action,
			InTable: d.Matrix,
			ByGuard: d.Guard,
		})
	}
	report.Consistent = len(report.Issues) == 0

	for _, status := range model.AllFreightStatuses() {
		for _, role := range model.AllRoles() {
			actions := s.matrix.Query(status, role).AllowedActions
			if len(actions) == 0 {
				continue
			}
			report.Cells = append(report.Cells, model.MatrixCell{Status: status, Role: role, Actions: actions})
		}
		// COMPLETED still accepts ratings, so only CANCELLED is expected to
		// be silent.
		if status != model.FreightStatusCancelled && len(s.matrix.RolesWithActions(status)) == 0 {
			report.StuckStatuses = append(report.StuckStatuses, status)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		counts, err := s.store.CountFreightsByStatus(gctx)
		report.StatusCounts = counts
		return err
	})
	g.Go(func() error {
		stale, err := s.store.ListStaleFreights(gctx, now.Add(-staleAfter), staleLimit)
		report.Stale = stale
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return report, nil
}

func (s *OpsService) ConsistencyWorkbook(ctx context.Context, principal model.Principal) (*DocumentResult, error) {
	report, err := s.ConsistencyReport(ctx, principal)
	if err != nil {
		return nil, err
	}
	content, err := s.excel.Generate(*report)
	if err != nil {
		return nil, err
	}
	return &DocumentResult{
		FileName: fmt.Sprintf("consistencia_%s.xlsx", report.GeneratedAt.Format("20060102_1504")),
		Content:  content,
	}, nil
}
