package impl

import (
	"context"
	"log/slog"
	"sort"
	"time"

	deliverycontext "circulation/internal/delivery/context"
	"circulation/internal/domain/entity"
	"circulation/internal/domain/fine"
	"circulation/internal/domain/repository"
	"circulation/internal/domain/service"
	"circulation/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// unassignedFaculty groups members without a faculty.
const unassignedFaculty = "Unassigned"

// reportService implements the ReportUsecase interface.
type reportService struct {
	txManager repository.TransactionManager
	calc      *fine.Calculator
	clock     service.Clock
	logger    *slog.Logger
}

// ReportServiceParams holds dependencies for ReportService, injected by Fx.
type ReportServiceParams struct {
	fx.In

	TxManager repository.TransactionManager
	Calc      *fine.Calculator
	Clock     service.Clock
	Logger    *slog.Logger
}

// NewReportService is the constructor for reportService.
func NewReportService(params ReportServiceParams) usecase.ReportUsecase {
	return &reportService{
		txManager: params.TxManager,
		calc:      params.Calc,
		clock:     params.Clock,
		logger:    params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *reportService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *reportService) Dashboard(ctx context.Context) (*entity.DashboardStats, error) {
	now := srv.clock.Now()
	stats := &entity.DashboardStats{GeneratedAt: now}

	err := srv.txManager.ExecuteSnapshot(ctx, func(repoFactory repository.RepositoryFactory) error {
		books, err := repoFactory.NewBookRepository().List(ctx, entity.BookFilter{})
		if err != nil {
			return err
		}
		stats.TotalTitles = len(books)

		counts, err := repoFactory.NewCopyRepository().CountByBookAndStatus(ctx)
		if err != nil {
			return err
		}
		for _, c := range counts {
			stats.Copies.Add(c.Status, c.Count)
		}

		borrowing := entity.RecordBorrowing
		open, err := repoFactory.NewBorrowRecordRepository().List(ctx, entity.RecordFilter{Status: &borrowing})
		if err != nil {
			return err
		}
		stats.ActiveLoans = len(open)
		for _, record := range open {
			if record.IsOverdue(now) {
				stats.OverdueLoans++
			}
		}

		users, err := repoFactory.NewUserRepository().List(ctx, entity.UserFilter{})
		if err != nil {
			return err
		}
		stats.TotalUsers = len(users)
		for _, user := range users {
			if user.IsLocked() {
				stats.LockedUsers++
			} else {
				stats.ActiveUsers++
			}
			stats.TotalFines += user.TotalFines
		}

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to build dashboard")
	}

	return stats, nil
}

// BookReport groups copies by category. Every category's status counts are
// taken from the same snapshot as the totals.
func (srv *reportService) BookReport(ctx context.Context) (*entity.BookReport, error) {
	report := &entity.BookReport{GeneratedAt: srv.clock.Now()}

	err := srv.txManager.ExecuteSnapshot(ctx, func(repoFactory repository.RepositoryFactory) error {
		books, err := repoFactory.NewBookRepository().List(ctx, entity.BookFilter{})
		if err != nil {
			return err
		}

		counts, err := repoFactory.NewCopyRepository().CountByBookAndStatus(ctx)
		if err != nil {
			return err
		}

		loans, err := repoFactory.NewBorrowRecordRepository().CountByBook(ctx)
		if err != nil {
			return err
		}

		categoryOf := make(map[int64]string, len(books))
		byCategory := make(map[string]*entity.CategoryReport)
		category := func(name string) *entity.CategoryReport {
			if r, ok := byCategory[name]; ok {
				return r
			}
			r := &entity.CategoryReport{Category: name}
			byCategory[name] = r

			return r
		}

		for _, book := range books {
			categoryOf[book.ID] = book.Category
			r := category(book.Category)
			r.Titles++
			r.TotalLoans += loans[book.ID]
		}

		for _, c := range counts {
			name, ok := categoryOf[c.BookID]
			if !ok {
				continue
			}
			category(name).Copies.Add(c.Status, c.Count)
			report.Totals.Add(c.Status, c.Count)
		}

		report.Categories = make([]entity.CategoryReport, 0, len(byCategory))
		for _, r := range byCategory {
			if r.Copies.Total > 0 {
				r.BorrowRate = float64(r.Copies.Borrowed) / float64(r.Copies.Total)
			}
			report.Categories = append(report.Categories, *r)
		}
		sort.Slice(report.Categories, func(i, j int) bool {
			return report.Categories[i].Category < report.Categories[j].Category
		})

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to build book report")
	}

	return report, nil
}

func (srv *reportService) UserReport(ctx context.Context) (*entity.UserReport, error) {
	report := &entity.UserReport{GeneratedAt: srv.clock.Now()}

	err := srv.txManager.ExecuteSnapshot(ctx, func(repoFactory repository.RepositoryFactory) error {
		users, err := repoFactory.NewUserRepository().List(ctx, entity.UserFilter{})
		if err != nil {
			return err
		}

		byFaculty := make(map[string]*entity.FacultyReport)
		for _, user := range users {
			name := user.Faculty
			if name == "" {
				name = unassignedFaculty
			}

			r, ok := byFaculty[name]
			if !ok {
				r = &entity.FacultyReport{Faculty: name}
				byFaculty[name] = r
			}
			r.Users++
			if user.IsLocked() {
				r.LockedUsers++
			}
			r.ActiveLoans += user.CurrentBorrowed
			r.TotalFines += user.TotalFines
		}

		report.Faculties = make([]entity.FacultyReport, 0, len(byFaculty))
		for _, r := range byFaculty {
			report.Faculties = append(report.Faculties, *r)
		}
		sort.Slice(report.Faculties, func(i, j int) bool {
			return report.Faculties[i].Faculty < report.Faculties[j].Faculty
		})

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to build user report")
	}

	return report, nil
}

func (srv *reportService) BorrowReport(ctx context.Context, from, to *time.Time) (*entity.BorrowReport, error) {
	now := srv.clock.Now()
	report := &entity.BorrowReport{From: from, To: to, GeneratedAt: now}

	err := srv.txManager.ExecuteSnapshot(ctx, func(repoFactory repository.RepositoryFactory) error {
		records, err := repoFactory.NewBorrowRecordRepository().List(ctx, entity.RecordFilter{From: from, To: to})
		if err != nil {
			return err
		}

		for _, record := range records {
			report.Total++
			switch record.Status {
			case entity.RecordBorrowing:
				report.Borrowing++
				if record.IsOverdue(now) {
					report.Overdue++
				}
			case entity.RecordReturned:
				report.Returned++
			case entity.RecordLost:
				report.Lost++
			case entity.RecordDamaged:
				report.Damaged++
			}
		}

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to build borrow report")
	}

	return report, nil
}

// PenaltyReport lists charged fines and the fines open overdue records would
// carry if returned now.
func (srv *reportService) PenaltyReport(ctx context.Context) (*entity.PenaltyReport, error) {
	now := srv.clock.Now()
	report := &entity.PenaltyReport{GeneratedAt: now}

	err := srv.txManager.ExecuteSnapshot(ctx, func(repoFactory repository.RepositoryFactory) error {
		settings, err := loadSettings(ctx, repoFactory.NewSettingsRepository())
		if err != nil {
			return err
		}

		records, err := repoFactory.NewBorrowRecordRepository().List(ctx, entity.RecordFilter{})
		if err != nil {
			return err
		}

		users, err := repoFactory.NewUserRepository().List(ctx, entity.UserFilter{})
		if err != nil {
			return err
		}
		usernames := make(map[int64]string, len(users))
		for _, user := range users {
			usernames[user.ID] = user.Username
		}

		report.Items = make([]entity.PenaltyItem, 0)
		for _, record := range records {
			amount := record.Fine
			projected := false
			if record.IsOverdue(now) {
				amount = srv.calc.Projected(record, settings, now)
				projected = true
			}
			if amount <= 0 {
				continue
			}

			report.Items = append(report.Items, entity.PenaltyItem{
				RecordID:   record.ID,
				UserID:     record.UserID,
				Username:   usernames[record.UserID],
				BookID:     record.BookID,
				BookTitle:  record.BookTitle,
				Status:     record.Status,
				DueDate:    record.DueDate,
				ReturnDate: record.ReturnDate,
				Fine:       amount,
				Projected:  projected,
			})
			report.TotalFines += amount
		}
		sort.Slice(report.Items, func(i, j int) bool {
			return report.Items[i].RecordID < report.Items[j].RecordID
		})

		return nil
	})
	if err != nil {
		srv.log(ctx).Error("Failed to build penalty report", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to build penalty report")
	}

	return report, nil
}
