package gormstore

import (
	"time"

	"circulation/internal/domain/entity"
	"circulation/internal/infra/persistence/model"
)

// Times are stored in UTC so that range predicates compare correctly on
// drivers that keep timestamps as text.

func utc(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}

	return t.UTC()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()

	return &v
}

func toBookDomain(m *model.BookModel) *entity.Book {
	if m == nil {
		return nil
	}

	return &entity.Book{
		ID:              m.ID,
		Title:           m.Title,
		Author:          m.Author,
		ISBN:            m.ISBN,
		Category:        m.Category,
		Year:            m.Year,
		Price:           m.Price,
		PageCount:       m.PageCount,
		Description:     m.Description,
		TotalCopies:     m.TotalCopies,
		AvailableCopies: m.AvailableCopies,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func fromBookDomain(b *entity.Book) *model.BookModel {
	return &model.BookModel{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		ISBN:            b.ISBN,
		Category:        b.Category,
		Year:            b.Year,
		Price:           b.Price,
		PageCount:       b.PageCount,
		Description:     b.Description,
		TotalCopies:     b.TotalCopies,
		AvailableCopies: b.AvailableCopies,
	}
}

func toCopyDomain(m *model.BookCopyModel) *entity.BookCopy {
	if m == nil {
		return nil
	}

	return &entity.BookCopy{
		ID:            m.ID,
		BookID:        m.BookID,
		Status:        entity.CopyStatus(m.Status),
		ShelfLocation: m.ShelfLocation,
		Notes:         m.Notes,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func fromCopyDomain(c *entity.BookCopy) *model.BookCopyModel {
	return &model.BookCopyModel{
		ID:            c.ID,
		BookID:        c.BookID,
		Status:        string(c.Status),
		ShelfLocation: c.ShelfLocation,
		Notes:         c.Notes,
	}
}

func toRecordDomain(m *model.BorrowRecordModel) *entity.BorrowRecord {
	if m == nil {
		return nil
	}

	return &entity.BorrowRecord{
		ID:         m.ID,
		UserID:     m.UserID,
		BookID:     m.BookID,
		CopyID:     m.CopyID,
		BookTitle:  m.BookTitle,
		BorrowDate: m.BorrowDate,
		DueDate:    m.DueDate,
		ReturnDate: m.ReturnDate,
		Status:     entity.RecordStatus(m.Status),
		Fine:       m.Fine,
		RenewCount: m.RenewCount,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func fromRecordDomain(r *entity.BorrowRecord) *model.BorrowRecordModel {
	return &model.BorrowRecordModel{
		ID:         r.ID,
		UserID:     r.UserID,
		BookID:     r.BookID,
		CopyID:     r.CopyID,
		BookTitle:  r.BookTitle,
		BorrowDate: utc(r.BorrowDate),
		DueDate:    utc(r.DueDate),
		ReturnDate: utcPtr(r.ReturnDate),
		Status:     string(r.Status),
		Fine:       r.Fine,
		RenewCount: r.RenewCount,
	}
}

func toUserDomain(m *model.UserModel) *entity.User {
	if m == nil {
		return nil
	}

	return &entity.User{
		ID:              m.ID,
		Username:        m.Username,
		Email:           m.Email,
		PasswordHash:    m.PasswordHash,
		FullName:        m.FullName,
		Phone:           m.Phone,
		Faculty:         m.Faculty,
		Role:            entity.Role(m.Role),
		Status:          entity.AccountStatus(m.Status),
		TotalBorrowed:   m.TotalBorrowed,
		CurrentBorrowed: m.CurrentBorrowed,
		TotalFines:      m.TotalFines,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func fromUserDomain(u *entity.User) *model.UserModel {
	return &model.UserModel{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		PasswordHash:    u.PasswordHash,
		FullName:        u.FullName,
		Phone:           u.Phone,
		Faculty:         u.Faculty,
		Role:            string(u.Role),
		Status:          string(u.Status),
		TotalBorrowed:   u.TotalBorrowed,
		CurrentBorrowed: u.CurrentBorrowed,
		TotalFines:      u.TotalFines,
	}
}

func toSettingsDomain(m *model.SettingsModel) *entity.Settings {
	return &entity.Settings{
		MaxBorrowDays:      m.MaxBorrowDays,
		MaxBorrowBooks:     m.MaxBorrowBooks,
		RenewalDays:        m.RenewalDays,
		OverdueFinePerDay:  m.OverdueFinePerDay,
		LostBookFine:       m.LostBookFine,
		DamagedBookFine:    m.DamagedBookFine,
		AutoCheckOverdue:   m.AutoCheckOverdue,
		ReminderDaysBefore: m.ReminderDaysBefore,
	}
}

func fromSettingsDomain(s *entity.Settings) *model.SettingsModel {
	return &model.SettingsModel{
		ID:                 model.SettingsSingletonID,
		MaxBorrowDays:      s.MaxBorrowDays,
		MaxBorrowBooks:     s.MaxBorrowBooks,
		RenewalDays:        s.RenewalDays,
		OverdueFinePerDay:  s.OverdueFinePerDay,
		LostBookFine:       s.LostBookFine,
		DamagedBookFine:    s.DamagedBookFine,
		AutoCheckOverdue:   s.AutoCheckOverdue,
		ReminderDaysBefore: s.ReminderDaysBefore,
	}
}

func toNotificationDomain(m *model.NotificationModel) *entity.Notification {
	if m == nil {
		return nil
	}

	return &entity.Notification{
		ID:        m.ID,
		UserID:    m.UserID,
		RecordID:  m.RecordID,
		Type:      entity.NotificationType(m.Type),
		Title:     m.Title,
		Message:   m.Message,
		Read:      m.Read,
		CreatedAt: m.CreatedAt,
	}
}

func fromNotificationDomain(n *entity.Notification) *model.NotificationModel {
	return &model.NotificationModel{
		ID:       n.ID,
		UserID:   n.UserID,
		RecordID: n.RecordID,
		Type:     string(n.Type),
		Title:    n.Title,
		Message:  n.Message,
		Read:     n.Read,
	}
}
