package entity

// Settings is the singleton circulation policy document.
type Settings struct {
	MaxBorrowDays      int   `json:"maxBorrowDays" validate:"min=1,max=90"`
	MaxBorrowBooks     int   `json:"maxBorrowBooks" validate:"min=1,max=50"`
	RenewalDays        int   `json:"renewalDays" validate:"min=1,max=30"`
	OverdueFinePerDay  int64 `json:"overdueFinePerDay" validate:"min=0"`
	LostBookFine       int64 `json:"lostBookFine" validate:"min=0"`
	DamagedBookFine    int64 `json:"damagedBookFine" validate:"min=0"`
	AutoCheckOverdue   bool  `json:"autoCheckOverdue"`
	ReminderDaysBefore int   `json:"reminderDaysBefore" validate:"min=0,max=30"`
}

// DefaultSettings returns the policy used when none has been stored.
func DefaultSettings() Settings {
	return Settings{
		MaxBorrowDays:      14,
		MaxBorrowBooks:     5,
		RenewalDays:        7,
		OverdueFinePerDay:  5000,
		LostBookFine:       100000,
		DamagedBookFine:    50000,
		AutoCheckOverdue:   true,
		ReminderDaysBefore: 2,
	}
}

// SettingsUpdate is a partial settings document; nil fields take defaults.
type SettingsUpdate struct {
	MaxBorrowDays      *int   `json:"maxBorrowDays,omitempty"`
	MaxBorrowBooks     *int   `json:"maxBorrowBooks,omitempty"`
	RenewalDays        *int   `json:"renewalDays,omitempty"`
	OverdueFinePerDay  *int64 `json:"overdueFinePerDay,omitempty"`
	LostBookFine       *int64 `json:"lostBookFine,omitempty"`
	DamagedBookFine    *int64 `json:"damagedBookFine,omitempty"`
	AutoCheckOverdue   *bool  `json:"autoCheckOverdue,omitempty"`
	ReminderDaysBefore *int   `json:"reminderDaysBefore,omitempty"`
}

// Resolve builds a complete document from the update, filling absent
// fields with defaults.
func (u SettingsUpdate) Resolve() Settings {
	s := DefaultSettings()
	if u.MaxBorrowDays != nil {
		s.MaxBorrowDays = *u.MaxBorrowDays
	}
	if u.MaxBorrowBooks != nil {
		s.MaxBorrowBooks = *u.MaxBorrowBooks
	}
	if u.RenewalDays != nil {
		s.RenewalDays = *u.RenewalDays
	}
	if u.OverdueFinePerDay != nil {
		s.OverdueFinePerDay = *u.OverdueFinePerDay
	}
	if u.LostBookFine != nil {
		s.LostBookFine = *u.LostBookFine
	}
	if u.DamagedBookFine != nil {
		s.DamagedBookFine = *u.DamagedBookFine
	}
	if u.AutoCheckOverdue != nil {
		s.AutoCheckOverdue = *u.AutoCheckOverdue
	}
	if u.ReminderDaysBefore != nil {
		s.ReminderDaysBefore = *u.ReminderDaysBefore
	}

	return s
}
