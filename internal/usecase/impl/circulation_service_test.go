package impl

import (
	"context"
	"sync"
	"testing"
	"time"

	"circulation/internal/domain/entity"
	domainerrors "circulation/internal/domain/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBorrow_ClaimsLowestCopyAndUpdatesCaches(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.member(t, "alice")
	book := h.book(t, "Dune", 2)
	copies := h.copies(t, book.ID)

	record, err := h.circulation.Borrow(ctx, alice, alice.UserID, book.ID)
	require.NoError(t, err)

	assert.Equal(t, copies[0].ID, record.CopyID)
	assert.Equal(t, entity.RecordBorrowing, record.Status)
	assert.Equal(t, "Dune", record.BookTitle)
	assert.True(t, record.BorrowDate.Equal(testStart))
	assert.True(t, record.DueDate.Equal(testStart.AddDate(0, 0, 14)))

	stored, err := h.catalog.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.AvailableCopies)
	assert.Equal(t, 2, stored.TotalCopies)

	user := h.user(t, alice.UserID)
	assert.Equal(t, 1, user.CurrentBorrowed)
	assert.Equal(t, 1, user.TotalBorrowed)

	assert.Equal(t, []entity.NotificationType{entity.NotificationBorrowed}, h.publisher.types())
	h.assertInvariants(t)
}

func TestBorrow_MemberCannotBorrowForOthers(t *testing.T) {
	h := newHarness(t)
	alice := h.member(t, "alice")
	bob := h.member(t, "bob")
	book := h.book(t, "Dune", 1)

	_, err := h.circulation.Borrow(context.Background(), alice, bob.UserID, book.ID)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	record, err := h.circulation.Borrow(context.Background(), h.admin, bob.UserID, book.ID)
	require.NoError(t, err)
	assert.Equal(t, bob.UserID, record.UserID)
}

func TestBorrow_NotFound(t *testing.T) {
	h := newHarness(t)
	alice := h.member(t, "alice")

	_, err := h.circulation.Borrow(context.Background(), alice, alice.UserID, 404)
	assert.ErrorIs(t, err, domainerrors.ErrBookNotFound)

	book := h.book(t, "Dune", 1)
	_, err = h.circulation.Borrow(context.Background(), h.admin, 404, book.ID)
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
}

func TestBorrow_NoCopyAvailable(t *testing.T) {
	h := newHarness(t)
	alice := h.member(t, "alice")
	bob := h.member(t, "bob")
	book := h.book(t, "Dune", 1)

	_, err := h.circulation.Borrow(context.Background(), alice, alice.UserID, book.ID)
	require.NoError(t, err)

	_, err = h.circulation.Borrow(context.Background(), bob, bob.UserID, book.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNoCopyAvailable)
	h.assertInvariants(t)
}

func TestBorrow_ConcurrentLastCopy(t *testing.T) {
	h := newHarness(t)
	book := h.book(t, "Dune", 1)
	members := []entity.Principal{h.member(t, "alice"), h.member(t, "bob")}

	var wg sync.WaitGroup
	errs := make([]error, len(members))
	for i, m := range members {
		wg.Add(1)
		go func(i int, m entity.Principal) {
			defer wg.Done()
			_, errs[i] = h.circulation.Borrow(context.Background(), m, m.UserID, book.ID)
		}(i, m)
	}
	wg.Wait()

	successes, rejected := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case assert.ErrorIs(t, err, domainerrors.ErrNoCopyAvailable):
			rejected++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, rejected)

	stored, err := h.catalog.GetBook(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.AvailableCopies)
	h.assertInvariants(t)
}

func TestScenarioA_BorrowLimit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.setPolicy(t, entity.SettingsUpdate{MaxBorrowBooks: intPtr(1)})
	u := h.member(t, "u")
	b := h.book(t, "Book B", 1)
	c := h.book(t, "Book C", 1)

	_, err := h.circulation.Borrow(ctx, u, u.UserID, b.ID)
	require.NoError(t, err)

	_, err = h.circulation.Borrow(ctx, u, u.UserID, c.ID)
	assert.ErrorIs(t, err, domainerrors.ErrBorrowLimitExceeded)

	stored, err := h.catalog.GetBook(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.AvailableCopies)
	h.assertInvariants(t)
}

func TestScenarioB_OverdueFine(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.setPolicy(t, entity.SettingsUpdate{OverdueFinePerDay: int64Ptr(5000)})
	u := h.member(t, "u")
	book := h.book(t, "Dune", 1)

	record, err := h.circulation.Borrow(ctx, u, u.UserID, book.ID)
	require.NoError(t, err)

	// dueDate is now three days in the past
	h.clock.Set(record.DueDate.AddDate(0, 0, 3))

	returned, err := h.circulation.Return(ctx, u, record.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RecordReturned, returned.Status)
	assert.Equal(t, int64(15000), returned.Fine)
	require.NotNil(t, returned.ReturnDate)

	user := h.user(t, u.UserID)
	assert.Equal(t, int64(15000), user.TotalFines)
	assert.Equal(t, 0, user.CurrentBorrowed)

	copies := h.copies(t, book.ID)
	assert.Equal(t, entity.CopyAvailable, copies[0].Status)
	h.assertInvariants(t)
}

func TestReturn_OnTimeHasNoFine(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.member(t, "u")
	book := h.book(t, "Dune", 1)

	record, err := h.circulation.Borrow(ctx, u, u.UserID, book.ID)
	require.NoError(t, err)
	h.clock.Set(record.DueDate)

	returned, err := h.circulation.Return(ctx, u, record.ID)
	require.NoError(t, err)
	assert.Zero(t, returned.Fine)
}

func TestReturn_TwiceIsRejected(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.member(t, "u")
	book := h.book(t, "Dune", 1)

	record, err := h.circulation.Borrow(ctx, u, u.UserID, book.ID)
	require.NoError(t, err)

	first, err := h.circulation.Return(ctx, u, record.ID)
	require.NoError(t, err)

	h.clock.Advance(48 * time.Hour)
	_, err = h.circulation.Return(ctx, u, record.ID)
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyReturned)

	records, err := h.circulation.ListUserRecords(ctx, u, u.UserID, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, entity.RecordReturned, records[0].Status)
	assert.True(t, first.ReturnDate.Equal(*records[0].ReturnDate))
	h.assertInvariants(t)
}

func TestReturn_UnknownRecord(t *testing.T) {
	h := newHarness(t)

	_, err := h.circulation.Return(context.Background(), h.admin, 404)
	assert.ErrorIs(t, err, domainerrors.ErrRecordNotFound)
}

func TestReturn_OtherMembersRecordIsForbidden(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.member(t, "alice")
	bob := h.member(t, "bob")
	book := h.book(t, "Dune", 1)

	record, err := h.circulation.Borrow(ctx, alice, alice.UserID, book.ID)
	require.NoError(t, err)

	_, err = h.circulation.Return(ctx, bob, record.ID)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}

func TestScenarioC_MarkLost(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.setPolicy(t, entity.SettingsUpdate{LostBookFine: int64Ptr(100000)})
	u := h.member(t, "u")
	book := h.book(t, "Dune", 1)

	record, err := h.circulation.Borrow(ctx, u, u.UserID, book.ID)
	require.NoError(t, err)
	before := h.user(t, u.UserID)

	lost, err := h.circulation.MarkLost(ctx, u, record.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RecordLost, lost.Status)
	assert.Equal(t, int64(100000), lost.Fine)

	after := h.user(t, u.UserID)
	assert.Equal(t, before.TotalFines+100000, after.TotalFines)
	assert.Equal(t, before.CurrentBorrowed-1, after.CurrentBorrowed)

	copies := h.copies(t, book.ID)
	assert.Equal(t, entity.CopyLost, copies[0].Status)

	stored, err := h.catalog.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.AvailableCopies)
	h.assertInvariants(t)
}

func TestMarkDamaged_FlatFineEvenWhenOverdue(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.member(t, "u")
	book := h.book(t, "Dune", 1)

	record, err := h.circulation.Borrow(ctx, u, u.UserID, book.ID)
	require.NoError(t, err)
	h.clock.Set(record.DueDate.AddDate(0, 0, 10))

	damaged, err := h.circulation.MarkDamaged(ctx, u, record.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RecordDamaged, damaged.Status)
	assert.Equal(t, entity.DefaultSettings().DamagedBookFine, damaged.Fine)
	assert.Equal(t, entity.CopyDamaged, h.copies(t, book.ID)[0].Status)

	_, err = h.circulation.MarkLost(ctx, u, record.ID)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidRecordState)
	h.assertInvariants(t)
}

func TestScenarioD_LockBlocksMutations(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.member(t, "u")
	book := h.book(t, "Dune", 2)

	record, err := h.circulation.Borrow(ctx, u, u.UserID, book.ID)
	require.NoError(t, err)

	_, err = h.accounts.LockUser(ctx, h.admin, u.UserID)
	require.NoError(t, err)

	_, err = h.circulation.Borrow(ctx, u, u.UserID, book.ID)
	assert.ErrorIs(t, err, domainerrors.ErrAccountLocked)
	_, err = h.circulation.Return(ctx, u, record.ID)
	assert.ErrorIs(t, err, domainerrors.ErrAccountLocked)
	_, err = h.circulation.Renew(ctx, u, record.ID)
	assert.ErrorIs(t, err, domainerrors.ErrAccountLocked)
	_, err = h.circulation.MarkLost(ctx, u, record.ID)
	assert.ErrorIs(t, err, domainerrors.ErrAccountLocked)
	_, err = h.circulation.MarkDamaged(ctx, u, record.ID)
	assert.ErrorIs(t, err, domainerrors.ErrAccountLocked)

	// staff acting on the locked member's loan is guarded too
	_, err = h.circulation.Return(ctx, h.admin, record.ID)
	assert.ErrorIs(t, err, domainerrors.ErrAccountLocked)

	_, err = h.accounts.UnlockUser(ctx, h.admin, u.UserID)
	require.NoError(t, err)

	_, err = h.circulation.Renew(ctx, u, record.ID)
	require.NoError(t, err)
	_, err = h.circulation.Return(ctx, u, record.ID)
	require.NoError(t, err)
	_, err = h.circulation.Borrow(ctx, u, u.UserID, book.ID)
	require.NoError(t, err)
	h.assertInvariants(t)
}

func TestMarkLost_StaffWriteOffOnLockedMember(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.member(t, "u")
	book := h.book(t, "Dune", 2)

	first, err := h.circulation.Borrow(ctx, u, u.UserID, book.ID)
	require.NoError(t, err)
	second, err := h.circulation.Borrow(ctx, u, u.UserID, book.ID)
	require.NoError(t, err)
	_, err = h.accounts.LockUser(ctx, h.admin, u.UserID)
	require.NoError(t, err)

	// the locked member still cannot act on their own loans
	_, err = h.circulation.MarkLost(ctx, u, first.ID)
	assert.ErrorIs(t, err, domainerrors.ErrAccountLocked)

	// staff renewals and returns for a locked member stay blocked
	_, err = h.circulation.Renew(ctx, h.admin, first.ID)
	assert.ErrorIs(t, err, domainerrors.ErrAccountLocked)

	lost, err := h.circulation.MarkLost(ctx, h.admin, first.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RecordLost, lost.Status)
	assert.Equal(t, entity.DefaultSettings().LostBookFine, lost.Fine)

	damaged, err := h.circulation.MarkDamaged(ctx, h.admin, second.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RecordDamaged, damaged.Status)

	after := h.user(t, u.UserID)
	assert.Equal(t, 0, after.CurrentBorrowed)
	assert.Equal(t, entity.DefaultSettings().LostBookFine+entity.DefaultSettings().DamagedBookFine, after.TotalFines)
	h.assertInvariants(t)
}

func TestForceReturn_SkipsAccountGuard(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.member(t, "u")
	book := h.book(t, "Dune", 1)

	record, err := h.circulation.Borrow(ctx, u, u.UserID, book.ID)
	require.NoError(t, err)
	_, err = h.accounts.LockUser(ctx, h.admin, u.UserID)
	require.NoError(t, err)

	_, err = h.circulation.ForceReturn(ctx, u, record.ID)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	h.clock.Set(record.DueDate.AddDate(0, 0, 2))
	returned, err := h.circulation.ForceReturn(ctx, h.admin, record.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RecordReturned, returned.Status)
	assert.Equal(t, 2*entity.DefaultSettings().OverdueFinePerDay, returned.Fine)

	_, err = h.circulation.ForceReturn(ctx, h.admin, record.ID)
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyReturned)
	h.assertInvariants(t)
}

func TestRenew_ExtendsDueDateRepeatedly(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.member(t, "u")
	book := h.book(t, "Dune", 1)
	h.setPolicy(t, entity.SettingsUpdate{RenewalDays: intPtr(7)})

	record, err := h.circulation.Borrow(ctx, u, u.UserID, book.ID)
	require.NoError(t, err)

	var renewed *entity.BorrowRecord
	for i := 0; i < 3; i++ {
		renewed, err = h.circulation.Renew(ctx, u, record.ID)
		require.NoError(t, err)
	}

	assert.True(t, renewed.DueDate.Equal(record.DueDate.AddDate(0, 0, 21)))
	assert.Equal(t, 3, renewed.RenewCount)
	assert.Equal(t, entity.RecordBorrowing, renewed.Status)
	assert.Zero(t, renewed.Fine)
}

func TestScenarioE_RenewReturnedRecord(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.member(t, "u")
	book := h.book(t, "Dune", 1)

	record, err := h.circulation.Borrow(ctx, u, u.UserID, book.ID)
	require.NoError(t, err)
	returned, err := h.circulation.Return(ctx, u, record.ID)
	require.NoError(t, err)

	_, err = h.circulation.Renew(ctx, u, record.ID)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidRecordState)

	records, err := h.circulation.ListUserRecords(ctx, u, u.UserID, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, returned.DueDate.Equal(records[0].DueDate))
}

func TestListRecords_Filters(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.member(t, "alice")
	bob := h.member(t, "bob")
	book := h.book(t, "Dune", 2)

	first, err := h.circulation.Borrow(ctx, alice, alice.UserID, book.ID)
	require.NoError(t, err)
	_, err = h.circulation.Borrow(ctx, bob, bob.UserID, book.ID)
	require.NoError(t, err)
	_, err = h.circulation.Return(ctx, alice, first.ID)
	require.NoError(t, err)

	borrowing := entity.RecordBorrowing
	open, err := h.circulation.ListRecords(ctx, entity.RecordFilter{Status: &borrowing})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, bob.UserID, open[0].UserID)

	_, err = h.circulation.ListUserRecords(ctx, alice, bob.UserID, nil)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	h.clock.Set(testStart.AddDate(0, 1, 0))
	overdue, err := h.circulation.ListRecords(ctx, entity.RecordFilter{OverdueOnly: true})
	require.NoError(t, err)
	assert.Len(t, overdue, 1)
}
