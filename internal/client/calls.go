package client

import (
	"context"

	"circulation/internal/domain/entity"
	"circulation/internal/protocol"
)

// Login authenticates and binds the session.
func (s *Session) Login(ctx context.Context, username, password string) (*protocol.SessionPayload, error) {
	var out protocol.SessionPayload
	if err := s.Call(ctx, &protocol.LoginRequest{Username: username, Password: password}, &out); err != nil {
		return nil, err
	}
	s.remember(&out)

	return &out, nil
}

// ResumeSession binds a fresh connection with a token from an earlier login.
func (s *Session) ResumeSession(ctx context.Context, token string) (*protocol.SessionPayload, error) {
	var out protocol.SessionPayload
	if err := s.Call(ctx, &protocol.ResumeSessionRequest{SessionToken: token}, &out); err != nil {
		return nil, err
	}
	s.remember(&out)

	return &out, nil
}

// Logout unbinds the session; the connection stays open.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.Call(ctx, &protocol.LogoutRequest{}, nil); err != nil {
		return err
	}

	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.mu.Unlock()

	return nil
}

// CheckStatus returns the bound account as the server currently sees it.
func (s *Session) CheckStatus(ctx context.Context) (*entity.User, error) {
	var user entity.User
	if err := s.Call(ctx, &protocol.CheckUserStatusRequest{}, &user); err != nil {
		return nil, err
	}

	return &user, nil
}

// Borrow lends a copy of bookID to the bound account.
func (s *Session) Borrow(ctx context.Context, bookID int64) (*entity.BorrowRecord, error) {
	return s.recordCall(ctx, &protocol.BorrowBookRequest{BookID: bookID})
}

// Return closes the loan recordID.
func (s *Session) Return(ctx context.Context, recordID int64) (*entity.BorrowRecord, error) {
	return s.recordCall(ctx, &protocol.ReturnBookRequest{RecordID: recordID})
}

// Renew extends the loan recordID.
func (s *Session) Renew(ctx context.Context, recordID int64) (*entity.BorrowRecord, error) {
	return s.recordCall(ctx, &protocol.RenewBookRequest{RecordID: recordID})
}

// Records lists the bound account's loans, optionally by status.
func (s *Session) Records(ctx context.Context, status string) ([]*entity.BorrowRecord, error) {
	var records []*entity.BorrowRecord
	if err := s.Call(ctx, &protocol.GetUserBorrowRecordsRequest{Status: status}, &records); err != nil {
		return nil, err
	}

	return records, nil
}

// Settings returns the circulation policy.
func (s *Session) Settings(ctx context.Context) (*entity.Settings, error) {
	var settings entity.Settings
	if err := s.Call(ctx, &protocol.GetSettingsRequest{}, &settings); err != nil {
		return nil, err
	}

	return &settings, nil
}

func (s *Session) recordCall(ctx context.Context, req protocol.Request) (*entity.BorrowRecord, error) {
	var record entity.BorrowRecord
	if err := s.Call(ctx, req, &record); err != nil {
		return nil, err
	}

	return &record, nil
}

func (s *Session) remember(out *protocol.SessionPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = out.User
	s.token = out.SessionToken
}
