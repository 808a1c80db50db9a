package handlers_test

import (
	"context"
	"errors"

	"github.com/serroba/record-service-go/internal/record"
)

var errMock = errors.New("mock error")

// mockStore is a test double for record.Repository that can be configured to return errors.
type mockStore struct {
	getErr  error
	setErr  error
	created bool
	setName string
}

func (m *mockStore) Get(_ context.Context, name string) (*record.Record, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}

	return &record.Record{ID: 1, Name: name}, nil
}

func (m *mockStore) Set(_ context.Context, name string) (*record.Record, bool, error) {
	m.setName = name

	if m.setErr != nil {
		return nil, false, m.setErr
	}

	return &record.Record{ID: 1, Name: name}, m.created, nil
}
