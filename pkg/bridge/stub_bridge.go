package bridge

import (
	"context"
	"sync"
)

// StubBridge records commands for tests. Err, when set, is returned by every
// command.
type StubBridge struct {
	mu  sync.Mutex
	Err error

	Created   []CreateEventRequest
	Extended  []ExtendedCall
	Ended     []EventRef
	CheckedIn []EventRef
	Searches  []SearchRequest
}

type ExtendedCall struct {
	Ref     EventRef
	Minutes int
}

func NewStubBridge() *StubBridge {
	return &StubBridge{}
}

func (s *StubBridge) CreateEvent(ctx context.Context, req CreateEventRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Created = append(s.Created, req)
	return nil
}

func (s *StubBridge) ExtendEvent(ctx context.Context, ref EventRef, minutes int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Extended = append(s.Extended, ExtendedCall{Ref: ref, Minutes: minutes})
	return nil
}

func (s *StubBridge) EndEvent(ctx context.Context, ref EventRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Ended = append(s.Ended, ref)
	return nil
}

func (s *StubBridge) CheckInEvent(ctx context.Context, ref EventRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.CheckedIn = append(s.CheckedIn, ref)
	return nil
}

func (s *StubBridge) RoomSearch(ctx context.Context, req SearchRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Searches = append(s.Searches, req)
	return nil
}
