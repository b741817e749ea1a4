// Copyright 2026 The Shoutbox Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"context"
	"sync"
)

// fakeTransport is an in-memory Transport. Each operation records its
// request and delegates to the corresponding func when set, otherwise
// returning an empty payload. Refresh calls additionally signal the
// refreshed channel so tests can synchronize with the widget's run
// loop.
type fakeTransport struct {
	mu sync.Mutex

	refreshFunc func(RefreshRequest) (*SyncPayload, error)
	addFunc     func(AddRequest) (*SyncPayload, error)
	editFunc    func(EditRequest) (*SyncPayload, error)
	deleteFunc  func(DeleteRequest) (*SyncPayload, error)
	whoisFunc   func() (*SyncPayload, error)

	refreshCalls []RefreshRequest
	addCalls     []AddRequest
	editCalls    []EditRequest
	deleteCalls  []DeleteRequest
	whoisCount   int

	refreshed chan struct{}
}

var _ Transport = (*fakeTransport)(nil)

func newFakeTransport() *fakeTransport {
	return &fakeTransport{refreshed: make(chan struct{}, 16)}
}

func (f *fakeTransport) Refresh(ctx context.Context, request RefreshRequest) (*SyncPayload, error) {
	f.mu.Lock()
	f.refreshCalls = append(f.refreshCalls, request)
	fn := f.refreshFunc
	f.mu.Unlock()

	select {
	case f.refreshed <- struct{}{}:
	default:
	}
	if fn != nil {
		return fn(request)
	}
	return &SyncPayload{}, nil
}

func (f *fakeTransport) Add(ctx context.Context, request AddRequest) (*SyncPayload, error) {
	f.mu.Lock()
	f.addCalls = append(f.addCalls, request)
	fn := f.addFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(request)
	}
	return &SyncPayload{}, nil
}

func (f *fakeTransport) Edit(ctx context.Context, request EditRequest) (*SyncPayload, error) {
	f.mu.Lock()
	f.editCalls = append(f.editCalls, request)
	fn := f.editFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(request)
	}
	return &SyncPayload{}, nil
}

func (f *fakeTransport) Delete(ctx context.Context, request DeleteRequest) (*SyncPayload, error) {
	f.mu.Lock()
	f.deleteCalls = append(f.deleteCalls, request)
	fn := f.deleteFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(request)
	}
	return &SyncPayload{}, nil
}

func (f *fakeTransport) Whois(ctx context.Context) (*SyncPayload, error) {
	f.mu.Lock()
	f.whoisCount++
	fn := f.whoisFunc
	f.mu.Unlock()
	if fn != nil {
		return fn()
	}
	return &SyncPayload{}, nil
}

func (f *fakeTransport) refreshCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.refreshCalls)
}

func (f *fakeTransport) whoisCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.whoisCount
}

func (f *fakeTransport) lastRefresh() RefreshRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshCalls[len(f.refreshCalls)-1]
}

func (f *fakeTransport) lastAdd() AddRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addCalls[len(f.addCalls)-1]
}

// recordingNotifier captures every notification for later assertion.
type recordingNotifier struct {
	mu       sync.Mutex
	added    [][]Message
	edited   [][]Message
	deleted  [][]int
	presence []Presence
	statuses []Status
	errors   []error
}

var _ Notifier = (*recordingNotifier)(nil)

func (n *recordingNotifier) NewMessages(messages []Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.added = append(n.added, messages)
}

func (n *recordingNotifier) MessagesEdited(messages []Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.edited = append(n.edited, messages)
}

func (n *recordingNotifier) MessagesDeleted(ids []int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deleted = append(n.deleted, ids)
}

func (n *recordingNotifier) PresenceChanged(presence Presence) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.presence = append(n.presence, presence)
}

func (n *recordingNotifier) StatusChanged(status Status) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.statuses = append(n.statuses, status)
}

func (n *recordingNotifier) Error(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, err)
}

func (n *recordingNotifier) addedBatches() [][]Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.added
}

func (n *recordingNotifier) presenceCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.presence)
}

func (n *recordingNotifier) errorCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.errors)
}

func (n *recordingNotifier) deletedBatches() [][]int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.deleted
}
