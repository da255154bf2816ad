package llm

import (
	"context"
	"sync"
)

// FakeClient replays scripted responses in order and records every request.
// Once the script is exhausted the last entry is repeated.
type FakeClient struct {
	mu       sync.Mutex
	script   []FakeResponse
	requests []Request
}

type FakeResponse struct {
	Text string
	Err  error
}

func NewFakeClient(script ...FakeResponse) *FakeClient {
	return &FakeClient{script: script}
}

func (f *FakeClient) Name() string { return "fake" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) Complete(_ context.Context, req Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if len(f.script) == 0 {
		return "", ErrEmptyCompletion
	}
	i := len(f.requests) - 1
	if i >= len(f.script) {
		i = len(f.script) - 1
	}
	r := f.script[i]
	return r.Text, r.Err
}

// Requests returns a copy of the requests seen so far.
func (f *FakeClient) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.requests...)
}
