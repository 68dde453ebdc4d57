package services

import (
	"context"
	"sync"

	"github.com/peerawits/reqbridge/backend"
	"github.com/peerawits/reqbridge/models"
)

// stubCaller answers backend calls per action and records what it saw.
type stubCaller struct {
	mu        sync.Mutex
	responses map[string]*backend.Response
	errors    map[string]error
	calls     []stubCall
}

type stubCall struct {
	method  backend.Method
	action  string
	payload map[string]interface{}
}

func newStubCaller() *stubCaller {
	return &stubCaller{
		responses: make(map[string]*backend.Response),
		errors:    make(map[string]error),
	}
}

func (c *stubCaller) respond(action string, data map[string]interface{}) {
	c.responses[action] = &backend.Response{Status: backend.StatusSuccess, Data: data}
}

func (c *stubCaller) fail(action string, err error) {
	c.errors[action] = err
}

func (c *stubCaller) Call(_ context.Context, method backend.Method, action string, payload map[string]interface{}) (*backend.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, stubCall{method: method, action: action, payload: payload})
	if err, ok := c.errors[action]; ok {
		return nil, err
	}
	if resp, ok := c.responses[action]; ok {
		return resp, nil
	}
	return &backend.Response{Status: backend.StatusSuccess, Data: map[string]interface{}{}}, nil
}

func (c *stubCaller) callsFor(action string) []stubCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []stubCall
	for _, call := range c.calls {
		if call.action == action {
			out = append(out, call)
		}
	}
	return out
}

// memoryAudit collects audit rows in memory.
type memoryAudit struct {
	mu          sync.Mutex
	syncRuns    []*models.SyncRun
	submissions []*models.Submission
}

func (a *memoryAudit) RecordSyncRun(_ context.Context, run *models.SyncRun) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.syncRuns = append(a.syncRuns, run)
	return nil
}

func (a *memoryAudit) RecordSubmission(_ context.Context, sub *models.Submission) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.submissions = append(a.submissions, sub)
	return nil
}
