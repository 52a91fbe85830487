package readiness

import "context"

// MockChecker implements Checker for testing
type MockChecker struct {
	// WaitForOpenFunc allows customizing the behavior of WaitForOpen
	WaitForOpenFunc func(ctx context.Context, ip string) bool
	// Calls records every ip that was probed
	Calls []string
}

var _ Checker = (*MockChecker)(nil)

// WaitForOpen implements Checker.WaitForOpen
func (m *MockChecker) WaitForOpen(ctx context.Context, ip string) bool {
	m.Calls = append(m.Calls, ip)
	if m.WaitForOpenFunc != nil {
		return m.WaitForOpenFunc(ctx, ip)
	}
	return true // By default, pretend the host is immediately reachable
}
