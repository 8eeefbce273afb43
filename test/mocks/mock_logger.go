package mocks

// MockLogger is a no-op logger for tests.
type MockLogger struct{}

func (m *MockLogger) Debug(format string, args ...any) {}
func (m *MockLogger) Info(format string, args ...any)  {}
func (m *MockLogger) Warn(format string, args ...any)  {}
func (m *MockLogger) Error(format string, args ...any) {}
func (m *MockLogger) Fatal(format string, args ...any) {}
