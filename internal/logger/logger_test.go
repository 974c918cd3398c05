package logger

import "testing"

func TestGetInitializesOnce(t *testing.T) {
	first := Get()
	if first == nil {
		t.Fatal("Get should never return nil")
	}
	Init("production")
	if Get() != first {
		t.Error("Init after first use should not replace the logger")
	}
	if Named("scheduler") == nil {
		t.Error("Named should return a child logger")
	}
	Sync()
}

func TestBuildTestEnvIsNop(t *testing.T) {
	if build("test").Core().Enabled(0) {
		t.Error("test logger should discard every level")
	}
}
