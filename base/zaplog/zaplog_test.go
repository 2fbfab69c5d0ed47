package zaplog_test

import (
	"testing"

	"go.uber.org/zap"

	"example.com/fuzzyctl/base/zaplog"
)

func TestLogger(t *testing.T) {
	if zaplog.Logger() == nil {
		t.Fatalf("Logger() = nil before SetLogger, want no-op logger")
	}
	l := zap.NewExample()
	zaplog.SetLogger(l)
	defer zaplog.SetLogger(nil)
	if got := zaplog.Logger(); got != l {
		t.Errorf("Logger() = %p, want %p", got, l)
	}
	if got := zaplog.Or(nil); got != l {
		t.Errorf("Or(nil) = %p, want %p", got, l)
	}
	other := zap.NewNop()
	if got := zaplog.Or(other); got != other {
		t.Errorf("Or(other) = %p, want %p", got, other)
	}
}
