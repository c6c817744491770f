package logx

type nopLogger struct{}

var nop Logger = nopLogger{}

// Nop returns a Logger that drops everything.
func Nop() Logger { return nop }

func (nopLogger) Debug(string, ...Field) {}
func (nopLogger) Info(string, ...Field)  {}
func (nopLogger) Warn(string, ...Field)  {}
func (nopLogger) Error(string, ...Field) {}
func (nopLogger) With(...Field) Logger   { return nop }
func (nopLogger) Sync() error            { return nil }
