package app

import "service-dispatch/internal/logx"

// closer releases an external resource on shutdown. A nil close is skipped.
type closer struct {
	name  string
	close func() error
}

func closeAll(logger logx.Logger, closers []closer) {
	for _, c := range closers {
		if c.close == nil {
			continue
		}
		if err := c.close(); err != nil {
			logger.Error("resource close error", logx.String("resource", c.name), logx.Err(err))
		}
	}
}
