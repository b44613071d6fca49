package timing

import (
	"log"

	"github.com/emulab/tempo/hooking"
)

// FireLogger is a hook that writes every dispatched sync point to a logger.
type FireLogger struct {
	Logger *log.Logger
}

// NewFireLogger returns a hook that logs fired sync points.
func NewFireLogger(logger *log.Logger) *FireLogger {
	return &FireLogger{Logger: logger}
}

// Func writes the fired sync point into the logger.
func (h *FireLogger) Func(ctx hooking.HookCtx) {
	if ctx.Pos != HookPosBeforeFire {
		return
	}

	fired, ok := ctx.Item.(FiredSyncPoint)
	if !ok {
		return
	}

	h.Logger.Printf("%s, tag %d -> %s",
		fired.Time, fired.Tag, fired.Owner.Name())
}
