package upload

import (
	"context"

	"github.com/charmbracelet/log"
)

// Hooks receives upload lifecycle events.
type Hooks interface {
	// OnBegin is called before a file part is read.
	OnBegin(ctx context.Context, info FileInfo)

	// OnEnd is called after a file part was handled, accepted or not.
	OnEnd(ctx context.Context, info FileInfo)

	// OnError is called when storing a file fails on the server side.
	OnError(ctx context.Context, info FileInfo, err error)

	// OnDelete is called after a file and its versions were removed.
	OnDelete(ctx context.Context, name string)
}

// NoopHooks ignores every event.
type NoopHooks struct{}

func (NoopHooks) OnBegin(context.Context, FileInfo)        {}
func (NoopHooks) OnEnd(context.Context, FileInfo)          {}
func (NoopHooks) OnError(context.Context, FileInfo, error) {}
func (NoopHooks) OnDelete(context.Context, string)         {}

// LogHooks writes events to a logger.
type LogHooks struct {
	Logger *log.Logger
}

func (h LogHooks) OnBegin(_ context.Context, info FileInfo) {
	h.Logger.Debug("upload started", "file", info.OriginalName)
}

func (h LogHooks) OnEnd(_ context.Context, info FileInfo) {
	if info.Error != "" {
		h.Logger.Warn("upload rejected", "file", info.OriginalName, "reason", info.Error)
		return
	}
	h.Logger.Info("upload stored", "file", info.Name, "size", info.Size, "type", info.Type)
}

func (h LogHooks) OnError(_ context.Context, info FileInfo, err error) {
	h.Logger.Error("upload failed", "file", info.OriginalName, "err", err)
}

func (h LogHooks) OnDelete(_ context.Context, name string) {
	h.Logger.Info("upload deleted", "file", name)
}

type chain []Hooks

// Chain fans every event out to hooks in order.
func Chain(hooks ...Hooks) Hooks {
	return chain(hooks)
}

func (c chain) OnBegin(ctx context.Context, info FileInfo) {
	for _, h := range c {
		h.OnBegin(ctx, info)
	}
}

func (c chain) OnEnd(ctx context.Context, info FileInfo) {
	for _, h := range c {
		h.OnEnd(ctx, info)
	}
}

func (c chain) OnError(ctx context.Context, info FileInfo, err error) {
	for _, h := range c {
		h.OnError(ctx, info, err)
	}
}

func (c chain) OnDelete(ctx context.Context, name string) {
	for _, h := range c {
		h.OnDelete(ctx, name)
	}
}
