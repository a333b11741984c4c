package quit

import (
	"context"
	"github.com/allape/gogger"
	"io"
)

var l = gogger.New("quit")

// Trigger is an outside source of a termination request,
// like an OS signal or a hardware button.
type Trigger interface {
	io.Closer
	Open() error
	Name() string
	// Done is closed once the trigger fired. It never fires again.
	Done() <-chan struct{}
}

// Watch returns a context that is canceled when parent is done or any trigger fires.
// Triggers must be opened by the caller.
func Watch(parent context.Context, triggers ...Trigger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	for _, t := range triggers {
		go func(t Trigger) {
			select {
			case <-t.Done():
				l.Info().Println("quit requested by", t.Name())
				cancel()
			case <-ctx.Done():
			}
		}(t)
	}
	return ctx, cancel
}
