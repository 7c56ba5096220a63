package correlation

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/xKoRx/openapi-proxy/sdk/openapi"
)

// ErrAlreadyResolved se devuelve al intentar resolver dos veces una Completion.
var ErrAlreadyResolved = errors.New("completion already resolved")

// Completion resultado de asignación única de una petición pendiente.
type Completion struct {
	done     chan struct{}
	resolved atomic.Bool
	msg      *openapi.Message
	err      error
}

func newCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

func (c *Completion) resolve(msg *openapi.Message, err error) error {
	if !c.resolved.CompareAndSwap(false, true) {
		return ErrAlreadyResolved
	}
	c.msg = msg
	c.err = err
	close(c.done)
	return nil
}

// Done se cierra al resolverse.
func (c *Completion) Done() <-chan struct{} {
	return c.done
}

// Result devuelve el resultado. Sólo es válido tras Done.
func (c *Completion) Result() (*openapi.Message, error) {
	<-c.done
	return c.msg, c.err
}

// Wait bloquea hasta la resolución o hasta que ctx termine. Abandonar la
// espera no cancela la petición: la entrada sigue en la tabla hasta que
// llegue la respuesta, venza el plazo o caiga la conexión.
func (c *Completion) Wait(ctx context.Context) (*openapi.Message, error) {
	select {
	case <-c.done:
		return c.msg, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
