package chunkstore

import "context"

// Commit resolves when a queued save has been written, or superseded by a
// later snapshot that was written.
type Commit struct {
	done chan struct{}
	err  error
}

func newCommit() *Commit {
	return &Commit{done: make(chan struct{})}
}

func resolvedCommit(err error) *Commit {
	c := newCommit()
	c.resolve(err)
	return c
}

func (c *Commit) resolve(err error) {
	c.err = err
	close(c.done)
}

// Done is closed once the commit has resolved.
func (c *Commit) Done() <-chan struct{} {
	return c.done
}

// Err returns the write outcome. It is only meaningful after Done is closed.
func (c *Commit) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Wait blocks until the commit resolves or ctx ends.
func (c *Commit) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
