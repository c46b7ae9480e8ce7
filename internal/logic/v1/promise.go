package v1

import "sync"

// Promise is the settled-later outcome of a FetchAsync call. Continuations
// registered with Then and Catch run in order once the previous stage settles.
type Promise struct {
	done chan struct{}
	once sync.Once
	res  *Relayed
	err  error
}

func newPromise() *Promise {
	return &Promise{done: make(chan struct{})}
}

func (p *Promise) settle(res *Relayed, err error) {
	p.once.Do(func() {
		p.res, p.err = res, err
		close(p.done)
	})
}

// Then runs fn with the result if p fulfils. The returned Promise settles
// with p's outcome after fn returns.
func (p *Promise) Then(fn func(*Relayed)) *Promise {
	next := newPromise()
	go func() {
		<-p.done
		if p.err == nil {
			fn(p.res)
		}
		next.settle(p.res, p.err)
	}()
	return next
}

// Catch runs fn with the error if p rejects. The returned Promise settles
// with p's outcome after fn returns.
func (p *Promise) Catch(fn func(error)) *Promise {
	next := newPromise()
	go func() {
		<-p.done
		if p.err != nil {
			fn(p.err)
		}
		next.settle(p.res, p.err)
	}()
	return next
}

// Done is closed once p has settled.
func (p *Promise) Done() <-chan struct{} {
	return p.done
}

// Await blocks until p settles and returns its outcome.
func (p *Promise) Await() (*Relayed, error) {
	<-p.done
	return p.res, p.err
}
