// Package pool provides admission control and object recycling for memstore.
//
// ConnectionPool bounds how many logical connections to the store may be open
// at once. Acquisition blocks up to a caller-supplied timeout and then fails
// with a pool_exhausted error instead of waiting forever:
//
//	p := pool.NewConnectionPool(20)
//	err := p.WithConnection(ctx, 5*time.Second, func(c *pool.Conn) error {
//	    _, err := st.Insert("orders", id, fields)
//	    return err
//	})
//	if errors.IsPoolExhausted(err) {
//	    // back off and retry at the caller
//	}
//
// WithConnection releases the slot on every exit path. Code that calls
// Acquire directly must defer Release immediately.
//
// Pool[T] is a typed wrapper over sync.Pool with allocation statistics, used
// for scratch buffers on hot paths:
//
//	ids := pool.New(
//	    func() *[]string { s := make([]string, 0, 64); return &s },
//	    func(s *[]string) { *s = (*s)[:0] },
//	)
//	buf := ids.Get()
//	defer ids.Put(buf)
package pool
