package circuitbreaker

// ExecuteTyped is a type-safe generic wrapper around Breaker.Execute.
// It eliminates the need for type assertions on the return value.
//
// Usage:
//
//	resp, err := circuitbreaker.ExecuteTyped(b, func() (*types.InvokeResponse, error) {
//	    return client.Invoke(ctx, tool, args, state, sessionID)
//	})
func ExecuteTyped[T any](b *Breaker, fn func() (T, error)) (T, error) {
	result, err := b.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}
