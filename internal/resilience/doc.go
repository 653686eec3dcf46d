// Package resilience groups the fault-tolerance helpers used on the scan path.
//
//   - bounded: run one outside call under its own deadline with a fallback value
//   - circuitbreaker: stop calling a provider that keeps failing
//   - retry: exponential backoff for transient errors
//
// A typical judge call nests them, outermost first:
//
//	verdict := bounded.Call(ctx, 6*time.Second, func(ctx context.Context) (string, error) {
//	    var out string
//	    err := retry.WithBackoff(ctx, retry.JudgeConfig(), func() error {
//	        res, err := cb.Execute(func() (interface{}, error) { return client.Complete(ctx, prompt) })
//	        if err != nil {
//	            return err
//	        }
//	        out = res.(string)
//	        return nil
//	    })
//	    return out, err
//	}, bounded.Value(""))
package resilience
