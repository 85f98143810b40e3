package observability

import (
	"fmt"
	"runtime/debug"
)

// MustRecover converts a recovered value to an error carrying the stack, nil when
// nothing panicked
//
//	defer func() {
//	    if r := observability.MustRecover(recover()); r != nil {
//	        err = r
//	    }
//	}()
func MustRecover(r interface{}) error {
	if r != nil {
		return fmt.Errorf("panic: %v\n%s", r, debug.Stack())
	}
	return nil
}
