package isolation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tetratelabs/wazero/api"

	"github.com/lion-wasm/lion/internal/application/manager"
	"github.com/lion-wasm/lion/internal/domain/ids"
	"github.com/lion-wasm/lion/internal/domain/plugin"
)

// Instance is the handle a Backend hands the Manager: one live, long-lived
// wazero module instance plus the usage counters accumulated across every
// Call made against it. The Manager treats this as an opaque
// manager.InstanceHandle.
type Instance struct {
	mu     sync.Mutex
	id     ids.PluginID
	module api.Module
	limits plugin.ResourceLimits
	usage  plugin.ResourceUsage
}

// Call satisfies manager.Isolation: invoke an exported guest function,
// bounding it by the instance's MaxWallTime and accounting CPU time and
// memory growth into ResourceUsage. wazero has no native fuel metering, so
// MaxCPUFuel is tracked as elapsed call microseconds rather than an actual
// instruction count — an approximation, not a true instruction budget (see
// DESIGN.md).
func (b *Backend) Call(ctx context.Context, handle manager.InstanceHandle, function string, args []byte) ([]byte, error) {
	inst, ok := handle.(*Instance)
	if !ok || inst == nil {
		return nil, fmt.Errorf("isolation: invalid instance handle")
	}

	inst.mu.Lock()
	defer inst.mu.Unlock()

	callCtx := ids.WithPluginID(ctx, inst.id)
	if inst.limits.MaxWallTime > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(callCtx, inst.limits.MaxWallTime)
		defer cancel()
	}

	fn := inst.module.ExportedFunction(function)
	if fn == nil {
		return nil, &MissingExportError{Function: function}
	}

	argsPtr, err := writeArgs(callCtx, inst.module, args)
	if err != nil {
		return nil, &TrapError{Function: function, Cause: err}
	}

	start := time.Now()
	results, callErr := fn.Call(callCtx, uint64(argsPtr), uint64(len(args)))
	elapsed := time.Since(start)

	inst.usage.ExecutionTime += elapsed
	inst.usage.CPUFuelConsumed += uint64(elapsed.Microseconds())
	inst.usage.MessagesProcessed++
	if mem := inst.module.Memory(); mem != nil {
		size := uint64(mem.Size())
		inst.usage.MemoryBytes = size
		if size > inst.usage.PeakMemoryBytes {
			inst.usage.PeakMemoryBytes = size
		}
	}

	if callErr != nil {
		if callCtx.Err() != nil {
			return nil, &WallTimeExceededError{Function: function}
		}
		return nil, &TrapError{Function: function, Cause: callErr}
	}
	if inst.limits.MaxMemoryBytes > 0 && inst.usage.MemoryBytes > inst.limits.MaxMemoryBytes {
		return nil, &TrapError{Function: function, Cause: fmt.Errorf("memory usage %d bytes exceeds limit %d", inst.usage.MemoryBytes, inst.limits.MaxMemoryBytes)}
	}
	if len(results) == 0 {
		return nil, nil
	}
	return readResult(callCtx, inst.module, results[0])
}

// Usage satisfies manager.Isolation: a snapshot of the instance's
// accumulated accounting, taken under the same lock Call updates it with.
func (b *Backend) Usage(handle manager.InstanceHandle) plugin.ResourceUsage {
	inst, ok := handle.(*Instance)
	if !ok || inst == nil {
		return plugin.ResourceUsage{}
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.usage
}

// Release satisfies manager.Isolation: close the guest instance. The
// compiled module stays cached in the Backend for a future Instantiate of
// the same bytes.
func (b *Backend) Release(ctx context.Context, handle manager.InstanceHandle) error {
	inst, ok := handle.(*Instance)
	if !ok || inst == nil {
		return nil
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.module.Close(ctx)
}
