package host

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// guestLog is the payload of the log_message host function.
type guestLog struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// logMessage implements the log_message host function. It takes a packed
// ptr+len of a JSON guestLog and returns nothing.
func (e *Executor) logMessage(_ context.Context, m api.Module, stack []uint64) {
	ptr, length := uint32(stack[0]>>32), uint32(stack[0]) //nolint:gosec // G115: packed 32-bit values
	payload, ok := m.Memory().Read(ptr, length)
	if !ok {
		return
	}
	e.writeGuestLog(m.Name(), payload)
}

func (e *Executor) writeGuestLog(guest string, payload []byte) {
	var msg guestLog
	if err := json.Unmarshal(payload, &msg); err != nil {
		e.logger.Info("guest log (raw)", zap.String("guest", guest), zap.ByteString("payload", payload))
		return
	}
	level, err := zapcore.ParseLevel(msg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	e.logger.Log(level, msg.Message, zap.String("guest", guest))
}

func (m *Module) callRaw(ctx context.Context, name string, input []byte) (uint64, error) {
	f := m.module.ExportedFunction(name)
	if f == nil {
		return 0, fmt.Errorf("export %q not found", name)
	}

	var results []uint64
	var err error

	if len(input) == 0 {
		results, err = f.Call(ctx)
	} else {
		allocate := m.module.ExportedFunction("allocate")
		if allocate == nil {
			return 0, fmt.Errorf("guest does not export 'allocate'")
		}
		resAlloc, errAlloc := allocate.Call(ctx, uint64(len(input)))
		if errAlloc != nil {
			return 0, fmt.Errorf("failed to allocate in guest: %w", errAlloc)
		}
		if len(resAlloc) == 0 {
			return 0, fmt.Errorf("allocate returned no results")
		}
		ptr := uint32(resAlloc[0]) //nolint:gosec // G115: WASM32 pointers are always 32-bit
		if !m.module.Memory().Write(ptr, input) {
			return 0, fmt.Errorf("failed to write input to guest memory")
		}
		results, err = f.Call(ctx, uint64(ptr)<<32|uint64(len(input)))
	}

	if err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0], nil
}

func (m *Module) readPacked(packed uint64) ([]byte, error) {
	ptr, length := uint32(packed>>32), uint32(packed) //nolint:gosec // G115: packed 32-bit values
	if ptr == 0 || length == 0 {
		return nil, fmt.Errorf("null response from guest")
	}
	data, ok := m.module.Memory().Read(ptr, length)
	if !ok {
		return nil, fmt.Errorf("failed to read response from memory")
	}
	out := make([]byte, length)
	copy(out, data)
	return out, nil
}
