package irq

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFree_RestoresPreviousState(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
	}{
		{name: "enabled before", enabled: true},
		{name: "disabled before", enabled: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cpu := NewCPU()
			if tt.enabled {
				cpu.Enable()
			}

			got := Free(cpu, func() int {
				assert.False(t, cpu.Enabled(), "interrupts must be masked inside the section")
				return 42
			})

			assert.Equal(t, 42, got)
			assert.Equal(t, tt.enabled, cpu.Enabled())
		})
	}
}

func TestFreeErr_RestoresOnError(t *testing.T) {
	cpu := NewCPU()
	cpu.Enable()

	errBody := errors.New("body failed")
	err := FreeErr(cpu, func() error {
		return errBody
	})

	assert.ErrorIs(t, err, errBody)
	assert.True(t, cpu.Enabled())
}

func TestFree_RestoresOnPanic(t *testing.T) {
	cpu := NewCPU()
	cpu.Enable()

	assert.Panics(t, func() {
		Do(cpu, func() {
			panic("boom")
		})
	})
	assert.True(t, cpu.Enabled())
}

func TestFree_Nested(t *testing.T) {
	cpu := NewCPU()
	cpu.Enable()

	Do(cpu, func() {
		Do(cpu, func() {
			assert.False(t, cpu.Enabled())
		})
		// The inner section restores "disabled", not "enabled".
		assert.False(t, cpu.Enabled())
	})
	assert.True(t, cpu.Enabled())
}

func TestCPU_RaiseWhileEnabledRunsHandler(t *testing.T) {
	cpu := NewCPU()
	cpu.Enable()

	var ran bool
	delivered := cpu.Raise(func() {
		ran = true
		assert.False(t, cpu.Enabled(), "handler runs with interrupts masked")
	})

	assert.True(t, delivered)
	assert.True(t, ran)
	assert.True(t, cpu.Enabled())
	assert.Equal(t, uint64(1), cpu.Served())
}

func TestCPU_RaiseWhileMaskedIsLatched(t *testing.T) {
	cpu := NewCPU()

	count := 0
	handler := func() { count++ }

	assert.False(t, cpu.Raise(handler))
	assert.Equal(t, 0, count, "no delivery before interrupts are enabled")

	cpu.Enable()
	assert.Equal(t, 1, count, "latched request is delivered on enable")
	assert.Equal(t, uint64(0), cpu.Lost())
}

func TestCPU_SecondRequestWhileMaskedIsLost(t *testing.T) {
	cpu := NewCPU()
	cpu.Enable()

	count := 0
	handler := func() { count++ }

	Do(cpu, func() {
		cpu.Raise(handler)
		cpu.Raise(handler)
	})

	assert.Equal(t, 1, count)
	assert.Equal(t, uint64(1), cpu.Lost())
}

func TestCPU_HandlerExcludedFromCriticalSection(t *testing.T) {
	cpu := NewCPU()
	cpu.Enable()

	var (
		shared  int
		wg      sync.WaitGroup
		inside  = make(chan struct{})
		release = make(chan struct{})
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		Do(cpu, func() {
			close(inside)
			<-release
			shared = 1
		})
	}()

	<-inside
	raised := make(chan bool, 1)
	go func() {
		raised <- cpu.Raise(func() {
			shared = 2
		})
	}()

	// The request must be latched, not serviced, while the section is open.
	select {
	case delivered := <-raised:
		assert.False(t, delivered)
	case <-time.After(time.Second):
		t.Fatal("Raise blocked instead of latching")
	}

	close(release)
	wg.Wait()

	require.Equal(t, uint64(1), cpu.Served())
	assert.Equal(t, 2, shared, "handler runs after the section, on restore")
}

func TestCPU_DisableWaitsForRunningHandler(t *testing.T) {
	cpu := NewCPU()
	cpu.Enable()

	entered := make(chan struct{})
	finish := make(chan struct{})
	go cpu.Raise(func() {
		close(entered)
		<-finish
	})
	<-entered

	done := make(chan State, 1)
	go func() {
		done <- cpu.Disable()
	}()

	select {
	case <-done:
		t.Fatal("Disable returned while a handler was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(finish)
	select {
	case state := <-done:
		assert.Equal(t, Enabled, state)
		cpu.Restore(state)
	case <-time.After(time.Second):
		t.Fatal("Disable did not return after handler finished")
	}
}
