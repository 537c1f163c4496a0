package clipboard_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/fileurl/internal/clipboard"
)

func TestMemory_RecordsLastWrite(t *testing.T) {
	t.Parallel()

	var mem clipboard.Memory

	assert.NoError(t, mem.WriteText("first"))
	assert.NoError(t, mem.WriteText("second"))

	assert.Equal(t, "second", mem.Text())
	assert.Equal(t, 2, mem.Writes())
}

func TestMemory_ConcurrentWrites(t *testing.T) {
	t.Parallel()

	var (
		mem clipboard.Memory
		wg  sync.WaitGroup
	)

	for range 16 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_ = mem.WriteText("x")
		}()
	}

	wg.Wait()

	assert.Equal(t, 16, mem.Writes())
}

func TestSystem_ImplementsWriter(t *testing.T) {
	t.Parallel()

	var w clipboard.Writer = clipboard.NewSystem()
	assert.NotNil(t, w)
}
