package quota

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/LJTian/NewsSpectrum/internal/model"
)

func TestAdmitSourceCap(t *testing.T) {
	tr := NewTracker(Limits{DefaultSourceCap: 2, BiasCap: 10})

	assert.True(t, tr.Admit("bbc", model.BiasCentrist))
	assert.True(t, tr.Admit("bbc", model.BiasCentrist))
	assert.False(t, tr.Admit("bbc", model.BiasCentrist))
	assert.True(t, tr.Admit("ap", model.BiasCentrist))

	s := tr.Snapshot()
	assert.Equal(t, 2, s.BySource["bbc"])
	assert.Equal(t, 3, s.ByBias[model.BiasCentrist])
}

func TestAdmitOverrideCap(t *testing.T) {
	tr := NewTracker(DefaultLimits(map[string]int{"deadspin": 1}))

	assert.True(t, tr.Admit("deadspin", model.BiasCentrist))
	assert.False(t, tr.Admit("deadspin", model.BiasCentrist))
	for i := 0; i < DefaultSourceCap; i++ {
		assert.True(t, tr.Admit("espn", model.BiasCentrist))
	}
	assert.False(t, tr.Admit("espn", model.BiasCentrist))
}

func TestAdmitBiasCap(t *testing.T) {
	tr := NewTracker(Limits{DefaultSourceCap: 5, BiasCap: 3})

	assert.True(t, tr.Admit("a", model.BiasAlternativeRight))
	assert.True(t, tr.Admit("b", model.BiasAlternativeRight))
	assert.True(t, tr.Admit("c", model.BiasAlternativeRight))
	assert.False(t, tr.Admit("d", model.BiasAlternativeRight))
	// 被拒绝时不计数
	assert.Equal(t, 0, tr.Snapshot().BySource["d"])
	assert.True(t, tr.Admit("d", model.BiasCentrist))
}

func TestReset(t *testing.T) {
	tr := NewTracker(Limits{DefaultSourceCap: 1, BiasCap: 1})
	assert.True(t, tr.Admit("a", model.BiasUnclear))
	assert.False(t, tr.Admit("a", model.BiasUnclear))

	tr.Reset()
	assert.True(t, tr.Admit("a", model.BiasUnclear))
}

func TestAdmitConcurrentNeverExceedsCaps(t *testing.T) {
	tr := NewTracker(Limits{DefaultSourceCap: 30, BiasCap: 100})

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	for s := 0; s < 10; s++ {
		id := fmt.Sprintf("src-%d", s)
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if tr.Admit(id, model.BiasCentrist) {
					mu.Lock()
					admitted++
					mu.Unlock()
				}
			}()
		}
	}
	wg.Wait()

	assert.Equal(t, 100, admitted)
	snap := tr.Snapshot()
	assert.Equal(t, 100, snap.ByBias[model.BiasCentrist])
	for id, n := range snap.BySource {
		assert.LessOrEqual(t, n, 30, id)
	}
}
