package generation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prism-docs-api/internal/domain/entity"
)

func TestBuildRegistryCoalesces(t *testing.T) {
	registry := NewBuildRegistry()

	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	build := func() (*entity.CacheEntry, error) {
		calls.Add(1)
		close(started)
		<-release
		return &entity.CacheEntry{Fingerprint: "fp", ArtifactID: "art_1"}, nil
	}

	var wg sync.WaitGroup
	results := make([]*BuildResult, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			if idx == 1 {
				// 第二个请求等首个进入构建后再挂上去
				<-started
			}
			results[idx], errs[idx] = registry.Do(context.Background(), "fp", build)
		}(i)
	}

	<-started
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "art_1", results[0].Entry.ArtifactID)
	assert.Equal(t, "art_1", results[1].Entry.ArtifactID)
	// singleflight 对共享结果的所有调用方都置 Shared
	assert.True(t, results[0].Shared)
	assert.True(t, results[1].Shared)
}

func TestBuildRegistrySoloNotShared(t *testing.T) {
	registry := NewBuildRegistry()

	result, err := registry.Do(context.Background(), "fp", func() (*entity.CacheEntry, error) {
		return &entity.CacheEntry{}, nil
	})
	require.NoError(t, err)
	assert.False(t, result.Shared)
}

func TestBuildRegistryWaiterCancel(t *testing.T) {
	registry := NewBuildRegistry()

	started := make(chan struct{})
	release := make(chan struct{})
	defer close(release)

	go func() {
		registry.Do(context.Background(), "fp", func() (*entity.CacheEntry, error) {
			close(started)
			<-release
			return &entity.CacheEntry{}, nil
		})
	}()
	<-started

	// 等待者取消只影响自己，不影响在建流水线
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := registry.Do(ctx, "fp", func() (*entity.CacheEntry, error) {
		t.Fatal("waiter must not start a second build")
		return nil, nil
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestBuildRegistryPropagatesError(t *testing.T) {
	registry := NewBuildRegistry()

	wantErr := errors.New("build blew up")
	_, err := registry.Do(context.Background(), "fp", func() (*entity.CacheEntry, error) {
		return nil, wantErr
	})
	require.ErrorIs(t, err, wantErr)
}

func TestBuildRegistryForget(t *testing.T) {
	registry := NewBuildRegistry()

	var calls atomic.Int32
	build := func() (*entity.CacheEntry, error) {
		calls.Add(1)
		return &entity.CacheEntry{}, nil
	}

	_, err := registry.Do(context.Background(), "fp", build)
	require.NoError(t, err)
	registry.Forget("fp")
	_, err = registry.Do(context.Background(), "fp", build)
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
}
