package config

import (
	"sync"
	"testing"

	"github.com/spf13/pflag"
)

func TestFlagTracker_Basic(t *testing.T) {
	ft := NewFlagTracker()

	if ft.WasSet("types") {
		t.Error("Expected flag 'types' to not be set initially")
	}

	ft.Set("types")
	if !ft.WasSet("types") {
		t.Error("Expected flag 'types' to be set after Set()")
	}

	if ft.Count() != 1 {
		t.Errorf("Expected count to be 1, got %d", ft.Count())
	}
}

func TestFlagTracker_WithInitialFlags(t *testing.T) {
	initial := map[string]bool{
		"seeds":   true,
		"workers": false,
	}

	ft := NewFlagTrackerWithFlags(initial)
	initial["detector"] = true

	if !ft.WasSet("seeds") {
		t.Error("Expected seeds to be set")
	}
	if ft.WasSet("workers") {
		t.Error("Expected workers to not be set")
	}
	if ft.WasSet("detector") {
		t.Error("Expected tracker to copy the initial map")
	}
}

func TestFlagTracker_FromFlagSet(t *testing.T) {
	fs := pflag.NewFlagSet("evaluate", pflag.ContinueOnError)
	fs.String("normalizer", "first_dot", "")
	fs.Int("workers", 0, "")
	fs.Bool("json", false, "")

	if err := fs.Parse([]string{"--workers", "4"}); err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	ft := NewFlagTrackerFromFlagSet(fs)
	if !ft.WasSet("workers") {
		t.Error("Expected workers to be tracked")
	}
	if ft.WasSet("normalizer") || ft.WasSet("json") {
		t.Error("Flags left at their default must not be tracked")
	}

	empty := NewFlagTrackerFromFlagSet(nil)
	if empty.Count() != 0 {
		t.Errorf("Expected empty tracker, got %d", empty.Count())
	}
}

func TestFlagTracker_Merge(t *testing.T) {
	ft := NewFlagTrackerWithFlags(map[string]bool{
		"normalizer":       true,
		"workers":          true,
		"existence-filter": true,
		"types":            true,
		"seeds":            true,
	})

	if got := ft.MergeString("last_dot", "first_dot", "normalizer"); got != "first_dot" {
		t.Errorf("MergeString = %s", got)
	}
	if got := ft.MergeString("last_dot", "first_dot", "header-mode"); got != "last_dot" {
		t.Errorf("MergeString without flag = %s", got)
	}
	if got := ft.MergeInt(8, 2, "workers"); got != 2 {
		t.Errorf("MergeInt = %d", got)
	}
	if got := ft.MergeBool(true, false, "existence-filter"); got {
		t.Error("MergeBool should take the explicit false")
	}
	if got := ft.MergeStringSlice([]string{"T1"}, nil, "types"); len(got) != 1 || got[0] != "T1" {
		t.Errorf("MergeStringSlice with empty override = %v", got)
	}
	if got := ft.MergeIntSlice([]int{0, 1}, []int{5}, "seeds"); len(got) != 1 || got[0] != 5 {
		t.Errorf("MergeIntSlice = %v", got)
	}
}

func TestFlagTracker_Concurrent(t *testing.T) {
	ft := NewFlagTracker()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			ft.Set("flag")
		}()
		go func() {
			defer wg.Done()
			_ = ft.WasSet("flag")
			_ = ft.GetAll()
		}()
	}
	wg.Wait()

	if !ft.WasSet("flag") {
		t.Error("Expected flag to be set")
	}
}
