package engine_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/warp/disbursement-engine/engine"
	"github.com/warp/disbursement-engine/engine/store"
)

func day(y int, m time.Month, d int) engine.Day {
	return engine.NewDay(y, m, d)
}

func TestReferenceGenerator_SequentialWithinDay(t *testing.T) {
	ctx := context.Background()
	gen := engine.NewReferenceGenerator(store.NewMemory())
	jun15 := day(2025, time.June, 15)

	want := []string{"DISB-20250615-00001", "DISB-20250615-00002", "DISB-20250615-00003"}
	for i, expected := range want {
		ref, err := gen.Next(ctx, jun15)
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		if ref != expected {
			t.Errorf("ref %d: expected %s, got %s", i, expected, ref)
		}
	}
}

func TestReferenceGenerator_DaysAreIndependent(t *testing.T) {
	// GIVEN: References already issued on June 15
	// WHEN: Issuing on June 16
	// THEN: The new day starts over at 00001; June 15 continues where it
	//       left off

	ctx := context.Background()
	gen := engine.NewReferenceGenerator(store.NewMemory())
	jun15 := day(2025, time.June, 15)
	jun16 := day(2025, time.June, 16)

	if _, err := gen.Next(ctx, jun15); err != nil {
		t.Fatalf("next: %v", err)
	}
	if _, err := gen.Next(ctx, jun15); err != nil {
		t.Fatalf("next: %v", err)
	}

	ref, err := gen.Next(ctx, jun16)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if ref != "DISB-20250616-00001" {
		t.Errorf("expected DISB-20250616-00001, got %s", ref)
	}

	ref, err = gen.Next(ctx, jun15)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if ref != "DISB-20250615-00003" {
		t.Errorf("expected DISB-20250615-00003, got %s", ref)
	}
}

func TestReferenceGenerator_ConcurrentIssuanceNeverDuplicates(t *testing.T) {
	// GIVEN: 50 goroutines issuing for the same day
	// WHEN: All complete
	// THEN: 50 distinct references

	ctx := context.Background()
	gen := engine.NewReferenceGenerator(store.NewMemory())
	jun15 := day(2025, time.June, 15)

	const n = 50
	refs := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ref, err := gen.Next(ctx, jun15)
			if err != nil {
				t.Errorf("next: %v", err)
				return
			}
			refs <- ref
		}()
	}
	wg.Wait()
	close(refs)

	seen := make(map[string]bool)
	for ref := range refs {
		if seen[ref] {
			t.Errorf("duplicate reference issued: %s", ref)
		}
		seen[ref] = true
	}
	if len(seen) != n {
		t.Errorf("expected %d distinct references, got %d", n, len(seen))
	}
}

func TestReferenceGenerator_PeekDoesNotReserve(t *testing.T) {
	ctx := context.Background()
	gen := engine.NewReferenceGenerator(store.NewMemory())
	jun15 := day(2025, time.June, 15)

	peeked, err := gen.Peek(ctx, jun15)
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if peeked != "DISB-20250615-00001" {
		t.Errorf("expected preview 00001, got %s", peeked)
	}

	// Peeking again returns the same value; issuing takes it.
	again, err := gen.Peek(ctx, jun15)
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if again != peeked {
		t.Errorf("peek reserved a value: %s vs %s", again, peeked)
	}

	issued, err := gen.Next(ctx, jun15)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if issued != peeked {
		t.Errorf("issued %s, preview was %s", issued, peeked)
	}
}

func TestReferenceGenerator_CustomPrefix(t *testing.T) {
	ctx := context.Background()
	gen := engine.NewReferenceGenerator(store.NewMemory())
	gen.Prefix = "PAY"

	ref, err := gen.Next(ctx, day(2025, time.January, 2))
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if ref != "PAY-20250102-00001" {
		t.Errorf("expected PAY-20250102-00001, got %s", ref)
	}
}
