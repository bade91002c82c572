package common

import (
	"fmt"
	"reflect"
	"testing"
)

func TestRollingWindow(t *testing.T) {
	size := 10
	testSize := 3 * size
	window := NewRollingWindow("test", size)

	items := []string{}
	for i := 0; i < testSize; i++ {
		item := fmt.Sprintf("item%d", i)
		seq := window.Add(item)
		if seq != i {
			t.Fatalf("Add should return sequence %d, not %d", i, seq)
		}
		items = append(items, item)
	}

	if window.LastIndex() != testSize-1 {
		t.Fatalf("LastIndex should be %d, not %d", testSize-1, window.LastIndex())
	}

	cached := window.All()

	start := (testSize / (2 * size)) * size
	count := testSize - start

	if len(cached) != count {
		t.Fatalf("window should retain %d items, not %d", count, len(cached))
	}

	for i := 0; i < count; i++ {
		if cached[i] != items[start+i] {
			t.Fatalf("cached[%d] should be %s, not %s", i, items[start+i], cached[i])
		}
	}

	_, err := window.GetItem(9)
	if err == nil || !IsStore(err, TooLate) {
		t.Fatalf("GetItem(9) should return TooLate")
	}

	indexes := []int{start, start + 7, testSize - 1}
	for _, i := range indexes {
		item, err := window.GetItem(i)
		if err != nil {
			t.Fatalf("GetItem(%d) err: %v", i, err)
		}
		if !reflect.DeepEqual(item, items[i]) {
			t.Fatalf("GetItem(%d) should be %s, not %v", i, items[i], item)
		}
	}

	_, err = window.GetItem(testSize)
	if err == nil || !IsStore(err, KeyNotFound) {
		t.Fatalf("GetItem(%d) should return KeyNotFound", testSize)
	}

	last, err := window.Last()
	if err != nil {
		t.Fatalf("Last err: %v", err)
	}
	if last != items[testSize-1] {
		t.Fatalf("Last should be %s, not %v", items[testSize-1], last)
	}
}

func TestRollingWindowEmpty(t *testing.T) {
	window := NewRollingWindow("empty", 5)

	if window.LastIndex() != -1 {
		t.Fatalf("LastIndex of empty window should be -1, not %d", window.LastIndex())
	}

	_, err := window.Last()
	if err == nil || !IsStore(err, Empty) {
		t.Fatalf("Last on empty window should return Empty")
	}

	if items := window.All(); len(items) != 0 {
		t.Fatalf("All on empty window should be empty, got %d items", len(items))
	}
}
