package rtf

import "testing"

func TestGroupStack_DefaultCompression(t *testing.T) {
	s := newGroupStack()
	var f frame

	for i := 0; i < 1000; i++ {
		s.push(&f)
	}
	if len(s.frames) != 0 {
		t.Fatalf("default frames were stored: %d", len(s.frames))
	}
	if s.elements != 1000 {
		t.Fatalf("expected 1000 logical elements, got %d", s.elements)
	}
	if f.defaultElements != 1000 {
		t.Fatalf("expected 1000 compressed defaults, got %d", f.defaultElements)
	}

	for i := 0; i < 1000; i++ {
		if s.pop(&f) {
			t.Fatalf("unexpected underflow at pop %d", i)
		}
	}
	if s.elements != 0 {
		t.Fatalf("expected balance, got %d elements", s.elements)
	}
	if s.pop(&f) != true {
		t.Fatal("expected underflow on empty stack")
	}
}

func TestGroupStack_NonDefaultStored(t *testing.T) {
	s := newGroupStack()
	var f frame
	f.encountered = 1 << actionObject

	s.push(&f)
	if len(s.frames) != 1 {
		t.Fatalf("marked frame not stored, frames=%d", len(s.frames))
	}
	if f.encountered != 1<<actionObject {
		t.Fatal("encountered bits not inherited by fresh working frame")
	}
	if f.defaultElements != 0 {
		t.Fatalf("fresh frame carries %d defaults", f.defaultElements)
	}

	f.encountered = 0
	if s.pop(&f) {
		t.Fatal("unexpected underflow")
	}
	if f.encountered != 1<<actionObject {
		t.Fatal("stored frame's encountered bits lost on pop")
	}
}

func TestGroupStack_DefaultPopPreservesEncountered(t *testing.T) {
	s := newGroupStack()
	var f frame

	s.push(&f)
	f.encountered = 1 << actionObject
	if s.pop(&f) {
		t.Fatal("unexpected underflow")
	}
	if f.encountered != 1<<actionObject {
		t.Fatal("encountered bits must survive a compressed-default pop")
	}
}

func TestGroupStack_MixedDepths(t *testing.T) {
	s := newGroupStack()
	var f frame

	s.push(&f) // default
	f.encountered = 1 << actionObject
	s.push(&f) // stored
	s.push(&f) // default under the marker (bits inherited, frame non-default)

	// The two frames carrying encountered bits are stored; only the very
	// first push was compressed.
	if len(s.frames) != 2 {
		t.Fatalf("expected 2 stored frames, got %d", len(s.frames))
	}
	if s.elements != 3 {
		t.Fatalf("expected 3 logical elements, got %d", s.elements)
	}

	for i := 0; i < 3; i++ {
		if s.pop(&f) {
			t.Fatalf("unexpected underflow at pop %d", i)
		}
	}
	if s.elements != 0 || len(s.frames) != 0 {
		t.Fatalf("stack not drained: elements=%d frames=%d", s.elements, len(s.frames))
	}
}

func TestFrame_IsDefault(t *testing.T) {
	var f frame
	if !f.isDefault() {
		t.Fatal("zero frame must be default")
	}
	f.encountered = 1
	if f.isDefault() {
		t.Fatal("frame with encountered bits is not default")
	}
	f.encountered = 0
	f.handler = &objdataHandler{}
	if f.isDefault() {
		t.Fatal("frame with a handler is not default")
	}
	f.handler = nil
	f.defaultElements = 5
	if !f.isDefault() {
		t.Fatal("compressed defaults alone do not make a frame non-default")
	}
}
