package codec

import "testing"

func TestStringRoundTrip(t *testing.T) {
	w := NewWriter(StringSpace(16))
	w.PutString("hello", 16)
	if w.Err() != nil {
		t.Fatalf("write: %v", w.Err())
	}
	if len(w.Bytes()) != StringSpace(5)+0 && len(w.Bytes()) != 4+5 {
		t.Fatalf("unexpected encoded length %d", len(w.Bytes()))
	}

	r := NewReader(w.Bytes())
	got := r.String(16)
	if r.Err() != nil {
		t.Fatalf("read: %v", r.Err())
	}
	if got != "hello" {
		t.Fatalf("got %q want hello", got)
	}
}

func TestStringExceedsBound(t *testing.T) {
	w := NewWriter(8)
	w.PutString("too long for bound", 4)
	if w.Err() == nil {
		t.Fatal("expected error for oversized string")
	}
}

func TestOptionalStringRoundTrip(t *testing.T) {
	w := NewWriter(OptionSpace(StringSpace(8)))
	s := "abc"
	w.PutOptionalString(&s, 8)
	if w.Err() != nil {
		t.Fatalf("write: %v", w.Err())
	}

	r := NewReader(w.Bytes())
	got := r.OptionalString(8)
	if r.Err() != nil {
		t.Fatalf("read: %v", r.Err())
	}
	if got == nil || *got != "abc" {
		t.Fatalf("got %v want abc", got)
	}

	w2 := NewWriter(OptionSpace(StringSpace(8)))
	w2.PutOptionalString(nil, 8)
	r2 := NewReader(w2.Bytes())
	if got2 := r2.OptionalString(8); got2 != nil {
		t.Fatalf("got %v want nil", got2)
	}
}

func TestScalarRoundTrip(t *testing.T) {
	w := NewWriter(32)
	w.PutBool(true)
	w.PutU8(7)
	w.PutU32(1234)
	w.PutU64(9876543210)
	w.PutI64(-42)
	var optSet int64 = 99
	w.PutOptionalI64(&optSet)
	w.PutOptionalI64(nil)
	if w.Err() != nil {
		t.Fatalf("write: %v", w.Err())
	}

	r := NewReader(w.Bytes())
	if b := r.Bool(); !b {
		t.Fatal("bool mismatch")
	}
	if v := r.U8(); v != 7 {
		t.Fatalf("u8 mismatch: %d", v)
	}
	if v := r.U32(); v != 1234 {
		t.Fatalf("u32 mismatch: %d", v)
	}
	if v := r.U64(); v != 9876543210 {
		t.Fatalf("u64 mismatch: %d", v)
	}
	if v := r.I64(); v != -42 {
		t.Fatalf("i64 mismatch: %d", v)
	}
	if v := r.OptionalI64(); v == nil || *v != 99 {
		t.Fatalf("optional i64 mismatch: %v", v)
	}
	if v := r.OptionalI64(); v != nil {
		t.Fatalf("expected nil optional, got %v", v)
	}
	if r.Err() != nil {
		t.Fatalf("read: %v", r.Err())
	}
}

func TestBufferUnderrun(t *testing.T) {
	r := NewReader([]byte{1, 2})
	_ = r.U64()
	if r.Err() == nil {
		t.Fatal("expected underrun error")
	}
}

func TestVectorSpaceArithmetic(t *testing.T) {
	elem := StringSpace(32)
	if got := VectorSpace(10, elem); got != 4+10*elem {
		t.Fatalf("got %d want %d", got, 4+10*elem)
	}
}

func TestBytesRoundTrip(t *testing.T) {
	w := NewWriter(32)
	hash := make([]byte, 32)
	for i := range hash {
		hash[i] = byte(i)
	}
	w.PutBytes(hash)

	r := NewReader(w.Bytes())
	got := r.Bytes(32)
	if r.Err() != nil {
		t.Fatalf("read: %v", r.Err())
	}
	for i := range hash {
		if got[i] != hash[i] {
			t.Fatalf("byte %d mismatch", i)
		}
	}
}
