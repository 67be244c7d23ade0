package auth

import (
	"encoding/json"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestCredential_SetVerifyRoundTrip(t *testing.T) {
	var c Credential
	if err := c.Set("s3cret", bcrypt.DefaultCost); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !c.Verify("s3cret") {
		t.Fatalf("Verify(correct) = false, want true")
	}
	if c.Verify("not-the-secret") {
		t.Fatalf("Verify(wrong) = true, want false")
	}
	if c.Verify("") {
		t.Fatalf("Verify(empty) = true, want false")
	}
}

func TestCredential_SetReplacesPreviousHash(t *testing.T) {
	c, err := NewCredential("first", 0)
	if err != nil {
		t.Fatalf("NewCredential: %v", err)
	}
	if err := c.Set("second", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if c.Verify("first") {
		t.Fatalf("old plaintext still verifies after Set")
	}
	if !c.Verify("second") {
		t.Fatalf("new plaintext does not verify")
	}
}

func TestCredential_CostFloor(t *testing.T) {
	// A cost below the bcrypt default must be raised, not honored.
	c, err := NewCredential("pw", 1)
	if err != nil {
		t.Fatalf("NewCredential: %v", err)
	}
	v, err := c.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	cost, err := bcrypt.Cost([]byte(v.(string)))
	if err != nil {
		t.Fatalf("Cost: %v", err)
	}
	if cost < bcrypt.DefaultCost {
		t.Fatalf("cost = %d, want >= %d", cost, bcrypt.DefaultCost)
	}
}

func TestCredential_ReadAccessorsPanic(t *testing.T) {
	c, _ := NewCredential("pw", 0)

	mustPanic := func(name string, f func()) {
		t.Helper()
		defer func() {
			if recover() == nil {
				t.Fatalf("%s did not panic", name)
			}
		}()
		f()
	}
	mustPanic("String", func() { _ = c.String() })
	mustPanic("GoString", func() { _ = c.GoString() })
}

func TestCredential_JSONNeverLeaksHash(t *testing.T) {
	c, _ := NewCredential("pw", 0)
	b, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(b) != "null" {
		t.Fatalf("Marshal = %s, want null", b)
	}
}

func TestCredential_ScanValueRoundTrip(t *testing.T) {
	c, _ := NewCredential("pw", 0)
	v, err := c.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}

	var loaded Credential
	if err := loaded.Scan(v); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !loaded.Verify("pw") {
		t.Fatalf("loaded credential does not verify original plaintext")
	}

	var empty Credential
	if err := empty.Scan(nil); err != nil {
		t.Fatalf("Scan(nil): %v", err)
	}
	if !empty.Empty() {
		t.Fatalf("credential not empty after Scan(nil)")
	}
	if v, _ := empty.Value(); v != nil {
		t.Fatalf("empty credential Value = %v, want nil", v)
	}

	if err := empty.Scan(42); err == nil {
		t.Fatalf("Scan(int) succeeded, want error")
	}
}
