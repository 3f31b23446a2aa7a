package main

import "testing"

func TestWrapKey_EmptyKeyIsIdentity(t *testing.T) {
	if got := wrapKey("plain text", ""); got != "plain text" {
		t.Fatalf("wrapKey with empty key = %q", got)
	}
	if got := unwrapKey("plain text", ""); got != "plain text" {
		t.Fatalf("unwrapKey with empty key = %q", got)
	}
}

func TestWrapKey_KnownFences(t *testing.T) {
	// SHA-256("abc") = ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad
	got := wrapKey("Hi", "abc")
	want := "ba7816bf8f01cfea" + "Hi" + "b410ff61f20015ad"
	if got != want {
		t.Fatalf("wrapKey = %q, want %q", got, want)
	}
	if len(got) != len("Hi")+32 {
		t.Fatalf("wrapping added %d bytes, want 32", len(got)-len("Hi"))
	}
}

func TestUnwrapKey_RoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name    string
		message string
		key     string
	}{
		{"ascii", "meet at noon", "hunter2"},
		{"unicode", "Привет, мир! 你好", "ключ"},
		{"empty_message", "", "k"},
		{"long_key", "x", "a key that is much longer than the digest itself, by far"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := unwrapKey(wrapKey(tc.message, tc.key), tc.key); got != tc.message {
				t.Fatalf("round trip = %q, want %q", got, tc.message)
			}
		})
	}
}

func TestUnwrapKey_Mismatch(t *testing.T) {
	wrapped := wrapKey("secret", "right")
	if got := unwrapKey(wrapped, "wrong"); got != InvalidKey {
		t.Fatalf("unwrapKey with wrong key = %q, want sentinel", got)
	}
}

func TestUnwrapKey_Tampered(t *testing.T) {
	wrapped := wrapKey("secret", "k")
	broken := "x" + wrapped[1:]
	if got := unwrapKey(broken, "k"); got != InvalidKey {
		t.Fatalf("unwrapKey of tampered input = %q, want sentinel", got)
	}
}

func TestUnwrapKey_TooShort(t *testing.T) {
	if got := unwrapKey("short", "k"); got != InvalidKey {
		t.Fatalf("unwrapKey of short input = %q, want sentinel", got)
	}
}
