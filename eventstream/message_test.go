package eventstream

import (
	"testing"
)

func TestMessageEncodeDecodeRoundTrip(t *testing.T) {
	headers := []Header{
		{Name: ":message-type", Value: StringValue("event")},
		{Name: ":event-type", Value: StringValue("AudioEvent")},
		{Name: ":content-type", Value: StringValue("application/octet-stream")},
	}
	payload := []byte("some audio bytes")

	encoded, err := EncodeMessage(headers, payload)
	if err != nil {
		t.Fatalf("EncodeMessage: %v", err)
	}

	msg, err := DecodeMessage(encoded)
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	if string(msg.Payload) != string(payload) {
		t.Errorf("payload = %q, want %q", msg.Payload, payload)
	}
	if len(msg.Headers) != len(headers) {
		t.Fatalf("got %d headers, want %d", len(msg.Headers), len(headers))
	}
	for _, h := range headers {
		got, ok := msg.HeadersByName[h.Name]
		if !ok {
			t.Fatalf("missing header %q after decode", h.Name)
		}
		if got.Str != h.Value.Str {
			t.Errorf("header %q = %q, want %q", h.Name, got.Str, h.Value.Str)
		}
	}
}

func TestMessageEncodeDecodeEmptyPayload(t *testing.T) {
	encoded, err := EncodeMessage(nil, nil)
	if err != nil {
		t.Fatalf("EncodeMessage: %v", err)
	}
	msg, err := DecodeMessage(encoded)
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	if len(msg.Payload) != 0 {
		t.Errorf("payload = %v, want empty", msg.Payload)
	}
	if len(msg.Headers) != 0 {
		t.Errorf("headers = %v, want empty", msg.Headers)
	}
}

// TestMessageSingleBytePerturbationFailsCRC covers testable property
// 6: any single-byte perturbation of an encoded frame fails the CRC
// check.
func TestMessageSingleBytePerturbationFailsCRC(t *testing.T) {
	headers := []Header{{Name: ":event-type", Value: StringValue("AudioEvent")}}
	encoded, err := EncodeMessage(headers, []byte("payload bytes"))
	if err != nil {
		t.Fatalf("EncodeMessage: %v", err)
	}

	for i := range encoded {
		corrupt := make([]byte, len(encoded))
		copy(corrupt, encoded)
		corrupt[i] ^= 0xFF
		if _, err := DecodeMessage(corrupt); err == nil {
			t.Errorf("byte %d: perturbed frame decoded without error", i)
		}
	}
}

func TestDecodeMessageRejectsLengthMismatch(t *testing.T) {
	encoded, err := EncodeMessage(nil, []byte("x"))
	if err != nil {
		t.Fatalf("EncodeMessage: %v", err)
	}
	truncated := encoded[:len(encoded)-1]
	if _, err := DecodeMessage(truncated); err == nil {
		t.Fatal("expected an error for a truncated frame")
	}
}
