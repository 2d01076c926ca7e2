package bytespool

import (
	"errors"
	"strings"
	"testing"
)

func TestWith(t *testing.T) {
	t.Parallel()

	var got string
	if err := With(strings.NewReader("jpeg bytes"), func(b []byte) error {
		got = string(b)
		return nil
	}); err != nil {
		t.Fatalf("with: %v", err)
	}
	if got != "jpeg bytes" {
		t.Errorf("got %q", got)
	}

	boom := errors.New("boom")
	if err := With(strings.NewReader("x"), func([]byte) error { return boom }); !errors.Is(err, boom) {
		t.Errorf("expected fn error, got %v", err)
	}
}
