package errors

import (
	stderrors "errors"
	"testing"
)

func TestNewError(t *testing.T) {
	err := New(ErrCodeInvalidShape, "head has %d rows", 3)
	if err.Code != ErrCodeInvalidShape {
		t.Errorf("Code = %s, want %s", err.Code, ErrCodeInvalidShape)
	}
	if err.Message != "head has 3 rows" {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Error() != "INVALID_SHAPE: head has 3 rows" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(ErrCodeStore, cause, "persist run %s", "abc")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should match cause via errors.Is")
	}
	if err.Error() != "STORE_ERROR: persist run abc: disk full" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestIsMatchesCode(t *testing.T) {
	err := New(ErrCodeNoHubVertex, "no hub vertex")
	if !Is(err, ErrCodeNoHubVertex) {
		t.Error("Is should match the code")
	}
	if Is(err, ErrCodeInvalidShape) {
		t.Error("Is should not match a different code")
	}
	if Is(stderrors.New("plain"), ErrCodeNoHubVertex) {
		t.Error("Is should not match plain errors")
	}
}

func TestGetCode(t *testing.T) {
	if GetCode(New(ErrCodeCache, "boom")) != ErrCodeCache {
		t.Error("GetCode should extract code")
	}
	if GetCode(stderrors.New("plain")) != "" {
		t.Error("GetCode should return empty for plain errors")
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeInvalidConfig, "epochs must be non-negative")
	if UserMessage(err) != "epochs must be non-negative" {
		t.Errorf("UserMessage = %q", UserMessage(err))
	}
	plain := stderrors.New("plain error")
	if UserMessage(plain) != "plain error" {
		t.Errorf("UserMessage for plain = %q", UserMessage(plain))
	}
}
